package content

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/playmedia/internal/adapters/cache"
	"github.com/okian/playmedia/internal/domain/model"
	"github.com/okian/playmedia/pkg/logger"
)

func init() {
	_ = logger.Init(logger.WithWriter(io.Discard))
}

const athletesBody = `{"data":{"data":{"results":[
  {"id":"a1","athleteName":"Ana","nationality":"Spain ","sport":{"results":[{"id":"s1"}]}},
  {"id":"a2","athleteName":"Bo","nationality":"Kenya","sport":{"results":[]}}
]}}}`

const sportsBody = `{"data":{"data":{"results":[{"id":"s1","title":"Tennis"}]}}}`

const mediaBody = `{"data":{"data":{"results":[
  {"id":"m1","name":"poster","description":"d","fileUrl":"https://x/p.png","fileType":"image/png","fileWidth":10,"fileHeight":20},
  {"id":"m2","name":"note"}
]}}}`

func gqlServer(t *testing.T, status int, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if r.Header.Get(tokenHeader) != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		q := string(body)
		w.WriteHeader(status)
		switch {
		case strings.Contains(q, "allAthlete"):
			_, _ = w.Write([]byte(athletesBody))
		case strings.Contains(q, "allSport"):
			_, _ = w.Write([]byte(sportsBody))
		case strings.Contains(q, "allMedia"):
			_, _ = w.Write([]byte(mediaBody))
		default:
			_, _ = w.Write([]byte(`{"errors":[{"message":"unknown field"}]}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGraphQLClient(t *testing.T) {
	Convey("Given a content service", t, func() {
		ctx := context.Background()
		srv := gqlServer(t, http.StatusOK, nil)
		c := NewGraphQLClient(srv.URL, WithToken("secret"), WithTimeout(time.Second))

		Convey("Athletes maps documents to entities", func() {
			got, err := c.Athletes(ctx)
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 2)
			So(got[0], ShouldResemble, model.Entity{
				ID: "a1", Kind: model.KindAthlete, Name: "Ana", Nationality: "Spain", SportID: "s1",
			})
			So(got[1].SportID, ShouldBeEmpty)
		})

		Convey("Sports and Media map their documents", func() {
			sports, err := c.Sports(ctx)
			So(err, ShouldBeNil)
			So(sports, ShouldResemble, model.Collection{{ID: "s1", Kind: model.KindSport, Name: "Tennis"}})

			media, err := Fetch(ctx, c, model.KindMedia)
			So(err, ShouldBeNil)
			So(media, ShouldHaveLength, 2)
			So(media[0].File, ShouldResemble, &model.File{URL: "https://x/p.png", Type: "image/png", Width: 10, Height: 20})
			So(media[1].File, ShouldBeNil)
		})

		Convey("Fetch rejects an unknown kind", func() {
			_, err := Fetch(ctx, c, model.Kind("venue"))
			So(errors.Is(err, model.ErrUnknownKind), ShouldBeTrue)
		})

		Convey("A missing token is an upstream error", func() {
			anon := NewGraphQLClient(srv.URL)
			_, err := anon.Sports(ctx)
			So(errors.Is(err, ErrUpstream), ShouldBeTrue)
		})
	})

	Convey("Given a service answering with GraphQL errors", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"boom"},{"message":"again"}]}`))
		}))
		defer srv.Close()

		_, err := NewGraphQLClient(srv.URL).Athletes(context.Background())
		So(errors.Is(err, ErrGraphQL), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "boom; again")
	})

	Convey("Given a service returning garbage", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		_, err := NewGraphQLClient(srv.URL).Media(context.Background())
		So(errors.Is(err, ErrDecode), ShouldBeTrue)
	})

	Convey("Given a service answering without data", t, func() {
		for _, body := range []string{`{"data":null}`, `{}`} {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			_, err := NewGraphQLClient(srv.URL).Sports(context.Background())
			srv.Close()
			So(errors.Is(err, ErrDecode), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "empty data")
		}
	})

	Convey("Given a failing service", t, func() {
		srv := gqlServer(t, http.StatusBadGateway, nil)
		_, err := NewGraphQLClient(srv.URL, WithToken("secret")).Athletes(context.Background())
		So(errors.Is(err, ErrUpstream), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "502")
	})
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, cache.ErrBackend
}
func (failingCache) Set(context.Context, string, []byte, time.Duration) error { return cache.ErrBackend }
func (failingCache) Delete(context.Context, string) error                     { return cache.ErrBackend }
func (failingCache) Close() error                                             { return nil }

func TestCached(t *testing.T) {
	Convey("Given a cached source", t, func() {
		ctx := context.Background()
		var hits int32
		srv := gqlServer(t, http.StatusOK, &hits)
		origin := NewGraphQLClient(srv.URL, WithToken("secret"))
		mem := cache.NewMemory()
		src := NewCached(origin, mem, time.Minute, nil)

		Convey("the second read is served from the cache", func() {
			first, err := src.Athletes(ctx)
			So(err, ShouldBeNil)
			second, err := src.Athletes(ctx)
			So(err, ShouldBeNil)
			So(second, ShouldResemble, first)
			So(atomic.LoadInt32(&hits), ShouldEqual, 1)
		})

		Convey("invalidation forces a refetch", func() {
			_, _ = src.Sports(ctx)
			So(src.Invalidate(ctx, model.KindSport), ShouldBeNil)
			_, _ = src.Sports(ctx)
			So(atomic.LoadInt32(&hits), ShouldEqual, 2)
		})

		Convey("a corrupt entry is refetched and overwritten", func() {
			So(mem.Set(ctx, keyPrefix+"media", []byte("{"), 0), ShouldBeNil)
			got, err := src.Media(ctx)
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 2)
			So(atomic.LoadInt32(&hits), ShouldEqual, 1)
		})
	})

	Convey("Given a broken cache", t, func() {
		var hits int32
		srv := gqlServer(t, http.StatusOK, &hits)
		src := NewCached(NewGraphQLClient(srv.URL, WithToken("secret")), failingCache{}, time.Minute, nil)

		got, err := src.Sports(context.Background())
		So(err, ShouldBeNil)
		So(got, ShouldHaveLength, 1)
		So(atomic.LoadInt32(&hits), ShouldEqual, 1)
	})

	Convey("Given an origin failure", t, func() {
		srv := gqlServer(t, http.StatusInternalServerError, nil)
		mem := cache.NewMemory()
		src := NewCached(NewGraphQLClient(srv.URL, WithToken("secret")), mem, time.Minute, nil)

		_, err := src.Athletes(context.Background())
		So(errors.Is(err, ErrUpstream), ShouldBeTrue)
		So(mem.Len(), ShouldEqual, 0)
	})
}

func TestStatic(t *testing.T) {
	Convey("Given the fixture file", t, func() {
		s, err := LoadFixture("testdata/content.json")
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("Then every list is loaded with its kind", func() {
			athletes, _ := s.Athletes(ctx)
			sports, _ := s.Sports(ctx)
			media, _ := Fetch(ctx, s, model.KindMedia)
			So(athletes, ShouldHaveLength, 6)
			So(athletes[0].Kind, ShouldEqual, model.KindAthlete)
			So(sports, ShouldHaveLength, 3)
			So(sports[2].Kind, ShouldEqual, model.KindSport)
			So(media, ShouldHaveLength, 4)
			So(media[0].File.Type, ShouldEqual, "image/jpeg")
			So(media[3].File, ShouldBeNil)
		})

		Convey("Then callers get their own copies", func() {
			a, _ := s.Athletes(ctx)
			a[0].Name = "changed"
			b, _ := s.Athletes(ctx)
			So(b[0].Name, ShouldEqual, "Lena Moreau")
		})
	})

	Convey("Given a missing fixture", t, func() {
		_, err := LoadFixture("testdata/nope.json")
		So(err, ShouldNotBeNil)
	})

	Convey("Given a fixture with duplicate ids", t, func() {
		path := t.TempDir() + "/dup.json"
		So(os.WriteFile(path, []byte(`{"athletes":[{"id":"x"},{"id":"x"}]}`), 0o600), ShouldBeNil)
		_, err := LoadFixture(path)
		So(errors.Is(err, model.ErrDuplicateID), ShouldBeTrue)
	})
}
