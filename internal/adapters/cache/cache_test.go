package cache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/playmedia/internal/adapters/cache"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemory(t *testing.T) {
	Convey("Given an in-memory cache with a controllable clock", t, func() {
		now := time.Unix(1_700_000_000, 0)
		c := cache.NewMemory(cache.WithClock(func() time.Time { return now }))
		ctx := context.Background()

		Convey("When a value is stored", func() {
			So(c.Set(ctx, "athletes", []byte("[1,2]"), time.Minute), ShouldBeNil)
			got, ok, err := c.Get(ctx, "athletes")

			Convey("Then it should be returned", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(string(got), ShouldEqual, "[1,2]")
			})

			Convey("And after the ttl passes it should be gone", func() {
				now = now.Add(time.Minute)
				_, ok, err := c.Get(ctx, "athletes")
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
				So(c.Len(), ShouldEqual, 0)
			})

			Convey("And after deletion it should be gone", func() {
				So(c.Delete(ctx, "athletes"), ShouldBeNil)
				_, ok, _ := c.Get(ctx, "athletes")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a value is stored without ttl", func() {
			So(c.Set(ctx, "sports", []byte("x"), 0), ShouldBeNil)
			now = now.Add(24 * time.Hour)

			Convey("Then it should never expire", func() {
				_, ok, _ := c.Get(ctx, "sports")
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When the caller mutates a returned value", func() {
			So(c.Set(ctx, "k", []byte("abc"), 0), ShouldBeNil)
			got, _, _ := c.Get(ctx, "k")
			got[0] = 'z'

			Convey("Then the cached value should be unaffected", func() {
				again, _, _ := c.Get(ctx, "k")
				So(string(again), ShouldEqual, "abc")
			})
		})

		Convey("When the cache is closed", func() {
			So(c.Close(), ShouldBeNil)

			Convey("Then operations should fail with ErrClosed", func() {
				_, _, err := c.Get(ctx, "k")
				So(errors.Is(err, cache.ErrClosed), ShouldBeTrue)
				So(errors.Is(c.Set(ctx, "k", nil, 0), cache.ErrClosed), ShouldBeTrue)
				So(errors.Is(c.Delete(ctx, "k"), cache.ErrClosed), ShouldBeTrue)
			})
		})
	})
}

func TestMemoryConcurrency(t *testing.T) {
	Convey("Given concurrent readers and writers", t, func() {
		c := cache.NewMemory()
		ctx := context.Background()
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					_ = c.Set(ctx, "k", []byte("v"), time.Second)
					_, _, _ = c.Get(ctx, "k")
				}
			}()
		}
		wg.Wait()

		So(c.Len(), ShouldEqual, 1)
	})
}

func TestRedisUnreachable(t *testing.T) {
	Convey("Given a redis address nobody listens on", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_, err := cache.NewRedis(ctx, cache.RedisConfig{Addr: "127.0.0.1:1"})

		Convey("Then connecting should fail with ErrBackend", func() {
			So(errors.Is(err, cache.ErrBackend), ShouldBeTrue)
		})
	})

	Convey("Given a wrapped client pointing nowhere", t, func() {
		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
		r := cache.NewRedisFromClient(client, "test:")
		defer func() { _ = r.Close() }()

		Convey("Then reads should surface backend errors", func() {
			_, ok, err := r.Get(context.Background(), "k")
			So(ok, ShouldBeFalse)
			So(errors.Is(err, cache.ErrBackend), ShouldBeTrue)
		})
	})
}
