package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/okian/playmedia/internal/domain/facet"
	"github.com/okian/playmedia/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

const fixture = "../../internal/adapters/content/testdata/content.json"

func execute(args ...string) (string, error) {
	out, _, err := executeWithStderr(args...)
	return out, err
}

func executeWithStderr(args ...string) (string, string, error) {
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestList(t *testing.T) {
	Convey("Given the fixture", t, func() {
		Convey("list prints every athlete", func() {
			out, err := execute("list", "--fixture", fixture)
			So(err, ShouldBeNil)
			var items []types.Candidate
			So(json.Unmarshal([]byte(out), &items), ShouldBeNil)
			So(len(items), ShouldEqual, 6)
		})

		Convey("facets and exclusions narrow the list", func() {
			out, err := execute("list", "--fixture", fixture,
				"--facet", "nationality=France", "--exclude", "ath-1")
			So(err, ShouldBeNil)
			var items []types.Candidate
			So(json.Unmarshal([]byte(out), &items), ShouldBeNil)
			So(len(items), ShouldEqual, 1)
			So(items[0].ID, ShouldEqual, "ath-5")
		})

		Convey("paging limits the output", func() {
			out, err := execute("list", "--fixture", fixture, "--offset", "4", "--limit", "5")
			So(err, ShouldBeNil)
			var items []types.Candidate
			So(json.Unmarshal([]byte(out), &items), ShouldBeNil)
			So(len(items), ShouldEqual, 2)
		})

		Convey("an unknown kind fails", func() {
			_, err := execute("list", "--fixture", fixture, "--kind", "venue")
			So(err, ShouldNotBeNil)
		})

		Convey("the fixture flag is required", func() {
			_, err := execute("list")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestFacets(t *testing.T) {
	Convey("Given the fixture", t, func() {
		out, err := execute("facets", "--fixture", fixture)
		So(err, ShouldBeNil)
		var ds []facet.Descriptor
		So(json.Unmarshal([]byte(out), &ds), ShouldBeNil)
		So(len(ds), ShouldBeGreaterThan, 0)

		ids := make([]string, len(ds))
		for i, d := range ds {
			ids[i] = d.ID
		}
		So(ids, ShouldContain, "nationality")
	})
}

func TestPick(t *testing.T) {
	Convey("Given the fixture", t, func() {
		Convey("pick commits in candidate order", func() {
			out, err := execute("pick", "--fixture", fixture, "--toggle", "ath-3,ath-1")
			So(err, ShouldBeNil)
			var res types.CommitResult
			So(json.Unmarshal([]byte(out), &res), ShouldBeNil)
			So(res.Committed.IDs(), ShouldResemble, []string{"ath-1", "ath-3"})
		})

		Convey("pick appends after excluded entries", func() {
			out, err := execute("pick", "--fixture", fixture, "--kind", "media",
				"--exclude", "med-1", "--toggle", "med-2")
			So(err, ShouldBeNil)
			var res types.CommitResult
			So(json.Unmarshal([]byte(out), &res), ShouldBeNil)
			So(res.Field.IDs(), ShouldResemble, []string{"med-1", "med-2"})
		})

		Convey("an excluded id is skipped with a warning", func() {
			out, stderr, err := executeWithStderr("pick", "--fixture", fixture,
				"--exclude", "ath-1", "--toggle", "ath-1,ath-2")
			So(err, ShouldBeNil)
			So(stderr, ShouldContainSubstring, `skipping "ath-1": not an eligible candidate`)
			var res types.CommitResult
			So(json.Unmarshal([]byte(out), &res), ShouldBeNil)
			So(res.Committed.IDs(), ShouldResemble, []string{"ath-2"})
		})

		Convey("an id hidden by a facet is still picked", func() {
			out, err := execute("pick", "--fixture", fixture,
				"--facet", "nationality=Japan", "--toggle", "ath-1")
			So(err, ShouldBeNil)
			var res types.CommitResult
			So(json.Unmarshal([]byte(out), &res), ShouldBeNil)
			So(res.Committed.IDs(), ShouldResemble, []string{"ath-1"})
		})
	})
}
