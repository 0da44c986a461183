package selection_test

import (
	"testing"

	"github.com/okian/playmedia/internal/domain/model"
	"github.com/okian/playmedia/internal/domain/selection"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTracker(t *testing.T) {
	Convey("Given a tracker over eligible athletes 1 and 3", t, func() {
		entities := model.Collection{{ID: "1"}, {ID: "3"}}
		tr := selection.NewTracker(model.IDSetOf(entities))

		Convey("Then it should start empty", func() {
			So(tr.State(), ShouldEqual, selection.Empty)
			So(tr.Len(), ShouldEqual, 0)
			So(tr.Commit(entities), ShouldBeEmpty)
		})

		Convey("When an eligible id is toggled", func() {
			ok := tr.Toggle("1")

			Convey("Then it should be selected and the state partial", func() {
				So(ok, ShouldBeTrue)
				So(tr.IsSelected("1"), ShouldBeTrue)
				So(tr.State(), ShouldEqual, selection.Partial)
				So(tr.State().String(), ShouldEqual, "partial")
			})

			Convey("And toggled again", func() {
				tr.Toggle("1")

				Convey("Then the selection should be back to empty", func() {
					So(tr.IsSelected("1"), ShouldBeFalse)
					So(tr.State(), ShouldEqual, selection.Empty)
				})
			})
		})

		Convey("When an id outside the eligible set is toggled", func() {
			tr.Toggle("1")
			ok := tr.Toggle("99")

			Convey("Then it should be rejected without changing state", func() {
				So(ok, ShouldBeFalse)
				So(tr.Selected(), ShouldResemble, []string{"1"})
			})
		})

		Convey("When ids are toggled in reverse order", func() {
			tr.Toggle("3")
			tr.Toggle("1")

			Convey("Then commit should follow the collection order", func() {
				So(tr.Commit(entities).IDs(), ShouldResemble, []string{"1", "3"})
			})

			Convey("And commit should not change the selection", func() {
				tr.Commit(entities)
				So(tr.Len(), ShouldEqual, 2)
			})
		})

		Convey("When clearing a selection", func() {
			tr.Toggle("1")
			tr.Toggle("3")
			tr.Clear()

			Convey("Then commit should return nothing", func() {
				So(tr.State(), ShouldEqual, selection.Empty)
				So(tr.Commit(entities), ShouldBeEmpty)
			})
		})

		Convey("When the eligible set shrinks", func() {
			tr.Toggle("1")
			tr.Toggle("3")
			dropped := tr.Rebase(model.NewIDSet("3", "4"))

			Convey("Then members that left should be dropped", func() {
				So(dropped, ShouldEqual, 1)
				So(tr.Selected(), ShouldResemble, []string{"3"})
			})

			Convey("And new eligible ids should be accepted", func() {
				So(tr.Toggle("4"), ShouldBeTrue)
				So(tr.Toggle("1"), ShouldBeFalse)
			})
		})
	})
}

func TestTogglePairs(t *testing.T) {
	Convey("Given any prior selection", t, func() {
		ids := []string{"a", "b", "c", "d"}
		tr := selection.NewTracker(model.NewIDSet(ids...))
		tr.Toggle("b")
		tr.Toggle("d")

		Convey("Then toggling an id twice should leave the selection unchanged", func() {
			for _, id := range ids {
				before := tr.Selected()
				tr.Toggle(id)
				tr.Toggle(id)
				So(tr.Selected(), ShouldResemble, before)
			}
		})
	})
}
