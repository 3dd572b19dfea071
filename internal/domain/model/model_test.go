package model_test

import (
	"testing"

	"github.com/jfeo/artswipe/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestItemKey(t *testing.T) {
	Convey("Given a source, collection and local id", t, func() {
		Convey("When building an item key", func() {
			key := model.ItemKey("natmus", "frihedsmuseet", "102132")

			Convey("Then the key joins the parts with dashes", func() {
				So(key, ShouldEqual, "natmus-frihedsmuseet-102132")
			})

			Convey("And splitting it returns the original parts", func() {
				source, collection, localID, ok := model.SplitItemKey(key)
				So(ok, ShouldBeTrue)
				So(source, ShouldEqual, "natmus")
				So(collection, ShouldEqual, "frihedsmuseet")
				So(localID, ShouldEqual, "102132")
			})
		})

		Convey("When the local id itself contains dashes", func() {
			key := model.ItemKey("natmus", "samlinger", "a-b-c")
			_, _, localID, ok := model.SplitItemKey(key)

			Convey("Then the local id keeps its dashes", func() {
				So(ok, ShouldBeTrue)
				So(localID, ShouldEqual, "a-b-c")
			})
		})
	})
}

func TestSplitItemKeyRejectsMalformedIDs(t *testing.T) {
	Convey("Given malformed item ids", t, func() {
		for _, id := range []string{"", "natmus", "natmus-col", "natmus--x", "-col-1"} {
			Convey("Then splitting "+id+" fails", func() {
				_, _, _, ok := model.SplitItemKey(id)
				So(ok, ShouldBeFalse)
			})
		}
	})
}

func TestTallyScore(t *testing.T) {
	Convey("Given a tally", t, func() {
		Convey("Then the score is agreements minus disagreements", func() {
			So(model.Tally{Agree: 4, Disagree: 1}.Score(), ShouldEqual, 3)
			So(model.Tally{Agree: 1, Disagree: 1}.Score(), ShouldEqual, 0)
			So(model.Tally{Disagree: 2}.Score(), ShouldEqual, -2)
		})
	})
}
