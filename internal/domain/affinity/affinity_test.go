package affinity_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/jfeo/artswipe/internal/domain/affinity"
	"github.com/jfeo/artswipe/internal/domain/model"
	"github.com/jfeo/artswipe/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

func TestScorerApply(t *testing.T) {
	Convey("Given an empty scorer", t, func() {
		ctx := context.Background()
		scorer := affinity.NewScorer()

		Convey("When alice and bob both like the same item", func() {
			// bob chose first; alice's choice arrives with bob as peer.
			scorer.Apply(ctx, "alice", true, false, false, map[string]bool{"bob": true, "alice": true})

			Convey("Then both directions count one agreement", func() {
				So(scorer.TallyOf(ctx, "alice", "bob"), ShouldResemble, model.Tally{Agree: 1})
				So(scorer.TallyOf(ctx, "bob", "alice"), ShouldResemble, model.Tally{Agree: 1})
			})

			Convey("And a disagreement on a second item mixes the tally", func() {
				scorer.Apply(ctx, "alice", true, false, false, map[string]bool{"bob": false, "alice": true})
				So(scorer.TallyOf(ctx, "alice", "bob"), ShouldResemble, model.Tally{Agree: 1, Disagree: 1})
				So(scorer.AffinityOf(ctx, "alice")["bob"], ShouldEqual, 0)
			})
		})

		Convey("When a choice arrives with no peers", func() {
			scorer.Apply(ctx, "alice", true, false, false, map[string]bool{"alice": true})

			Convey("Then no tally is created", func() {
				So(scorer.AffinityOf(ctx, "alice"), ShouldBeEmpty)
			})
		})
	})
}

func TestScorerReversesFlippedDecisions(t *testing.T) {
	Convey("Given alice and bob agreeing on one item", t, func() {
		ctx := context.Background()
		scorer := affinity.NewScorer()
		scorer.Apply(ctx, "alice", true, false, false, map[string]bool{"bob": true, "alice": true})
		So(scorer.TallyOf(ctx, "alice", "bob"), ShouldResemble, model.Tally{Agree: 1})

		Convey("When alice flips her decision on that item", func() {
			scorer.Apply(ctx, "alice", false, true, true, map[string]bool{"bob": true, "alice": false})

			Convey("Then the stale agreement is reversed, not double-counted", func() {
				So(scorer.TallyOf(ctx, "alice", "bob"), ShouldResemble, model.Tally{Agree: 0, Disagree: 1})
				So(scorer.TallyOf(ctx, "bob", "alice"), ShouldResemble, model.Tally{Agree: 0, Disagree: 1})
			})
		})

		Convey("When alice re-submits the same decision", func() {
			scorer.Apply(ctx, "alice", true, true, true, map[string]bool{"bob": true, "alice": true})

			Convey("Then the tally is unchanged", func() {
				So(scorer.TallyOf(ctx, "alice", "bob"), ShouldResemble, model.Tally{Agree: 1})
			})
		})
	})
}

func TestScorerSymmetryProperty(t *testing.T) {
	Convey("Given a random sequence of choices across users and items", t, func() {
		ctx := context.Background()
		rng := rand.New(rand.NewSource(7))
		scorer := affinity.NewScorer()
		users := []string{"u0", "u1", "u2", "u3", "u4"}
		items := []string{"i0", "i1", "i2", "i3", "i4", "i5", "i6", "i7"}

		// Replay the store's behavior: last decision per (user, item) wins.
		recorded := make(map[string]map[string]bool)
		for i := 0; i < 500; i++ {
			user := users[rng.Intn(len(users))]
			item := items[rng.Intn(len(items))]
			decision := rng.Intn(2) == 0

			prev, existed := false, false
			if d, ok := recorded[item][user]; ok {
				prev, existed = d, true
			}
			if _, ok := recorded[item]; !ok {
				recorded[item] = make(map[string]bool)
			}
			recorded[item][user] = decision
			scorer.Apply(ctx, user, decision, prev, existed, recorded[item])
		}

		Convey("Then every tally is symmetric", func() {
			for _, u := range users {
				for _, v := range users {
					if u == v {
						continue
					}
					So(scorer.TallyOf(ctx, u, v), ShouldResemble, scorer.TallyOf(ctx, v, u))
				}
			}
		})

		Convey("And every tally matches a from-scratch recount", func() {
			for _, u := range users {
				for _, v := range users {
					if u == v {
						continue
					}
					want := model.Tally{}
					for _, byUser := range recorded {
						du, okU := byUser[u]
						dv, okV := byUser[v]
						if !okU || !okV {
							continue
						}
						if du == dv {
							want.Agree++
						} else {
							want.Disagree++
						}
					}
					So(scorer.TallyOf(ctx, u, v), ShouldResemble, want)
				}
			}
		})
	})
}

func TestScorerSnapshotRestoreClear(t *testing.T) {
	Convey("Given a scorer with tallies", t, func() {
		ctx := context.Background()
		scorer := affinity.NewScorer()
		scorer.Apply(ctx, "alice", true, false, false, map[string]bool{"bob": true})

		Convey("When restored into a fresh scorer", func() {
			other := affinity.NewScorer()
			So(other.Restore(ctx, scorer.Snapshot(ctx)), ShouldBeNil)

			Convey("Then the tallies carry over", func() {
				So(other.TallyOf(ctx, "alice", "bob"), ShouldResemble, model.Tally{Agree: 1})
			})
		})

		Convey("When a self-pair sneaks into a snapshot", func() {
			err := scorer.Restore(ctx, map[string]map[string]model.Tally{
				"alice": {"alice": {Agree: 1}},
			})

			Convey("Then the restore is rejected", func() {
				So(err, ShouldEqual, affinity.ErrBadSnapshot)
				So(scorer.TallyOf(ctx, "alice", "bob"), ShouldResemble, model.Tally{Agree: 1})
			})
		})

		Convey("When cleared", func() {
			scorer.Clear(ctx)

			Convey("Then no tallies remain", func() {
				So(scorer.AffinityOf(ctx, "alice"), ShouldBeEmpty)
			})
		})
	})
}
