package repository_test

import (
	"context"
	"testing"
	"time"

	repository "github.com/jfeo/artswipe/internal/adapters/repository"
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

func TestMemStoreRecordChoice(t *testing.T) {
	Convey("Given an empty in-memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()

		Convey("When a first choice is recorded", func() {
			prev, existed, err := store.RecordChoice(ctx, "alice", "natmus-x-1", true)

			Convey("Then there is no previous decision", func() {
				So(err, ShouldBeNil)
				So(existed, ShouldBeFalse)
				So(prev, ShouldBeFalse)
			})

			Convey("And both indexes see the choice", func() {
				So(store.HasChoice(ctx, "alice", "natmus-x-1"), ShouldBeTrue)
				So(store.ChoicesOf(ctx, "alice"), ShouldResemble, map[string]bool{"natmus-x-1": true})
				So(store.ChoicesOn(ctx, "natmus-x-1"), ShouldResemble, map[string]bool{"alice": true})
			})
		})

		Convey("When the same pair is recorded twice", func() {
			_, _, err := store.RecordChoice(ctx, "alice", "natmus-x-1", true)
			So(err, ShouldBeNil)
			prev, existed, err := store.RecordChoice(ctx, "alice", "natmus-x-1", false)

			Convey("Then the previous decision is returned", func() {
				So(err, ShouldBeNil)
				So(existed, ShouldBeTrue)
				So(prev, ShouldBeTrue)
			})

			Convey("And the later decision wins", func() {
				So(store.ChoicesOf(ctx, "alice")["natmus-x-1"], ShouldBeFalse)
				So(store.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When a key part is empty", func() {
			_, _, err := store.RecordChoice(ctx, "", "natmus-x-1", true)

			Convey("Then the store rejects the write", func() {
				So(err, ShouldEqual, repository.ErrEmptyKey)
			})
		})
	})
}

func TestMemStoreOverwriteRefreshesTimestamp(t *testing.T) {
	Convey("Given a store with a controllable clock", t, func() {
		ctx := context.Background()
		now := time.Date(2019, 3, 1, 12, 0, 0, 0, time.UTC)
		store := repository.NewMemStore(repository.WithClock(func() time.Time { return now }))

		_, _, err := store.RecordChoice(ctx, "alice", "natmus-x-1", true)
		So(err, ShouldBeNil)

		Convey("When the pair is overwritten later", func() {
			now = now.Add(time.Hour)
			_, _, err := store.RecordChoice(ctx, "alice", "natmus-x-1", true)
			So(err, ShouldBeNil)

			Convey("Then the timestamp is refreshed", func() {
				snap := store.Snapshot(ctx)
				So(snap["alice"]["natmus-x-1"].At, ShouldEqual, now)
			})
		})
	})
}

func TestMemStoreUsers(t *testing.T) {
	Convey("Given choices by two users", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		_, _, _ = store.RecordChoice(ctx, "alice", "natmus-x-1", true)
		_, _, _ = store.RecordChoice(ctx, "bob", "natmus-x-2", false)

		Convey("Then Users lists both", func() {
			users := store.Users(ctx)
			So(users, ShouldHaveLength, 2)
			So(users, ShouldContain, "alice")
			So(users, ShouldContain, "bob")
		})
	})
}

func TestMemStoreSnapshotRestore(t *testing.T) {
	Convey("Given a populated store", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		_, _, _ = store.RecordChoice(ctx, "alice", "natmus-x-1", true)
		_, _, _ = store.RecordChoice(ctx, "alice", "natmus-x-2", false)
		_, _, _ = store.RecordChoice(ctx, "bob", "natmus-x-1", true)

		Convey("When its snapshot is restored into a fresh store", func() {
			other := repository.NewMemStore()
			err := other.Restore(ctx, store.Snapshot(ctx))

			Convey("Then both indexes match the original", func() {
				So(err, ShouldBeNil)
				So(other.Count(ctx), ShouldEqual, 3)
				So(other.ChoicesOf(ctx, "alice"), ShouldResemble, store.ChoicesOf(ctx, "alice"))
				So(other.ChoicesOn(ctx, "natmus-x-1"), ShouldResemble, map[string]bool{"alice": true, "bob": true})
			})
		})

		Convey("When a malformed snapshot is restored", func() {
			err := store.Restore(ctx, map[string]map[string]model.Choice{
				"": {"natmus-x-1": {}},
			})

			Convey("Then the restore is rejected and state is untouched", func() {
				So(err, ShouldEqual, repository.ErrBadSnapshot)
				So(store.Count(ctx), ShouldEqual, 3)
			})
		})

		Convey("When the store is cleared", func() {
			err := store.Clear(ctx)

			Convey("Then it is empty", func() {
				So(err, ShouldBeNil)
				So(store.Count(ctx), ShouldEqual, 0)
				So(store.Users(ctx), ShouldBeEmpty)
			})
		})
	})
}
