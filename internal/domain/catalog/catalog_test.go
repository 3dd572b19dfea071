package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jfeo/artswipe/internal/domain/catalog"
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

// fakeSupplier serves scripted batches and counts fetches.
type fakeSupplier struct {
	mu      sync.Mutex
	batches [][]model.Item
	err     error
	fetches atomic.Int64
	block   chan struct{} // when set, fetches wait until closed
}

func (f *fakeSupplier) FetchItemBatch(ctx context.Context, sampleSize int) ([]model.Item, error) {
	f.fetches.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func batchOf(n int, prefix string) []model.Item {
	items := make([]model.Item, n)
	for i := range items {
		items[i] = model.Item{
			ID:    fmt.Sprintf("natmus-%s-%d", prefix, i),
			Title: fmt.Sprintf("item %d", i),
		}
	}
	return items
}

func TestCatalogRestockAndDraw(t *testing.T) {
	Convey("Given an empty catalog with one batch available", t, func() {
		ctx := context.Background()
		sup := &fakeSupplier{batches: [][]model.Item{batchOf(3, "a")}}
		cat := catalog.New(sup, catalog.WithBatchSize(3), catalog.WithRandomSource(rand.New(rand.NewSource(1))))

		Convey("Then a draw from the empty pool reports no item", func() {
			_, ok := cat.NextUnseen(ctx)
			So(ok, ShouldBeFalse)
		})

		Convey("When the catalog is restocked", func() {
			So(cat.EnsureStocked(ctx), ShouldBeNil)

			Convey("Then the batch lands in the pool and the index", func() {
				So(cat.PoolSize(ctx), ShouldEqual, 3)
				So(cat.KnownCount(ctx), ShouldEqual, 3)
				So(cat.Has(ctx, "natmus-a-0"), ShouldBeTrue)
			})

			Convey("And draws pop distinct items until the pool drains", func() {
				seen := map[string]bool{}
				for i := 0; i < 3; i++ {
					item, ok := cat.NextUnseen(ctx)
					So(ok, ShouldBeTrue)
					So(seen[item.ID], ShouldBeFalse)
					seen[item.ID] = true
				}
				_, ok := cat.NextUnseen(ctx)
				So(ok, ShouldBeFalse)
			})

			Convey("And a second EnsureStocked on a stocked pool is a no-op", func() {
				So(cat.EnsureStocked(ctx), ShouldBeNil)
				So(sup.fetches.Load(), ShouldEqual, 1)
			})

			Convey("And served items stay in the known index", func() {
				item, ok := cat.NextUnseen(ctx)
				So(ok, ShouldBeTrue)
				got, found := cat.Item(ctx, item.ID)
				So(found, ShouldBeTrue)
				So(got, ShouldResemble, item)
			})
		})
	})
}

func TestCatalogAbsorbsSupplierFailure(t *testing.T) {
	Convey("Given a supplier that fails", t, func() {
		ctx := context.Background()
		sup := &fakeSupplier{err: errors.New("network down")}
		cat := catalog.New(sup)

		Convey("Then EnsureStocked degrades to ErrExhausted", func() {
			So(cat.EnsureStocked(ctx), ShouldEqual, catalog.ErrExhausted)
			So(cat.PoolSize(ctx), ShouldEqual, 0)
		})
	})

	Convey("Given a supplier that returns zero items", t, func() {
		ctx := context.Background()
		sup := &fakeSupplier{}
		cat := catalog.New(sup)

		Convey("Then EnsureStocked degrades to ErrExhausted", func() {
			So(cat.EnsureStocked(ctx), ShouldEqual, catalog.ErrExhausted)
		})
	})
}

func TestCatalogSingleFlightRestock(t *testing.T) {
	Convey("Given many concurrent EnsureStocked callers", t, func() {
		ctx := context.Background()
		block := make(chan struct{})
		sup := &fakeSupplier{batches: [][]model.Item{batchOf(10, "a")}, block: block}
		cat := catalog.New(sup, catalog.WithBatchSize(10))

		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = cat.EnsureStocked(ctx)
			}(i)
		}
		close(block)
		wg.Wait()

		Convey("Then only one fetch went out and everyone saw its result", func() {
			So(sup.fetches.Load(), ShouldEqual, 1)
			for _, err := range errs {
				So(err, ShouldBeNil)
			}
			So(cat.PoolSize(ctx), ShouldEqual, 10)
		})
	})
}
