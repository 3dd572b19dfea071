package supplier_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	supplier "github.com/jfeo/artswipe/internal/adapters/supplier"
	"github.com/jfeo/artswipe/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

func searchHit(id any, collection, title string) map[string]any {
	return map[string]any{
		"_source": map[string]any{
			"id":         id,
			"collection": collection,
			"text": map[string]any{
				"da-DK": map[string]any{"title": title},
			},
		},
	}
}

func searchBody(hits ...map[string]any) map[string]any {
	return map[string]any{
		"hits": map[string]any{"hits": hits},
	}
}

func TestNatmusFetchItemBatch(t *testing.T) {
	Convey("Given a museum API returning two assets", t, func() {
		var gotQuery map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &gotQuery)
			_ = json.NewEncoder(w).Encode(searchBody(
				searchHit(102132, "frihedsmuseet", "Plakat"),
				searchHit(55, "samlinger", "Mønt"),
			))
		}))
		defer srv.Close()

		client := supplier.NewNatmus(srv.URL, "http://thumbs.example", supplier.WithHTTPClient(srv.Client()))

		Convey("When a batch is fetched", func() {
			items, err := client.FetchItemBatch(context.Background(), 10)

			Convey("Then the hits map to keyed items with thumbnails", func() {
				So(err, ShouldBeNil)
				So(items, ShouldHaveLength, 2)
				So(items[0].ID, ShouldEqual, "natmus-frihedsmuseet-102132")
				So(items[0].Title, ShouldEqual, "Plakat")
				So(items[0].Thumb, ShouldEqual, "http://thumbs.example/frihedsmuseet/102132")
				So(items[1].ID, ShouldEqual, "natmus-samlinger-55")
			})

			Convey("And the query asked for the batch size with a random seed", func() {
				So(gotQuery["size"], ShouldEqual, float64(10))
				query := gotQuery["query"].(map[string]any)
				boolQuery := query["bool"].(map[string]any)
				So(boolQuery, ShouldContainKey, "filter")
				So(boolQuery, ShouldContainKey, "should")
			})
		})
	})
}

func TestNatmusFetchFailures(t *testing.T) {
	Convey("Given an upstream returning a server error", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()
		client := supplier.NewNatmus(srv.URL, "http://thumbs.example", supplier.WithHTTPClient(srv.Client()))

		Convey("Then the fetch fails with ErrFetchFailed", func() {
			_, err := client.FetchItemBatch(context.Background(), 10)
			So(errors.Is(err, supplier.ErrFetchFailed), ShouldBeTrue)
		})
	})

	Convey("Given an upstream returning garbage", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer srv.Close()
		client := supplier.NewNatmus(srv.URL, "http://thumbs.example", supplier.WithHTTPClient(srv.Client()))

		Convey("Then the fetch fails with ErrBadResponse", func() {
			_, err := client.FetchItemBatch(context.Background(), 10)
			So(errors.Is(err, supplier.ErrBadResponse), ShouldBeTrue)
		})
	})

	Convey("Given an upstream whose hits cannot be keyed", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(searchBody(map[string]any{
				"_source": map[string]any{"text": map[string]any{}},
			}))
		}))
		defer srv.Close()
		client := supplier.NewNatmus(srv.URL, "http://thumbs.example", supplier.WithHTTPClient(srv.Client()))

		Convey("Then the batch is empty but not an error", func() {
			items, err := client.FetchItemBatch(context.Background(), 10)
			So(err, ShouldBeNil)
			So(items, ShouldBeEmpty)
		})
	})
}

func TestNatmusBreakerOpensOnRepeatedFailure(t *testing.T) {
	Convey("Given an upstream that always fails", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()
		client := supplier.NewNatmus(srv.URL, "http://thumbs.example", supplier.WithHTTPClient(srv.Client()))

		Convey("When fetches keep failing", func() {
			for i := 0; i < 6; i++ {
				_, _ = client.FetchItemBatch(context.Background(), 10)
			}

			Convey("Then the breaker rejects calls without hitting the network", func() {
				_, err := client.FetchItemBatch(context.Background(), 10)
				So(errors.Is(err, gobreaker.ErrOpenState), ShouldBeTrue)
			})
		})
	})
}
