package easscan

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/agoralabs/agora-backend/internal/logger"
)

func testClient(t *testing.T) Client {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c, err := New(log, Config{})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func TestFetchAllPaginates(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		page := r.URL.Query().Get("page")
		switch page {
		case "", "1":
			fmt.Fprint(w, `{"attestations":[{"attester":"0xa","recipient":"0xb"},{"attester":"0xc","recipient":"0xd"}],"totalAttestationCount":3}`)
		case "2":
			fmt.Fprint(w, `{"attestations":[{"attester":"0xe","recipient":"0xf"}],"totalAttestationCount":3}`)
		default:
			t.Errorf("unexpected page %q", page)
			http.Error(w, "bad page", http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	got, err := testClient(t).FetchAll(context.Background(), srv.URL, Query{SchemaUID: "0xschema", Limit: 2})
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 attestations, got %d", len(got))
	}
	if n := atomic.LoadInt32(&requests); n != 2 {
		t.Fatalf("expected 2 page requests, got %d", n)
	}
	if got[2].Attester != "0xe" {
		t.Fatalf("pages out of order: %+v", got[2])
	}
}

func TestFetchAllEmptyTotal(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		fmt.Fprint(w, `{"attestations":[],"totalAttestationCount":0}`)
	}))
	defer srv.Close()

	got, err := testClient(t).FetchAll(context.Background(), srv.URL, Query{SchemaUID: "0xschema"})
	if err != nil {
		t.Fatalf("zero total must not be an error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
	if n := atomic.LoadInt32(&requests); n != 1 {
		t.Fatalf("expected exactly 1 page request, got %d", n)
	}
}

func TestFetchAllFailsWholeOnBadPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"attestations":[{"attester":"0xa","recipient":"0xb"}],"totalAttestationCount":2}`)
	}))
	defer srv.Close()

	got, err := testClient(t).FetchAll(context.Background(), srv.URL, Query{SchemaUID: "0xschema", Limit: 1})
	if err == nil {
		t.Fatalf("expected a fetch error")
	}
	if got != nil {
		t.Fatalf("failed fetch must not return partial results, got %d", len(got))
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fetchErr.Page != 2 {
		t.Fatalf("expected failing page 2, got %d", fetchErr.Page)
	}
}

func TestFetchAllDecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"attestations": not json`)
	}))
	defer srv.Close()

	_, err := testClient(t).FetchAll(context.Background(), srv.URL, Query{SchemaUID: "0xschema"})
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError on decode failure, got %v", err)
	}
}

func TestFetchAllPageCapFailsInsteadOfTruncating(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"attestations":[{"attester":"0xa","recipient":"0xb"}],"totalAttestationCount":5}`)
	}))
	defer srv.Close()

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c, err := New(log, Config{MaxPages: 2})
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	got, err := c.FetchAll(context.Background(), srv.URL, Query{SchemaUID: "0xschema", Limit: 1})
	if err == nil {
		t.Fatalf("exhausting the page cap with attestations outstanding must fail, got %d results", len(got))
	}
	if got != nil {
		t.Fatalf("capped fetch must not return partial results, got %d", len(got))
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fetchErr.Page != 2 {
		t.Fatalf("error should name the cap page, got %d", fetchErr.Page)
	}
}

func TestFetchAllStalledPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "" {
			fmt.Fprint(w, `{"attestations":[{"attester":"0xa","recipient":"0xb"}],"totalAttestationCount":5}`)
			return
		}
		fmt.Fprint(w, `{"attestations":[],"totalAttestationCount":5}`)
	}))
	defer srv.Close()

	_, err := testClient(t).FetchAll(context.Background(), srv.URL, Query{SchemaUID: "0xschema", Limit: 1})
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError when the server stops making progress, got %v", err)
	}
}
