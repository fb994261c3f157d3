package openrank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agoralabs/agora-backend/internal/logger"
	"github.com/agoralabs/agora-backend/internal/trustgraph"
)

func testClient(t *testing.T, baseURL string) Client {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c, err := New(log, Config{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func TestScoreMarshalsEdgeLists(t *testing.T) {
	var gotReq scoreRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"scores":[{"i":"0xa","v":0.7},{"i":"0xb","v":0.3}]}`)
	}))
	defer srv.Close()

	localtrust := []trustgraph.Edge{{Source: "0xa", Target: "0xb", Weight: 1}}
	pretrust := []trustgraph.Edge{{Source: "0xa", Target: "0xb", Weight: 5}}

	scores, err := testClient(t, srv.URL).Score(context.Background(), localtrust, pretrust)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}
	if scores[0].Address != "0xa" || scores[0].Value != 0.7 {
		t.Fatalf("unexpected first score %+v", scores[0])
	}

	if len(gotReq.Localtrust) != 1 || len(gotReq.Pretrust) != 1 {
		t.Fatalf("edge lists not marshalled: %+v", gotReq)
	}
	if e := gotReq.Localtrust[0]; e.I != "0xa" || e.J != "0xb" || e.V != 1 {
		t.Fatalf("localtrust wire shape wrong: %+v", e)
	}
	if e := gotReq.Pretrust[0]; e.V != 5 {
		t.Fatalf("pretrust weight not carried: %+v", e)
	}
}

func TestScorePassesDuplicatesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"scores":[{"i":"0xa","v":1},{"i":"0xa","v":2}]}`)
	}))
	defer srv.Close()

	scores, err := testClient(t, srv.URL).Score(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("adapter must not deduplicate, got %d scores", len(scores))
	}
}

func TestScoreHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "engine down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Score(context.Background(), nil, nil)
	var scoreErr *ScoringError
	if !errors.As(err, &scoreErr) {
		t.Fatalf("expected *ScoringError, got %v", err)
	}
}

func TestScoreDecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Score(context.Background(), nil, nil)
	var scoreErr *ScoringError
	if !errors.As(err, &scoreErr) {
		t.Fatalf("expected *ScoringError on malformed response, got %v", err)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if _, err := New(log, Config{}); err == nil {
		t.Fatalf("expected error for missing base URL")
	}
}
