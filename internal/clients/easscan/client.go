package easscan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agoralabs/agora-backend/internal/logger"
	"github.com/agoralabs/agora-backend/internal/trustgraph"
)

// Client pulls attestations from an EAS scan endpoint, one schema at a time.
// Every call re-paginates from page 1; nothing is cached between calls.
type Client interface {
	FetchAll(ctx context.Context, scanURL string, q Query) ([]trustgraph.Attestation, error)
}

// Query identifies one paginated fetch: a schema UID plus the page size the
// endpoint should serve.
type Query struct {
	SchemaUID string
	Limit     int
}

// FetchError reports a transport or decode failure on a specific page. The
// whole fetch fails; no partial results are returned.
type FetchError struct {
	Endpoint string
	Page     int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s page %d: %v", e.Endpoint, e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Config struct {
	Timeout time.Duration
	// MaxPages bounds the pagination loop in case the server misreports its
	// total count.
	MaxPages int
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1000
	}
	return &client{
		log:  log.With("client", "EASScanClient"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type page struct {
	Attestations          []trustgraph.Attestation `json:"attestations"`
	TotalAttestationCount int                      `json:"totalAttestationCount"`
}

// FetchAll accumulates pages until the running count reaches the server's
// reported totalAttestationCount. A zero total yields an empty slice after the
// first page, not an error.
func (c *client) FetchAll(ctx context.Context, scanURL string, q Query) ([]trustgraph.Attestation, error) {
	scanURL = strings.TrimSpace(scanURL)
	if scanURL == "" {
		return nil, fmt.Errorf("scanURL required")
	}
	if strings.TrimSpace(q.SchemaUID) == "" {
		return nil, fmt.Errorf("schema UID required")
	}
	if q.Limit <= 0 {
		q.Limit = 50
	}

	endpoint := strings.TrimRight(scanURL, "/") + "/attestations/forSchema/" + q.SchemaUID
	var results []trustgraph.Attestation
	total := 0
	satisfied := false

	for pageNum := 1; pageNum <= c.cfg.MaxPages; pageNum++ {
		url := fmt.Sprintf("%s?_data=routes%%2F__boundary%%2Fattestations%%2FforSchema%%2F%%24schemaUID&limit=%d", endpoint, q.Limit)
		if pageNum > 1 {
			url += fmt.Sprintf("&page=%d", pageNum)
		}

		p, err := c.fetchPage(ctx, url)
		if err != nil {
			return nil, &FetchError{Endpoint: endpoint, Page: pageNum, Err: err}
		}
		results = append(results, p.Attestations...)
		total = p.TotalAttestationCount

		c.log.Debug("Fetched attestation page",
			"schema", q.SchemaUID, "page", pageNum,
			"received", len(p.Attestations), "accumulated", len(results),
			"total", total)

		if len(results) >= total {
			satisfied = true
			break
		}
		if len(p.Attestations) == 0 {
			// Total says more exist but the server stopped serving them; bail
			// out instead of spinning.
			return nil, &FetchError{
				Endpoint: endpoint,
				Page:     pageNum,
				Err:      fmt.Errorf("empty page with %d of %d attestations accumulated", len(results), p.TotalAttestationCount),
			}
		}
	}

	if !satisfied {
		// Returning the accumulated slice here would hand the caller a
		// truncated set that goes on to replace the whole leaderboard.
		return nil, &FetchError{
			Endpoint: endpoint,
			Page:     c.cfg.MaxPages,
			Err:      fmt.Errorf("page cap %d reached with %d of %d attestations", c.cfg.MaxPages, len(results), total),
		}
	}
	if results == nil {
		results = []trustgraph.Attestation{}
	}
	return results, nil
}

func (c *client) fetchPage(ctx context.Context, url string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(raw))
	}

	var p page
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	return &p, nil
}
