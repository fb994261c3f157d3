package openrank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agoralabs/agora-backend/internal/logger"
	"github.com/agoralabs/agora-backend/internal/ranking"
	"github.com/agoralabs/agora-backend/internal/trustgraph"
)

// Client submits a localtrust/pretrust edge pair to the EigenTrust engine and
// returns the raw node scores. Score math lives entirely on the engine side;
// this adapter only reshapes edges into the engine's wire format.
type Client interface {
	Score(ctx context.Context, localtrust, pretrust []trustgraph.Edge) ([]ranking.Score, error)
}

// ScoringError reports a failed engine call. It is fatal for the run: no
// partial ranking is derived from a failed scoring call.
type ScoringError struct {
	Endpoint string
	Err      error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("score via %s: %v", e.Endpoint, e.Err)
}

func (e *ScoringError) Unwrap() error { return e.Err }

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
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
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("missing OpenRank base URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &client{
		log:  log.With("client", "OpenRankClient"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type wireEdge struct {
	I string  `json:"i"`
	J string  `json:"j"`
	V float64 `json:"v"`
}

type scoreRequest struct {
	Localtrust []wireEdge `json:"localtrust"`
	Pretrust   []wireEdge `json:"pretrust"`
}

type scoreResponse struct {
	Scores []ranking.Score `json:"scores"`
}

func (c *client) Score(ctx context.Context, localtrust, pretrust []trustgraph.Edge) ([]ranking.Score, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/eigentrust/compute"

	req := scoreRequest{
		Localtrust: toWire(localtrust),
		Pretrust:   toWire(pretrust),
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return nil, &ScoringError{Endpoint: endpoint, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, &buf)
	if err != nil {
		return nil, &ScoringError{Endpoint: endpoint, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &ScoringError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ScoringError{
			Endpoint: endpoint,
			Err:      fmt.Errorf("http %d: %s", resp.StatusCode, string(raw)),
		}
	}

	var out scoreResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ScoringError{Endpoint: endpoint, Err: fmt.Errorf("decode scores: %w", err)}
	}

	c.log.Debug("Scoring engine returned",
		"localtrust", len(localtrust), "pretrust", len(pretrust), "scores", len(out.Scores))
	return out.Scores, nil
}

func toWire(edges []trustgraph.Edge) []wireEdge {
	out := make([]wireEdge, len(edges))
	for i, e := range edges {
		out[i] = wireEdge{I: e.Source, J: e.Target, V: e.Weight}
	}
	return out
}
