package services

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/agoralabs/agora-backend/internal/clients/easscan"
	"github.com/agoralabs/agora-backend/internal/clients/openrank"
	"github.com/agoralabs/agora-backend/internal/db"
	"github.com/agoralabs/agora-backend/internal/logger"
	"github.com/agoralabs/agora-backend/internal/ranking"
	"github.com/agoralabs/agora-backend/internal/repos"
	"github.com/agoralabs/agora-backend/internal/tenant"
	"github.com/agoralabs/agora-backend/internal/trustgraph"
	"github.com/agoralabs/agora-backend/internal/types"
)

// RunResult is the outcome of one full pipeline run for a tenant.
type RunResult struct {
	Tenant     string `json:"tenant"`
	Localtrust int    `json:"localtrust_edges"`
	Pretrust   int    `json:"pretrust_edges"`
	Ranked     int    `json:"ranked"`
	Written    int    `json:"written"`
	Skipped    int    `json:"skipped"`
	Propagated int    `json:"propagated"`
}

// RankingCache is the slice of LeaderboardService the pipeline needs: dropping
// stale cached pages after a successful run.
type RankingCache interface {
	Invalidate(ctx context.Context, tenantKey string)
}

type PipelineService interface {
	// Run executes fetch -> build -> score -> rank -> persist for one tenant.
	// Concurrent calls for the same tenant collapse into a single run; the
	// clear+insert rewrite must never race with itself on one store.
	Run(ctx context.Context, tenantKey string) (*RunResult, error)
}

type pipelineService struct {
	log     *logger.Logger
	tenants *tenant.Resolver
	stores  *db.Registry
	scanner easscan.Client
	scorer  openrank.Client
	cache   RankingCache
	group   singleflight.Group
}

func NewPipelineService(log *logger.Logger, tenants *tenant.Resolver, stores *db.Registry, scanner easscan.Client, scorer openrank.Client, cache RankingCache) PipelineService {
	return &pipelineService{
		log:     log.With("service", "PipelineService"),
		tenants: tenants,
		stores:  stores,
		scanner: scanner,
		scorer:  scorer,
		cache:   cache,
	}
}

func (ps *pipelineService) Run(ctx context.Context, tenantKey string) (*RunResult, error) {
	cfg, err := ps.tenants.Resolve(tenantKey)
	if err != nil {
		return nil, err
	}

	// A collapsed run serves every joined caller, so it must not die with the
	// first caller's request context.
	runCtx := context.WithoutCancel(ctx)
	v, err, shared := ps.group.Do(tenantKey, func() (interface{}, error) {
		return ps.runOnce(runCtx, cfg)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		ps.log.Debug("Joined in-flight run", "tenant", tenantKey)
	}
	return v.(*RunResult), nil
}

func (ps *pipelineService) runOnce(ctx context.Context, cfg tenant.Config) (*RunResult, error) {
	log := ps.log.With("tenant", cfg.Key)

	store, err := ps.stores.Get(cfg.StoreDSN)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: open store: %w", cfg.Key, err)
	}
	runRepo := repos.NewRankingRunRepo(store, ps.log)

	run := &types.RankingRun{
		TenantKey: cfg.Key,
		Snapshot:  snapshotConfig(cfg),
	}
	if err := runRepo.Create(ctx, run); err != nil {
		log.Warn("Could not record run start", "error", err)
	}

	result, err := ps.executeStages(ctx, cfg, store, log)
	if err != nil {
		ps.finishRun(ctx, runRepo, run, types.RunStatusFailed, result, err)
		return nil, err
	}
	ps.finishRun(ctx, runRepo, run, types.RunStatusSucceeded, result, nil)

	if ps.cache != nil {
		ps.cache.Invalidate(ctx, cfg.Key)
	}
	log.Info("Pipeline run complete",
		"ranked", result.Ranked, "written", result.Written,
		"skipped", result.Skipped, "propagated", result.Propagated)
	return result, nil
}

func (ps *pipelineService) executeStages(ctx context.Context, cfg tenant.Config, store *gorm.DB, log *logger.Logger) (*RunResult, error) {
	interactions, err := ps.scanner.FetchAll(ctx, cfg.ScanURL, easscan.Query{
		SchemaUID: cfg.InteractionSchema,
		Limit:     cfg.PageLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("tenant %s: fetch interactions: %w", cfg.Key, err)
	}
	seeds, err := ps.scanner.FetchAll(ctx, cfg.ScanURL, easscan.Query{
		SchemaUID: cfg.SeedSchema,
		Limit:     cfg.PageLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("tenant %s: fetch seeds: %w", cfg.Key, err)
	}

	localtrust, pretrust := trustgraph.Build(interactions, seeds, trustgraph.BuildOptions{
		SeedCategory: cfg.SeedCategory,
		Weights:      cfg.Weights,
	})
	log.Debug("Built trust graph", "localtrust", len(localtrust), "pretrust", len(pretrust))

	scores, err := ps.scorer.Score(ctx, localtrust, pretrust)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: %w", cfg.Key, err)
	}

	ranked := ranking.Rank(scores)

	entries := make([]*types.RankingEntry, len(ranked))
	for i, r := range ranked {
		entries[i] = &types.RankingEntry{
			Address:  r.Address,
			Value:    r.Value,
			Position: r.Position,
		}
	}

	replaced, err := repos.NewRankingRepo(store, ps.log).ReplaceAll(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: %w", cfg.Key, err)
	}
	propagated, err := repos.NewUserProfileRepo(store, ps.log).PropagateScores(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: %w", cfg.Key, err)
	}

	return &RunResult{
		Tenant:     cfg.Key,
		Localtrust: len(localtrust),
		Pretrust:   len(pretrust),
		Ranked:     len(ranked),
		Written:    replaced.Written,
		Skipped:    replaced.Skipped + propagated.Skipped,
		Propagated: propagated.Updated,
	}, nil
}

func (ps *pipelineService) finishRun(ctx context.Context, runRepo repos.RankingRunRepo, run *types.RankingRun, status string, result *RunResult, runErr error) {
	counts := types.RankingRun{}
	if result != nil {
		counts.Ranked = result.Ranked
		counts.Written = result.Written
		counts.Skipped = result.Skipped
		counts.Propagated = result.Propagated
	}
	if runErr != nil {
		counts.Error = runErr.Error()
	}
	if err := runRepo.Finish(ctx, run.ID, status, counts); err != nil {
		ps.log.Warn("Could not record run finish", "tenant", run.TenantKey, "error", err)
	}
}

func snapshotConfig(cfg tenant.Config) datatypes.JSON {
	raw, err := json.Marshal(map[string]interface{}{
		"scan_url":           cfg.ScanURL,
		"interaction_schema": cfg.InteractionSchema,
		"seed_schema":        cfg.SeedSchema,
		"seed_category":      cfg.SeedCategory,
		"page_limit":         cfg.PageLimit,
		"weights":            cfg.Weights,
	})
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
