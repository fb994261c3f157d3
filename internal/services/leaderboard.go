package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/agoralabs/agora-backend/internal/db"
	"github.com/agoralabs/agora-backend/internal/logger"
	"github.com/agoralabs/agora-backend/internal/repos"
	"github.com/agoralabs/agora-backend/internal/tenant"
	"github.com/agoralabs/agora-backend/internal/types"
)

type LeaderboardService interface {
	// Page reads one leaderboard page for a tenant, serving from redis when a
	// cached copy exists.
	Page(ctx context.Context, tenantKey string, limit, offset int) ([]*types.RankingEntry, error)
	Total(ctx context.Context, tenantKey string) (int64, error)
	// Runs lists the tenant's most recent pipeline runs, newest first.
	Runs(ctx context.Context, tenantKey string, limit int) ([]*types.RankingRun, error)
	// Invalidate drops every cached page for the tenant. Called after a
	// successful pipeline run.
	Invalidate(ctx context.Context, tenantKey string)
}

type leaderboardService struct {
	log     *logger.Logger
	tenants *tenant.Resolver
	stores  *db.Registry
	rdb     *goredis.Client
	ttl     time.Duration
}

// NewLeaderboardService builds the read side. rdb may be nil; reads then go
// straight to the store.
func NewLeaderboardService(log *logger.Logger, tenants *tenant.Resolver, stores *db.Registry, rdb *goredis.Client, ttl time.Duration) LeaderboardService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &leaderboardService{
		log:     log.With("service", "LeaderboardService"),
		tenants: tenants,
		stores:  stores,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func cacheKey(tenantKey string, limit, offset int) string {
	return fmt.Sprintf("rankings:%s:%d:%d", tenantKey, limit, offset)
}

func (ls *leaderboardService) Page(ctx context.Context, tenantKey string, limit, offset int) ([]*types.RankingEntry, error) {
	cfg, err := ls.tenants.Resolve(tenantKey)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	if ls.rdb != nil {
		if cached, err := ls.rdb.Get(ctx, cacheKey(tenantKey, limit, offset)).Bytes(); err == nil {
			var entries []*types.RankingEntry
			if err := json.Unmarshal(cached, &entries); err == nil {
				return entries, nil
			}
		}
	}

	store, err := ls.stores.Get(cfg.StoreDSN)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: open store: %w", tenantKey, err)
	}
	entries, err := repos.NewRankingRepo(store, ls.log).List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: list rankings: %w", tenantKey, err)
	}

	if ls.rdb != nil {
		if raw, err := json.Marshal(entries); err == nil {
			if err := ls.rdb.Set(ctx, cacheKey(tenantKey, limit, offset), raw, ls.ttl).Err(); err != nil {
				ls.log.Warn("Could not cache leaderboard page", "tenant", tenantKey, "error", err)
			}
		}
	}
	return entries, nil
}

func (ls *leaderboardService) Total(ctx context.Context, tenantKey string) (int64, error) {
	cfg, err := ls.tenants.Resolve(tenantKey)
	if err != nil {
		return 0, err
	}
	store, err := ls.stores.Get(cfg.StoreDSN)
	if err != nil {
		return 0, fmt.Errorf("tenant %s: open store: %w", tenantKey, err)
	}
	return repos.NewRankingRepo(store, ls.log).Count(ctx)
}

func (ls *leaderboardService) Runs(ctx context.Context, tenantKey string, limit int) ([]*types.RankingRun, error) {
	cfg, err := ls.tenants.Resolve(tenantKey)
	if err != nil {
		return nil, err
	}
	store, err := ls.stores.Get(cfg.StoreDSN)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: open store: %w", tenantKey, err)
	}
	return repos.NewRankingRunRepo(store, ls.log).ListByTenant(ctx, tenantKey, limit)
}

func (ls *leaderboardService) Invalidate(ctx context.Context, tenantKey string) {
	if ls.rdb == nil {
		return
	}
	pattern := fmt.Sprintf("rankings:%s:*", tenantKey)
	iter := ls.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := ls.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			ls.log.Warn("Could not drop cached page", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		ls.log.Warn("Cache invalidation scan failed", "tenant", tenantKey, "error", err)
	}
}
