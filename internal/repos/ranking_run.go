package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agoralabs/agora-backend/internal/logger"
	"github.com/agoralabs/agora-backend/internal/types"
)

type RankingRunRepo interface {
	Create(ctx context.Context, run *types.RankingRun) error
	Finish(ctx context.Context, runID uuid.UUID, status string, counts types.RankingRun) error
	ListByTenant(ctx context.Context, tenantKey string, limit int) ([]*types.RankingRun, error)
}

type rankingRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRankingRunRepo(db *gorm.DB, baseLog *logger.Logger) RankingRunRepo {
	return &rankingRunRepo{db: db, log: baseLog.With("repo", "RankingRunRepo")}
}

func (rr *rankingRunRepo) Create(ctx context.Context, run *types.RankingRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = types.RunStatusRunning
	}
	return rr.db.WithContext(ctx).Create(run).Error
}

func (rr *rankingRunRepo) Finish(ctx context.Context, runID uuid.UUID, status string, counts types.RankingRun) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":      status,
		"ranked":      counts.Ranked,
		"written":     counts.Written,
		"skipped":     counts.Skipped,
		"propagated":  counts.Propagated,
		"error":       counts.Error,
		"finished_at": &now,
	}
	return rr.db.WithContext(ctx).
		Model(&types.RankingRun{}).
		Where("id = ?", runID).
		Updates(updates).Error
}

func (rr *rankingRunRepo) ListByTenant(ctx context.Context, tenantKey string, limit int) ([]*types.RankingRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []*types.RankingRun
	if err := rr.db.WithContext(ctx).
		Where("tenant_key = ?", tenantKey).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
