package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agoralabs/agora-backend/internal/logger"
	"github.com/agoralabs/agora-backend/internal/types"
)

// ReplaceResult summarizes one leaderboard rewrite.
type ReplaceResult struct {
	Written int
	Skipped int
}

type RankingRepo interface {
	// ReplaceAll clears the ranking table and writes the new entries inside
	// one transaction. A single bad row is logged and skipped; a failure to
	// clear or commit rolls everything back and returns a TransactionError.
	ReplaceAll(ctx context.Context, entries []*types.RankingEntry) (ReplaceResult, error)
	List(ctx context.Context, limit, offset int) ([]*types.RankingEntry, error)
	Count(ctx context.Context) (int64, error)
}

type rankingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRankingRepo(db *gorm.DB, baseLog *logger.Logger) RankingRepo {
	return &rankingRepo{db: db, log: baseLog.With("repo", "RankingRepo")}
}

func (rr *rankingRepo) ReplaceAll(ctx context.Context, entries []*types.RankingEntry) (ReplaceResult, error) {
	var result ReplaceResult

	err := rr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&types.RankingEntry{}).Error; err != nil {
			return &TransactionError{Op: "clear", Err: err}
		}

		for _, entry := range entries {
			entry := entry
			// Each row gets its own savepoint so one bad row does not poison
			// the surrounding transaction.
			rowErr := tx.Transaction(func(row *gorm.DB) error {
				return row.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "address"}},
					DoUpdates: clause.AssignmentColumns([]string{"value", "position"}),
				}).Create(entry).Error
			})
			if rowErr != nil {
				rr.log.Warn("Skipping ranking row", "address", entry.Address, "error", rowErr)
				result.Skipped++
				continue
			}
			result.Written++
		}
		return nil
	})
	if err != nil {
		if _, ok := err.(*TransactionError); !ok {
			err = &TransactionError{Op: "commit", Err: err}
		}
		return ReplaceResult{}, err
	}
	return result, nil
}

func (rr *rankingRepo) List(ctx context.Context, limit, offset int) ([]*types.RankingEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	var results []*types.RankingEntry
	if err := rr.db.WithContext(ctx).
		Order("position ASC").
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *rankingRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := rr.db.WithContext(ctx).
		Model(&types.RankingEntry{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
