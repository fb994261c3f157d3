package repos

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/agoralabs/agora-backend/internal/logger"
	"github.com/agoralabs/agora-backend/internal/types"
)

// PropagateResult summarizes the denormalized score update on user profiles.
type PropagateResult struct {
	Updated int
	Skipped int
}

type UserProfileRepo interface {
	// PropagateScores writes each entry's value into the matching profile's
	// rank_score column, matching wallets case-insensitively. Entries with no
	// matching profile are no-ops. Runs in its own transaction, separate from
	// the ranking rewrite.
	PropagateScores(ctx context.Context, entries []*types.RankingEntry) (PropagateResult, error)
	GetByWallet(ctx context.Context, wallet string) (*types.UserProfile, error)
}

type userProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserProfileRepo(db *gorm.DB, baseLog *logger.Logger) UserProfileRepo {
	return &userProfileRepo{db: db, log: baseLog.With("repo", "UserProfileRepo")}
}

func (ur *userProfileRepo) PropagateScores(ctx context.Context, entries []*types.RankingEntry) (PropagateResult, error) {
	var result PropagateResult

	err := ur.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			entry := entry
			var affected int64
			rowErr := tx.Transaction(func(row *gorm.DB) error {
				res := row.Model(&types.UserProfile{}).
					Where("LOWER(wallet) = ?", strings.ToLower(entry.Address)).
					Update("rank_score", entry.Value)
				affected = res.RowsAffected
				return res.Error
			})
			if rowErr != nil {
				ur.log.Warn("Skipping score propagation", "address", entry.Address, "error", rowErr)
				result.Skipped++
				continue
			}
			if affected > 0 {
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return PropagateResult{}, &TransactionError{Op: "propagate", Err: err}
	}
	return result, nil
}

func (ur *userProfileRepo) GetByWallet(ctx context.Context, wallet string) (*types.UserProfile, error) {
	var profile types.UserProfile
	if err := ur.db.WithContext(ctx).
		Where("LOWER(wallet) = ?", strings.ToLower(wallet)).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}
