package types

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile carries the denormalized rank score for an onboarded user. The
// wallet column is the case-insensitive join key against ranking addresses.
type UserProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Wallet    string    `gorm:"uniqueIndex;not null;column:wallet" json:"wallet"`
	Handle    string    `gorm:"column:handle" json:"handle"`
	RankScore float64   `gorm:"column:rank_score" json:"rank_score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "users"
}
