package types

import "time"

// RankingEntry is one leaderboard row. The whole table is replaced on every
// pipeline run; there is no incremental update.
type RankingEntry struct {
	Address   string    `gorm:"primaryKey;column:address" json:"address"`
	Value     float64   `gorm:"not null;column:value" json:"value"`
	Position  int       `gorm:"not null;column:position" json:"position"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RankingEntry) TableName() string {
	return "rankings"
}
