package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// RankingRun records one pipeline execution per tenant: how many nodes were
// ranked, how persistence went, and a snapshot of the tenant parameters the
// run used.
type RankingRun struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantKey  string         `gorm:"index;not null;column:tenant_key" json:"tenant_key"`
	Status     string         `gorm:"not null;column:status" json:"status"`
	Ranked     int            `gorm:"column:ranked" json:"ranked"`
	Written    int            `gorm:"column:written" json:"written"`
	Skipped    int            `gorm:"column:skipped" json:"skipped"`
	Propagated int            `gorm:"column:propagated" json:"propagated"`
	Error      string         `gorm:"column:error" json:"error,omitempty"`
	Snapshot   datatypes.JSON `gorm:"column:snapshot" json:"snapshot,omitempty"`
	StartedAt  time.Time      `gorm:"not null;column:started_at" json:"started_at"`
	FinishedAt *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
}

func (RankingRun) TableName() string {
	return "ranking_runs"
}
