package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agoralabs/agora-backend/internal/db"
	"github.com/agoralabs/agora-backend/internal/logger"
	"github.com/agoralabs/agora-backend/internal/repos"
	"github.com/agoralabs/agora-backend/internal/tenant"
	"github.com/agoralabs/agora-backend/internal/types"
)

func testLeaderboard(t *testing.T) (LeaderboardService, *gorm.DB) {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "agora.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	stores := db.NewRegistryWithOpener(log, func(dsn string, _ *logger.Logger) (*gorm.DB, error) {
		return gdb, nil
	})
	resolver := tenant.NewResolver(log, tenant.Config{
		Key:               "agora",
		ScanURL:           "https://scan.test",
		InteractionSchema: "0xint",
		SeedSchema:        "0xseed",
		StoreDSN:          "test-dsn",
	})
	return NewLeaderboardService(log, resolver, stores, nil, 0), gdb
}

func TestLeaderboardPageWithoutRedis(t *testing.T) {
	ls, gdb := testLeaderboard(t)
	ctx := context.Background()

	log, _ := logger.New("development")
	seed := []*types.RankingEntry{
		{Address: "0xb", Value: 9, Position: 1},
		{Address: "0xc", Value: 7, Position: 2},
		{Address: "0xa", Value: 5, Position: 3},
	}
	if _, err := repos.NewRankingRepo(gdb, log).ReplaceAll(ctx, seed); err != nil {
		t.Fatalf("seed rankings: %v", err)
	}

	page, err := ls.Page(ctx, "agora", 2, 0)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if len(page) != 2 || page[0].Address != "0xb" || page[1].Address != "0xc" {
		t.Fatalf("unexpected page %+v", page)
	}

	total, err := ls.Total(ctx, "agora")
	if err != nil {
		t.Fatalf("Total: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
}

func TestLeaderboardPageUnknownTenant(t *testing.T) {
	ls, _ := testLeaderboard(t)
	_, err := ls.Page(context.Background(), "nope", 10, 0)
	var unknown *tenant.UnknownTenantError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownTenantError, got %v", err)
	}
}
