package db

import (
	"fmt"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/agoralabs/agora-backend/internal/logger"
	"github.com/agoralabs/agora-backend/internal/types"
)

// Open connects to one tenant store and migrates the tables the pipeline
// writes to.
func Open(dsn string, log *logger.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty store DSN")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to store: %w", err)
	}
	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	if log != nil {
		log.Info("Connected to tenant store")
	}
	return gdb, nil
}

// Migrate creates or updates the pipeline's tables. Split out so tests can
// run it against sqlite.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&types.RankingEntry{},
		&types.UserProfile{},
		&types.RankingRun{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// Registry hands out one shared *gorm.DB per DSN. Tenants may point at the
// same physical store; they then share a connection pool.
type Registry struct {
	mu     sync.Mutex
	log    *logger.Logger
	stores map[string]*gorm.DB
	open   func(dsn string, log *logger.Logger) (*gorm.DB, error)
}

func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		log:    log.With("component", "StoreRegistry"),
		stores: make(map[string]*gorm.DB),
		open:   Open,
	}
}

// NewRegistryWithOpener lets tests substitute the connection function.
func NewRegistryWithOpener(log *logger.Logger, open func(dsn string, log *logger.Logger) (*gorm.DB, error)) *Registry {
	r := NewRegistry(log)
	r.open = open
	return r
}

func (r *Registry) Get(dsn string) (*gorm.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gdb, ok := r.stores[dsn]; ok {
		return gdb, nil
	}
	gdb, err := r.open(dsn, r.log)
	if err != nil {
		return nil, err
	}
	r.stores[dsn] = gdb
	return gdb, nil
}
