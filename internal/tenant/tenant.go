package tenant

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/agoralabs/agora-backend/internal/logger"
)

// Config is the full set of knobs for one tenant: where attestations come
// from, how seed edges are weighted, and which store the leaderboard lands in.
// Configs are loaded once at startup and never mutated.
type Config struct {
	Key               string
	ScanURL           string
	InteractionSchema string
	SeedSchema        string
	SeedCategory      string
	PageLimit         int
	Weights           map[string]float64
	StoreEnv          string
	StoreDSN          string
}

type tenantYAML struct {
	ScanURL           string             `yaml:"scan_url"`
	InteractionSchema string             `yaml:"interaction_schema"`
	SeedSchema        string             `yaml:"seed_schema"`
	SeedCategory      string             `yaml:"seed_category"`
	PageLimit         int                `yaml:"page_limit"`
	Weights           map[string]float64 `yaml:"weights"`
	StoreEnv          string             `yaml:"store_env"`
}

type fileYAML struct {
	Tenants map[string]tenantYAML `yaml:"tenants"`
}

type UnknownTenantError struct {
	Key string
}

func (e *UnknownTenantError) Error() string {
	return fmt.Sprintf("unknown tenant %q", e.Key)
}

type MissingStoreError struct {
	Key      string
	StoreEnv string
}

func (e *MissingStoreError) Error() string {
	return fmt.Sprintf("tenant %q has no store DSN (env %s unset)", e.Key, e.StoreEnv)
}

// Resolver is an immutable lookup of tenant key to Config.
type Resolver struct {
	log     *logger.Logger
	tenants map[string]Config
}

// LoadResolver reads the tenant definition file and captures each tenant's
// store DSN from the environment. A missing DSN is not an error at load time;
// it surfaces as MissingStoreError when that tenant is resolved.
func LoadResolver(path string, log *logger.Logger) (*Resolver, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tenant config %s: %w", path, err)
	}
	var parsed fileYAML
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse tenant config %s: %w", path, err)
	}
	if len(parsed.Tenants) == 0 {
		return nil, fmt.Errorf("tenant config %s defines no tenants", path)
	}

	tenants := make(map[string]Config, len(parsed.Tenants))
	for key, t := range parsed.Tenants {
		if t.ScanURL == "" || t.InteractionSchema == "" || t.SeedSchema == "" {
			return nil, fmt.Errorf("tenant %q: scan_url, interaction_schema and seed_schema are required", key)
		}
		cfg := Config{
			Key:               key,
			ScanURL:           t.ScanURL,
			InteractionSchema: t.InteractionSchema,
			SeedSchema:        t.SeedSchema,
			SeedCategory:      t.SeedCategory,
			PageLimit:         t.PageLimit,
			Weights:           t.Weights,
			StoreEnv:          t.StoreEnv,
		}
		if cfg.PageLimit <= 0 {
			cfg.PageLimit = 50
		}
		if cfg.StoreEnv != "" {
			cfg.StoreDSN = os.Getenv(cfg.StoreEnv)
		}
		tenants[key] = cfg
		if log != nil {
			log.Info("Loaded tenant", "tenant", key, "scanURL", cfg.ScanURL, "weights", len(cfg.Weights))
		}
	}
	return &Resolver{log: log, tenants: tenants}, nil
}

// NewResolver builds a resolver from in-memory configs. Tests use this to
// avoid touching the filesystem or the environment.
func NewResolver(log *logger.Logger, configs ...Config) *Resolver {
	tenants := make(map[string]Config, len(configs))
	for _, c := range configs {
		tenants[c.Key] = c
	}
	return &Resolver{log: log, tenants: tenants}
}

func (r *Resolver) Resolve(key string) (Config, error) {
	cfg, ok := r.tenants[key]
	if !ok {
		return Config{}, &UnknownTenantError{Key: key}
	}
	if cfg.StoreDSN == "" {
		return Config{}, &MissingStoreError{Key: key, StoreEnv: cfg.StoreEnv}
	}
	return cfg, nil
}

// Keys returns every configured tenant key.
func (r *Resolver) Keys() []string {
	keys := make([]string, 0, len(r.tenants))
	for k := range r.tenants {
		keys = append(keys, k)
	}
	return keys
}
