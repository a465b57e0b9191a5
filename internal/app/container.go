package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/doeshing/cmdguard/assets"
	"github.com/doeshing/cmdguard/internal/application/validate"
	"github.com/doeshing/cmdguard/internal/domain"
	"github.com/doeshing/cmdguard/internal/infrastructure/audit"
	"github.com/doeshing/cmdguard/internal/infrastructure/config"
	"github.com/doeshing/cmdguard/internal/infrastructure/feed"
	"github.com/doeshing/cmdguard/internal/infrastructure/probe"
	"github.com/doeshing/cmdguard/internal/infrastructure/provider"
	"github.com/doeshing/cmdguard/internal/infrastructure/registry"
	"github.com/doeshing/cmdguard/internal/pkg/logger"
	"github.com/doeshing/cmdguard/internal/ports"
)

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config          domain.Config
	ConfigLoader    *config.FileLoader
	Registry        *registry.Registry
	Refresher       *registry.Refresher
	ValidateService *validate.Service
	AuditStore      ports.AuditRepository
	Logger          ports.Logger
}

// BuildContainer constructs the dependency graph and performs the initial
// ruleset load. Only configuration errors are fatal here; provider failures
// degrade coverage and are logged.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	log := logger.NewStd(verbose)

	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	providers := buildProviders(cfg, log)
	reg := registry.New(providers, cfg, log)
	if err := reg.Reload(ctx); err != nil {
		return nil, err
	}

	refresher, err := registry.NewRefresher(reg, cfg.RefreshEvery(), log)
	if err != nil {
		return nil, err
	}

	var auditStore ports.AuditRepository = noopAudit{}
	if cfg.Audit.Enabled {
		auditStore = audit.NewSQLiteStore(cfg.Audit.Path)
	}

	service := &validate.Service{
		Rules:      reg,
		Probe:      probe.NewOSProbe(),
		Logger:     log,
		Strictness: cfg.EffectiveStrictness(),
	}

	return &Container{
		Config:          cfg,
		ConfigLoader:    cfgLoader,
		Registry:        reg,
		Refresher:       refresher,
		ValidateService: service,
		AuditStore:      auditStore,
		Logger:          log,
	}, nil
}

func buildProviders(cfg domain.Config, log ports.Logger) []ports.RuleProvider {
	var providers []ports.RuleProvider

	// The embedded corpus is the safety floor and cannot be disabled by
	// provider failure, only by explicit configuration.
	if cfg.Providers.Embedded.Enabled {
		providers = append(providers, provider.NewEmbedded(
			assets.RulesVersion,
			assets.DefaultRulesYAML,
			cfg.PriorityFor("embedded", domain.DefaultPriorityEmbedded),
			log,
		))
	}
	if cfg.Providers.Local.Enabled {
		providers = append(providers, provider.NewLocal(
			cfg.Providers.Local.Dir,
			cfg.PriorityFor("local", domain.DefaultPriorityLocal),
			log,
		))
	}
	if cfg.Providers.Vendor.Enabled && cfg.Providers.Vendor.Path != "" {
		providers = append(providers, provider.NewVendorAdapter(
			cfg.Providers.Vendor.Name,
			cfg.Providers.Vendor.Path,
			cfg.PriorityFor("vendor", domain.DefaultPriorityVendor),
			log,
		))
	}
	if cfg.Providers.Remote.Enabled && cfg.Providers.Remote.URL != "" {
		fetcher := feed.NewHTTPFetcher(cfg.Providers.Remote.URL, os.Getenv("CMDGUARD_FEED_TOKEN"))
		providers = append(providers, provider.NewRemote(
			cfg.Providers.Remote.URL,
			fetcher,
			time.Duration(cfg.Providers.Remote.TimeoutSeconds)*time.Second,
			cfg.RefreshEvery(),
			cfg.PriorityFor("remote", domain.DefaultPriorityRemote),
			log,
		))
	}
	return providers
}

type noopAudit struct{}

func (noopAudit) Record(domain.AuditRecord) error { return nil }
func (noopAudit) Recent(int, string) ([]domain.AuditRecord, error) {
	return nil, nil
}
func (noopAudit) Path() string { return "" }
