package commands

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/vsinha/bagplan/pkg/application/services/bom"
	"github.com/vsinha/bagplan/pkg/application/services/fleet"
	"github.com/vsinha/bagplan/pkg/application/services/orchestration"
	"github.com/vsinha/bagplan/pkg/application/services/processor"
	"github.com/vsinha/bagplan/pkg/domain/entities"
	"github.com/vsinha/bagplan/pkg/domain/repositories"
	"github.com/vsinha/bagplan/pkg/infrastructure/config"
	"github.com/vsinha/bagplan/pkg/infrastructure/events"
	"github.com/vsinha/bagplan/pkg/infrastructure/feed"
	"github.com/vsinha/bagplan/pkg/infrastructure/logging"
	"github.com/vsinha/bagplan/pkg/infrastructure/metrics"
	"github.com/vsinha/bagplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/bagplan/pkg/infrastructure/repositories/memory"
	redisstore "github.com/vsinha/bagplan/pkg/infrastructure/repositories/redis"
	"go.uber.org/zap"
)

// AppOptions override configuration for a single command invocation
type AppOptions struct {
	InventoryFile string
	FleetFile     string
	Policy        string
	Logger        *zap.Logger
	Registry      *prometheus.Registry
}

// App is the wired set of services every command works from
type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	Calculator   *bom.Calculator
	Machines     []entities.MachineSpec
	Processor    *processor.Processor
	Orchestrator *orchestration.PlanningOrchestrator
	Store        repositories.BulkOrderStore
	Metrics      *metrics.Collector
	Events       *events.InMemoryEventStore

	redis redis.UniversalClient
}

// NewApp builds the calculator, fleet, feed, processor and run store
func NewApp(cfg *config.Config, opts AppOptions) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		var err error
		if logger, err = logging.New(cfg.Log); err != nil {
			return nil, fmt.Errorf("failed to init logger: %w", err)
		}
	}

	calc, err := bom.NewCalculator(bom.Config{
		BagsPerCarton:   cfg.Planning.BagsPerCarton,
		SeamAllowanceMM: cfg.Planning.SeamAllowanceMM,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create BOM calculator: %w", err)
	}

	machines, err := loadMachines(firstNonEmpty(opts.FleetFile, cfg.Planning.FleetFile))
	if err != nil {
		return nil, err
	}

	inventoryFeed, err := newFeed(cfg.InventoryFeed, opts.InventoryFile, logger)
	if err != nil {
		return nil, err
	}

	policy, err := processor.ParseCommitPolicy(firstNonEmpty(opts.Policy, cfg.Planning.MachineCommitPolicy))
	if err != nil {
		return nil, err
	}

	scoring := fleet.DefaultScoringConfig()
	scoring.Epsilon = cfg.Planning.ScoreEpsilon
	if cfg.Planning.OptimalRunHours > 0 {
		scoring.OptimalRunHours = cfg.Planning.OptimalRunHours
	}
	if cfg.Planning.LargeOrderBags > 0 {
		scoring.LargeOrderBags = cfg.Planning.LargeOrderBags
	}

	collector := metrics.NewCollector(opts.Registry)
	eventStore := events.NewBoundedEventStore(logger, cfg.Events.MaxRuns)

	proc, err := processor.NewProcessor(processor.Config{
		Calculator: calc,
		Feed:       inventoryFeed,
		Machines:   machines,
		Scoring:    scoring,
		Policy:     policy,
		Logger:     logger,
		Events:     eventStore,
		Metrics:    collector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create processor: %w", err)
	}

	app := &App{
		Config:     cfg,
		Logger:     logger,
		Calculator: calc,
		Machines:   machines,
		Processor:  proc,
		Metrics:    collector,
		Events:     eventStore,
	}

	switch cfg.Store.Driver {
	case "redis":
		app.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		app.Store = redisstore.NewRunStore(app.redis, cfg.Store.KeyPrefix, cfg.Store.TTL)
	default:
		app.Store = memory.NewRunStore()
	}

	app.Orchestrator = orchestration.NewPlanningOrchestrator(proc, calc, app.Store, machines, logger).
		WithEventLog(eventStore)
	return app, nil
}

// Close releases the redis connection and flushes the logger
func (a *App) Close() error {
	var err error
	if a.redis != nil {
		err = a.redis.Close()
	}
	_ = a.Logger.Sync()
	return err
}

func loadMachines(path string) ([]entities.MachineSpec, error) {
	if path == "" {
		return fleet.DefaultCatalog(), nil
	}
	machines, err := fleet.LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	return machines, nil
}

// newFeed picks the stock source: an explicit snapshot file, then the
// configured snapshot file, then the HTTP feed. No source yields a nil feed
// and every run starts from an empty ledger.
func newFeed(cfg config.FeedConfig, inventoryFile string, logger *zap.Logger) (repositories.InventoryFeed, error) {
	if path := firstNonEmpty(inventoryFile, cfg.SnapshotFile); path != "" {
		snapshot, err := csv.NewLoader().LoadSnapshot(path)
		if err != nil {
			return nil, fmt.Errorf("error loading inventory: %w", err)
		}
		return feed.NewStaticFeed(snapshot), nil
	}
	if cfg.URL != "" {
		return feed.NewHTTPFeed(feed.HTTPOptions{
			URL:           cfg.URL,
			Token:         cfg.Token,
			Timeout:       cfg.Timeout,
			CodeField:     cfg.CodeField,
			QuantityField: cfg.QuantityField,
			PageSize:      cfg.PageSize,
			Logger:        logger,
		}), nil
	}
	logger.Warn("no inventory source configured")
	return nil, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
