package container

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vitingo/advance-workflow/internal/application/dispatcher"
	"github.com/vitingo/advance-workflow/internal/application/port"
	"github.com/vitingo/advance-workflow/internal/application/service"
	"github.com/vitingo/advance-workflow/internal/auth"
	"github.com/vitingo/advance-workflow/internal/infrastructure/backend"
	"github.com/vitingo/advance-workflow/internal/infrastructure/cache"
	"github.com/vitingo/advance-workflow/internal/infrastructure/document"
	"github.com/vitingo/advance-workflow/internal/infrastructure/export"
	"github.com/vitingo/advance-workflow/internal/infrastructure/external/lark"
	"github.com/vitingo/advance-workflow/internal/infrastructure/external/openai"
	"github.com/vitingo/advance-workflow/internal/infrastructure/persistence/repository"
	"github.com/vitingo/advance-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/vitingo/advance-workflow/internal/infrastructure/storage"
	"github.com/vitingo/advance-workflow/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Raw            *database.DB
	TransactionMgr *sqlite.DB
}

// RepositoryBundle groups the local repositories.
type RepositoryBundle struct {
	Drafts    port.DraftRepository
	Decisions port.DecisionRepository
}

// ExternalBundle holds the clients for systems outside the process.
type ExternalBundle struct {
	Backend  *backend.Client
	Notifier port.Notifier
	Receipts port.ReceiptReader
	Previews port.PreviewURLProvider
}

// CacheBundle holds the reference cache and an optional health probe.
type CacheBundle struct {
	Cache port.Cache
	Ping  func(ctx context.Context) error
	Close func() error
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Closing      *service.ClosingService
	Finance      *service.FinanceService
	References   service.ReferenceService
	Notification service.NotificationService
	Verifier     *auth.Verifier
}

// ServiceDeps holds what ProvideServices needs.
type ServiceDeps struct {
	Config       *Config
	DB           *DatabaseBundle
	Repositories *RepositoryBundle
	External     *ExternalBundle
	Cache        port.Cache
	Dispatcher   dispatcher.Dispatcher
	Logger       *zap.Logger
}

// ProvideDatabase opens the local store and applies pending migrations.
func ProvideDatabase(cfg *database.Config, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(*cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Run(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		Raw:            db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates the draft and decision repositories.
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	return &RepositoryBundle{
		Drafts:    repository.NewDraftRepository(db, logger),
		Decisions: repository.NewDecisionRepository(db, logger),
	}, nil
}

// ProvideCache creates the reference data cache for the configured driver.
func ProvideCache(cfg *CacheConfig, logger *zap.Logger) (*CacheBundle, error) {
	switch cfg.Driver {
	case CacheDriverMemory, "":
		logger.Info("Using in-memory reference cache")
		return &CacheBundle{Cache: cache.NewMemory()}, nil
	case CacheDriverRedis:
		rdb := cache.NewRedisClient(cfg.Redis)
		c := cache.NewRedis(rdb, cfg.Redis.Prefix)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Ping(ctx); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}

		logger.Info("Using Redis reference cache", zap.String("addr", cfg.Redis.Addr))
		return &CacheBundle{Cache: c, Ping: c.Ping, Close: rdb.Close}, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// ProvideExternal creates the backend client, the notifier, the receipt
// reader and the preview presigner. The last two are nil when unconfigured.
func ProvideExternal(cfg *Config, logger *zap.Logger) (*ExternalBundle, error) {
	bundle := &ExternalBundle{
		Backend: backend.NewClient(cfg.Backend, logger.Named("backend")),
	}

	if cfg.Lark.Enabled {
		client := lark.NewSDKClient(cfg.Lark.Client)
		bundle.Notifier = lark.NewNotifier(client, cfg.Lark.Client.ReceiveIDType, logger.Named("lark"))
		logger.Info("Lark notifications enabled")
	} else {
		bundle.Notifier = lark.NewLogNotifier(logger.Named("notify"))
	}

	if cfg.OpenAI.APIKey != "" {
		prompts := openai.DefaultPrompts()
		if cfg.OpenAI.PromptsPath != "" {
			loaded, err := openai.LoadPrompts(cfg.OpenAI.PromptsPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load prompts: %w", err)
			}
			prompts = loaded
		}
		bundle.Receipts = openai.NewReceiptReader(openai.NewClient(cfg.OpenAI), cfg.OpenAI.Model, prompts, logger.Named("openai"))
		logger.Info("Receipt reading enabled", zap.String("model", cfg.OpenAI.Model))
	}

	if cfg.Storage.Endpoint != "" {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			return nil, err
		}
		bundle.Previews = storage.NewPresigner(client, cfg.Storage.Bucket, cfg.Storage.PresignExpiry, logger.Named("storage"))
		logger.Info("File previews enabled", zap.String("bucket", cfg.Storage.Bucket))
	}

	return bundle, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return dispatcher.NewDispatcher(dispatcher.WithLogger(logger.Named("events").Sugar())), nil
}

// ProvideServices creates the application services and subscribes the
// notification handler.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Config == nil || deps.External == nil || deps.Repositories == nil || deps.DB == nil {
		return nil, fmt.Errorf("service dependencies are incomplete")
	}

	sugar := deps.Logger.Sugar()
	api := deps.External.Backend

	references := service.NewReferenceService(api, deps.Cache, deps.Config.Cache.TTL, sugar.Named("references"))

	closing := service.NewClosingService(service.ClosingDeps{
		Locator:     service.NewAdvanceLocator(api, sugar.Named("locator")),
		Advances:    api,
		Expenses:    api,
		Converter:   api,
		Uploader:    api,
		Drafts:      deps.Repositories.Drafts,
		Inspector:   document.NewInspector(document.DefaultRenderDPI, deps.Logger.Named("document")),
		Receipts:    deps.External.Receipts,
		Exporter:    export.NewSummaryXLSX(deps.Logger.Named("export")),
		References:  references,
		Events:      deps.Dispatcher,
		Logger:      sugar.Named("closing"),
		ReloadDelay: deps.Config.ReloadDelay,
	})

	finance := service.NewFinanceService(service.FinanceDeps{
		Advances:   api,
		Expenses:   api,
		Converter:  api,
		Finance:    api,
		References: references,
		Decisions:  deps.Repositories.Decisions,
		TxManager:  deps.DB.TransactionMgr,
		Events:     deps.Dispatcher,
		Logger:     sugar.Named("finance"),
	})

	notification := service.NewNotificationService(deps.External.Notifier, sugar.Named("notification"))
	if deps.Dispatcher != nil {
		notification.Register(deps.Dispatcher)
	}

	return &ServiceBundle{
		Closing:      closing,
		Finance:      finance,
		References:   references,
		Notification: notification,
		Verifier:     auth.NewVerifier(deps.Config.Auth),
	}, nil
}
