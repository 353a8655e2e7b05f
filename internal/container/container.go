package container

import (
	"context"
	"fmt"
	"time"

	"sambou/adapters/llm"
	"sambou/adapters/llm/heuristic"
	"sambou/adapters/postgres"
	"sambou/ai"
	"sambou/internal"
	"sambou/internal/api"
	"sambou/internal/config"
	"sambou/internal/deadlines"
	"sambou/internal/migration"
	"sambou/internal/usage"
	"sambou/internal/workflow"
	"sambou/ports"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Usage ledger
	UsageRepo ports.LLMUsageRepository
	Usage     *usage.Service

	// Oracles and reference data
	LLMClient ports.LLMClient // nil when running on heuristics only
	Oracles   ports.Oracles
	Catalog   *deadlines.Catalog

	// Workflow serving
	SSEHub   *api.SSEHub
	Registry *api.Registry
	Handler  *api.Handler
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	if err := c.initUsage(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize usage ledger: %w", err)
	}
	if err := c.initCatalog(); err != nil {
		c.closeDB()
		return nil, fmt.Errorf("failed to initialize department catalog: %w", err)
	}
	if err := c.initOracles(ctx); err != nil {
		c.closeDB()
		return nil, fmt.Errorf("failed to initialize oracles: %w", err)
	}
	c.initWorkflow()

	logger.Info("container initialized (provider=%s, departments=%d, postgres=%t)",
		cfg.AI.Provider, len(c.Catalog.Departments()), c.DB != nil)
	return c, nil
}

// initUsage picks the postgres ledger when DATABASE_URL is set, memory otherwise
func (c *Container) initUsage(ctx context.Context) error {
	if c.Config.Database.URL == "" {
		c.UsageRepo = usage.NewMemoryRepository()
		c.Usage = usage.NewService(c.UsageRepo, c.Logger)
		return nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.URL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	c.DB = db

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		c.closeDB()
		return fmt.Errorf("migrations failed: %w", err)
	}

	c.UsageRepo = postgres.NewLLMUsageRepository(db)
	c.Usage = usage.NewService(c.UsageRepo, c.Logger)
	return nil
}

func (c *Container) initCatalog() error {
	catalog := deadlines.DefaultCatalog()
	if path := c.Config.Catalog.CatalogFile; path != "" {
		loaded, err := deadlines.LoadCatalog(path)
		if err != nil {
			return err
		}
		catalog = loaded
	}
	if path := c.Config.Catalog.DeadlinesFile; path != "" {
		windows, err := deadlines.ReadWindows(path)
		if err != nil {
			return err
		}
		merged, err := catalog.WithWindows(windows)
		if err != nil {
			return err
		}
		c.Logger.Info("loaded %d deadline windows from %s", len(windows), path)
		catalog = merged
	}
	c.Catalog = catalog
	return nil
}

func (c *Container) initOracles(ctx context.Context) error {
	offline := heuristic.NewOracles()

	client, err := ai.NewLLMClient(ctx, c.Config.AI.LLMConfig(), c.Logger)
	if err != nil {
		return err
	}
	if client == nil {
		c.Logger.Info("no LLM provider configured, using heuristic oracles")
		c.Oracles = offline
		return nil
	}

	var fallback ports.Oracles
	if c.Config.AI.FallbackToHeuristic {
		fallback = offline
	}
	c.LLMClient = client
	c.Oracles = llm.NewOracles(
		client,
		ai.NewPromptManager(c.Config.AI.PromptsDir),
		llm.Config{
			SystemContext:       c.Config.AI.SystemContext,
			FallbackToHeuristic: c.Config.AI.FallbackToHeuristic,
		},
		c.Usage,
		fallback,
		c.Logger,
	)
	return nil
}

func (c *Container) initWorkflow() {
	c.SSEHub = api.NewSSEHub(c.Logger)
	c.Registry = api.NewRegistry(func(id string) *workflow.Controller {
		return workflow.NewController(id, workflow.Dependencies{
			Oracles: c.Oracles,
			Catalog: c.Catalog,
			Events:  c.SSEHub,
			Logger:  c.Logger,
		})
	})
	c.Handler = api.NewHandler(c.Registry, c.Catalog, c.Usage, c.Config.Server.SnippetTimeout, c.Logger)
}

// Router builds the HTTP engine
func (c *Container) Router() *gin.Engine {
	return api.NewRouter(api.RouterConfig{
		Handler:     c.Handler,
		Hub:         c.SSEHub,
		CORSOrigins: c.Config.Server.CORSOrigins,
		Logger:      c.Logger,
	})
}

// SweepSessions evicts idle sessions until ctx ends
func (c *Container) SweepSessions(ctx context.Context) error {
	ticker := time.NewTicker(c.Config.Server.SessionIdle / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := c.Registry.Sweep(c.Config.Server.SessionIdle); n > 0 {
				c.Logger.Info("evicted %d idle sessions", n)
			}
		}
	}
}

// Close drains background work and releases resources
func (c *Container) Close(ctx context.Context) error {
	if c.SSEHub != nil {
		c.SSEHub.Close()
	}
	if c.Handler != nil {
		if err := c.Handler.Wait(ctx); err != nil {
			c.Logger.Warn("background snippet requests still running: %v", err)
		}
	}
	if c.Usage != nil {
		if err := c.Usage.Flush(ctx); err != nil {
			c.Logger.Warn("usage records not flushed: %v", err)
		}
	}
	return c.closeDB()
}

func (c *Container) closeDB() error {
	if c.DB == nil {
		return nil
	}
	err := c.DB.Close()
	c.DB = nil
	return err
}
