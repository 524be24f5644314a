package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/handlers"
	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/logs"
	"github.com/ternarybob/studium/internal/services/archive"
	"github.com/ternarybob/studium/internal/services/digest"
	"github.com/ternarybob/studium/internal/services/events"
	"github.com/ternarybob/studium/internal/services/llm"
	"github.com/ternarybob/studium/internal/services/pipeline"
	"github.com/ternarybob/studium/internal/services/scheduler"
	"github.com/ternarybob/studium/internal/services/scraper"
	"github.com/ternarybob/studium/internal/services/status"
	"github.com/ternarybob/studium/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Event-driven services
	EventService  interfaces.EventService
	StatusService *status.Service
	LogConsumer   *logs.Consumer

	// Generation pipeline
	Generator       interfaces.Generator
	ScraperService  interfaces.ScraperService
	PipelineService interfaces.PipelineService
	DigestService   interfaces.DigestService
	ArchiveService  interfaces.ArchiveService

	// Scheduling
	SchedulerService interfaces.SchedulerService

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	ContentHandler   *handlers.ContentHandler
	GenerateHandler  *handlers.GenerateHandler
	RunsHandler      *handlers.RunsHandler
	DigestHandler    *handlers.DigestHandler
	StatusHandler    *handlers.StatusHandler
	VariablesHandler *handlers.VariablesHandler
	SchedulerHandler *handlers.SchedulerHandler
	WSHandler        *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Event service and WebSocket handler come up before everything else
	// so run progress and logs stream to clients from the first service
	// onward.
	app.EventService = events.NewService(app.Logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, app.Logger, &app.Config.WebSocket)

	// The log consumer drains the arbor context channel: correlated
	// entries are persisted per run, and entries at or above
	// min_event_level are republished as log events for the UI.
	logConsumer := logs.NewConsumer(
		app.StorageManager.RunLogStorage(),
		app.EventService,
		app.Logger,
		app.Config.Logging.MinEventLevel,
	)
	if err := logConsumer.Start(); err != nil {
		return nil, fmt.Errorf("failed to start log consumer: %w", err)
	}
	app.LogConsumer = logConsumer

	app.Logger.SetChannel("context", logConsumer.GetChannel())

	// Initialize services (AFTER the log consumer is wired)
	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	if err := app.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	provider := "disabled"
	if app.Generator != nil {
		provider = app.Generator.Name()
	}
	logger.Info().
		Str("llm_provider", provider).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Bool("archive_enabled", app.ArchiveService.Enabled()).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	// Seed the KV store before config replacement so loaded variables can
	// satisfy {key-name} references in config values.
	if err := a.StorageManager.LoadVariablesFromFiles(context.Background(), a.Config.Variables.Dir); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to load variables from files")
	}

	// .env entries take precedence over TOML variables
	if err := a.StorageManager.LoadEnvFile(context.Background(), ".env"); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to load .env file")
	}

	ctx := context.Background()
	kvMap, err := a.StorageManager.KeyValueStorage().GetAll(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to fetch KV map for config replacement, skipping replacement")
	} else if len(kvMap) > 0 {
		if err := common.ReplaceInStruct(a.Config, kvMap, a.Logger); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to replace key references in config")
		} else {
			a.Logger.Debug().Int("keys", len(kvMap)).Msg("Applied key/value replacements to config")
		}
	} else {
		a.Logger.Debug().Msg("No key/value pairs found, skipping config replacement")
	}

	return nil
}

// initServices initializes all business services in dependency order
func (a *App) initServices() error {
	var err error

	// Status service mirrors run lifecycle events into the app state
	a.StatusService = status.NewService(a.EventService, a.Logger)
	a.StatusService.SubscribeToRunEvents()
	a.Logger.Debug().Msg("Status service initialized")

	// LLM generator. Startup continues without one; generation endpoints
	// report the pipeline as unavailable until a provider is configured.
	a.Generator, err = llm.NewGenerator(a.Config, a.StorageManager.KeyValueStorage(), a.Logger)
	if err != nil {
		a.Generator = nil
		a.Logger.Warn().Err(err).Msg("Failed to initialize LLM generator - content generation will be unavailable")
		a.Logger.Info().Msg("To enable generation, set STUDIUM_GEMINI_API_KEY or gemini.api_key in config")
	}

	// Scraper service assembles the news sources for a date key
	a.ScraperService = scraper.NewService(a.Config, a.Logger)

	// Digest service renders stored content as markdown and PDF
	a.DigestService = digest.NewService(a.Logger)
	a.Logger.Debug().Msg("Digest service initialized")

	// Archive publisher. A disabled config yields an inert service; an
	// enabled one with missing credentials is a config mistake.
	a.ArchiveService, err = archive.NewService(a.Config.Archive, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize archive service: %w", err)
	}
	if a.ArchiveService.Enabled() {
		a.Logger.Debug().
			Str("repo", fmt.Sprintf("%s/%s", a.Config.Archive.Owner, a.Config.Archive.Repo)).
			Msg("Archive service initialized")
	}

	// Prompt templates ship compiled in; a configured override file must
	// parse or startup fails.
	prompts, err := pipeline.LoadPrompts(a.Config.Prompts.File)
	if err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}

	a.PipelineService = pipeline.NewService(
		a.Config,
		prompts,
		a.Generator,
		a.ScraperService,
		a.StorageManager,
		a.EventService,
		a.ArchiveService,
		a.DigestService,
		a.Logger,
	)
	a.Logger.Debug().Msg("Pipeline service initialized")

	// Scheduler owns the daily generation job
	schedulerService := scheduler.NewService(a.Logger)
	if err := schedulerService.RegisterJob(
		scheduler.DailyJobName,
		a.Config.Scheduler.Schedule,
		"Generate study content for today's current affairs",
		scheduler.NewDailyGenerationJob(a.PipelineService, a.StorageManager.ContentStorage(), a.Logger),
	); err != nil {
		return fmt.Errorf("failed to register daily generation job: %w", err)
	}
	a.SchedulerService = schedulerService

	if a.Config.Scheduler.Enabled {
		if err := a.SchedulerService.Start(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to start scheduler service")
		} else {
			a.Logger.Debug().Str("schedule", a.Config.Scheduler.Schedule).Msg("Scheduler service started")
		}
	} else {
		a.Logger.Debug().Msg("Scheduler disabled, daily job available for manual trigger only")
	}

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() error {
	a.APIHandler = handlers.NewAPIHandler()
	// WSHandler already initialized in New() before the log consumer

	a.ContentHandler = handlers.NewContentHandler(a.StorageManager, a.Logger)
	a.GenerateHandler = handlers.NewGenerateHandler(a.PipelineService, a.Logger)
	a.RunsHandler = handlers.NewRunsHandler(a.StorageManager, a.Logger)
	a.DigestHandler = handlers.NewDigestHandler(a.StorageManager, a.DigestService, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.StatusService, a.Logger)
	a.VariablesHandler = handlers.NewVariablesHandler(a.StorageManager.KeyValueStorage(), a.Logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
	return nil
}

// Close closes all application resources
func (a *App) Close() error {
	// Stop scheduler service
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	// Stop log consumer, flushing pending batches
	if a.LogConsumer != nil {
		if err := a.LogConsumer.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop log consumer")
		} else {
			a.Logger.Info().Msg("Log consumer stopped")
		}
	}

	// Close event service
	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	// Close storage
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
