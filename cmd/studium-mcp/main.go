package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/services/archive"
	"github.com/ternarybob/studium/internal/services/digest"
	"github.com/ternarybob/studium/internal/services/events"
	"github.com/ternarybob/studium/internal/services/llm"
	"github.com/ternarybob/studium/internal/services/pipeline"
	"github.com/ternarybob/studium/internal/services/scraper"
	"github.com/ternarybob/studium/internal/storage"
)

func main() {
	// Load configuration. STUDIUM_CONFIG overrides discovery; without a
	// config file the compiled defaults apply.
	configPath := os.Getenv("STUDIUM_CONFIG")
	if configPath == "" {
		if _, err := os.Stat("studium.toml"); err == nil {
			configPath = "studium.toml"
		}
	}

	config, err := common.LoadFromFile(nil, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logger for the MCP server (console only, no file output).
	// Kept at warn to avoid cluttering MCP stdio.
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	// Initialize storage
	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer storageManager.Close()

	// Generation stack for the generate_content tool. A missing API key
	// leaves the generator nil; the tool reports generation as disabled.
	generator, err := llm.NewGenerator(config, storageManager.KeyValueStorage(), logger)
	if err != nil {
		generator = nil
		logger.Warn().Err(err).Msg("LLM generator unavailable - generate_content tool disabled")
	}

	prompts, err := pipeline.LoadPrompts(config.Prompts.File)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load prompts")
	}

	archiveService, err := archive.NewService(config.Archive, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize archive service")
	}

	eventService := events.NewService(logger)
	defer eventService.Close()

	digestService := digest.NewService(logger)

	pipelineService := pipeline.NewService(
		config,
		prompts,
		generator,
		scraper.NewService(config, logger),
		storageManager,
		eventService,
		archiveService,
		digestService,
		logger,
	)

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"studium",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Register content tools
	mcpServer.AddTool(createGetDailyContentTool(), handleGetDailyContent(storageManager, digestService, logger))
	mcpServer.AddTool(createListAvailableDatesTool(), handleListAvailableDates(storageManager, logger))
	mcpServer.AddTool(createSearchContentTool(), handleSearchContent(storageManager, logger))

	// Register generation tool
	mcpServer.AddTool(createGenerateContentTool(), handleGenerateContent(pipelineService, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
