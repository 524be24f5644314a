package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studium/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Scraper     ScraperConfig    `toml:"scraper"`
	Newsletter  NewsletterConfig `toml:"newsletter"`
	Bulletin    BulletinConfig   `toml:"bulletin"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	LLM         LLMConfig        `toml:"llm"`
	Pipeline    PipelineConfig   `toml:"pipeline"`
	Scheduler   SchedulerConfig  `toml:"scheduler"`
	WebSocket   WebSocketConfig  `toml:"websocket"`
	Digest      DigestConfig     `toml:"digest"`
	Archive     ArchiveConfig    `toml:"archive"`
	Prompts     PromptsConfig    `toml:"prompts"`
	Variables   KeysDirConfig    `toml:"variables"` // Variables directory configuration (./variables.toml) for key/value pairs
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level         string   `toml:"level"`           // "debug", "info", "warn", "error"
	Format        string   `toml:"format"`          // "json" or "text"
	Output        []string `toml:"output"`          // "stdout", "file"
	TimeFormat    string   `toml:"time_format"`     // Time format for logs (default: "15:04:05.000")
	MinEventLevel string   `toml:"min_event_level"` // Minimum log level to publish as events to UI ("debug", "info", "warn", "error")
}

// ScraperConfig contains HTTP scraping configuration for news sources
type ScraperConfig struct {
	UserAgent        string        `toml:"user_agent"`        // User agent string sent to news sites
	RequestTimeout   time.Duration `toml:"request_timeout"`   // HTTP request timeout
	RequestDelay     time.Duration `toml:"request_delay"`     // Minimum delay between requests to the same host
	MaxBodySize      int           `toml:"max_body_size"`     // Maximum response body size in bytes
	MinParagraphLen  int           `toml:"min_paragraph_len"` // Paragraphs shorter than this are dropped as boilerplate
	EnableJavaScript bool          `toml:"enable_javascript"` // Render JavaScript-heavy pages with headless Chrome
	RenderWait       time.Duration `toml:"render_wait"`       // Time to wait for JavaScript to render
	DrishtiBaseURL   string        `toml:"drishti_base_url"`  // Drishti IAS news analysis base URL (date key appended)
	ExpressBaseURL   string        `toml:"express_base_url"`  // Indian Express current affairs base URL (date key appended)
}

// NewsletterConfig contains IMAP configuration for newsletter ingestion
type NewsletterConfig struct {
	Enabled  bool     `toml:"enabled"`  // Pull newsletter mail as an additional source (default: false)
	Server   string   `toml:"server"`   // IMAP server address, e.g. "imap.gmail.com:993"
	Username string   `toml:"username"` // IMAP account username
	Password string   `toml:"password"` // IMAP account password or app password
	Folder   string   `toml:"folder"`   // Mailbox folder to scan (default: "INBOX")
	Senders  []string `toml:"senders"`  // Only messages from these senders are ingested
}

// BulletinConfig contains configuration for PDF bulletin ingestion
type BulletinConfig struct {
	Enabled bool   `toml:"enabled"` // Scan a local directory for dated PDF bulletins (default: false)
	Dir     string `toml:"dir"`     // Directory containing bulletin PDFs named <date-key>.pdf
}

// GeminiConfig contains unified Google Gemini API configuration for all AI services
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key for all AI operations
	Model       string  `toml:"model"`       // Model for AI operations (default: "gemini-3-flash-preview")
	Thinking    string  `toml:"thinking"`    // Default thinking level: NONE, LOW, NORMAL, MEDIUM, HIGH (default: "NORMAL")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration for AI services
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key for Claude operations
	Model       string  `toml:"model"`       // Model for AI operations (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // Default provider: "gemini" or "claude" (default: "gemini")
}

// PipelineConfig controls generation run behavior
type PipelineConfig struct {
	MaxAttempts        int    `toml:"max_attempts"`         // Whole-run attempts before a run is marked failed (default: 3)
	RetryDelay         string `toml:"retry_delay"`          // Delay between run attempts as duration string (default: "5s")
	SectionWorkers     int    `toml:"section_workers"`      // Concurrent section generation workers (default: 4)
	ReviewWorkers      int    `toml:"review_workers"`       // Concurrent review calls (default: 4)
	ReviewExcerptLimit int    `toml:"review_excerpt_limit"` // Source text excerpt length for review prompts (default: 2000)
	MinSections        int    `toml:"min_sections"`         // Minimum sections requested from extraction (default: 4)
	MaxSections        int    `toml:"max_sections"`         // Maximum sections requested from extraction (default: 8)
}

// SchedulerConfig contains configuration for the daily generation schedule
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`  // Run generation automatically on a cron schedule (default: false)
	Schedule string `toml:"schedule"` // Cron schedule format (default: "30 18 * * *" - 18:30 daily)
}

// WebSocketConfig contains configuration for WebSocket log streaming
type WebSocketConfig struct {
	MinLevel        string   `toml:"min_level"`        // Minimum log level to broadcast ("debug", "info", "warn", "error")
	ExcludePatterns []string `toml:"exclude_patterns"` // Log message patterns to exclude from broadcasting
}

// DigestConfig contains configuration for PDF digest rendering
type DigestConfig struct {
	Enabled bool   `toml:"enabled"` // Serve rendered PDF digests (default: true)
	Title   string `toml:"title"`   // Title line printed on the digest cover (default: "Daily Current Affairs Digest")
}

// ArchiveConfig contains configuration for the GitHub content archive
type ArchiveConfig struct {
	Enabled        bool   `toml:"enabled"`         // Push generated content to a GitHub archive repo (default: false)
	Owner          string `toml:"owner"`           // Repository owner
	Repo           string `toml:"repo"`            // Repository name
	Branch         string `toml:"branch"`          // Target branch (default: "main")
	BasePath       string `toml:"base_path"`       // Path prefix inside the repository (default: "archive")
	Token          string `toml:"token"`           // GitHub token with contents write access
	CommitterName  string `toml:"committer_name"`  // Commit author name (default: "studium")
	CommitterEmail string `toml:"committer_email"` // Commit author email
}

// PromptsConfig contains configuration for prompt template overrides
type PromptsConfig struct {
	File string `toml:"file"` // YAML file with prompt overrides (optional, defaults ship compiled in)
}

// KeysDirConfig contains configuration for key/value file loading.
// Each TOML file has [section-name] entries with 'value' and optional 'description' fields.
type KeysDirConfig struct {
	Dir string `toml:"dir"` // Directory containing variable files (TOML)
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in studium.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development", // Default to development mode
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:         "info",                     // Info level for production (debug|info|warn|error)
			Format:        "text",                     // Human-readable text format (text|json)
			Output:        []string{"stdout", "file"}, // Log to both console and file
			MinEventLevel: "info",                     // Publish info and above as events to UI
		},
		Scraper: ScraperConfig{
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestTimeout:   30 * time.Second,
			RequestDelay:     1 * time.Second,
			MaxBodySize:      10 * 1024 * 1024, // 10MB
			MinParagraphLen:  20,               // Shorter paragraphs are navigation/boilerplate
			EnableJavaScript: false,            // Static HTML is enough for the default sources
			RenderWait:       3 * time.Second,
			DrishtiBaseURL:   "https://www.drishtiias.com/current-affairs-news-analysis-editorials/news-analysis/",
			ExpressBaseURL:   "https://indianexpress.com/about/current-affairs/",
		},
		Newsletter: NewsletterConfig{
			Enabled: false, // Disabled by default - user must provide IMAP credentials
			Folder:  "INBOX",
		},
		Bulletin: BulletinConfig{
			Enabled: false,
			Dir:     "./bulletins",
		},
		Gemini: GeminiConfig{
			APIKey:      "",                       // User must provide API key (no fallback)
			Model:       "gemini-3-flash-preview", // Model for AI operations
			Thinking:    "NORMAL",                 // Default thinking level
			Timeout:     "5m",                     // 5 minutes for operations
			RateLimit:   "4s",                     // Default to 4s (15 RPM) for free tier
			Temperature: 0.7,                      // Default temperature
		},
		Claude: ClaudeConfig{
			APIKey:      "",                          // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022", // Model for AI operations
			MaxTokens:   8192,                        // Default max tokens
			Timeout:     "5m",                        // 5 minutes for operations
			RateLimit:   "1s",                        // Default rate limit
			Temperature: 0.7,                         // Default temperature
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini, // Default to Gemini
		},
		Pipeline: PipelineConfig{
			MaxAttempts:        3,
			RetryDelay:         "5s",
			SectionWorkers:     4,
			ReviewWorkers:      4,
			ReviewExcerptLimit: 2000,
			MinSections:        4,
			MaxSections:        8,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,        // Disabled by default - user must explicitly opt-in
			Schedule: "30 18 * * *", // 18:30 daily, after the news analysis pages publish
		},
		WebSocket: WebSocketConfig{
			MinLevel: "info", // Default: info level and above
			ExcludePatterns: []string{
				"WebSocket client connected",
				"WebSocket client disconnected",
				"HTTP request",
				"HTTP response",
			},
		},
		Digest: DigestConfig{
			Enabled: true,
			Title:   "Daily Current Affairs Digest",
		},
		Archive: ArchiveConfig{
			Enabled:        false, // Disabled by default - user must provide repo and token
			Branch:         "main",
			BasePath:       "archive",
			CommitterName:  "studium",
			CommitterEmail: "studium@localhost",
		},
		Prompts: PromptsConfig{
			File: "", // Compiled-in defaults unless overridden
		},
		Variables: KeysDirConfig{
			Dir: "./", // Default directory for variables.toml file
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
// Priority system: CLI flags > Environment variables > Config file > Defaults
// kvStorage can be nil for backward compatibility (replacement will be skipped)
func LoadFromFile(kvStorage interfaces.KeyValueStorage, path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles(kvStorage)
	}
	return LoadFromFiles(kvStorage, path)
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env -> CLI
// Later files override earlier files. Priority system: CLI flags > Environment variables > Last config file > ... > First config file > Defaults
// kvStorage can be nil for backward compatibility (replacement will be skipped)
func LoadFromFiles(kvStorage interfaces.KeyValueStorage, paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Perform {key-name} replacement if KV storage is available
	if kvStorage != nil {
		ctx := context.Background()
		kvMap, err := kvStorage.GetAll(ctx)
		if err != nil {
			// Log warning and skip replacement (graceful degradation)
			logger := arbor.NewLogger()
			logger.Warn().Err(err).Msg("Failed to fetch KV map for config replacement, skipping replacement")
		} else {
			logger := arbor.NewLogger()
			if err := ReplaceInStruct(config, kvMap, logger); err != nil {
				logger.Warn().Err(err).Msg("Failed to replace key references in config")
			} else {
				logger.Info().Int("keys", len(kvMap)).Msg("Applied key/value replacements to config")
			}
		}
	}

	// Apply environment variables (overrides all file configs and replacements)
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: STUDIUM_ENV, fallback: GO_ENV)
	if env := os.Getenv("STUDIUM_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("STUDIUM_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("STUDIUM_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("STUDIUM_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("STUDIUM_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("STUDIUM_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("STUDIUM_LOG_OUTPUT"); output != "" {
		// Split comma-separated output types
		outputs := []string{}
		for _, o := range splitString(output, ",") {
			trimmed := trimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
	if minEventLevel := os.Getenv("STUDIUM_LOG_MIN_EVENT_LEVEL"); minEventLevel != "" {
		config.Logging.MinEventLevel = minEventLevel
	}

	// Scraper configuration
	if userAgent := os.Getenv("STUDIUM_SCRAPER_USER_AGENT"); userAgent != "" {
		config.Scraper.UserAgent = userAgent
	}
	if requestTimeout := os.Getenv("STUDIUM_SCRAPER_REQUEST_TIMEOUT"); requestTimeout != "" {
		if rt, err := time.ParseDuration(requestTimeout); err == nil {
			config.Scraper.RequestTimeout = rt
		}
	}
	if requestDelay := os.Getenv("STUDIUM_SCRAPER_REQUEST_DELAY"); requestDelay != "" {
		if rd, err := time.ParseDuration(requestDelay); err == nil {
			config.Scraper.RequestDelay = rd
		}
	}
	if maxBodySize := os.Getenv("STUDIUM_SCRAPER_MAX_BODY_SIZE"); maxBodySize != "" {
		if mbs, err := strconv.Atoi(maxBodySize); err == nil {
			config.Scraper.MaxBodySize = mbs
		}
	}
	if enableJS := os.Getenv("STUDIUM_SCRAPER_ENABLE_JAVASCRIPT"); enableJS != "" {
		if ej, err := strconv.ParseBool(enableJS); err == nil {
			config.Scraper.EnableJavaScript = ej
		}
	}
	if renderWait := os.Getenv("STUDIUM_SCRAPER_RENDER_WAIT"); renderWait != "" {
		if rw, err := time.ParseDuration(renderWait); err == nil {
			config.Scraper.RenderWait = rw
		}
	}
	if drishtiURL := os.Getenv("STUDIUM_SCRAPER_DRISHTI_BASE_URL"); drishtiURL != "" {
		config.Scraper.DrishtiBaseURL = drishtiURL
	}
	if expressURL := os.Getenv("STUDIUM_SCRAPER_EXPRESS_BASE_URL"); expressURL != "" {
		config.Scraper.ExpressBaseURL = expressURL
	}

	// Newsletter configuration
	if enabled := os.Getenv("STUDIUM_NEWSLETTER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Newsletter.Enabled = e
		}
	}
	if server := os.Getenv("STUDIUM_NEWSLETTER_SERVER"); server != "" {
		config.Newsletter.Server = server
	}
	if username := os.Getenv("STUDIUM_NEWSLETTER_USERNAME"); username != "" {
		config.Newsletter.Username = username
	}
	if password := os.Getenv("STUDIUM_NEWSLETTER_PASSWORD"); password != "" {
		config.Newsletter.Password = password
	}

	// Bulletin configuration
	if enabled := os.Getenv("STUDIUM_BULLETIN_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Bulletin.Enabled = e
		}
	}
	if dir := os.Getenv("STUDIUM_BULLETIN_DIR"); dir != "" {
		config.Bulletin.Dir = dir
	}

	// Gemini configuration
	if apiKey := os.Getenv("STUDIUM_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("STUDIUM_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if thinking := os.Getenv("STUDIUM_GEMINI_THINKING"); thinking != "" {
		config.Gemini.Thinking = thinking
	}
	if timeout := os.Getenv("STUDIUM_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if rateLimit := os.Getenv("STUDIUM_GEMINI_RATE_LIMIT"); rateLimit != "" {
		config.Gemini.RateLimit = rateLimit
	}
	if temperature := os.Getenv("STUDIUM_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("STUDIUM_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // STUDIUM_ prefix takes priority
	}
	if model := os.Getenv("STUDIUM_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("STUDIUM_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("STUDIUM_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if rateLimit := os.Getenv("STUDIUM_CLAUDE_RATE_LIMIT"); rateLimit != "" {
		config.Claude.RateLimit = rateLimit
	}
	if temperature := os.Getenv("STUDIUM_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}

	// LLM provider configuration
	if provider := os.Getenv("STUDIUM_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	// Pipeline configuration
	if maxAttempts := os.Getenv("STUDIUM_PIPELINE_MAX_ATTEMPTS"); maxAttempts != "" {
		if ma, err := strconv.Atoi(maxAttempts); err == nil {
			config.Pipeline.MaxAttempts = ma
		}
	}
	if retryDelay := os.Getenv("STUDIUM_PIPELINE_RETRY_DELAY"); retryDelay != "" {
		if _, err := time.ParseDuration(retryDelay); err == nil {
			config.Pipeline.RetryDelay = retryDelay
		}
	}
	if sectionWorkers := os.Getenv("STUDIUM_PIPELINE_SECTION_WORKERS"); sectionWorkers != "" {
		if sw, err := strconv.Atoi(sectionWorkers); err == nil {
			config.Pipeline.SectionWorkers = sw
		}
	}
	if reviewWorkers := os.Getenv("STUDIUM_PIPELINE_REVIEW_WORKERS"); reviewWorkers != "" {
		if rw, err := strconv.Atoi(reviewWorkers); err == nil {
			config.Pipeline.ReviewWorkers = rw
		}
	}

	// Scheduler configuration
	if enabled := os.Getenv("STUDIUM_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
	if schedule := os.Getenv("STUDIUM_SCHEDULER_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}

	// WebSocket configuration
	if minLevel := os.Getenv("STUDIUM_WEBSOCKET_MIN_LEVEL"); minLevel != "" {
		config.WebSocket.MinLevel = minLevel
	}
	if excludePatterns := os.Getenv("STUDIUM_WEBSOCKET_EXCLUDE_PATTERNS"); excludePatterns != "" {
		// Split comma-separated patterns
		patterns := []string{}
		for _, p := range splitString(excludePatterns, ",") {
			trimmed := trimSpace(p)
			if trimmed != "" {
				patterns = append(patterns, trimmed)
			}
		}
		if len(patterns) > 0 {
			config.WebSocket.ExcludePatterns = patterns
		}
	}

	// Digest configuration
	if enabled := os.Getenv("STUDIUM_DIGEST_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Digest.Enabled = e
		}
	}

	// Archive configuration
	if enabled := os.Getenv("STUDIUM_ARCHIVE_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Archive.Enabled = e
		}
	}
	if owner := os.Getenv("STUDIUM_ARCHIVE_OWNER"); owner != "" {
		config.Archive.Owner = owner
	}
	if repo := os.Getenv("STUDIUM_ARCHIVE_REPO"); repo != "" {
		config.Archive.Repo = repo
	}
	if branch := os.Getenv("STUDIUM_ARCHIVE_BRANCH"); branch != "" {
		config.Archive.Branch = branch
	}
	if token := os.Getenv("STUDIUM_ARCHIVE_TOKEN"); token != "" {
		config.Archive.Token = token
	} else if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		config.Archive.Token = token
	}

	// Prompts configuration
	if promptsFile := os.Getenv("STUDIUM_PROMPTS_FILE"); promptsFile != "" {
		config.Prompts.File = promptsFile
	}

	// Variables configuration
	if variablesDir := os.Getenv("STUDIUM_VARIABLES_DIR"); variablesDir != "" {
		config.Variables.Dir = variablesDir
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey resolves an API key by name with environment variable priority
// Resolution order: environment variables → KV store → config fallback → error
// This ensures STUDIUM_* environment variables always take precedence
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	// Map of KV store key names to environment variable names
	// Environment variables have highest priority
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"STUDIUM_GEMINI_API_KEY"},
		"google_api_key":    {"STUDIUM_GEMINI_API_KEY"}, // Legacy KV store key
		"anthropic_api_key": {"STUDIUM_CLAUDE_API_KEY"},
		"claude_api_key":    {"STUDIUM_CLAUDE_API_KEY"},
		"github_token":      {"STUDIUM_ARCHIVE_TOKEN", "GITHUB_TOKEN"},
	}

	// For Claude, also check the standard ANTHROPIC_API_KEY env var
	if name == "anthropic_api_key" || name == "claude_api_key" {
		if envValue := os.Getenv("ANTHROPIC_API_KEY"); envValue != "" {
			return envValue, nil
		}
	}

	// Check environment variables (highest priority)
	if envVarNames, hasMappedEnv := keyToEnvMapping[name]; hasMappedEnv {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	// Try to resolve from KV store (medium priority - file-based variables)
	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	// Fallback to config value (lowest priority)
	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}

// Helper functions for string manipulation
func splitString(s, sep string) []string {
	result := []string{}
	start := 0
	for i := 0; i < len(s); i++ {
		if i+len(sep) <= len(s) && s[i:i+len(sep)] == sep {
			result = append(result, s[start:i])
			start = i + len(sep)
			i = start - 1
		}
	}
	result = append(result, s[start:])
	return result
}

func trimSpace(s string) string {
	start := 0
	end := len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}

// ValidateSchedule validates a cron schedule expression and ensures minimum 5-minute interval
func ValidateSchedule(schedule string) error {
	// Parse the cron expression
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	// Check for minimum 5-minute interval
	// Validate minute field (first field in standard cron)
	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]

	// Check for patterns that violate 5-minute minimum
	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	// Check for */n patterns where n < 5
	if strings.HasPrefix(minuteField, "*/") {
		intervalStr := strings.TrimPrefix(minuteField, "*/")
		interval, err := strconv.Atoi(intervalStr)
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// DeepCloneConfig creates a deep copy of the Config struct
// This prevents mutations of the original config when handed to services.
func DeepCloneConfig(c *Config) *Config {
	if c == nil {
		return nil
	}

	// Clone the config struct (shallow copy first)
	clone := *c

	// Deep clone slice fields to prevent shared memory
	if len(c.Logging.Output) > 0 {
		clone.Logging.Output = make([]string, len(c.Logging.Output))
		copy(clone.Logging.Output, c.Logging.Output)
	}

	if len(c.Newsletter.Senders) > 0 {
		clone.Newsletter.Senders = make([]string, len(c.Newsletter.Senders))
		copy(clone.Newsletter.Senders, c.Newsletter.Senders)
	}

	if len(c.WebSocket.ExcludePatterns) > 0 {
		clone.WebSocket.ExcludePatterns = make([]string, len(c.WebSocket.ExcludePatterns))
		copy(clone.WebSocket.ExcludePatterns, c.WebSocket.ExcludePatterns)
	}

	return &clone
}
