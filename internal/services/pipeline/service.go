package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/models"
)

// Service coordinates the scrape, extract, generate, review, persist
// flow for a date key and owns the per-date run lock
type Service struct {
	generator interfaces.Generator
	prompts   *Prompts
	scraper   interfaces.ScraperService
	storage   interfaces.StorageManager
	events    interfaces.EventService
	archive   interfaces.ArchiveService
	digest    interfaces.DigestService
	logger    arbor.ILogger

	maxAttempts        int
	retryDelay         time.Duration
	sectionWorkers     int
	reviewWorkers      int
	reviewExcerptLimit int
	minSections        int
	maxSections        int

	mu     sync.Mutex
	active map[string]string // date key -> run ID
}

// NewService wires the pipeline from configuration. Archive and digest
// are optional; pass nil to disable archive publishing.
func NewService(cfg *common.Config, prompts *Prompts, generator interfaces.Generator, scraper interfaces.ScraperService, storage interfaces.StorageManager, events interfaces.EventService, archive interfaces.ArchiveService, digest interfaces.DigestService, logger arbor.ILogger) *Service {
	pc := cfg.Pipeline

	maxAttempts := pc.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	retryDelay, err := time.ParseDuration(pc.RetryDelay)
	if err != nil || retryDelay < 0 {
		retryDelay = 5 * time.Second
	}

	return &Service{
		generator:          generator,
		prompts:            prompts,
		scraper:            scraper,
		storage:            storage,
		events:             events,
		archive:            archive,
		digest:             digest,
		logger:             logger,
		maxAttempts:        maxAttempts,
		retryDelay:         retryDelay,
		sectionWorkers:     pc.SectionWorkers,
		reviewWorkers:      pc.ReviewWorkers,
		reviewExcerptLimit: pc.ReviewExcerptLimit,
		minSections:        pc.MinSections,
		maxSections:        pc.MaxSections,
		active:             make(map[string]string),
	}
}

// StartRun accepts a run for the date key and executes it in the
// background. The returned record reflects the accepted pending state;
// progress is observable through the run store and the event bus.
func (s *Service) StartRun(ctx context.Context, dateKey string) (*models.GenerationRun, error) {
	run, err := s.acquireRun(ctx, dateKey)
	if err != nil {
		return nil, err
	}

	common.SafeGo(s.logger, "pipeline-run-"+run.ID, func() {
		defer s.release(dateKey)
		// Runs outlive the originating request context
		s.execute(context.Background(), run)
	})
	return run, nil
}

// Generate runs the pipeline synchronously and returns the run summary.
// Used by the scheduler and the MCP server; the HTTP surface goes
// through StartRun.
func (s *Service) Generate(ctx context.Context, dateKey string) (*models.RunSummary, error) {
	run, err := s.acquireRun(ctx, dateKey)
	if err != nil {
		return nil, err
	}
	defer s.release(dateKey)

	return s.execute(ctx, run)
}

// ActiveRun reports the run ID currently processing the date key, if any
func (s *Service) ActiveRun(dateKey string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.active[dateKey]
	return id, ok
}

// acquireRun validates the date key, takes the per-date lock, and
// records the accepted run
func (s *Service) acquireRun(ctx context.Context, dateKey string) (*models.GenerationRun, error) {
	if _, err := common.ParseDateKey(dateKey); err != nil {
		return nil, err
	}
	if s.generator == nil {
		return nil, ErrGeneratorUnavailable
	}

	s.mu.Lock()
	if runID, busy := s.active[dateKey]; busy {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w %s (run %s)", ErrRunInProgress, dateKey, runID)
	}
	run := &models.GenerationRun{
		ID:        common.NewRunID(),
		Date:      dateKey,
		Status:    models.RunStatusPending,
		StartedAt: time.Now().UTC(),
	}
	s.active[dateKey] = run.ID
	s.mu.Unlock()

	s.saveRun(ctx, run)
	s.publishRunEvent(ctx, interfaces.EventRunStarted, run)
	return run, nil
}

func (s *Service) release(dateKey string) {
	s.mu.Lock()
	delete(s.active, dateKey)
	s.mu.Unlock()
}

// execute drives a run through its attempts. Any stage error fails the
// attempt; the run fails once the attempt budget is spent.
func (s *Service) execute(ctx context.Context, run *models.GenerationRun) (*models.RunSummary, error) {
	logger := s.logger.WithCorrelationId(run.ID)
	logger.Info().
		Str("date", run.Date).
		Int("max_attempts", s.maxAttempts).
		Msg("Generation run starting")

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		run.Attempt = attempt

		summary, err := s.attempt(ctx, run, logger)
		if err == nil {
			s.complete(ctx, run, summary, logger)
			return summary, nil
		}
		lastErr = err
		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", s.maxAttempts).
			Msg("Generation attempt failed")

		if attempt < s.maxAttempts {
			select {
			case <-ctx.Done():
				s.fail(ctx, run, ctx.Err(), logger)
				return nil, ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}
	}

	s.fail(ctx, run, lastErr, logger)
	return nil, lastErr
}

// attempt is one full pass over the pipeline stages
func (s *Service) attempt(ctx context.Context, run *models.GenerationRun, logger arbor.ILogger) (*models.RunSummary, error) {
	extractor := NewExtractor(s.generator, s.prompts, s.minSections, s.maxSections, logger)
	aggregator := NewAggregator(NewGenerators(s.generator, s.prompts, logger), s.sectionWorkers, logger)
	reviewer := NewReviewer(s.generator, s.prompts, s.reviewExcerptLimit, s.reviewWorkers, logger)

	s.transition(ctx, run, models.RunStatusFetching, logger)
	corpus, err := s.scraper.ScrapeAll(ctx, run.Date)
	if err != nil {
		return nil, err
	}

	s.transition(ctx, run, models.RunStatusExtracting, logger)
	sections, err := extractor.ExtractSections(ctx, corpus.Content)
	if err != nil {
		return nil, err
	}

	s.transition(ctx, run, models.RunStatusGenerating, logger)
	generated, err := aggregator.Generate(ctx, sections)
	if err != nil {
		return nil, err
	}

	s.transition(ctx, run, models.RunStatusReviewing, logger)
	reviewed, err := reviewer.ReviewAll(ctx, sections, generated.Cards, generated.MindMaps, generated.Questions, corpus.Content)
	if err != nil {
		return nil, err
	}

	s.transition(ctx, run, models.RunStatusPersisting, logger)
	content := &models.DailyContent{
		Date:          run.Date,
		Sections:      reviewed.Sections,
		Cards:         reviewed.Cards,
		MindMaps:      models.MindMapSet{MindMaps: reviewed.MindMaps},
		Questions:     reviewed.Questions,
		OverallReview: reviewed.Overall,
	}
	if err := s.storage.ContentStorage().SaveContent(ctx, content); err != nil {
		return nil, fmt.Errorf("failed to save generated content: %w", err)
	}

	s.publishEvent(ctx, interfaces.EventContentUpdated, map[string]interface{}{
		"date":   run.Date,
		"run_id": run.ID,
	})
	s.publishArchive(ctx, content, corpus, logger)

	sectionsCount, cardsCount, mindMapsCount, prelimsCount, mainsCount := content.Counts()
	return &models.RunSummary{
		Message:       "Content generated and saved successfully",
		Date:          run.Date,
		SectionsCount: sectionsCount,
		CardsCount:    cardsCount,
		MindMapsCount: mindMapsCount,
		PrelimsCount:  prelimsCount,
		MainsCount:    mainsCount,
		ReviewSummary: reviewed.Overall,
	}, nil
}

// publishArchive snapshots the run's outputs to the external archive.
// Failures are logged, never fatal.
func (s *Service) publishArchive(ctx context.Context, content *models.DailyContent, corpus *models.Corpus, logger arbor.ILogger) {
	if s.archive == nil || !s.archive.Enabled() {
		return
	}

	if err := s.archive.PublishContent(ctx, content); err != nil {
		logger.Warn().Err(err).Str("date", content.Date).Msg("Archive content publish failed")
	}
	if s.digest != nil {
		if err := s.archive.PublishDigest(ctx, content.Date, s.digest.BuildMarkdown(content)); err != nil {
			logger.Warn().Err(err).Str("date", content.Date).Msg("Archive digest publish failed")
		}
	}
	if corpus.Markdown != "" {
		if err := s.archive.PublishCorpus(ctx, content.Date, corpus.Markdown); err != nil {
			logger.Warn().Err(err).Str("date", content.Date).Msg("Archive corpus publish failed")
		}
	}
}

func (s *Service) transition(ctx context.Context, run *models.GenerationRun, status models.RunStatus, logger arbor.ILogger) {
	run.Status = status
	logger.Info().
		Str("date", run.Date).
		Str("status", string(status)).
		Int("attempt", run.Attempt).
		Msg("Run state changed")
	s.saveRun(ctx, run)
	s.publishRunEvent(ctx, interfaces.EventRunStateChanged, run)
}

func (s *Service) complete(ctx context.Context, run *models.GenerationRun, summary *models.RunSummary, logger arbor.ILogger) {
	now := time.Now().UTC()
	run.Status = models.RunStatusCompleted
	run.Error = ""
	run.Summary = summary
	run.CompletedAt = &now

	logger.Info().
		Str("date", run.Date).
		Int("attempt", run.Attempt).
		Int("sections", summary.SectionsCount).
		Int("cards", summary.CardsCount).
		Msg("Generation run completed")
	s.saveRun(ctx, run)
	s.publishRunEvent(ctx, interfaces.EventRunCompleted, run)
}

func (s *Service) fail(ctx context.Context, run *models.GenerationRun, err error, logger arbor.ILogger) {
	now := time.Now().UTC()
	run.Status = models.RunStatusFailed
	if err != nil {
		run.Error = err.Error()
	}
	run.CompletedAt = &now

	logger.Error().
		Err(err).
		Str("date", run.Date).
		Int("attempt", run.Attempt).
		Msg("Generation run failed")
	s.saveRun(ctx, run)
	s.publishRunEvent(ctx, interfaces.EventRunFailed, run)
}

// saveRun persists the run record. Bookkeeping failures are logged and
// swallowed; they never decide a run's outcome.
func (s *Service) saveRun(ctx context.Context, run *models.GenerationRun) {
	if s.storage == nil {
		return
	}
	if err := s.storage.RunStorage().SaveRun(ctx, run); err != nil {
		s.logger.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to save run record")
	}
}

// publishRunEvent publishes a snapshot of the run so handlers never see
// later mutations
func (s *Service) publishRunEvent(ctx context.Context, eventType interfaces.EventType, run *models.GenerationRun) {
	snapshot := *run
	s.publishEvent(ctx, eventType, &snapshot)
}

func (s *Service) publishEvent(ctx context.Context, eventType interfaces.EventType, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		s.logger.Warn().Err(err).Str("event", string(eventType)).Msg("Failed to publish event")
	}
}
