package logs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	arborlevels "github.com/ternarybob/arbor/levels"
	arbormodels "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/models"
)

// Consumer drains arbor's context channel and fans each batch out to the
// run-log store and the event bus. The pipeline sets the logger correlation
// ID to the run ID, so grouping by correlation ID groups by run.
type Consumer struct {
	storage       interfaces.RunLogStorage
	eventService  interfaces.EventService
	logger        arbor.ILogger
	channel       chan []arbormodels.LogEvent
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	minEventLevel arbor.LogLevel
	publishing    sync.Map // entries mid-publish, keyed run:message; breaks log feedback loops
}

// NewConsumer creates a new log consumer
func NewConsumer(storage interfaces.RunLogStorage, eventService interfaces.EventService, logger arbor.ILogger, minEventLevel string) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		storage:       storage,
		eventService:  eventService,
		logger:        logger,
		channel:       make(chan []arbormodels.LogEvent, 10),
		ctx:           ctx,
		cancel:        cancel,
		minEventLevel: parseLogLevel(minEventLevel),
	}
}

// GetChannel returns the channel arbor sends log batches to
func (c *Consumer) GetChannel() chan []arbormodels.LogEvent {
	return c.channel
}

// Start launches the consumer goroutine
func (c *Consumer) Start() error {
	c.wg.Add(1)
	go c.consume()
	return nil
}

// Stop shuts the consumer down and waits for the in-flight batch
func (c *Consumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	c.logger.Info().Msg("Log consumer stopped")
	return nil
}

func (c *Consumer) consume() {
	defer c.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			// Log without correlation ID so the failure cannot re-enter the channel
			c.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Log consumer panic recovered")
		}
	}()

	for {
		select {
		case batch, ok := <-c.channel:
			if !ok {
				return
			}
			c.processBatch(batch)
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Consumer) processBatch(batch []arbormodels.LogEvent) {
	entriesByRun := make(map[string][]models.RunLogEntry)

	for _, event := range batch {
		// Request tracing and websocket chatter is correlated but not run
		// history; keep it out of the run-log store.
		if strings.HasPrefix(event.Message, "HTTP request") ||
			strings.HasPrefix(event.Message, "HTTP response") ||
			strings.Contains(event.Message, "WebSocket client") {
			continue
		}

		entry := transformEvent(event)

		// Entries without a correlation ID are service logs; they still
		// stream as events below but are not stored per run.
		if event.CorrelationID != "" {
			entriesByRun[event.CorrelationID] = append(entriesByRun[event.CorrelationID], entry)
		}

		if c.eventService != nil && c.shouldPublishEvent(event.Level) {
			c.publishLogEvent(event.CorrelationID, entry)
		}
	}

	var wg sync.WaitGroup
	for runID, entries := range entriesByRun {
		wg.Add(1)
		go func(id string, logEntries []models.RunLogEntry) {
			defer wg.Done()
			if err := c.storage.AppendLogs(c.ctx, id, logEntries); err != nil {
				c.logger.Warn().
					Err(err).
					Str("run_id", id).
					Int("log_count", len(logEntries)).
					Msg("Failed to write run log batch")
			}
		}(runID, entries)
	}
	wg.Wait()
}

func (c *Consumer) shouldPublishEvent(level log.Level) bool {
	return arborlevels.FromLogLevel(level) >= c.minEventLevel
}

// publishLogEvent streams one entry to the event bus for live UI updates
func (c *Consumer) publishLogEvent(runID string, entry models.RunLogEntry) {
	key := fmt.Sprintf("%s:%s", runID, entry.Message)
	if _, loaded := c.publishing.LoadOrStore(key, true); loaded {
		return
	}
	defer c.publishing.Delete(key)

	payload := map[string]interface{}{
		"run_id":    runID,
		"level":     entry.Level,
		"message":   entry.Message,
		"timestamp": entry.Timestamp,
	}

	if err := c.eventService.Publish(c.ctx, interfaces.Event{
		Type:    interfaces.EventLogEntry,
		Payload: payload,
	}); err != nil {
		c.logger.Warn().
			Err(err).
			Str("run_id", runID).
			Msg("Failed to publish log event")
	}
}

// transformEvent converts an arbor log event to the stored entry format.
// Structured fields are folded into the message in key order.
func transformEvent(event arbormodels.LogEvent) models.RunLogEntry {
	message := event.Message
	if len(event.Fields) > 0 {
		keys := make([]string, 0, len(event.Fields))
		for key := range event.Fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			message += fmt.Sprintf(" %s=%v", key, event.Fields[key])
		}
	}

	return models.RunLogEntry{
		Timestamp:       event.Timestamp.Format("15:04:05"),
		FullTimestamp:   event.Timestamp.Format(time.RFC3339),
		Level:           convertTo3Letter(event.Level.String()),
		Message:         message,
		AssociatedRunID: event.CorrelationID,
	}
}

// parseLogLevel converts a string log level to arbor.LogLevel
func parseLogLevel(levelStr string) arbor.LogLevel {
	switch strings.ToLower(levelStr) {
	case "debug":
		return arbor.DebugLevel
	case "info":
		return arbor.InfoLevel
	case "warn", "warning":
		return arbor.WarnLevel
	case "error":
		return arbor.ErrorLevel
	default:
		return arbor.InfoLevel
	}
}

// convertTo3Letter converts full level names to the 3-letter display codes
func convertTo3Letter(level string) string {
	switch strings.ToUpper(level) {
	case "INFO":
		return "INF"
	case "WARN", "WARNING":
		return "WRN"
	case "ERROR":
		return "ERR"
	case "DEBUG":
		return "DBG"
	default:
		if len(level) == 3 {
			return strings.ToUpper(level)
		}
		return "INF"
	}
}
