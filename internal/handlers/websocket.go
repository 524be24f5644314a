package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/interfaces"
	"github.com/ternarybob/studium/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

type WebSocketHandler struct {
	logger           arbor.ILogger
	clients          map[*websocket.Conn]bool
	clientMutex      map[*websocket.Conn]*sync.Mutex
	mu               sync.RWMutex
	eventService     interfaces.EventService
	excludePatterns  []string // Log message patterns never broadcast to clients
	serverInstanceID string   // Unique ID generated on startup - clients use to detect server restart
}

func NewWebSocketHandler(eventService interfaces.EventService, logger arbor.ILogger, config *common.WebSocketConfig) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]bool),
		clientMutex:      make(map[*websocket.Conn]*sync.Mutex),
		eventService:     eventService,
		serverInstanceID: uuid.New().String(),
	}

	logger.Info().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized with server instance ID")

	if config != nil && len(config.ExcludePatterns) > 0 {
		h.excludePatterns = config.ExcludePatterns
	}

	// Subscribe to run events if eventService is provided
	if eventService != nil {
		h.SubscribeToRunEvents()
	}

	return h
}

// Message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type StatusUpdate struct {
	Service          string `json:"service"`
	Status           string `json:"status"`
	Database         string `json:"database"`
	ServerInstanceID string `json:"serverInstanceId"` // Unique ID per server startup - clients clear state on change
}

// RunStatusUpdate carries a generation run snapshot to connected clients
type RunStatusUpdate struct {
	RunID     string             `json:"run_id"`
	Date      string             `json:"date"`
	Status    string             `json:"status"`
	Attempt   int                `json:"attempt"`
	Error     string             `json:"error,omitempty"`
	Summary   *models.RunSummary `json:"summary,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

type AppStatusUpdate struct {
	State     string                 `json:"state"`
	Metadata  map[string]interface{} `json:"metadata"`
	Timestamp time.Time              `json:"timestamp"`
}

// RecentLogEntry is one parsed line from the in-memory log buffer
type RecentLogEntry struct {
	Index     int    `json:"index"`
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", clientCount)

	// Send initial status
	h.sendStatus(conn)

	// Handle client disconnection
	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", remaining)
	}()

	// Read messages from client (keep connection alive)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// sendStatus sends current status to a specific client
func (h *WebSocketHandler) sendStatus(conn *websocket.Conn) {
	status := StatusUpdate{
		Service:          "studium",
		Status:           "ONLINE",
		Database:         "CONNECTED",
		ServerInstanceID: h.serverInstanceID,
	}

	msg := WSMessage{
		Type:    "status",
		Payload: status,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal initial status")
		return
	}

	h.mu.RLock()
	mutex := h.clientMutex[conn]
	h.mu.RUnlock()

	if mutex != nil {
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to send initial status")
		}
	}
}

// broadcast sends a message to all connected clients
func (h *WebSocketHandler) broadcast(msg WSMessage) {
	h.writeToClients(msg, true)
}

// writeToClients marshals the message and writes it to every connected client.
// logFailures must be false on the log_event path; logging a send failure there
// would feed another log_event back through the logging pipeline.
func (h *WebSocketHandler) writeToClients(msg WSMessage, logFailures bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		if logFailures {
			h.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to marshal WebSocket message")
		}
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, h.clientMutex[conn])
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		mutex := mutexes[i]
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil && logFailures {
			h.logger.Warn().Err(err).Str("type", msg.Type).Msg("Failed to send message to client")
		}
	}
}

// BroadcastRunEvent sends a run lifecycle update to all connected clients.
// The message type mirrors the event type (run_started, run_state_changed,
// run_completed, run_failed).
func (h *WebSocketHandler) BroadcastRunEvent(eventType string, update RunStatusUpdate) {
	h.broadcast(WSMessage{
		Type:    eventType,
		Payload: update,
	})
}

// BroadcastAppStatus sends application status updates to all connected clients
func (h *WebSocketHandler) BroadcastAppStatus(status AppStatusUpdate) {
	h.broadcast(WSMessage{
		Type:    "app_status",
		Payload: status,
	})
}

// SubscribeToRunEvents subscribes to pipeline events and forwards them to clients
func (h *WebSocketHandler) SubscribeToRunEvents() {
	if h.eventService == nil {
		return
	}

	runHandler := func(ctx context.Context, event interfaces.Event) error {
		run, ok := event.Payload.(*models.GenerationRun)
		if !ok {
			h.logger.Warn().Str("event", string(event.Type)).Msg("Invalid run event payload type")
			return nil
		}

		update := RunStatusUpdate{
			RunID:     run.ID,
			Date:      run.Date,
			Status:    string(run.Status),
			Attempt:   run.Attempt,
			Error:     run.Error,
			Summary:   run.Summary,
			Timestamp: time.Now(),
		}
		h.BroadcastRunEvent(string(event.Type), update)
		return nil
	}

	h.eventService.Subscribe(interfaces.EventRunStarted, runHandler)
	h.eventService.Subscribe(interfaces.EventRunStateChanged, runHandler)
	h.eventService.Subscribe(interfaces.EventRunCompleted, runHandler)
	h.eventService.Subscribe(interfaces.EventRunFailed, runHandler)

	h.eventService.Subscribe(interfaces.EventContentUpdated, func(ctx context.Context, event interfaces.Event) error {
		h.broadcast(WSMessage{
			Type:    "content_updated",
			Payload: event.Payload,
		})
		return nil
	})

	h.eventService.Subscribe(interfaces.EventStatusChanged, func(ctx context.Context, event interfaces.Event) error {
		payload, ok := event.Payload.(map[string]interface{})
		if !ok {
			h.logger.Warn().Msg("Invalid status changed event payload type")
			return nil
		}

		update := AppStatusUpdate{
			State:     getString(payload, "state"),
			Metadata:  make(map[string]interface{}),
			Timestamp: time.Now(),
		}
		if metadata, ok := payload["metadata"].(map[string]interface{}); ok {
			update.Metadata = metadata
		}

		h.BroadcastAppStatus(update)
		return nil
	})

	h.eventService.Subscribe(interfaces.EventLogEntry, func(ctx context.Context, event interfaces.Event) error {
		payload, ok := event.Payload.(map[string]interface{})
		if !ok {
			return nil
		}

		message := getString(payload, "message")
		for _, pattern := range h.excludePatterns {
			if strings.Contains(message, pattern) {
				return nil
			}
		}

		h.writeToClients(WSMessage{
			Type:    "log_event",
			Payload: payload,
		}, false)
		return nil
	})
}

// GetRecentLogsHandler returns recent service logs from the in-memory log buffer as JSON
func (h *WebSocketHandler) GetRecentLogsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	memWriter := arbor.GetRegisteredMemoryWriter(arbor.WRITER_MEMORY)
	var logs []RecentLogEntry

	if memWriter != nil {
		entries, err := memWriter.GetEntriesWithLimit(100)
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to get log entries")
			http.Error(w, "Failed to retrieve logs", http.StatusInternalServerError)
			return
		}

		// Map keys are timestamps - sorting gives chronological order
		keys := make([]string, 0, len(entries))
		for key := range entries {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			logLine := entries[key]
			// Skip internal handler chatter
			if strings.Contains(logLine, "WebSocket client connected") ||
				strings.Contains(logLine, "WebSocket client disconnected") ||
				strings.Contains(logLine, "HTTP request") ||
				strings.Contains(logLine, "HTTP response") {
				continue
			}

			parts := strings.SplitN(logLine, "|", 3)
			if len(parts) != 3 {
				continue
			}

			levelStr := strings.TrimSpace(parts[0])
			dateTime := strings.TrimSpace(parts[1])
			message := strings.TrimSpace(parts[2])

			timeParts := strings.Fields(dateTime)
			var timestamp string
			if len(timeParts) >= 3 {
				timestamp = timeParts[len(timeParts)-1]
			} else {
				timestamp = time.Now().Format("15:04:05")
			}

			level := "INF"
			switch levelStr {
			case "ERR", "ERROR", "FATAL", "PANIC":
				level = "ERR"
			case "WRN", "WARN":
				level = "WRN"
			case "INF", "INFO":
				level = "INF"
			case "DBG", "DEBUG":
				level = "DBG"
			}

			logs = append(logs, RecentLogEntry{
				Index:     len(logs),
				Timestamp: timestamp,
				Level:     level,
				Message:   message,
			})
		}
	}

	if logs == nil {
		logs = []RecentLogEntry{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}

// getString safely extracts a string value from a payload map
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
