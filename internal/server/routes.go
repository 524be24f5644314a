package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Root service banner
	mux.HandleFunc("/", s.app.APIHandler.RootHandler)

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Daily content
	mux.HandleFunc("/api/content", s.app.ContentHandler.GetContentRangeHandler) // GET ?from=&to=
	mux.HandleFunc("/api/content/", s.handleContentRoutes)                      // GET/DELETE /{date}
	mux.HandleFunc("/api/dates", s.app.ContentHandler.GetDatesHandler)          // GET - date keys with content

	// API routes - Generation
	mux.HandleFunc("/api/generate/", s.app.GenerateHandler.GenerateContentHandler) // POST /{date}

	// API routes - Generation runs
	mux.HandleFunc("/api/runs", s.app.RunsHandler.ListRunsHandler) // GET - recent runs
	mux.HandleFunc("/api/runs/", s.handleRunRoutes)                // GET /{id}, /{date}, /{id}/logs

	// API routes - Digest (rendered PDF)
	mux.HandleFunc("/api/digest/", s.app.DigestHandler.GetDigestHandler) // GET /{date}

	// API routes - Variables (key/value store)
	mux.HandleFunc("/api/variables", s.app.VariablesHandler.ListVariablesHandler) // GET - masked listing
	mux.HandleFunc("/api/variables/", s.handleVariableRoutes)                     // GET/PUT/DELETE /{key}

	// API routes - Scheduler
	mux.HandleFunc("/api/scheduler/trigger", s.app.SchedulerHandler.TriggerGenerationHandler)
	mux.HandleFunc("/api/scheduler/jobs", s.app.SchedulerHandler.GetJobsHandler)

	// API routes - Status and logs
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/logs/recent", s.app.WSHandler.GetRecentLogsHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/shutdown", s.ShutdownHandler) // Graceful shutdown endpoint (dev mode)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleContentRoutes routes /api/content/{date} requests
func (s *Server) handleContentRoutes(w http.ResponseWriter, r *http.Request) {
	RouteCRUD(w, r,
		s.app.ContentHandler.GetContentHandler,
		nil,
		nil,
		s.app.ContentHandler.DeleteContentHandler,
	)
}

// handleRunRoutes routes /api/runs/{id} and /api/runs/{id}/logs requests.
// The path segment is either a run ID or a date key; the handler
// discriminates by the run ID prefix.
func (s *Server) handleRunRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// GET /api/runs/{id}/logs
	if strings.HasSuffix(r.URL.Path, "/logs") {
		s.app.RunsHandler.GetRunLogsHandler(w, r)
		return
	}

	// GET /api/runs/{id} or /api/runs/{date}
	s.app.RunsHandler.GetRunHandler(w, r)
}

// handleVariableRoutes routes /api/variables/{key} requests
func (s *Server) handleVariableRoutes(w http.ResponseWriter, r *http.Request) {
	RouteResourceItem(w, r,
		s.app.VariablesHandler.GetVariableHandler,
		s.app.VariablesHandler.SetVariableHandler,
		s.app.VariablesHandler.DeleteVariableHandler,
	)
}
