package models

// RunLogEntry is a single persisted log line for a generation run.
// Entries are written in batches by the log consumer, keyed by the run's
// correlation ID, and served back through the run log endpoint.
//
// Timestamp Format:
//   - Timestamp: "15:04:05" (HH:MM:SS) for display
//   - FullTimestamp: RFC3339 for accurate sorting
//
// Log Levels: 3-letter display codes "DBG", "INF", "WRN", "ERR"
type RunLogEntry struct {
	Timestamp     string `json:"timestamp"`
	FullTimestamp string `json:"full_timestamp"`
	Level         string `json:"level" badgerhold:"index"`
	Message       string `json:"message"`

	// AssociatedRunID is the run this entry belongs to, stored as its own
	// indexed field because badgerhold cannot query into map fields
	AssociatedRunID string `json:"run_id" badgerhold:"index"`
}
