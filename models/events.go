package models

// Stage progress states published while a pipeline run is in flight.
const (
	StageStarted   = "started"
	StageSucceeded = "succeeded"
	StageFellBack  = "fell_back"
)

// StageEvent is one progress update for a single analysis stage, fanned out
// to SSE/WebSocket subscribers and to the Kafka analysis topic.
type StageEvent struct {
	RunID     string `json:"run_id"`
	UserID    string `json:"user_id"`
	Stage     string `json:"stage"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// RunCompletedEvent is published once per pipeline run after every stage
// has either succeeded or fallen back.
type RunCompletedEvent struct {
	RunID     string   `json:"run_id"`
	UserID    string   `json:"user_id"`
	Succeeded []string `json:"succeeded_stages"`
	FellBack  []string `json:"fell_back_stages"`
	Timestamp int64    `json:"timestamp"`
}
