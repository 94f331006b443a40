package brand

import "time"

// EventType is the kind of a progress event.
type EventType string

const (
	EventStatus         EventType = "status"
	EventProviderResult EventType = "provider-result"
	EventError          EventType = "error"
	EventComplete       EventType = "complete"
)

// Stage is a pipeline phase. Stages are strictly ordered; see Stages.
type Stage string

const (
	StageInitializing        Stage = "initializing"
	StageScraping            Stage = "scraping"
	StageCompetitorDiscovery Stage = "competitor-discovery"
	StagePromptGeneration    Stage = "prompt-generation"
	StageQuerying            Stage = "querying"
	StageExtracting          Stage = "extracting"
	StageRanking             Stage = "ranking"
	StageFinalizing          Stage = "finalizing"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{
	StageInitializing,
	StageScraping,
	StageCompetitorDiscovery,
	StagePromptGeneration,
	StageQuerying,
	StageExtracting,
	StageRanking,
	StageFinalizing,
}

// Index returns the position of s in pipeline order, or -1 if unknown.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// Event is one progress message streamed to the caller.
type Event struct {
	Type      EventType `json:"type"`
	Stage     Stage     `json:"stage"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Terminal reports whether the event ends a run.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

// StatusData is the payload of a status event.
type StatusData struct {
	Message  string `json:"message"`
	Progress int    `json:"progress"`
	Detail   any    `json:"detail,omitempty"`
}

// ErrorData is the payload of a terminal error event.
type ErrorData struct {
	Error string `json:"error"`
	Kind  Kind   `json:"kind,omitempty"`
}

// ProviderResultData is the payload of a provider-result event.
type ProviderResultData struct {
	ProviderResponse
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Progress  int `json:"progress"`
}
