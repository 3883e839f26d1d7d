package recorder

import (
	"time"

	"FinAgent/internal/model"
)

// RunRecord holds everything worth keeping about one submission.
type RunRecord struct {
	ID          string               `json:"id"`
	Query       string               `json:"query"`
	Mode        string               `json:"mode"`
	Period      model.Period         `json:"period"`
	Symbols     []string             `json:"symbols"`
	Comparison  bool                 `json:"comparison"`
	Warning     string               `json:"warning,omitempty"`
	AgentErrors int                  `json:"agent_errors"`
	States      []string             `json:"states,omitempty"`
	StartedAt   time.Time            `json:"started_at"`
	Duration    time.Duration        `json:"duration"`
	Reports     []model.SymbolReport `json:"reports,omitempty"`
}

// Recorder persists run history for later inspection.
type Recorder interface {
	RecordRun(run *RunRecord) error
	// RecentRuns returns up to limit runs, newest first, without symbol reports.
	RecentRuns(limit int) ([]RunRecord, error)
	Close() error
}
