package recorder

import (
	"time"

	"github.com/google/uuid"

	"Bolsa/internal/collector"
	"Bolsa/internal/model"
)

// RefreshRun summarizes one watchlist refresh.
type RefreshRun struct {
	ID        uuid.UUID
	Trigger   string // "CRON", "MANUAL", "WATCHLIST"
	StartedAt time.Time
	Duration  time.Duration
	Requested int
	Fetched   int
	Resolved  int
	Failed    int
}

// FetchFailure records one symbol whose fetch failed during a run.
type FetchFailure struct {
	RunID   uuid.UUID
	Symbol  model.Symbol
	Kind    collector.ErrorKind
	Message string
}

// NewRefreshRun starts a run record with a fresh ID.
func NewRefreshRun(trigger string, startedAt time.Time) *RefreshRun {
	return &RefreshRun{ID: uuid.New(), Trigger: trigger, StartedAt: startedAt}
}

// FailureFrom builds a FetchFailure for runID out of a fetch error.
func FailureFrom(runID uuid.UUID, symbol model.Symbol, err error) *FetchFailure {
	f := &FetchFailure{RunID: runID, Symbol: symbol, Kind: collector.KindOf(err)}
	if err != nil {
		f.Message = err.Error()
	}
	return f
}

// Recorder persists refresh history for later analysis.
type Recorder interface {
	RecordRefresh(run *RefreshRun) error
	RecordFailure(f *FetchFailure) error
	Close() error
}
