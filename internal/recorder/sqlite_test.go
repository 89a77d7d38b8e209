package recorder

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Bolsa/internal/collector"
)

func TestSQLiteRecorder_RecordsRunsAndFailures(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "db", "bolsa.db"), nil)
	require.NoError(t, err)
	defer r.Close()

	run := NewRefreshRun("MANUAL", time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC))
	run.Duration = 1500 * time.Millisecond
	run.Requested, run.Fetched, run.Resolved, run.Failed = 3, 3, 2, 1
	require.NoError(t, r.RecordRefresh(run))

	cause := &collector.FetchError{Op: "fetch series", Symbol: "SNAP", Kind: collector.KindNoData}
	require.NoError(t, r.RecordFailure(FailureFrom(run.ID, "SNAP", cause)))

	var trigger string
	var resolved, durationMS int
	err = r.db.QueryRow(`SELECT trigger, resolved, duration_ms FROM refresh_runs WHERE id = ?`, run.ID.String()).
		Scan(&trigger, &resolved, &durationMS)
	require.NoError(t, err)
	assert.Equal(t, "MANUAL", trigger)
	assert.Equal(t, 2, resolved)
	assert.Equal(t, 1500, durationMS)

	var kind, runID string
	require.NoError(t, r.db.QueryRow(`SELECT kind, run_id FROM fetch_failures WHERE symbol = 'SNAP'`).Scan(&kind, &runID))
	assert.Equal(t, "NO_DATA", kind)
	assert.Equal(t, run.ID.String(), runID)

	n, err := r.FailureCount("SNAP")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteRecorder_ReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bolsa.db")
	r, err := NewSQLiteRecorder(path, nil)
	require.NoError(t, err)
	run := NewRefreshRun("CRON", time.Now())
	require.NoError(t, r.RecordFailure(FailureFrom(run.ID, "AAPL", errors.New("plain"))))
	require.NoError(t, r.Close())

	r2, err := NewSQLiteRecorder(path, nil)
	require.NoError(t, err)
	defer r2.Close()
	n, err := r2.FailureCount("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFailureFrom_UnclassifiedError(t *testing.T) {
	f := FailureFrom(NewRefreshRun("CRON", time.Now()).ID, "X", errors.New("plain"))
	assert.Equal(t, collector.ErrorKind(""), f.Kind)
	assert.Equal(t, "plain", f.Message)
}
