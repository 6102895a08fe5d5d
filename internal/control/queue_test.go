package control

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queuedApp(t *testing.T, pdbURL string, opts Options) (*App, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := testConfig(pdbURL, "http://unused")
	cfg.Redis.URL = "redis://" + mr.Addr()

	app, err := New(context.Background(), cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Stop() })
	return app, mr
}

func TestRetryFailedKeepsQueueOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cancel()
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	app, mr := queuedApp(t, srv.URL, Options{RetryFailed: true, BatchSize: 1})
	_, err := mr.SetAdd("failed_ids:pdb_entries", "1ABC", "2XYZ")
	require.NoError(t, err)

	_, err = app.PDBEntries(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)

	members, err := mr.Members("failed_ids:pdb_entries")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1ABC", "2XYZ"}, members)
}

func TestRetryFailedResolvesSucceededIDs(t *testing.T) {
	pdb, _ := pdbServer(t, "2XYZ")

	app, mr := queuedApp(t, pdb.URL, Options{RetryFailed: true, BatchSize: 1})
	_, err := mr.SetAdd("failed_ids:pdb_entries", "1ABC", "2XYZ")
	require.NoError(t, err)

	report, err := app.PDBEntries(context.Background(), []string{"4HHB"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Meta.TotalRows)
	assert.Equal(t, []string{"2XYZ"}, report.Meta.FailedIDs)

	// 2XYZ failed again and stays queued even without --record-failures
	members, err := mr.Members("failed_ids:pdb_entries")
	require.NoError(t, err)
	assert.Equal(t, []string{"2XYZ"}, members)
}

func TestRecordFailuresQueuesFailedIDs(t *testing.T) {
	pdb, _ := pdbServer(t, "BAD1")

	app, mr := queuedApp(t, pdb.URL, Options{RecordFailures: true, BatchSize: 1})
	_, err := app.PDBEntries(context.Background(), []string{"4HHB", "BAD1"})
	require.NoError(t, err)

	members, err := mr.Members("failed_ids:pdb_entries")
	require.NoError(t, err)
	assert.Equal(t, []string{"BAD1"}, members)

	n, err := app.Queue().Pending(context.Background(), "pdb_entries")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
