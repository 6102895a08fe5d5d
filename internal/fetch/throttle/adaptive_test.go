package throttle

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/biofetch/internal/core/domain"
	"github.com/vietddude/biofetch/internal/fetch/batch"
	"github.com/vietddude/biofetch/internal/infra/rpc/provider"
	"github.com/vietddude/biofetch/internal/infra/rpc/retry"
)

type row string

func (r row) Record() []string { return []string{string(r)} }

// scriptedFetcher returns one scripted run per call and records batch sizes.
type scriptedFetcher struct {
	runs  []batch.Run[row]
	errs  []error
	sizes []int
}

func (f *scriptedFetcher) Fetch(ctx context.Context, ids []string, batchSize int) (batch.Run[row], error) {
	i := len(f.sizes)
	f.sizes = append(f.sizes, batchSize)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if i < len(f.runs) {
		return f.runs[i], err
	}
	return batch.Run[row]{}, err
}

// sizeLimitedBackend acts as both backend and sender; batches above limit
// fail with memory exhaustion.
type sizeLimitedBackend struct {
	limit int
}

func (b *sizeLimitedBackend) Name() string      { return "sized" }
func (b *sizeLimitedBackend) Columns() []string { return []string{"id"} }

func (b *sizeLimitedBackend) BuildOperation(ids []string) (provider.Operation, error) {
	return provider.Operation{Name: "sized", Query: strings.Join(ids, ",")}, nil
}

func (b *sizeLimitedBackend) Send(ctx context.Context, op provider.Operation) ([]byte, error) {
	ids := strings.Split(op.Query, ",")
	if len(ids) > b.limit {
		return nil, &retry.Failure{
			Class:    domain.ErrorClassMemoryExhaustion,
			Attempts: 1,
			Terminal: true,
			Err:      errors.New("Unable to allocate 512 MB"),
		}
	}
	return json.Marshal(ids)
}

func (b *sizeLimitedBackend) Normalize(body []byte) ([]row, error) {
	var ids []string
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, err
	}
	rows := make([]row, len(ids))
	for i, id := range ids {
		rows[i] = row(id)
	}
	return rows, nil
}

func failedRun(classes ...domain.ErrorClass) batch.Run[row] {
	return batch.Run[row]{Summary: summaryWith(classes...)}
}

func okRun(rows ...row) batch.Run[row] {
	s := domain.NewRunSummary("run", "test", 10)
	s.RecordSuccess(len(rows))
	return batch.Run[row]{Rows: rows, Summary: s}
}

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "P" + string(rune('A'+i%26))
	}
	return out
}

func newAdaptive(t *testing.T, f *scriptedFetcher) *Adaptive[row] {
	t.Helper()
	a, err := NewAdaptive[row]("test", f, DefaultConfig(), nil)
	require.NoError(t, err)
	return a
}

func TestAdaptiveReturnsFirstAttemptWithRows(t *testing.T) {
	f := &scriptedFetcher{runs: []batch.Run[row]{okRun("a", "b")}}

	run, err := newAdaptive(t, f).Fetch(context.Background(), ids(30), 50)
	require.NoError(t, err)
	assert.Equal(t, []row{"a", "b"}, run.Rows)
	assert.Equal(t, []int{50}, f.sizes)
}

func TestAdaptiveShrinksOnServerErrors(t *testing.T) {
	f := &scriptedFetcher{runs: []batch.Run[row]{
		failedRun(domain.ErrorClassServerError),
		failedRun(domain.ErrorClassServerError),
		okRun("x"),
	}}

	run, err := newAdaptive(t, f).Fetch(context.Background(), ids(200), 40)
	require.NoError(t, err)
	assert.Equal(t, []row{"x"}, run.Rows)
	assert.Equal(t, []int{40, 20, 10}, f.sizes)
}

func TestAdaptiveConnectionShrinkFloor(t *testing.T) {
	f := &scriptedFetcher{runs: []batch.Run[row]{
		failedRun(domain.ErrorClassConnectionReset),
		failedRun(domain.ErrorClassConnectionReset),
		okRun("x"),
	}}

	_, err := newAdaptive(t, f).Fetch(context.Background(), ids(200), 24)
	require.NoError(t, err)
	assert.Equal(t, []int{24, 12, 10}, f.sizes)
}

func TestAdaptiveMemoryErrorRecomputesSize(t *testing.T) {
	f := &scriptedFetcher{runs: []batch.Run[row]{
		failedRun(domain.ErrorClassMemoryExhaustion),
		okRun("x"),
	}}

	_, err := newAdaptive(t, f).Fetch(context.Background(), ids(150), 50)
	require.NoError(t, err)
	// 50/3 = 16 from the shrink rule, capped to min(10, 50/5) by sizing
	assert.Equal(t, []int{50, 10}, f.sizes)
}

func TestAdaptiveGivesUpBelowMinimum(t *testing.T) {
	f := &scriptedFetcher{runs: []batch.Run[row]{
		failedRun(domain.ErrorClassMemoryExhaustion),
	}}

	run, err := newAdaptive(t, f).Fetch(context.Background(), ids(40), 40)
	require.ErrorIs(t, err, ErrBatchSizeExhausted)
	assert.Empty(t, run.Rows)
	// min(5, 40/10) = 4 is below the floor of 5
	assert.Equal(t, []int{40}, f.sizes)
}

func TestAdaptiveAttemptsExhausted(t *testing.T) {
	f := &scriptedFetcher{runs: []batch.Run[row]{
		failedRun(domain.ErrorClassServerError),
		failedRun(domain.ErrorClassServerError),
		failedRun(domain.ErrorClassServerError),
		okRun("never"),
	}}

	run, err := newAdaptive(t, f).Fetch(context.Background(), ids(10), 50)
	require.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.Empty(t, run.Rows)
	assert.Equal(t, []int{50, 25, 12}, f.sizes)
	assert.Equal(t, 1, run.Summary.FailedBatches)
}

func TestAdaptiveEmptyMatchSetIsNotRetried(t *testing.T) {
	empty := domain.NewRunSummary("run", "test", 50)
	empty.TotalBatches = 1
	empty.RecordSuccess(0)
	f := &scriptedFetcher{runs: []batch.Run[row]{{Summary: empty}}}

	run, err := newAdaptive(t, f).Fetch(context.Background(), ids(3), 50)
	require.NoError(t, err)
	assert.Empty(t, run.Rows)
	assert.Len(t, f.sizes, 1)
}

func TestAdaptiveRetryEmptyResults(t *testing.T) {
	empty := domain.NewRunSummary("run", "test", 50)
	empty.TotalBatches = 1
	empty.RecordSuccess(0)
	f := &scriptedFetcher{runs: []batch.Run[row]{{Summary: empty}, {Summary: empty}, okRun("P1")}}

	cfg := DefaultConfig()
	cfg.RetryEmptyResults = true
	a, err := NewAdaptive[row]("test", f, cfg, nil)
	require.NoError(t, err)

	run, err := a.Fetch(context.Background(), ids(3), 50)
	require.NoError(t, err)
	assert.Equal(t, []row{"P1"}, run.Rows)
	assert.Equal(t, []int{50, 25, 12}, f.sizes)
}

func TestAdaptiveRetryEmptyResultsExhausts(t *testing.T) {
	empty := domain.NewRunSummary("run", "test", 20)
	empty.TotalBatches = 1
	empty.RecordSuccess(0)
	f := &scriptedFetcher{runs: []batch.Run[row]{{Summary: empty}, {Summary: empty}, {Summary: empty}}}

	cfg := DefaultConfig()
	cfg.RetryEmptyResults = true
	a, err := NewAdaptive[row]("test", f, cfg, nil)
	require.NoError(t, err)

	_, err = a.Fetch(context.Background(), ids(3), 20)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.Equal(t, []int{20, 10, 5}, f.sizes)
}

func TestAdaptivePropagatesContextError(t *testing.T) {
	f := &scriptedFetcher{
		runs: []batch.Run[row]{okRun("partial")},
		errs: []error{context.Canceled},
	}

	run, err := newAdaptive(t, f).Fetch(context.Background(), ids(10), 50)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []row{"partial"}, run.Rows)
}

func TestAdaptiveSmallBaseStillRuns(t *testing.T) {
	f := &scriptedFetcher{runs: []batch.Run[row]{okRun("a")}}

	_, err := newAdaptive(t, f).Fetch(context.Background(), ids(3), 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, f.sizes)
}

func TestAdaptiveCountersAreScopedToOneCall(t *testing.T) {
	f := &scriptedFetcher{runs: []batch.Run[row]{
		failedRun(domain.ErrorClassMemoryExhaustion),
		okRun("x"),
		okRun("y"),
	}}
	a := newAdaptive(t, f)

	_, err := a.Fetch(context.Background(), ids(150), 50)
	require.NoError(t, err)

	// a fresh call starts without the previous memory error
	_, err = a.Fetch(context.Background(), ids(150), 50)
	require.NoError(t, err)
	assert.Equal(t, []int{50, 10, 50}, f.sizes)
}

func TestAdaptiveWithOrchestrator(t *testing.T) {
	// end to end through the real orchestrator: every batch above 5 ids
	// runs the server out of memory
	backend := &sizeLimitedBackend{limit: 5}
	o := batch.New[row](backend, backend, batch.Config{})

	a, err := NewAdaptive[row]("sized", o, DefaultConfig(), nil)
	require.NoError(t, err)

	run, err := a.Fetch(context.Background(), ids(150), 50)
	require.NoError(t, err)
	assert.Len(t, run.Rows, 150)
	assert.Equal(t, 0, run.Summary.FailedBatches)
}

func TestNewAdaptiveRejectsBadConfig(t *testing.T) {
	config := DefaultConfig()
	config.ConnectionDivisor = 0
	_, err := NewAdaptive[row]("x", &scriptedFetcher{}, config, nil)
	assert.Error(t, err)
}
