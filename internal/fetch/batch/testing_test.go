package batch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/vietddude/biofetch/internal/core/domain"
	"github.com/vietddude/biofetch/internal/infra/rpc/provider"
	"github.com/vietddude/biofetch/internal/infra/rpc/retry"
)

type idRow struct {
	ID string
}

func (r idRow) Record() []string { return []string{r.ID} }

// echoBackend sends the batch ids as the query and reads them back as rows.
type echoBackend struct {
	buildErr     map[string]error // keyed by first id of a batch
	normalizeErr map[string]error
}

func (b *echoBackend) Name() string      { return "echo" }
func (b *echoBackend) Columns() []string { return []string{"id"} }

func (b *echoBackend) BuildOperation(ids []string) (provider.Operation, error) {
	if err := b.buildErr[ids[0]]; err != nil {
		return provider.Operation{}, err
	}
	return provider.Operation{Name: "echo", Query: strings.Join(ids, ",")}, nil
}

func (b *echoBackend) Normalize(body []byte) ([]idRow, error) {
	var ids []string
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		if err := b.normalizeErr[ids[0]]; err != nil {
			return nil, err
		}
	}
	rows := make([]idRow, 0, len(ids))
	for _, id := range ids {
		if id == "EMPTY" {
			continue
		}
		rows = append(rows, idRow{ID: id})
	}
	return rows, nil
}

// scriptedSender fails batches whose first id is listed in fail.
type scriptedSender struct {
	mu    sync.Mutex
	fail  map[string]*retry.Failure
	calls []string
	hook  func(query string)
}

func (s *scriptedSender) Send(ctx context.Context, op provider.Operation) ([]byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, op.Query)
	s.mu.Unlock()

	if s.hook != nil {
		s.hook(op.Query)
	}

	ids := strings.Split(op.Query, ",")
	if f, ok := s.fail[ids[0]]; ok {
		return nil, f
	}
	return json.Marshal(ids)
}

func serverFailure() *retry.Failure {
	return &retry.Failure{Class: domain.ErrorClassServerError, Attempts: 5, Err: errors.New("http 503")}
}
