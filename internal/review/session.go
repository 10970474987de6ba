package review

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eastouest/real-estate-alerter/internal/domain"
)

// LabelWriter is the downstream write target for labels. Implementations must
// scope the update to the given transaction ID only; the reconciler never
// issues positional or predicate-scoped writes.
type LabelWriter interface {
	UpdateLabel(ctx context.Context, transactionID string, newsworthy bool, comment string, reviewedAt time.Time) error
}

// Session holds one reviewer's working set and active filter state.
// Lifecycle: init on session start, mutate on filter change / label submit,
// discard on session end. The working set is read-only after load except for
// the Label sub-field, which is mutated only through SubmitLabel.
type Session struct {
	ID        string
	Source    string // "warehouse" or "csv"
	Table     string
	CreatedAt time.Time

	mu         sync.Mutex
	workingSet []domain.Transaction
	index      map[string]int // transaction ID -> workingSet position
	filter     FilterState
	writer     LabelWriter
	closed     bool
}

// NewSession builds a session around a freshly loaded working set.
// Duplicate identifiers violate the working-set invariant and fail the load.
func NewSession(id, source, table string, set []domain.Transaction, writer LabelWriter) (*Session, error) {
	index := make(map[string]int, len(set))
	for i, t := range set {
		if t.ID == "" {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("row %d has no identifier", i)}
		}
		if prev, ok := index[t.ID]; ok {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("duplicate identifier %q at rows %d and %d", t.ID, prev, i)}
		}
		index[t.ID] = i
	}
	return &Session{
		ID:         id,
		Source:     source,
		Table:      table,
		CreatedAt:  time.Now(),
		workingSet: set,
		index:      index,
		writer:     writer,
	}, nil
}

// Size returns the working-set size.
func (s *Session) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workingSet)
}

// SetFilter replaces the active filter state.
func (s *Session) SetFilter(f FilterState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

// Filter returns the active filter state.
func (s *Session) Filter() FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Filtered returns the view of the working set under the active filter.
func (s *Session) Filtered() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.Apply(s.workingSet)
}

// Get looks a transaction up by ID in the full working set, regardless of the
// active filter. Used by the detail view.
func (s *Session) Get(id string) (domain.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return domain.Transaction{}, false
	}
	return s.workingSet[i], true
}

// SubmitLabel resolves id against the *filtered* view, persists the label
// through the writer with a single ID-scoped write, and on success mirrors the
// persisted state into the session's copy of the row.
//
// An ID missing from the filtered view yields ErrStaleSelection and no write.
// A rejected write yields *PersistenceError and leaves the in-memory label
// untouched. Resubmitting the same triple overwrites; last write wins.
func (s *Session) SubmitLabel(ctx context.Context, id string, newsworthy bool, comment string) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Transaction{}, ErrSessionClosed
	}

	i, ok := s.index[id]
	if !ok || !s.filter.Matches(s.workingSet[i]) {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrStaleSelection)
	}

	now := time.Now()
	if err := s.writer.UpdateLabel(ctx, id, newsworthy, comment, now); err != nil {
		return domain.Transaction{}, &PersistenceError{TransactionID: id, Err: err}
	}

	v := newsworthy
	s.workingSet[i].Label = domain.Label{
		Newsworthy: &v,
		Comment:    comment,
		ReviewedAt: &now,
	}
	return s.workingSet[i], nil
}

// Close marks the session discarded. Subsequent submissions fail.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
