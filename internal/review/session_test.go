package review

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/eastouest/real-estate-alerter/internal/domain"
)

// recordingWriter records every write it receives; failNext makes the next
// call fail without recording.
type recordingWriter struct {
	calls    []writeCall
	failNext error
}

type writeCall struct {
	transactionID string
	newsworthy    bool
	comment       string
}

func (w *recordingWriter) UpdateLabel(ctx context.Context, transactionID string, newsworthy bool, comment string, reviewedAt time.Time) error {
	if w.failNext != nil {
		err := w.failNext
		w.failNext = nil
		return err
	}
	w.calls = append(w.calls, writeCall{transactionID, newsworthy, comment})
	return nil
}

func newTestSession(t *testing.T, writer LabelWriter) *Session {
	t.Helper()
	s, err := NewSession("s1", "warehouse", "newsworthy", sampleSet(), writer)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestNewSessionRejectsDuplicateIDs(t *testing.T) {
	set := []domain.Transaction{{ID: "dup"}, {ID: "other"}, {ID: "dup"}}

	_, err := NewSession("s1", "csv", "newsworthy", set, &recordingWriter{})
	if err == nil {
		t.Fatal("expected error for duplicate identifiers")
	}

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("got %T, want *LoadError", err)
	}
	if loadErr.Source != "csv" {
		t.Errorf("Source = %q, want %q", loadErr.Source, "csv")
	}
}

func TestNewSessionRejectsMissingID(t *testing.T) {
	set := []domain.Transaction{{ID: "ok"}, {ID: ""}}

	_, err := NewSession("s1", "warehouse", "newsworthy", set, &recordingWriter{})
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("got %v (%T), want *LoadError", err, err)
	}
}

func TestSubmitLabelPersistsAndMirrors(t *testing.T) {
	writer := &recordingWriter{}
	s := newTestSession(t, writer)

	got, err := s.SubmitLabel(context.Background(), "2", true, "looks big")
	if err != nil {
		t.Fatalf("SubmitLabel: %v", err)
	}

	if len(writer.calls) != 1 {
		t.Fatalf("got %d writes, want 1", len(writer.calls))
	}
	call := writer.calls[0]
	if call.transactionID != "2" || !call.newsworthy || call.comment != "looks big" {
		t.Errorf("unexpected write: %+v", call)
	}

	if got.Label.Newsworthy == nil || !*got.Label.Newsworthy {
		t.Error("returned transaction not marked newsworthy")
	}
	if got.Label.ReviewedAt == nil {
		t.Error("returned transaction has no reviewed timestamp")
	}

	stored, ok := s.Get("2")
	if !ok {
		t.Fatal("transaction vanished from working set")
	}
	if stored.Label.Comment != "looks big" {
		t.Errorf("stored comment = %q", stored.Label.Comment)
	}
}

func TestSubmitLabelResolvesAgainstFilteredView(t *testing.T) {
	// Working set has districts A and B. Select a row from district B, then
	// narrow the filter to district A before submitting: the selection must be
	// rejected as stale and no write issued.
	writer := &recordingWriter{}
	s := newTestSession(t, writer)

	s.SetFilter(FilterState{Districts: []string{"A"}})

	_, err := s.SubmitLabel(context.Background(), "2", true, "")
	if !errors.Is(err, ErrStaleSelection) {
		t.Fatalf("got %v, want ErrStaleSelection", err)
	}
	if len(writer.calls) != 0 {
		t.Fatalf("stale submission issued %d writes, want 0", len(writer.calls))
	}

	// Same outcome for a price bound that excludes the selection.
	min := 100000.0
	s.SetFilter(FilterState{MinPrice: &min})
	if _, err := s.SubmitLabel(context.Background(), "2", true, ""); !errors.Is(err, ErrStaleSelection) {
		t.Fatalf("got %v, want ErrStaleSelection", err)
	}
	if len(writer.calls) != 0 {
		t.Fatalf("stale submission issued %d writes, want 0", len(writer.calls))
	}
}

func TestSubmitLabelUnknownID(t *testing.T) {
	writer := &recordingWriter{}
	s := newTestSession(t, writer)

	_, err := s.SubmitLabel(context.Background(), "nope", false, "")
	if !errors.Is(err, ErrStaleSelection) {
		t.Fatalf("got %v, want ErrStaleSelection", err)
	}
	if len(writer.calls) != 0 {
		t.Fatal("unknown ID must not reach the writer")
	}
}

func TestSubmitLabelLastWriteWins(t *testing.T) {
	writer := &recordingWriter{}
	s := newTestSession(t, writer)

	if _, err := s.SubmitLabel(context.Background(), "1", true, ""); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	got, err := s.SubmitLabel(context.Background(), "1", false, "on second look, routine")
	if err != nil {
		t.Fatalf("second submission: %v", err)
	}

	if len(writer.calls) != 2 {
		t.Fatalf("got %d writes, want 2", len(writer.calls))
	}
	if got.Label.Newsworthy == nil || *got.Label.Newsworthy {
		t.Error("second submission did not overwrite the label")
	}
	if got.Label.Comment != "on second look, routine" {
		t.Errorf("comment = %q", got.Label.Comment)
	}
}

func TestSubmitLabelIdempotentResubmission(t *testing.T) {
	writer := &recordingWriter{}
	s := newTestSession(t, writer)

	for i := 0; i < 3; i++ {
		got, err := s.SubmitLabel(context.Background(), "3", true, "same")
		if err != nil {
			t.Fatalf("submission %d: %v", i, err)
		}
		if got.Label.Newsworthy == nil || !*got.Label.Newsworthy || got.Label.Comment != "same" {
			t.Errorf("submission %d produced %+v", i, got.Label)
		}
	}
	if len(writer.calls) != 3 {
		t.Fatalf("got %d writes, want 3", len(writer.calls))
	}
}

func TestSubmitLabelPersistenceFailureLeavesStateUntouched(t *testing.T) {
	writer := &recordingWriter{failNext: fmt.Errorf("quota exceeded")}
	s := newTestSession(t, writer)

	_, err := s.SubmitLabel(context.Background(), "1", true, "important")

	var persistErr *PersistenceError
	if !errors.As(err, &persistErr) {
		t.Fatalf("got %v (%T), want *PersistenceError", err, err)
	}
	if persistErr.TransactionID != "1" {
		t.Errorf("TransactionID = %q", persistErr.TransactionID)
	}

	stored, _ := s.Get("1")
	if stored.Label.Labeled() {
		t.Error("failed write must not mirror the label in memory")
	}

	// The next submission goes through and labels normally.
	if _, err := s.SubmitLabel(context.Background(), "1", true, "important"); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	stored, _ = s.Get("1")
	if !stored.Label.Labeled() {
		t.Error("retry did not label the transaction")
	}
}

func TestSubmitLabelOnClosedSession(t *testing.T) {
	writer := &recordingWriter{}
	s := newTestSession(t, writer)
	s.Close()

	if _, err := s.SubmitLabel(context.Background(), "1", true, ""); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("got %v, want ErrSessionClosed", err)
	}
	if len(writer.calls) != 0 {
		t.Fatal("closed session must not write")
	}
}

func TestFilteredReflectsLabelUpdates(t *testing.T) {
	writer := &recordingWriter{}
	s := newTestSession(t, writer)

	if _, err := s.SubmitLabel(context.Background(), "1", true, ""); err != nil {
		t.Fatalf("SubmitLabel: %v", err)
	}

	for _, tx := range s.Filtered() {
		if tx.ID == "1" && !tx.Label.Labeled() {
			t.Error("filtered view does not reflect the persisted label")
		}
	}
}

func TestStoreLifecycle(t *testing.T) {
	store := NewStore()
	s := newTestSession(t, &recordingWriter{})

	if err := store.Put(s); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1", store.Len())
	}

	got, ok := store.Get("s1")
	if !ok {
		t.Fatal("session not found after Put")
	}
	if got != s {
		t.Error("Get must return the live session, not a copy")
	}

	if !store.Delete("s1") {
		t.Fatal("Delete returned false for an existing session")
	}
	if _, ok := store.Get("s1"); ok {
		t.Error("session still present after Delete")
	}

	// Delete closes the session.
	if _, err := s.SubmitLabel(context.Background(), "1", true, ""); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("got %v, want ErrSessionClosed after Delete", err)
	}

	if store.Delete("s1") {
		t.Error("Delete of a missing session returned true")
	}
}
