package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eastouest/real-estate-alerter/internal/api/middleware"
	"github.com/eastouest/real-estate-alerter/internal/domain"
	"github.com/eastouest/real-estate-alerter/internal/ingest"
	"github.com/eastouest/real-estate-alerter/internal/observability"
	"github.com/eastouest/real-estate-alerter/internal/review"
)

// Warehouse is the slice of the repository the session handlers need: load a
// working set and obtain an ID-scoped label writer for a table.
type Warehouse interface {
	WorkingSet(ctx context.Context, table string) ([]domain.Transaction, error)
	LabelWriter(table string) review.LabelWriter
}

// ValidTable guards table names arriving over the API.
type ValidTable func(string) bool

// SessionsHandler serves the review surface: session lifecycle, filtering,
// detail views and label submission.
type SessionsHandler struct {
	warehouse    Warehouse
	validTable   ValidTable
	sessions     *review.Store
	defaultTable string
	log          zerolog.Logger
}

// NewSessionsHandler creates the sessions handler. warehouse may be nil when
// the service runs CSV-only; labels then fail with a persistence error
// instead of silently succeeding.
func NewSessionsHandler(warehouse Warehouse, validTable ValidTable, sessions *review.Store, defaultTable string, log zerolog.Logger) *SessionsHandler {
	return &SessionsHandler{
		warehouse:    warehouse,
		validTable:   validTable,
		sessions:     sessions,
		defaultTable: defaultTable,
		log:          log,
	}
}

// CreateSession handles POST /api/sessions — start a session from a
// warehouse table.
func (h *SessionsHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Table string `json:"table"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Table == "" {
		req.Table = h.defaultTable
	}
	if !h.validTable(req.Table) {
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Unknown table %q", req.Table))
		return
	}
	if h.warehouse == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Warehouse is not configured")
		return
	}

	ctx := r.Context()
	set, err := h.warehouse.WorkingSet(ctx, req.Table)
	if err != nil {
		loadErr := &review.LoadError{Source: "warehouse", Err: err}
		h.log.Error().Err(loadErr).Str("table", req.Table).Msg("Failed to load working set")
		middleware.WriteError(w, http.StatusBadGateway, loadErr.Error())
		return
	}

	h.startSession(w, "warehouse", req.Table, set)
}

// CreateCSVSession handles POST /api/sessions/csv — start a session from an
// uploaded CSV body. Labels still persist to the warehouse by transaction ID.
func (h *SessionsHandler) CreateCSVSession(w http.ResponseWriter, r *http.Request) {
	table := r.URL.Query().Get("table")
	if table == "" {
		table = h.defaultTable
	}
	if !h.validTable(table) {
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Unknown table %q", table))
		return
	}

	set, err := ingest.Parse(r.Body)
	if err != nil {
		loadErr := &review.LoadError{Source: "csv", Err: err}
		h.log.Error().Err(loadErr).Msg("Failed to parse uploaded CSV")
		middleware.WriteError(w, http.StatusBadRequest, loadErr.Error())
		return
	}

	h.startSession(w, "csv", table, set)
}

func (h *SessionsHandler) startSession(w http.ResponseWriter, source, table string, set []domain.Transaction) {
	var writer review.LabelWriter
	if h.warehouse != nil {
		writer = h.warehouse.LabelWriter(table)
	} else {
		writer = unavailableWriter{}
	}

	session, err := review.NewSession(uuid.NewString(), source, table, set, writer)
	if err != nil {
		h.log.Error().Err(err).Str("source", source).Msg("Rejected working set")
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.sessions.Put(session); err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to register session")
		return
	}

	observability.ObserveSessionStart(source, session.Size())
	h.log.Info().
		Str("session_id", session.ID).
		Str("source", source).
		Str("table", table).
		Int("rows", session.Size()).
		Msg("Session started")

	middleware.WriteJSON(w, http.StatusCreated, sessionView(session))
}

// GetSession handles GET /api/sessions/{sessionID}.
func (h *SessionsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, sessionView(session))
}

// DeleteSession handles DELETE /api/sessions/{sessionID} — discard.
func (h *SessionsHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !h.sessions.Delete(id) {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}
	h.log.Info().Str("session_id", id).Msg("Session discarded")
	w.WriteHeader(http.StatusNoContent)
}

// ListTransactions handles GET /api/sessions/{sessionID}/transactions.
// The query parameters become the session's new filter state; the filtered
// view is returned.
func (h *SessionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	session.SetFilter(filter)

	filtered := session.Filtered()
	views := make([]transactionView, 0, len(filtered))
	for _, t := range filtered {
		views = append(views, newTransactionView(t))
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": views,
		"count":        len(views),
		"total":        session.Size(),
	})
}

// GetTransaction handles GET /api/sessions/{sessionID}/transactions/{transactionID}.
// The detail view resolves against the full working set, not the filter.
func (h *SessionsHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	txID := chi.URLParam(r, "transactionID")
	t, ok := session.Get(txID)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Transaction not found in working set")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, newTransactionView(t))
}

// GetStats handles GET /api/sessions/{sessionID}/stats — per-district market
// averages over the full working set.
func (h *SessionsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	stats := session.Stats()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"districts": stats,
		"count":     len(stats),
	})
}

// SubmitLabel handles POST /api/sessions/{sessionID}/labels.
func (h *SessionsHandler) SubmitLabel(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		TransactionID string `json:"transaction_id"`
		Newsworthy    *bool  `json:"newsworthy"`
		Comment       string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TransactionID == "" || req.Newsworthy == nil {
		middleware.WriteError(w, http.StatusBadRequest, "transaction_id and newsworthy are required")
		return
	}

	updated, err := session.SubmitLabel(r.Context(), req.TransactionID, *req.Newsworthy, req.Comment)
	if err != nil {
		h.writeSubmitError(w, req.TransactionID, err)
		return
	}

	observability.ObserveSubmission("ok")
	h.log.Info().
		Str("session_id", session.ID).
		Str("transaction_id", req.TransactionID).
		Bool("newsworthy", *req.Newsworthy).
		Msg("Label persisted")

	middleware.WriteJSON(w, http.StatusOK, newTransactionView(updated))
}

func (h *SessionsHandler) writeSubmitError(w http.ResponseWriter, txID string, err error) {
	var persistErr *review.PersistenceError
	switch {
	case errors.Is(err, review.ErrStaleSelection):
		observability.ObserveSubmission("stale")
		middleware.WriteError(w, http.StatusConflict, err.Error())
	case errors.As(err, &persistErr):
		observability.ObserveSubmission("persistence_error")
		h.log.Error().Err(err).Str("transaction_id", txID).Msg("Label write rejected")
		middleware.WriteError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, review.ErrSessionClosed):
		middleware.WriteError(w, http.StatusGone, err.Error())
	default:
		h.log.Error().Err(err).Str("transaction_id", txID).Msg("Label submission failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Label submission failed")
	}
}

func (h *SessionsHandler) session(w http.ResponseWriter, r *http.Request) (*review.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	session, ok := h.sessions.Get(id)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return session, true
}

func filterFromQuery(r *http.Request) (review.FilterState, error) {
	q := r.URL.Query()
	f := review.FilterState{
		Districts:     q["district"],
		PropertyTypes: q["property_type"],
		CreatedDates:  q["created_date"],
	}

	if v := q.Get("min_price"); v != "" {
		min, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return review.FilterState{}, fmt.Errorf("invalid min_price %q", v)
		}
		f.MinPrice = &min
	}
	if v := q.Get("max_price"); v != "" {
		max, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return review.FilterState{}, fmt.Errorf("invalid max_price %q", v)
		}
		f.MaxPrice = &max
	}

	return f, nil
}

// unavailableWriter rejects every write; used when no warehouse is
// configured so a failed persist is never reported as success.
type unavailableWriter struct{}

func (unavailableWriter) UpdateLabel(ctx context.Context, transactionID string, newsworthy bool, comment string, reviewedAt time.Time) error {
	return fmt.Errorf("no warehouse configured for label writes")
}
