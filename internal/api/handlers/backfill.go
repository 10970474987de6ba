package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eastouest/real-estate-alerter/internal/api/middleware"
	"github.com/eastouest/real-estate-alerter/internal/jobs"
)

// UploadFunc archives a CSV body to object storage and returns its URI.
type UploadFunc func(ctx context.Context, bucket, objectName, contentType string, r io.Reader) (string, error)

// BackfillHandler serves the ingest surface: archive CSV uploads to GCS and
// enqueue backfill jobs that stream archived rows into a warehouse table.
type BackfillHandler struct {
	bucket     string
	upload     UploadFunc
	publisher  jobs.Publisher
	store      jobs.JobStore
	validTable ValidTable
	log        zerolog.Logger
}

// NewBackfillHandler creates the backfill handler.
func NewBackfillHandler(bucket string, upload UploadFunc, publisher jobs.Publisher, store jobs.JobStore, validTable ValidTable, log zerolog.Logger) *BackfillHandler {
	return &BackfillHandler{
		bucket:     bucket,
		upload:     upload,
		publisher:  publisher,
		store:      store,
		validTable: validTable,
		log:        log,
	}
}

// UploadCSV handles POST /api/uploads — archive a raw CSV body to the GCS
// bucket. The archived object is the durable input for later backfills.
func (h *BackfillHandler) UploadCSV(w http.ResponseWriter, r *http.Request) {
	if h.bucket == "" {
		middleware.WriteError(w, http.StatusServiceUnavailable, "No archive bucket configured")
		return
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "upload.csv"
	}
	objectName := fmt.Sprintf("uploads/%s/%s-%s",
		time.Now().UTC().Format("2006/01/02"), uuid.NewString(), filename)

	uri, err := h.upload(r.Context(), h.bucket, objectName, "text/csv", r.Body)
	if err != nil {
		h.log.Error().Err(err).Str("object", objectName).Msg("Failed to archive upload")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to archive upload")
		return
	}

	h.log.Info().Str("gcs_uri", uri).Msg("CSV archived")
	middleware.WriteJSON(w, http.StatusCreated, map[string]string{"gcs_uri": uri})
}

// EnqueueBackfill handles POST /api/backfill — queue an archived CSV for
// insertion into a warehouse table.
func (h *BackfillHandler) EnqueueBackfill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GCSURI string `json:"gcs_uri"`
		Table  string `json:"table"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !strings.HasPrefix(req.GCSURI, "gs://") {
		middleware.WriteError(w, http.StatusBadRequest, "gcs_uri must be a gs:// URI")
		return
	}
	if !h.validTable(req.Table) {
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Unknown table %q", req.Table))
		return
	}

	job := &jobs.BackfillCSVJob{
		GCSURI: req.GCSURI,
		Table:  req.Table,
	}
	if err := h.publisher.PublishBackfill(r.Context(), job); err != nil {
		h.log.Error().Err(err).Str("gcs_uri", req.GCSURI).Msg("Failed to enqueue backfill")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue backfill")
		return
	}
	jobID := job.JobID

	h.log.Info().
		Str("job_id", jobID).
		Str("gcs_uri", req.GCSURI).
		Str("table", req.Table).
		Msg("Backfill enqueued")

	// A worker may already be mutating the published job; respond with the
	// store's copy, never the live pointer.
	saved, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
		return
	}
	middleware.WriteJSON(w, http.StatusAccepted, saved)
}

// ListJobs handles GET /api/jobs.
func (h *BackfillHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := jobs.JobFilter{
		Table:  q.Get("table"),
		Status: jobs.JobStatus(q.Get("status")),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Offset = n
		}
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}

// GetJob handles GET /api/jobs/{jobID}.
func (h *BackfillHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.store.GetJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}
