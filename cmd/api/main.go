package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/eastouest/real-estate-alerter/internal/api/handlers"
	"github.com/eastouest/real-estate-alerter/internal/api/middleware"
	"github.com/eastouest/real-estate-alerter/internal/config"
	"github.com/eastouest/real-estate-alerter/internal/gcs"
	infraBQ "github.com/eastouest/real-estate-alerter/internal/infra/bigquery"
	"github.com/eastouest/real-estate-alerter/internal/ingest"
	"github.com/eastouest/real-estate-alerter/internal/jobs"
	"github.com/eastouest/real-estate-alerter/internal/jobs/inmemory"
	"github.com/eastouest/real-estate-alerter/internal/logger"
	"github.com/eastouest/real-estate-alerter/internal/observability"
	"github.com/eastouest/real-estate-alerter/internal/review"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Bucket == "" {
		log.Warn().Msg("No GCS bucket configured - CSV archival and backfills will be disabled")
	}

	ctx := context.Background()

	repo, err := infraBQ.NewAlertRepository(ctx, cfg.ProjectID, cfg.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create alert repository")
	}
	defer repo.Close()

	sessions := review.NewStore()

	// Job infrastructure for CSV backfills.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.QueueSize, cfg.Workers, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		backfill, ok := job.(*jobs.BackfillCSVJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", backfill.JobID).
			Str("gcs_uri", backfill.GCSURI).
			Str("table", backfill.Table).
			Msg("Processing backfill job")

		data, err := gcs.Fetch(ctx, backfill.GCSURI)
		if err != nil {
			return err
		}

		set, err := ingest.Parse(bytes.NewReader(data))
		if err != nil {
			return err
		}

		rows := make([]*infraBQ.InsertRow, 0, len(set))
		for i := range set {
			row, err := infraBQ.InsertRowFromDomain(set[i])
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		if err := repo.InsertAlertRows(ctx, backfill.Table, rows); err != nil {
			return err
		}

		backfill.RowCount = len(rows)
		log.Info().
			Str("job_id", backfill.JobID).
			Int("rows", len(rows)).
			Msg("Backfill completed")
		return nil
	}

	go func() {
		log.Info().Int("workers", cfg.Workers).Msg("Starting backfill workers")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Backfill workers stopped with error")
		}
	}()

	registry := observability.InitRegistry()

	sessionsHandler := handlers.NewSessionsHandler(repo, infraBQ.ValidTable, sessions, cfg.DefaultTable, log)
	backfillHandler := handlers.NewBackfillHandler(cfg.Bucket, gcs.Upload, jobQueue, jobStore, infraBQ.ValidTable, log)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS)
	r.Use(middleware.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", sessionsHandler.CreateSession)
		r.Post("/sessions/csv", sessionsHandler.CreateCSVSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", sessionsHandler.GetSession)
			r.Delete("/", sessionsHandler.DeleteSession)
			r.Get("/transactions", sessionsHandler.ListTransactions)
			r.Get("/transactions/{transactionID}", sessionsHandler.GetTransaction)
			r.Get("/stats", sessionsHandler.GetStats)
			r.Post("/labels", sessionsHandler.SubmitLabel)
		})

		r.Post("/uploads", backfillHandler.UploadCSV)
		r.Post("/backfill", backfillHandler.EnqueueBackfill)
		r.Get("/jobs", backfillHandler.ListJobs)
		r.Get("/jobs/{jobID}", backfillHandler.GetJob)
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	r.Method(http.MethodGet, "/metrics", observability.MetricsHandler(registry))

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
