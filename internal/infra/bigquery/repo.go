package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/eastouest/real-estate-alerter/internal/domain"
	"github.com/eastouest/real-estate-alerter/internal/review"
)

// AlertRepository is the concrete warehouse accessor. It holds a shared
// BigQuery client to avoid creating a new connection per operation.
type AlertRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewAlertRepository creates a repository with a shared BigQuery client.
// Application Default Credentials are assumed.
func NewAlertRepository(ctx context.Context, projectID, datasetID string) (*AlertRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewAlertRepository: creating client: %w", err)
	}
	return &AlertRepository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close releases the underlying client connection.
func (r *AlertRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// WorkingSet loads the full contents of table as normalized transactions.
func (r *AlertRepository) WorkingSet(ctx context.Context, table string) ([]domain.Transaction, error) {
	rows, err := QueryWorkingSetWithClient(ctx, r.client, r.projectID, r.datasetID, table)
	if err != nil {
		return nil, err
	}

	set := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.ToDomain()
		if err != nil {
			return nil, err
		}
		set = append(set, t)
	}
	return set, nil
}

// InsertAlertRows streams rows into table using the shared client.
func (r *AlertRepository) InsertAlertRows(ctx context.Context, table string, rows []*InsertRow) error {
	return InsertAlertRowsWithClient(ctx, r.client, r.projectID, r.datasetID, table, rows)
}

// LabelWriter returns a writer bound to one table, satisfying the
// reconciler's downstream port.
func (r *AlertRepository) LabelWriter(table string) review.LabelWriter {
	return &tableLabelWriter{repo: r, table: table}
}

type tableLabelWriter struct {
	repo  *AlertRepository
	table string
}

func (w *tableLabelWriter) UpdateLabel(ctx context.Context, transactionID string, newsworthy bool, comment string, reviewedAt time.Time) error {
	return UpdateLabelWithClient(ctx, w.repo.client, w.repo.projectID, w.repo.datasetID, w.table, transactionID, newsworthy, comment, reviewedAt)
}
