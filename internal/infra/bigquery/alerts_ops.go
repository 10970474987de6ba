package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// QueryWorkingSetWithClient loads every row of the given alerter output table,
// extracting the scalar detail fields from the property_details JSON column.
func QueryWorkingSetWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID, table string) ([]*AlertRow, error) {
	if !ValidTable(table) {
		return nil, fmt.Errorf("QueryWorkingSet: unknown table %q", table)
	}

	q := client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			newsworthy_alert,
			property_description,
			property_details,
			is_newsworthy,
			feedback,
			reviewed_ts,
			created_date,
			JSON_EXTRACT_SCALAR(property_details, "$.document_number") AS document_number,
			CAST(JSON_EXTRACT_SCALAR(property_details, "$.transaction_sum") AS FLOAT64) AS transaction_sum,
			JSON_EXTRACT_SCALAR(property_details, "$.property_district") AS property_district,
			JSON_EXTRACT_SCALAR(property_details, "$.property_building_type_category") AS property_building_type_category,
			CAST(JSON_EXTRACT_SCALAR(property_details, "$.price_per_sqm") AS FLOAT64) AS price_per_sqm,
			CAST(JSON_EXTRACT_SCALAR(property_details, "$.property_area") AS FLOAT64) AS property_area,
			JSON_EXTRACT_SCALAR(property_details, "$.transaction_type") AS transaction_type,
			CAST(JSON_EXTRACT_SCALAR(property_details, "$.property_number_of_rooms") AS INT64) AS property_number_of_rooms,
			CAST(JSON_EXTRACT_SCALAR(property_details, "$.building_footprint") AS FLOAT64) AS building_footprint,
			JSON_EXTRACT_SCALAR(property_details, "$.built_year") AS built_year,
			JSON_EXTRACT_SCALAR(property_details, "$.is_famous") AS has_celebrity
		FROM `+"`%s.%s.%s`"+`
		ORDER BY created_date DESC, transaction_id
	`, projectID, datasetID, table))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryWorkingSet: query read: %w", err)
	}

	var rows []*AlertRow
	for {
		var r AlertRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryWorkingSet: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// UpdateLabelWithClient overwrites the label of exactly one row, scoped by
// transaction_id equality only. Positional or predicate-scoped updates are
// never issued: row positions shift whenever a filter changes.
func UpdateLabelWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID, table, transactionID string, newsworthy bool, comment string, reviewedAt time.Time) error {
	if !ValidTable(table) {
		return fmt.Errorf("UpdateLabel: unknown table %q", table)
	}

	q := client.Query(fmt.Sprintf(`
		UPDATE `+"`%s.%s.%s`"+`
		SET is_newsworthy = @is_newsworthy,
		    feedback = @feedback,
		    reviewed_ts = @reviewed_ts
		WHERE transaction_id = @transaction_id
	`, projectID, datasetID, table))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "is_newsworthy", Value: newsworthy},
		{Name: "feedback", Value: comment},
		{Name: "reviewed_ts", Value: reviewedAt},
		{Name: "transaction_id", Value: transactionID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("UpdateLabel: running update query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("UpdateLabel: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("UpdateLabel: job error: %w", err)
	}

	return nil
}

// InsertAlertRowsWithClient streams a batch of physical rows into the given
// table. Used by the CSV backfill worker.
func InsertAlertRowsWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID, table string, rows []*InsertRow) error {
	if !ValidTable(table) {
		return fmt.Errorf("InsertAlertRows: unknown table %q", table)
	}
	if len(rows) == 0 {
		return nil
	}

	inserter := client.DatasetInProject(projectID, datasetID).Table(table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertAlertRows: inserting rows: %w", err)
	}

	return nil
}
