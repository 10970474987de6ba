package bigquery

import (
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"

	"github.com/eastouest/real-estate-alerter/internal/domain"
)

// Reviewed output tables. Table names are interpolated into SQL, so only the
// two known tables are ever accepted.
const (
	TableNewsworthy    = "newsworthy"
	TableNonNewsworthy = "non_newsworthy"
)

// ValidTable reports whether name is one of the alerter output tables.
func ValidTable(name string) bool {
	return name == TableNewsworthy || name == TableNonNewsworthy
}

// AlertRow represents one model-scored transaction in the
// real_estate_alerter_output dataset. The scalar detail columns are extracted
// from the property_details JSON at query time with JSON_EXTRACT_SCALAR.
type AlertRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	NewsworthyAlert     string            `bigquery:"newsworthy_alert"`
	PropertyDescription string            `bigquery:"property_description"`
	PropertyDetails     bigquery.NullJSON `bigquery:"property_details"`

	IsNewsworthy bigquery.NullBool      `bigquery:"is_newsworthy"` // NULL until reviewed
	Feedback     bigquery.NullString    `bigquery:"feedback"`
	ReviewedTS   bigquery.NullTimestamp `bigquery:"reviewed_ts"`

	CreatedDate bigquery.NullDate `bigquery:"created_date"`

	// Extracted from property_details.
	DocumentNumber bigquery.NullString  `bigquery:"document_number"`
	TransactionSum bigquery.NullFloat64 `bigquery:"transaction_sum"`
	District       bigquery.NullString  `bigquery:"property_district"`
	BuildingType   bigquery.NullString  `bigquery:"property_building_type_category"`
	PricePerSqm    bigquery.NullFloat64 `bigquery:"price_per_sqm"`
	PropertyArea   bigquery.NullFloat64 `bigquery:"property_area"`
	SaleType       bigquery.NullString  `bigquery:"transaction_type"`
	NumberOfRooms  bigquery.NullInt64   `bigquery:"property_number_of_rooms"`
	Footprint      bigquery.NullFloat64 `bigquery:"building_footprint"`
	BuiltYear      bigquery.NullString  `bigquery:"built_year"`
	HasCelebrity   bigquery.NullString  `bigquery:"has_celebrity"`
}

// ToDomain maps a warehouse row into the normalized Transaction shape the
// reconciler works with, regardless of data origin.
func (r *AlertRow) ToDomain() (domain.Transaction, error) {
	t := domain.Transaction{
		ID:          r.TransactionID,
		Alert:       r.NewsworthyAlert,
		Description: r.PropertyDescription,
	}
	if r.CreatedDate.Valid {
		t.CreatedDate = r.CreatedDate.Date
	}

	if r.PropertyDetails.Valid && strings.TrimSpace(r.PropertyDetails.JSONVal) != "" {
		details := make(map[string]any)
		if err := json.Unmarshal([]byte(r.PropertyDetails.JSONVal), &details); err != nil {
			return domain.Transaction{}, fmt.Errorf("row %s: decoding property_details: %w", r.TransactionID, err)
		}
		t.Details = details
	}

	if r.District.Valid {
		t.District = r.District.StringVal
	}
	if r.BuildingType.Valid {
		t.PropertyType = r.BuildingType.StringVal
	}
	if r.TransactionSum.Valid {
		t.Price = r.TransactionSum.Float64
	}
	if r.PricePerSqm.Valid {
		t.PricePerSqm = r.PricePerSqm.Float64
	}
	if r.PropertyArea.Valid {
		t.Area = r.PropertyArea.Float64
	}
	if r.NumberOfRooms.Valid {
		t.Rooms = r.NumberOfRooms.Int64
	}
	if r.SaleType.Valid {
		t.SaleType = r.SaleType.StringVal
	}
	// The source stores celebrity involvement as "0"/"1" strings.
	if r.HasCelebrity.Valid {
		t.HasCelebrity = r.HasCelebrity.StringVal != "" && r.HasCelebrity.StringVal != "0"
	}

	if r.IsNewsworthy.Valid {
		v := r.IsNewsworthy.Bool
		t.Label.Newsworthy = &v
	}
	if r.Feedback.Valid {
		t.Label.Comment = r.Feedback.StringVal
	}
	if r.ReviewedTS.Valid {
		ts := r.ReviewedTS.Timestamp
		t.Label.ReviewedAt = &ts
	}

	return t, nil
}

// InsertRow carries only the physical columns of the alerter output tables.
// AlertRow's extracted detail fields exist only in the working-set SELECT; the
// inserter infers its schema from this struct, so virtual columns must not
// appear here. The detail values travel inside property_details.
type InsertRow struct {
	TransactionID       string                 `bigquery:"transaction_id"`
	NewsworthyAlert     string                 `bigquery:"newsworthy_alert"`
	PropertyDescription string                 `bigquery:"property_description"`
	PropertyDetails     bigquery.NullJSON      `bigquery:"property_details"`
	IsNewsworthy        bigquery.NullBool      `bigquery:"is_newsworthy"`
	Feedback            bigquery.NullString    `bigquery:"feedback"`
	ReviewedTS          bigquery.NullTimestamp `bigquery:"reviewed_ts"`
	CreatedDate         bigquery.NullDate      `bigquery:"created_date"`
}

// InsertRowFromDomain maps a normalized transaction back into a physical
// warehouse row, used when backfilling CSV uploads into a table.
func InsertRowFromDomain(t domain.Transaction) (*InsertRow, error) {
	row := &InsertRow{
		TransactionID:       t.ID,
		NewsworthyAlert:     t.Alert,
		PropertyDescription: t.Description,
	}
	if t.CreatedDate.IsValid() {
		row.CreatedDate = bigquery.NullDate{Date: t.CreatedDate, Valid: true}
	}

	if len(t.Details) > 0 {
		raw, err := json.Marshal(t.Details)
		if err != nil {
			return nil, fmt.Errorf("row %s: encoding property_details: %w", t.ID, err)
		}
		row.PropertyDetails = bigquery.NullJSON{JSONVal: string(raw), Valid: true}
	}

	if t.Label.Newsworthy != nil {
		row.IsNewsworthy = bigquery.NullBool{Bool: *t.Label.Newsworthy, Valid: true}
	}
	if t.Label.Comment != "" {
		row.Feedback = bigquery.NullString{StringVal: t.Label.Comment, Valid: true}
	}
	if t.Label.ReviewedAt != nil {
		row.ReviewedTS = bigquery.NullTimestamp{Timestamp: *t.Label.ReviewedAt, Valid: true}
	}

	return row, nil
}
