package bigquery

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/eastouest/real-estate-alerter/internal/domain"
)

func testTransaction(id string, newsworthy *bool) domain.Transaction {
	tx := domain.Transaction{
		ID:      id,
		Details: map[string]any{"built_year": "1931"},
	}
	if newsworthy != nil {
		tx.Label = domain.Label{Newsworthy: newsworthy, Comment: "note"}
		tx.CreatedDate = civil.Date{Year: 2025, Month: 3, Day: 1}
	}
	return tx
}

func TestValidTable(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"newsworthy", true},
		{"non_newsworthy", true},
		{"", false},
		{"users", false},
		{"newsworthy; DROP TABLE users", false},
	}
	for _, tt := range tests {
		if got := ValidTable(tt.name); got != tt.want {
			t.Errorf("ValidTable(%q) = %t, want %t", tt.name, got, tt.want)
		}
	}
}

func TestToDomain(t *testing.T) {
	reviewed := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	row := &AlertRow{
		TransactionID:       "tx-1",
		NewsworthyAlert:     "Record price",
		PropertyDescription: "Penthouse",
		PropertyDetails:     bigquery.NullJSON{JSONVal: `{"built_year": "1931"}`, Valid: true},
		IsNewsworthy:        bigquery.NullBool{Bool: true, Valid: true},
		Feedback:            bigquery.NullString{StringVal: "front page", Valid: true},
		ReviewedTS:          bigquery.NullTimestamp{Timestamp: reviewed, Valid: true},
		CreatedDate:         bigquery.NullDate{Date: civil.Date{Year: 2025, Month: 3, Day: 1}, Valid: true},
		TransactionSum:      bigquery.NullFloat64{Float64: 14100000, Valid: true},
		District:            bigquery.NullString{StringVal: "A", Valid: true},
		BuildingType:        bigquery.NullString{StringVal: "apartment", Valid: true},
		NumberOfRooms:       bigquery.NullInt64{Int64: 4, Valid: true},
		HasCelebrity:        bigquery.NullString{StringVal: "1", Valid: true},
	}

	got, err := row.ToDomain()
	if err != nil {
		t.Fatalf("ToDomain: %v", err)
	}

	if got.ID != "tx-1" || got.Alert != "Record price" || got.Description != "Penthouse" {
		t.Errorf("identity fields: %+v", got)
	}
	if got.Price != 14100000 || got.District != "A" || got.PropertyType != "apartment" || got.Rooms != 4 {
		t.Errorf("extracted fields: %+v", got)
	}
	if !got.HasCelebrity {
		t.Error("has_celebrity=1 must map to true")
	}
	if got.Details["built_year"] != "1931" {
		t.Errorf("Details = %v", got.Details)
	}
	if got.CreatedDate.String() != "2025-03-01" {
		t.Errorf("CreatedDate = %s", got.CreatedDate)
	}
	if got.Label.Newsworthy == nil || !*got.Label.Newsworthy {
		t.Error("label not mapped")
	}
	if got.Label.Comment != "front page" {
		t.Errorf("Comment = %q", got.Label.Comment)
	}
	if got.Label.ReviewedAt == nil || !got.Label.ReviewedAt.Equal(reviewed) {
		t.Errorf("ReviewedAt = %v", got.Label.ReviewedAt)
	}
}

func TestToDomainUnreviewedRow(t *testing.T) {
	row := &AlertRow{TransactionID: "tx-2"}

	got, err := row.ToDomain()
	if err != nil {
		t.Fatalf("ToDomain: %v", err)
	}
	if got.Label.Labeled() {
		t.Error("NULL is_newsworthy must map to an unlabeled transaction")
	}
	if got.HasCelebrity {
		t.Error("NULL has_celebrity must map to false")
	}
}

func TestToDomainCelebrityZeroString(t *testing.T) {
	row := &AlertRow{
		TransactionID: "tx-3",
		HasCelebrity:  bigquery.NullString{StringVal: "0", Valid: true},
	}
	got, err := row.ToDomain()
	if err != nil {
		t.Fatalf("ToDomain: %v", err)
	}
	if got.HasCelebrity {
		t.Error(`has_celebrity="0" must map to false`)
	}
}

func TestInsertRowFromDomain(t *testing.T) {
	yes := true
	tx := testTransaction("tx-6", &yes)

	row, err := InsertRowFromDomain(tx)
	if err != nil {
		t.Fatalf("InsertRowFromDomain: %v", err)
	}
	if row.TransactionID != "tx-6" {
		t.Errorf("TransactionID = %q", row.TransactionID)
	}
	if !row.PropertyDetails.Valid {
		t.Fatal("Details not mapped into property_details")
	}
	if !strings.Contains(row.PropertyDetails.JSONVal, `"built_year":"1931"`) {
		t.Errorf("property_details = %q", row.PropertyDetails.JSONVal)
	}
	if !row.IsNewsworthy.Valid || !row.IsNewsworthy.Bool {
		t.Errorf("IsNewsworthy = %+v", row.IsNewsworthy)
	}
	if !row.Feedback.Valid || row.Feedback.StringVal != "note" {
		t.Errorf("Feedback = %+v", row.Feedback)
	}
	if !row.CreatedDate.Valid {
		t.Error("CreatedDate not mapped")
	}
}

func TestInsertRowFromDomainUnlabeled(t *testing.T) {
	row, err := InsertRowFromDomain(testTransaction("tx-7", nil))
	if err != nil {
		t.Fatalf("InsertRowFromDomain: %v", err)
	}
	if row.IsNewsworthy.Valid {
		t.Error("unlabeled transaction must map to NULL is_newsworthy")
	}
	if row.CreatedDate.Valid {
		t.Error("zero date must map to NULL created_date")
	}
}

func TestInsertRowSchemaMatchesPhysicalColumns(t *testing.T) {
	// The inserter infers its schema from InsertRow; a field without a
	// matching table column makes every backfill insert fail.
	schema, err := bigquery.InferSchema(InsertRow{})
	if err != nil {
		t.Fatalf("InferSchema: %v", err)
	}

	physical := map[string]bool{
		"transaction_id":       true,
		"newsworthy_alert":     true,
		"property_description": true,
		"property_details":     true,
		"is_newsworthy":        true,
		"feedback":             true,
		"reviewed_ts":          true,
		"created_date":         true,
	}
	for _, field := range schema {
		if !physical[field.Name] {
			t.Errorf("inferred field %q has no physical column", field.Name)
		}
		delete(physical, field.Name)
	}
	for name := range physical {
		t.Errorf("physical column %q missing from inferred schema", name)
	}
}

func TestToDomainBadDetailsJSON(t *testing.T) {
	row := &AlertRow{
		TransactionID:   "tx-4",
		PropertyDetails: bigquery.NullJSON{JSONVal: "{broken", Valid: true},
	}
	if _, err := row.ToDomain(); err == nil {
		t.Error("expected error for malformed property_details")
	}
}
