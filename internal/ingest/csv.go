// Package ingest loads reviewer working sets from uploaded CSV files.
//
// The expected layout mirrors the alerter's export: one column holding the
// transaction details as a JSON object, one holding the property description
// and one holding the model's newsworthy alert. Both headered exports and the
// raw three-column layout are accepted.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/eastouest/real-estate-alerter/internal/domain"
)

// Parse reads a CSV export into a normalized working set. Any malformed row
// fails the whole load: partial working sets are never returned.
func Parse(r io.Reader) ([]domain.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ingest: reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("ingest: empty CSV")
	}

	detailsIdx, descIdx, alertIdx, hasHeader := resolveColumns(records[0])
	data := records
	if hasHeader {
		data = records[1:]
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("ingest: CSV has a header but no rows")
	}

	set := make([]domain.Transaction, 0, len(data))
	for i, record := range data {
		t, err := parseRow(record, i, detailsIdx, descIdx, alertIdx)
		if err != nil {
			return nil, err
		}
		set = append(set, t)
	}

	return set, nil
}

// resolveColumns maps the details/description/alert columns from a header row,
// falling back to the raw positional layout when the first row is data.
func resolveColumns(first []string) (detailsIdx, descIdx, alertIdx int, hasHeader bool) {
	detailsIdx, descIdx, alertIdx = 0, 1, 2

	for i, name := range first {
		switch normalizeHeader(name) {
		case "transaction details (json)", "property_details", "transaction_details":
			detailsIdx, hasHeader = i, true
		case "property description", "property_description", "description":
			descIdx, hasHeader = i, true
		case "newsworthy alert", "newsworthy_alert", "alert":
			alertIdx, hasHeader = i, true
		}
	}
	return detailsIdx, descIdx, alertIdx, hasHeader
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func parseRow(record []string, i, detailsIdx, descIdx, alertIdx int) (domain.Transaction, error) {
	if detailsIdx >= len(record) {
		return domain.Transaction{}, fmt.Errorf("ingest: row %d has no details column", i+1)
	}

	details := make(map[string]any)
	raw := strings.TrimSpace(record[detailsIdx])
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &details); err != nil {
			return domain.Transaction{}, fmt.Errorf("ingest: row %d: invalid transaction details JSON: %w", i+1, err)
		}
	}

	id, err := getStringField(details, "transaction_id", false)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("ingest: row %d: %w", i+1, err)
	}
	if id == "" {
		// No explicit identifier in the details blob: derive a stable one
		// from row order.
		id = fmt.Sprintf("row-%d", i+1)
	}

	t := domain.Transaction{
		ID:      id,
		Details: details,
	}
	if descIdx < len(record) {
		t.Description = strings.TrimSpace(record[descIdx])
	}
	if alertIdx < len(record) {
		t.Alert = strings.TrimSpace(record[alertIdx])
	}

	if t.District, err = getStringField(details, "property_district", false); err != nil {
		return domain.Transaction{}, fmt.Errorf("ingest: row %d: %w", i+1, err)
	}
	if t.PropertyType, err = getStringField(details, "property_building_type_category", false); err != nil {
		return domain.Transaction{}, fmt.Errorf("ingest: row %d: %w", i+1, err)
	}
	if t.SaleType, err = getStringField(details, "transaction_type", false); err != nil {
		return domain.Transaction{}, fmt.Errorf("ingest: row %d: %w", i+1, err)
	}
	if t.Price, err = getFloat64Field(details, "transaction_sum"); err != nil {
		return domain.Transaction{}, fmt.Errorf("ingest: row %d: %w", i+1, err)
	}
	if t.PricePerSqm, err = getFloat64Field(details, "price_per_sqm"); err != nil {
		return domain.Transaction{}, fmt.Errorf("ingest: row %d: %w", i+1, err)
	}
	if t.Area, err = getFloat64Field(details, "property_area"); err != nil {
		return domain.Transaction{}, fmt.Errorf("ingest: row %d: %w", i+1, err)
	}
	rooms, err := getFloat64Field(details, "property_number_of_rooms")
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("ingest: row %d: %w", i+1, err)
	}
	t.Rooms = int64(rooms)

	famous, err := getStringField(details, "is_famous", false)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("ingest: row %d: %w", i+1, err)
	}
	t.HasCelebrity = famous != "" && famous != "0"

	dateStr, err := getStringField(details, "transaction_date", false)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("ingest: row %d: %w", i+1, err)
	}
	if dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("ingest: row %d: invalid transaction_date %q: %w", i+1, dateStr, err)
		}
		t.CreatedDate = civil.DateOf(parsed)
	}

	return t, nil
}

func getStringField(m map[string]any, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if required && s == "" {
			return "", fmt.Errorf("required field %q is empty", key)
		}
		return s, nil
	case float64:
		// Numeric identifiers and flags show up as numbers in some exports.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val)), nil
		}
		return fmt.Sprintf("%g", val), nil
	default:
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
}

func getFloat64Field(m map[string]any, key string) (float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, nil
		}
		var f float64
		if _, err := fmt.Sscanf(s, "%g", &f); err != nil {
			return 0, fmt.Errorf("field %q has non-numeric value %q", key, val)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("field %q has type %T, want number", key, v)
	}
}
