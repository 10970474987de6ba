package ingest

import (
	"strings"
	"testing"
)

const headeredSample = `Transaction Details (JSON),Property Description,Newsworthy Alert
"{""transaction_id"": ""tx-1"", ""transaction_sum"": 14100000, ""property_district"": ""A"", ""property_building_type_category"": ""apartment"", ""property_number_of_rooms"": 4, ""is_famous"": ""1"", ""transaction_date"": ""2025-03-01""}",Penthouse on the waterfront,Record price for the district
"{""transaction_id"": ""tx-2"", ""transaction_sum"": 42500, ""property_district"": ""B"", ""property_building_type_category"": ""house"", ""is_famous"": ""0""}",Small suburban house,Unusually low price
"{""transaction_id"": ""tx-3"", ""transaction_sum"": 980000, ""property_district"": ""A"", ""property_building_type_category"": ""house""}",Family home,Routine sale
`

func TestParseHeaderedExport(t *testing.T) {
	set, err := Parse(strings.NewReader(headeredSample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(set) != 3 {
		t.Fatalf("got %d rows, want 3", len(set))
	}

	seen := make(map[string]bool)
	for _, tx := range set {
		if seen[tx.ID] {
			t.Errorf("duplicate ID %q", tx.ID)
		}
		seen[tx.ID] = true
	}

	first := set[0]
	if first.ID != "tx-1" {
		t.Errorf("ID = %q, want tx-1", first.ID)
	}
	if first.Price != 14100000 {
		t.Errorf("Price = %v", first.Price)
	}
	if first.District != "A" || first.PropertyType != "apartment" {
		t.Errorf("district/type = %q/%q", first.District, first.PropertyType)
	}
	if first.Rooms != 4 {
		t.Errorf("Rooms = %d", first.Rooms)
	}
	if !first.HasCelebrity {
		t.Error("is_famous=1 must set HasCelebrity")
	}
	if first.Description != "Penthouse on the waterfront" {
		t.Errorf("Description = %q", first.Description)
	}
	if first.Alert != "Record price for the district" {
		t.Errorf("Alert = %q", first.Alert)
	}
	if got := first.CreatedDate.String(); got != "2025-03-01" {
		t.Errorf("CreatedDate = %q", got)
	}

	if set[1].HasCelebrity {
		t.Error("is_famous=0 must not set HasCelebrity")
	}
	if set[2].HasCelebrity {
		t.Error("absent is_famous must not set HasCelebrity")
	}
}

func TestParsePositionalLayout(t *testing.T) {
	raw := `"{""transaction_id"": ""p-1"", ""transaction_sum"": 100}",desc one,alert one
"{""transaction_id"": ""p-2""}",desc two,alert two
`
	set, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("got %d rows, want 2", len(set))
	}
	if set[0].ID != "p-1" || set[1].ID != "p-2" {
		t.Errorf("IDs = %q, %q", set[0].ID, set[1].ID)
	}
	if set[0].Description != "desc one" || set[0].Alert != "alert one" {
		t.Errorf("columns mapped wrong: %q / %q", set[0].Description, set[0].Alert)
	}
}

func TestParseDerivesRowIDs(t *testing.T) {
	raw := `"{""transaction_sum"": 100}",a,b
"{""transaction_sum"": 200}",c,d
`
	set, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if set[0].ID != "row-1" || set[1].ID != "row-2" {
		t.Errorf("derived IDs = %q, %q", set[0].ID, set[1].ID)
	}
}

func TestParseNumericTransactionID(t *testing.T) {
	raw := `"{""transaction_id"": 12345}",a,b
`
	set, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if set[0].ID != "12345" {
		t.Errorf("ID = %q, want 12345", set[0].ID)
	}
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty input", ""},
		{"header without rows", "Transaction Details (JSON),Property Description,Newsworthy Alert\n"},
		{"malformed JSON fails whole load", headeredSample + `"{not json}",x,y` + "\n"},
		{"non numeric price", `"{""transaction_id"": ""x"", ""transaction_sum"": ""abc def""}",a,b` + "\n"},
		{"bad transaction date", `"{""transaction_id"": ""x"", ""transaction_date"": ""01.03.2025""}",a,b` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.raw)); err == nil {
				t.Error("expected error, got none")
			}
		})
	}
}
