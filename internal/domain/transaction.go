package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// Transaction is one real-estate transaction in the reviewer's working set.
// This is a domain struct, not a warehouse row; the infra layer maps it from
// the real_estate_alerter_output table schema or from an uploaded CSV.
type Transaction struct {
	ID string // unique across the working set

	Alert       string // model-generated newsworthy alert text
	Description string // free-text property description

	// Details holds the full semantic mapping extracted from the
	// property_details JSON blob (document_number, built_year, etc.),
	// including fields that are not first-class on this struct.
	Details map[string]any

	// Filterable attributes, promoted from Details.
	District     string
	PropertyType string
	Price        float64 // transaction_sum
	PricePerSqm  float64
	Area         float64
	Rooms        int64
	SaleType     string
	HasCelebrity bool

	CreatedDate civil.Date

	Label Label
}

// Label is the reviewer's judgment attached 1:1 to a transaction.
// Newsworthy is nil until a reviewer acts; re-labeling overwrites.
type Label struct {
	Newsworthy *bool
	Comment    string
	ReviewedAt *time.Time
}

// Labeled reports whether a reviewer has judged this transaction.
func (l Label) Labeled() bool { return l.Newsworthy != nil }
