package handlers

import (
	"time"

	"github.com/eastouest/real-estate-alerter/internal/domain"
	"github.com/eastouest/real-estate-alerter/internal/review"
)

type transactionView struct {
	ID           string         `json:"transaction_id"`
	Alert        string         `json:"newsworthy_alert"`
	Description  string         `json:"property_description"`
	District     string         `json:"district,omitempty"`
	PropertyType string         `json:"property_type,omitempty"`
	Price        float64        `json:"price"`
	PricePerSqm  float64        `json:"price_per_sqm,omitempty"`
	Area         float64        `json:"area,omitempty"`
	Rooms        int64          `json:"rooms,omitempty"`
	SaleType     string         `json:"sale_type,omitempty"`
	HasCelebrity bool           `json:"has_celebrity"`
	CreatedDate  string         `json:"created_date,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	Label        labelView      `json:"label"`
}

type labelView struct {
	Newsworthy *bool      `json:"newsworthy"`
	Comment    string     `json:"comment,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

func newTransactionView(t domain.Transaction) transactionView {
	v := transactionView{
		ID:           t.ID,
		Alert:        t.Alert,
		Description:  t.Description,
		District:     t.District,
		PropertyType: t.PropertyType,
		Price:        t.Price,
		PricePerSqm:  t.PricePerSqm,
		Area:         t.Area,
		Rooms:        t.Rooms,
		SaleType:     t.SaleType,
		HasCelebrity: t.HasCelebrity,
		Details:      t.Details,
		Label: labelView{
			Newsworthy: t.Label.Newsworthy,
			Comment:    t.Label.Comment,
			ReviewedAt: t.Label.ReviewedAt,
		},
	}
	if t.CreatedDate.IsValid() {
		v.CreatedDate = t.CreatedDate.String()
	}
	return v
}

func sessionView(s *review.Session) map[string]interface{} {
	return map[string]interface{}{
		"session_id": s.ID,
		"source":     s.Source,
		"table":      s.Table,
		"size":       s.Size(),
		"filter":     s.Filter(),
		"created_at": s.CreatedAt,
	}
}
