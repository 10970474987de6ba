package review

import (
	"sort"

	"github.com/eastouest/real-estate-alerter/internal/domain"
)

// DistrictStat aggregates the market view for one district.
type DistrictStat struct {
	District       string  `json:"district"`
	Transactions   int     `json:"transactions"`
	AvgPricePerSqm float64 `json:"avg_price_per_sqm"`
	AvgPrice       float64 `json:"avg_price"`
	AvgRooms       float64 `json:"avg_rooms"`
}

// DistrictStats computes per-district averages of price per square meter,
// transaction sum and room count over set, sorted by district name.
// Transactions without a district are grouped under the empty name.
func DistrictStats(set []domain.Transaction) []DistrictStat {
	byDistrict := make(map[string]*DistrictStat)
	for _, t := range set {
		stat, ok := byDistrict[t.District]
		if !ok {
			stat = &DistrictStat{District: t.District}
			byDistrict[t.District] = stat
		}
		stat.Transactions++
		stat.AvgPricePerSqm += t.PricePerSqm
		stat.AvgPrice += t.Price
		stat.AvgRooms += float64(t.Rooms)
	}

	out := make([]DistrictStat, 0, len(byDistrict))
	for _, stat := range byDistrict {
		n := float64(stat.Transactions)
		stat.AvgPricePerSqm /= n
		stat.AvgPrice /= n
		stat.AvgRooms /= n
		out = append(out, *stat)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].District < out[j].District })
	return out
}

// Stats computes the market view over the full working set, regardless of the
// active filter.
func (s *Session) Stats() []DistrictStat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DistrictStats(s.workingSet)
}
