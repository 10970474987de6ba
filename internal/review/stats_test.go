package review

import (
	"testing"

	"github.com/eastouest/real-estate-alerter/internal/domain"
)

func TestDistrictStats(t *testing.T) {
	set := []domain.Transaction{
		{ID: "1", District: "A", Price: 1000000, PricePerSqm: 50000, Rooms: 2},
		{ID: "2", District: "A", Price: 3000000, PricePerSqm: 70000, Rooms: 4},
		{ID: "3", District: "B", Price: 500000, PricePerSqm: 20000, Rooms: 3},
	}

	stats := DistrictStats(set)
	if len(stats) != 2 {
		t.Fatalf("got %d districts, want 2", len(stats))
	}

	// Sorted by district name.
	a, b := stats[0], stats[1]
	if a.District != "A" || b.District != "B" {
		t.Fatalf("order: %q, %q", a.District, b.District)
	}

	if a.Transactions != 2 {
		t.Errorf("A transactions = %d, want 2", a.Transactions)
	}
	if a.AvgPrice != 2000000 {
		t.Errorf("A avg price = %v", a.AvgPrice)
	}
	if a.AvgPricePerSqm != 60000 {
		t.Errorf("A avg price/sqm = %v", a.AvgPricePerSqm)
	}
	if a.AvgRooms != 3 {
		t.Errorf("A avg rooms = %v", a.AvgRooms)
	}

	if b.Transactions != 1 || b.AvgPrice != 500000 || b.AvgRooms != 3 {
		t.Errorf("B stats = %+v", b)
	}
}

func TestDistrictStatsEmptySet(t *testing.T) {
	if stats := DistrictStats(nil); len(stats) != 0 {
		t.Errorf("got %d districts for empty set", len(stats))
	}
}

func TestSessionStatsIgnoresFilter(t *testing.T) {
	s := newTestSession(t, &recordingWriter{})
	s.SetFilter(FilterState{Districts: []string{"A"}})

	stats := s.Stats()
	districts := make(map[string]bool)
	for _, stat := range stats {
		districts[stat.District] = true
	}
	if !districts["A"] || !districts["B"] {
		t.Errorf("stats cover %v, want both districts regardless of filter", districts)
	}
}
