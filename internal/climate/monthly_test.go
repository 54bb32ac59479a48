package climate

import (
	"testing"
	"time"
)

func TestMonthlyAggregates(t *testing.T) {
	daily := []DailyRecord{
		{Date: time.Date(2022, 1, 30, 0, 0, 0, 0, time.UTC), Values: map[string]*float64{"tmean_celsius": fv(20.0)}},
		{Date: time.Date(2022, 1, 31, 0, 0, 0, 0, time.UTC), Values: map[string]*float64{"tmean_celsius": fv(22.0)}},
		{Date: time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC), Values: map[string]*float64{"tmean_celsius": fv(25.125)}},
	}

	monthly := monthlyAggregates([]string{"tmean_celsius"}, daily)
	if len(monthly) != 2 {
		t.Fatalf("expected 2 months, got %d", len(monthly))
	}

	jan := monthly[0]
	if jan.Month.Format("2006-01") != "2022-01" {
		t.Fatalf("expected 2022-01 first, got %v", jan.Month)
	}
	stat := jan.Columns["tmean_celsius"]
	if stat.Count != 2 {
		t.Fatalf("jan count: expected 2, got %d", stat.Count)
	}
	if stat.Mean != 21.0 || stat.Min != 20.0 || stat.Max != 22.0 {
		t.Fatalf("jan stats: got %+v", stat)
	}
	// Sample standard deviation of {20, 22} is sqrt(2), rounded to 1.41.
	if stat.Std != 1.41 {
		t.Fatalf("jan std: expected 1.41, got %v", stat.Std)
	}

	feb := monthly[1].Columns["tmean_celsius"]
	if feb.Count != 1 {
		t.Fatalf("feb count: expected 1, got %d", feb.Count)
	}
	if feb.Std != 0 {
		t.Fatalf("feb std: single sample should be 0, got %v", feb.Std)
	}
	// Values round to two decimals.
	if feb.Mean != 25.13 {
		t.Fatalf("feb mean: expected 25.13, got %v", feb.Mean)
	}
}

// TestMonthlyAggregatesSkipsAbsentColumns verifies that columns with no values
// in a month are omitted from that month's record.
func TestMonthlyAggregatesSkipsAbsentColumns(t *testing.T) {
	daily := []DailyRecord{
		{Date: day(1), Values: map[string]*float64{"tmean_celsius": fv(20.0), "precipitation_mm": nil}},
	}

	monthly := monthlyAggregates([]string{"tmean_celsius", "precipitation_mm"}, daily)
	if len(monthly) != 1 {
		t.Fatalf("expected 1 month, got %d", len(monthly))
	}
	if _, ok := monthly[0].Columns["precipitation_mm"]; ok {
		t.Fatal("expected precipitation_mm to be absent")
	}
	if _, ok := monthly[0].Columns["tmean_celsius"]; !ok {
		t.Fatal("expected tmean_celsius to be present")
	}
}
