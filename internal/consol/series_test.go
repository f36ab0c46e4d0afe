package consol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func baseSeries() []Point {
	return []Point{
		{Date: "2024-01-01", Revenue: 100000, COGS: 40000, Expenses: 30000},
		{Date: "2024-02-01", Revenue: 120000, COGS: 45000, Expenses: 32000},
		{Date: "2024-03-01", Revenue: 110000, COGS: 42000, Expenses: 35000},
	}
}

func TestMergeSumsByMonth(t *testing.T) {
	a := []Point{
		{Date: "2024-01-01", Revenue: 100, COGS: 40, Expenses: 30, Cash: 30},
		{Date: "2024-02-01", Revenue: 200, COGS: 80, Expenses: 60, Cash: 90},
	}
	b := []Point{
		{Date: "2024-02-01", Revenue: 50, COGS: 20, Expenses: 10, Cash: 20},
		{Date: "2024-03-01", Revenue: 70, COGS: 30, Expenses: 20, Cash: 40},
	}
	merged := Merge([][]Point{a, b})
	require.Len(t, merged, 3)
	require.Equal(t, "2024-01-01", merged[0].Date)
	require.Equal(t, 250.0, merged[1].Revenue)
	require.Equal(t, 100.0, merged[1].COGS)
	require.Equal(t, 70.0, merged[1].Expenses)
	require.Equal(t, "2024-03-01", merged[2].Date)
}

func TestFilterRange(t *testing.T) {
	filtered := FilterRange(baseSeries(), "2024-02-01", "2024-02-28")
	require.Len(t, filtered, 1)
	require.Equal(t, "2024-02-01", filtered[0].Date)

	require.Len(t, FilterRange(baseSeries(), "", ""), 3)
	require.Len(t, FilterRange(baseSeries(), "2024-02-01", ""), 2)
}

func TestApplyAdjustmentsMatchesByMonth(t *testing.T) {
	adjustments := []Adjustment{
		// Mid-month date still lands in the February bucket.
		{Companies: []string{"co-1"}, Date: "2024-02-14", Field: FieldRevenue, Delta: 5000},
		{Companies: []string{"co-9"}, Date: "2024-02-14", Field: FieldRevenue, Delta: 99999},
	}
	result := ApplyAdjustments(baseSeries(), adjustments, []string{"co-1", "co-2"})
	require.Equal(t, 125000.0, result[1].Revenue)
	// Non-intersecting adjustment ignored.
	require.Equal(t, 100000.0, result[0].Revenue)
}

func TestApplyAdjustmentsSynthesizesBucket(t *testing.T) {
	adjustments := []Adjustment{
		{Companies: []string{"co-1"}, Date: "2023-12-25", Field: FieldExpenses, Delta: 700},
	}
	result := ApplyAdjustments(baseSeries(), adjustments, []string{"co-1"})
	require.Len(t, result, 4)
	require.Equal(t, "2023-12-01", result[0].Date)
	require.Equal(t, 700.0, result[0].Expenses)
	require.Equal(t, 0.0, result[0].Revenue)
}

func TestApplyAdjustmentsIdempotentAcrossClones(t *testing.T) {
	adjustments := []Adjustment{
		{Companies: []string{"co-1"}, Date: "2024-01-05", Field: FieldCOGS, Delta: 1234},
	}
	first := ApplyAdjustments(baseSeries(), adjustments, []string{"co-1"})
	second := ApplyAdjustments(baseSeries(), adjustments, []string{"co-1"})
	require.Equal(t, first, second)
	// The shared base series is untouched.
	require.Equal(t, 40000.0, baseSeries()[0].COGS)
}

func TestRecomputeCashRunningBalance(t *testing.T) {
	result := RecomputeCash(baseSeries())
	require.Equal(t, 30000.0, result[0].Cash)
	require.Equal(t, 73000.0, result[1].Cash)
	require.Equal(t, 106000.0, result[2].Cash)
}

func TestCashRecomputePropagatesAdjustment(t *testing.T) {
	base := RecomputeCash(baseSeries())

	adjusted := ApplyAdjustments(baseSeries(), []Adjustment{
		{Companies: []string{"co-1"}, Date: "2024-02-01", Field: FieldRevenue, Delta: 200000},
	}, []string{"co-1"})
	adjusted = RecomputeCash(adjusted)

	// Periods before the adjusted month are unchanged; every later period's
	// cash rises by exactly the delta.
	require.Equal(t, base[0].Cash, adjusted[0].Cash)
	require.Equal(t, base[1].Cash+200000, adjusted[1].Cash)
	require.Equal(t, base[2].Cash+200000, adjusted[2].Cash)
}
