package consol

import (
	"sort"
	"time"

	"github.com/finboard-hq/finboard/internal/fx"
)

func monthKey(date string) string {
	if len(date) >= 7 {
		return date[:7]
	}
	return date
}

func firstOfMonth(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return monthKey(date) + "-01"
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

// Merge sums the companies' points month by month into one series, sorted by
// date. Companies without data simply contribute nothing.
func Merge(perCompany [][]Point) []Point {
	buckets := make(map[string]Point)
	for _, series := range perCompany {
		for _, p := range series {
			key := monthKey(p.Date)
			b := buckets[key]
			b.Date = firstOfMonth(p.Date)
			b.Revenue += p.Revenue
			b.COGS += p.COGS
			b.Expenses += p.Expenses
			b.Cash += p.Cash
			buckets[key] = b
		}
	}
	merged := make([]Point, 0, len(buckets))
	for _, b := range buckets {
		merged = append(merged, b)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date < merged[j].Date })
	return merged
}

// FilterRange keeps points whose month falls inside [from, to]. Empty bounds
// leave that side open.
func FilterRange(series []Point, from, to string) []Point {
	fromKey, toKey := monthKey(from), monthKey(to)
	filtered := make([]Point, 0, len(series))
	for _, p := range series {
		key := monthKey(p.Date)
		if fromKey != "" && key < fromKey {
			continue
		}
		if toKey != "" && key > toKey {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

// ApplyAdjustments returns a new series with each matching adjustment's delta
// added to its target field. An adjustment applies when its companies
// intersect the selection; a missing month bucket is synthesized zero-valued
// first. The input series is never mutated, so repeated application against
// clones stays idempotent.
func ApplyAdjustments(series []Point, adjustments []Adjustment, selected []string) []Point {
	result := append([]Point(nil), series...)
	selectedSet := make(map[string]bool, len(selected))
	for _, id := range selected {
		selectedSet[id] = true
	}
	for _, adj := range adjustments {
		if !intersects(adj.Companies, selectedSet) {
			continue
		}
		key := monthKey(adj.Date)
		idx := -1
		for i, p := range result {
			if monthKey(p.Date) == key {
				idx = i
				break
			}
		}
		if idx < 0 {
			result = append(result, Point{Date: key + "-01"})
			sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
			for i, p := range result {
				if monthKey(p.Date) == key {
					idx = i
					break
				}
			}
		}
		switch adj.Field {
		case FieldRevenue:
			result[idx].Revenue += adj.Delta
		case FieldCOGS:
			result[idx].COGS += adj.Delta
		case FieldExpenses:
			result[idx].Expenses += adj.Delta
		}
	}
	return result
}

func intersects(companies []string, selected map[string]bool) bool {
	for _, id := range companies {
		if selected[id] {
			return true
		}
	}
	return false
}

// RecomputeCash rebuilds the running cash balance across the series: each
// month's cash is the previous month's cash plus revenue − cogs − expenses.
// Whatever cash values the merge produced are replaced.
func RecomputeCash(series []Point) []Point {
	result := append([]Point(nil), series...)
	var prev float64
	for i := range result {
		result[i].Cash = fx.Round2(prev + result[i].Net())
		prev = result[i].Cash
	}
	return result
}
