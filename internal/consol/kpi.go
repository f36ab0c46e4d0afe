package consol

import "math"

// ComputeKPIs derives headline figures from the last two periods of the
// filtered series. With fewer than two periods the prior side is zero-valued,
// which pins every percent delta at zero by the pct convention.
func ComputeKPIs(series []Point) KPIs {
	var latest, prior Point
	if n := len(series); n > 0 {
		latest = series[n-1]
		if n > 1 {
			prior = series[n-2]
		}
	}

	latestGP := latest.Revenue - latest.COGS
	priorGP := prior.Revenue - prior.COGS
	latestNI := latestGP - latest.Expenses
	priorNI := priorGP - prior.Expenses

	return KPIs{
		Revenue:        latest.Revenue,
		RevenuePct:     pct(latest.Revenue, prior.Revenue),
		GrossProfit:    latestGP,
		GrossProfitPct: pct(latestGP, priorGP),
		NetIncome:      latestNI,
		NetIncomePct:   pct(latestNI, priorNI),
		CashBalance:    latest.Cash,
		CashBalancePct: pct(latest.Cash, prior.Cash),
		BurnRate:       -math.Max(0, latest.Expenses-latestGP),
	}
}

// pct is the percent delta of a against baseline b, rounded to 1 decimal.
// A zero baseline yields zero rather than a division error.
func pct(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return math.Round((a-b)/math.Abs(b)*1000) / 10
}
