package consol

import "github.com/finboard-hq/finboard/internal/fx"

// Heuristic shares of revenue applied when no direct investing/financing data
// exists.
const (
	ratioInvestingToRevenue = -0.05
	ratioFinancingToRevenue = 0.03
)

// BuildCashFlow derives the cash-flow statement for the last period.
// Operating cash is net income less the working-capital movement between the
// latest and prior trial-balance snapshots (ΔAR + Δinventory − ΔAP); missing
// snapshots contribute zero movement rather than failing.
func BuildCashFlow(netIncome, revenue float64, latest, prior map[string]float64) CashFlow {
	deltaWC := (latest[codeAR] - prior[codeAR]) +
		(latest[codeInventory] - prior[codeInventory]) -
		((-latest[codeAP]) - (-prior[codeAP]))

	cf := CashFlow{
		Operating: fx.Round2(netIncome - deltaWC),
		Investing: fx.Round2(revenue * ratioInvestingToRevenue),
		Financing: fx.Round2(revenue * ratioFinancingToRevenue),
	}
	cf.NetChange = fx.Round2(cf.Operating + cf.Investing + cf.Financing)
	return cf
}
