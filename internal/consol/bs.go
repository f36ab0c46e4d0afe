package consol

import "github.com/finboard-hq/finboard/internal/fx"

// Account codes recognised by the direct balance-sheet tier.
const (
	codeCash       = "1000"
	codeAR         = "1100"
	codeInventory  = "1200"
	codeAP         = "2000"
	codeDebtShort  = "2100"
	codeDebtLong   = "2500"
	codeEquity     = "3000"
	codeEquityRetd = "3100"
)

// Heuristic ratios for the fallback tier, applied when no trial-balance
// derived balances exist for the selection.
const (
	ratioARToRevenue    = 0.30
	ratioInvToCOGS      = 0.20
	ratioAPToCOGS       = 0.10
	ratioAccrualsToOpex = 0.10
	ratioDebtToAssets   = 0.15
)

// BuildBalanceSheet derives the consolidated position as of the last period.
// balances maps account code to net (debit − credit) summed over the latest
// trial balances of the selected companies; when empty, the ratio tier kicks
// in and the result is marked Estimated.
func BuildBalanceSheet(balances map[string]float64, last Point) BalanceSheet {
	if len(balances) > 0 {
		bs := BalanceSheet{
			Cash:               fx.Round2(balances[codeCash]),
			AccountsReceivable: fx.Round2(balances[codeAR]),
			Inventory:          fx.Round2(balances[codeInventory]),
			AccountsPayable:    fx.Round2(-balances[codeAP]),
			Debt:               fx.Round2(-(balances[codeDebtShort] + balances[codeDebtLong])),
			Equity:             fx.Round2(-(balances[codeEquity] + balances[codeEquityRetd])),
		}
		bs.TotalAssets = fx.Round2(bs.Cash + bs.AccountsReceivable + bs.Inventory)
		bs.TotalLiabilities = fx.Round2(bs.AccountsPayable + bs.Accruals + bs.Debt)
		return bs
	}

	bs := BalanceSheet{
		Cash:               fx.Round2(last.Cash),
		AccountsReceivable: fx.Round2(last.Revenue * ratioARToRevenue),
		Inventory:          fx.Round2(last.COGS * ratioInvToCOGS),
		AccountsPayable:    fx.Round2(last.COGS * ratioAPToCOGS),
		Accruals:           fx.Round2(last.Expenses * ratioAccrualsToOpex),
		Estimated:          true,
	}
	bs.TotalAssets = fx.Round2(bs.Cash + bs.AccountsReceivable + bs.Inventory)
	bs.Debt = fx.Round2(bs.TotalAssets * ratioDebtToAssets)
	bs.TotalLiabilities = fx.Round2(bs.AccountsPayable + bs.Accruals + bs.Debt)
	bs.Equity = fx.Round2(bs.TotalAssets - bs.TotalLiabilities)
	return bs
}
