// Package reports derives financial statements from trial-balance snapshots.
package reports

import (
	"strings"

	"github.com/finboard-hq/finboard/internal/coa"
	"github.com/finboard-hq/finboard/internal/tb"
)

// ProfitAndLoss summarises a trial balance into P&L figures.
type ProfitAndLoss struct {
	Revenue     float64 `json:"revenue"`
	COGS        float64 `json:"cogs"`
	GrossProfit float64 `json:"gross_profit"`
	Opex        float64 `json:"opex"`
	NetIncome   float64 `json:"net_income"`
}

// BuildProfitAndLoss aggregates trial-balance entries against the chart of
// accounts. Revenue accounts contribute credit-positive, expense accounts
// debit-positive. Asset accounts whose name contains "inventory" feed COGS,
// a known-naive name heuristic kept for compatibility with the reports built
// on top of it. Entries without a CoA match are skipped.
func BuildProfitAndLoss(accounts []coa.Account, balance tb.TrialBalance) ProfitAndLoss {
	byCode := make(map[string]coa.Account, len(accounts))
	for _, a := range accounts {
		byCode[a.Code] = a
	}

	var pl ProfitAndLoss
	for _, e := range balance.Entries {
		account, ok := byCode[e.AccountCode]
		if !ok {
			continue
		}
		amount := e.Debit - e.Credit
		switch account.Type {
		case coa.AccountTypeRevenue:
			pl.Revenue += -amount
		case coa.AccountTypeExpense:
			pl.Opex += amount
		case coa.AccountTypeAsset:
			if strings.Contains(strings.ToLower(account.Name), "inventory") {
				pl.COGS += amount
			}
		}
	}
	pl.GrossProfit = pl.Revenue - pl.COGS
	pl.NetIncome = pl.GrossProfit - pl.Opex
	return pl
}
