package reports

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finboard-hq/finboard/internal/coa"
	"github.com/finboard-hq/finboard/internal/tb"
)

func TestBuildProfitAndLoss(t *testing.T) {
	accounts := []coa.Account{
		{ID: "a1", Code: "4000", Name: "Sales", Type: coa.AccountTypeRevenue},
		{ID: "a2", Code: "5000", Name: "Rent", Type: coa.AccountTypeExpense},
		{ID: "a3", Code: "6000", Name: "Wages", Type: coa.AccountTypeExpense},
	}
	balance := tb.TrialBalance{Entries: []tb.Entry{
		{AccountCode: "4000", Credit: 1000},
		{AccountCode: "5000", Debit: 300},
		{AccountCode: "6000", Debit: 200},
	}}

	pl := BuildProfitAndLoss(accounts, balance)
	require.Equal(t, 1000.0, pl.Revenue)
	require.Equal(t, 0.0, pl.COGS)
	require.Equal(t, 500.0, pl.Opex)
	require.Equal(t, 1000.0, pl.GrossProfit)
	require.Equal(t, 500.0, pl.NetIncome)
}

func TestBuildProfitAndLossInventoryHeuristic(t *testing.T) {
	accounts := []coa.Account{
		{ID: "a1", Code: "4000", Name: "Sales", Type: coa.AccountTypeRevenue},
		{ID: "a2", Code: "1200", Name: "Finished Goods Inventory", Type: coa.AccountTypeAsset},
		{ID: "a3", Code: "1000", Name: "Cash", Type: coa.AccountTypeAsset},
	}
	balance := tb.TrialBalance{Entries: []tb.Entry{
		{AccountCode: "4000", Credit: 1000},
		{AccountCode: "1200", Debit: 400},
		{AccountCode: "1000", Debit: 600},
	}}

	pl := BuildProfitAndLoss(accounts, balance)
	require.Equal(t, 400.0, pl.COGS)
	require.Equal(t, 600.0, pl.GrossProfit)
	require.Equal(t, 600.0, pl.NetIncome)
}

func TestBuildProfitAndLossSkipsUnknownCodes(t *testing.T) {
	accounts := []coa.Account{
		{ID: "a1", Code: "4000", Name: "Sales", Type: coa.AccountTypeRevenue},
	}
	balance := tb.TrialBalance{Entries: []tb.Entry{
		{AccountCode: "4000", Credit: 100},
		{AccountCode: "9999", Debit: 9000},
	}}

	pl := BuildProfitAndLoss(accounts, balance)
	require.Equal(t, 100.0, pl.Revenue)
	require.Equal(t, 100.0, pl.NetIncome)
}
