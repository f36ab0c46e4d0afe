package mapping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finboard-hq/finboard/internal/coa"
	"github.com/finboard-hq/finboard/internal/platform/store"
)

func chart() []coa.Account {
	return []coa.Account{
		{ID: "a1", Code: "4000", Name: "Sales Revenue", Type: coa.AccountTypeRevenue},
		{ID: "a2", Code: "5000", Name: "Cost of Sales", Type: coa.AccountTypeExpense},
		{ID: "a3", Code: "6000", Name: "Salaries", Type: coa.AccountTypeExpense},
	}
}

func TestScoreWeights(t *testing.T) {
	account := coa.Account{Code: "4000", Name: "Sales Revenue"}
	require.Equal(t, ScoreExactCode+ScoreExactName, Score("4000", "sales revenue", account))
	require.Equal(t, ScoreExactName, Score("9999", "Sales Revenue", account))
	require.Equal(t, ScoreNameContains, Score("9999", "Sales", account))
	require.Equal(t, ScoreNameWithin, Score("9999", "Total Sales Revenue Group", account))
	require.Equal(t, 0, Score("9999", "Rent", account))
}

func TestBestMatchThreshold(t *testing.T) {
	// Query-contains-name alone scores 20 and must not be accepted.
	require.Equal(t, "", BestMatch("9999", "All Salaries Paid Out This Year", nil))
	require.Equal(t, "4000", BestMatch("9999", "Sales", chart()))
	require.Equal(t, "", BestMatch("9999", "Depreciation", chart()))
}

func TestResolvePrecedence(t *testing.T) {
	rows := []RawAccountRow{
		{AccountCode: "4000", Name: "Totally Unrelated", Debit: 0, Credit: 100},
		{AccountCode: "9100", Name: "Salaries", Debit: 50},
		{AccountCode: "9200", Name: "Cost of Sales", Debit: 20},
		{AccountCode: "9300", Name: "Mystery", Debit: 10},
	}
	learned := map[string]string{"9200": "6000"}

	res := Resolve(rows, chart(), learned)
	// Exact code beats everything.
	require.Equal(t, "4000", res.Mapped["4000"])
	// Fuzzy by name.
	require.Equal(t, "6000", res.Mapped["9100"])
	// Learned mapping beats the fresh fuzzy match (which would pick 5000).
	require.Equal(t, "6000", res.Mapped["9200"])
	require.Equal(t, []string{"9300"}, res.Unresolved)
}

func TestResolveIgnoresStaleLearnedTarget(t *testing.T) {
	rows := []RawAccountRow{{AccountCode: "9200", Name: "Cost of Sales", Debit: 20}}
	learned := map[string]string{"9200": "gone"}
	res := Resolve(rows, chart(), learned)
	require.Equal(t, "5000", res.Mapped["9200"])
}

func TestServiceSaveMergesAndResolves(t *testing.T) {
	st := store.NewMemory()
	coaSvc := coa.NewService(st)
	svc := NewService(st, coaSvc)
	ctx := context.Background()

	_, err := coaSvc.Upsert(ctx, "co-1", chart())
	require.NoError(t, err)

	require.NoError(t, svc.Save(ctx, "co-1", map[string]string{"9100": "6000"}))
	require.NoError(t, svc.Save(ctx, "co-1", map[string]string{"9200": "5000"}))

	saved, err := svc.Saved(ctx, "co-1")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"9100": "6000", "9200": "5000"}, saved)

	res, err := svc.ResolveRows(ctx, "co-1", []RawAccountRow{
		{AccountCode: "9100", Debit: 10},
		{AccountCode: "9999", Name: "Nothing Similar At All", Debit: 5},
	})
	require.NoError(t, err)
	require.Equal(t, "6000", res.Mapped["9100"])
	require.Equal(t, []string{"9999"}, res.Unresolved)
}

func TestResolveRowsRejectsInvalid(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st, coa.NewService(st))
	_, err := svc.ResolveRows(context.Background(), "co-1", []RawAccountRow{
		{AccountCode: "", Debit: 10},
	})
	require.ErrorIs(t, err, ErrInvalidRow)

	_, err = svc.ResolveRows(context.Background(), "co-1", []RawAccountRow{
		{AccountCode: "1000", Debit: -5},
	})
	require.ErrorIs(t, err, ErrInvalidRow)
}
