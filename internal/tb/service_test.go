package tb

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/finboard-hq/finboard/internal/audit"
	"github.com/finboard-hq/finboard/internal/coa"
	"github.com/finboard-hq/finboard/internal/fx"
	"github.com/finboard-hq/finboard/internal/platform/store"
)

type fixture struct {
	store *store.Memory
	coa   *coa.Service
	fx    *fx.Service
	audit *audit.Service
	tb    *Service
}

func strptr(s string) *string { return &s }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemory()
	f := &fixture{
		store: st,
		coa:   coa.NewService(st),
		fx:    fx.NewService(st),
		audit: audit.NewService(st),
	}
	f.tb = NewService(st, f.coa, f.fx, f.audit, nil)
	f.tb.WithClock(func() time.Time { return time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC) })

	_, err := f.coa.Upsert(context.Background(), "co-1", []coa.Account{
		{ID: "a1", Code: "1000", Name: "Current Assets", Type: coa.AccountTypeAsset},
		{ID: "a2", Code: "1001", Name: "Cash", Type: coa.AccountTypeAsset, ParentID: strptr("a1")},
		{ID: "a3", Code: "4000", Name: "Sales", Type: coa.AccountTypeRevenue},
		{ID: "a4", Code: "5000", Name: "Cost of Sales", Type: coa.AccountTypeExpense},
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) addDraft(t *testing.T) TrialBalance {
	t.Helper()
	res, err := f.tb.Add(context.Background(), "co-1", AddInput{
		PeriodStart: "2024-03-01",
		PeriodEnd:   "2024-03-31",
		Currency:    "NGN",
		Entries: []Entry{
			{AccountCode: "4000", Credit: 1000},
			{AccountCode: "5000", Debit: 1000},
		},
	})
	require.NoError(t, err)
	return res.TB
}

func TestAddFiltersNoiseEntries(t *testing.T) {
	f := newFixture(t)
	res, err := f.tb.Add(context.Background(), "co-1", AddInput{
		PeriodStart: "2024-03-01",
		PeriodEnd:   "2024-03-31",
		Currency:    "NGN",
		Entries: []Entry{
			{AccountCode: "1000", Debit: 0, Credit: 0},
			{AccountCode: "1001", Debit: 500},
			{AccountCode: "9999", Debit: 0, Credit: 0},
		},
	})
	require.NoError(t, err)
	// Zero-valued and parent-account lines are noise; only 1001 survives.
	require.Len(t, res.TB.Entries, 1)
	require.Equal(t, "1001", res.TB.Entries[0].AccountCode)
	require.Empty(t, res.Stripped)
	require.Equal(t, StatusDraft, res.TB.Status)
}

func TestAddFiltersParentEvenWithAmounts(t *testing.T) {
	f := newFixture(t)
	res, err := f.tb.Add(context.Background(), "co-1", AddInput{
		PeriodStart: "2024-03-01",
		PeriodEnd:   "2024-03-31",
		Currency:    "NGN",
		Entries: []Entry{
			{AccountCode: "1000", Debit: 900},
			{AccountCode: "1001", Debit: 500},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.TB.Entries, 1)
	require.Equal(t, "1001", res.TB.Entries[0].AccountCode)
}

func TestAddStripsUnknownCodes(t *testing.T) {
	f := newFixture(t)
	res, err := f.tb.Add(context.Background(), "co-1", AddInput{
		PeriodStart: "2024-03-01",
		PeriodEnd:   "2024-03-31",
		Currency:    "NGN",
		Entries: []Entry{
			{AccountCode: "4000", Credit: 100},
			{AccountCode: "8888", Debit: 100},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.TB.Entries, 1)
	require.Equal(t, []string{"8888"}, res.Stripped)
}

func TestAddRejectsEmptySave(t *testing.T) {
	f := newFixture(t)
	_, err := f.tb.Add(context.Background(), "co-1", AddInput{
		Currency: "NGN",
		Entries:  []Entry{{AccountCode: "1000", Debit: 0, Credit: 0}},
	})
	require.ErrorIs(t, err, ErrNoEntries)

	balances, err := f.tb.List(context.Background(), "co-1")
	require.NoError(t, err)
	require.Empty(t, balances)
}

func TestAddConvertsForeignCurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.fx.Upsert(ctx, "co-1", fx.RateInput{Base: "NGN", Target: "USD", Date: "2024-03-31", Rate: 1500})
	require.NoError(t, err)

	res, err := f.tb.Add(ctx, "co-1", AddInput{
		PeriodStart: "2024-03-01",
		PeriodEnd:   "2024-03-31",
		Currency:    "NGN",
		Entries:     []Entry{{AccountCode: "4000", Credit: 100, Currency: "USD"}},
	})
	require.NoError(t, err)
	require.False(t, res.FXFallbackUsed)
	entry := res.TB.Entries[0]
	require.Equal(t, 150000.0, entry.Credit)
	require.NotNil(t, entry.OriginalCredit)
	require.Equal(t, 100.0, *entry.OriginalCredit)
	require.NotNil(t, entry.FXRateToBase)
	require.Equal(t, 1500.0, *entry.FXRateToBase)
}

func TestAddMissingRateUsesFallback(t *testing.T) {
	f := newFixture(t)
	res, err := f.tb.Add(context.Background(), "co-1", AddInput{
		PeriodStart: "2024-03-01",
		PeriodEnd:   "2024-03-31",
		Currency:    "NGN",
		Entries:     []Entry{{AccountCode: "4000", Credit: 100, Currency: "USD"}},
	})
	require.NoError(t, err)
	// Fallback rate 1.0: the figure passes through unchanged and the flag is up.
	require.True(t, res.FXFallbackUsed)
	entry := res.TB.Entries[0]
	require.Equal(t, 100.0, entry.Credit)
	require.Equal(t, 1.0, *entry.FXRateToBase)
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bal := f.addDraft(t)

	require.ErrorIs(t, f.tb.UpdateStatus(ctx, "co-1", bal.ID, StatusApproved), ErrInvalidTransition)
	require.NoError(t, f.tb.UpdateStatus(ctx, "co-1", bal.ID, StatusPendingApproval))
	// Idempotent re-assert.
	require.NoError(t, f.tb.UpdateStatus(ctx, "co-1", bal.ID, StatusPendingApproval))
	require.NoError(t, f.tb.UpdateStatus(ctx, "co-1", bal.ID, StatusApproved))
	require.ErrorIs(t, f.tb.UpdateStatus(ctx, "co-1", bal.ID, StatusDraft), ErrInvalidTransition)
	require.NoError(t, f.tb.UpdateStatus(ctx, "co-1", bal.ID, StatusLocked))

	got, err := f.tb.Get(ctx, "co-1", bal.ID)
	require.NoError(t, err)
	require.Equal(t, StatusLocked, got.Status)

	require.ErrorIs(t, f.tb.UpdateStatus(ctx, "co-1", "nope", StatusPendingApproval), ErrNotFound)
	require.ErrorIs(t, f.tb.UpdateStatus(ctx, "co-1", bal.ID, Status("shipped")), ErrInvalidTransition)
}

func TestAdjustmentLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bal := f.addDraft(t)

	adj, err := f.tb.AddAdjustment(ctx, "co-1", bal.ID, AdjustmentInput{
		AccountCode: "5000", Debit: 50, Reason: "accrual", CreatedBy: "jo",
	})
	require.NoError(t, err)
	require.NotEmpty(t, adj.ID)

	got, err := f.tb.Get(ctx, "co-1", bal.ID)
	require.NoError(t, err)
	require.Len(t, got.Adjustments, 1)

	events, err := f.audit.List(ctx, "co-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "adjustment", events[0].Entity)
	require.Equal(t, "create", events[0].Action)
	require.Equal(t, adj.ID, events[0].EntityID)

	require.NoError(t, f.tb.DeleteAdjustment(ctx, "co-1", bal.ID, adj.ID, "jo"))
	events, err = f.audit.List(ctx, "co-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "delete", events[1].Action)

	require.ErrorIs(t, f.tb.DeleteAdjustment(ctx, "co-1", bal.ID, adj.ID, "jo"), ErrAdjustmentNotFound)
}

func TestAdjustmentSidesValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bal := f.addDraft(t)

	_, err := f.tb.AddAdjustment(ctx, "co-1", bal.ID, AdjustmentInput{AccountCode: "5000", Debit: 10, Credit: 10})
	require.ErrorIs(t, err, ErrAdjustmentSides)
	_, err = f.tb.AddAdjustment(ctx, "co-1", bal.ID, AdjustmentInput{AccountCode: "5000"})
	require.ErrorIs(t, err, ErrAdjustmentSides)
	_, err = f.tb.AddAdjustment(ctx, "co-1", bal.ID, AdjustmentInput{AccountCode: "5000", Debit: -5, Credit: 5})
	require.ErrorIs(t, err, ErrAdjustmentSides)
}

func TestLockedTBRejectsAdjustments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bal := f.addDraft(t)

	adj, err := f.tb.AddAdjustment(ctx, "co-1", bal.ID, AdjustmentInput{AccountCode: "5000", Debit: 50, CreatedBy: "jo"})
	require.NoError(t, err)

	require.NoError(t, f.tb.UpdateStatus(ctx, "co-1", bal.ID, StatusPendingApproval))
	require.NoError(t, f.tb.UpdateStatus(ctx, "co-1", bal.ID, StatusApproved))

	_, err = f.tb.AddAdjustment(ctx, "co-1", bal.ID, AdjustmentInput{AccountCode: "5000", Debit: 10, CreatedBy: "jo"})
	require.ErrorIs(t, err, ErrLocked)
	require.ErrorIs(t, f.tb.DeleteAdjustment(ctx, "co-1", bal.ID, adj.ID, "jo"), ErrLocked)

	// The rejected calls changed nothing and wrote no audit events.
	got, err := f.tb.Get(ctx, "co-1", bal.ID)
	require.NoError(t, err)
	require.Len(t, got.Adjustments, 1)
	events, err := f.audit.List(ctx, "co-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestTotalsSurviveStoreRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bal := f.addDraft(t)
	_, err := f.tb.AddAdjustment(ctx, "co-1", bal.ID, AdjustmentInput{AccountCode: "5000", Debit: 25.55, CreatedBy: "jo"})
	require.NoError(t, err)

	before, err := f.tb.Get(ctx, "co-1", bal.ID)
	require.NoError(t, err)

	raw, err := json.Marshal(before)
	require.NoError(t, err)
	var reloaded TrialBalance
	require.NoError(t, json.Unmarshal(raw, &reloaded))

	require.Equal(t, ComputeAdjustedTotals(before), ComputeAdjustedTotals(reloaded))
}
