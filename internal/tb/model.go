// Package tb implements the trial-balance lifecycle: entry storage, the status
// state machine, status-gated adjustments, and adjusted-totals computation.
package tb

import "time"

// Status enumerates the trial-balance lifecycle states. Progression is a total
// order with no skips and no way back.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusLocked          Status = "locked"
)

// next is the single source of truth for legal transitions.
var next = map[Status]Status{
	StatusDraft:           StatusPendingApproval,
	StatusPendingApproval: StatusApproved,
	StatusApproved:        StatusLocked,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusApproved, StatusLocked:
		return true
	}
	return false
}

// Mutable reports whether adjustments may be created or deleted in this state.
func (s Status) Mutable() bool {
	return s == StatusDraft || s == StatusPendingApproval
}

// CanTransition reports whether from may advance directly to to.
func CanTransition(from, to Status) bool {
	return next[from] == to
}

// Entry is a single trial-balance line. The Original* and FXRateToBase fields
// are populated only when a currency conversion occurred at save time.
type Entry struct {
	AccountCode    string   `json:"account_code"`
	Debit          float64  `json:"debit"`
	Credit         float64  `json:"credit"`
	Currency       string   `json:"currency,omitempty"`
	OriginalDebit  *float64 `json:"original_debit,omitempty"`
	OriginalCredit *float64 `json:"original_credit,omitempty"`
	FXRateToBase   *float64 `json:"fx_rate_to_base,omitempty"`
}

// Adjustment is a correcting entry against a trial balance. Exactly one of
// Debit/Credit must be positive. Immutable once created; an edit is a delete
// followed by an insert.
type Adjustment struct {
	ID          string    `json:"id"`
	TBID        string    `json:"tb_id"`
	AccountCode string    `json:"account_code"`
	Debit       float64   `json:"debit"`
	Credit      float64   `json:"credit"`
	Reason      string    `json:"reason"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	Currency    string    `json:"currency,omitempty"`
}

// TrialBalance is a snapshot of account balances for one period.
type TrialBalance struct {
	ID          string       `json:"id"`
	CompanyID   string       `json:"company_id"`
	PeriodStart string       `json:"period_start"`
	PeriodEnd   string       `json:"period_end"`
	Entries     []Entry      `json:"entries"`
	Status      Status       `json:"status"`
	Adjustments []Adjustment `json:"adjustments,omitempty"`
	Currency    string       `json:"currency"`
	CreatedAt   time.Time    `json:"created_at"`
}

// BalanceTolerance is the absolute debit/credit difference below which a trial
// balance counts as balanced. Every balance check reuses this constant.
const BalanceTolerance = 0.01

// Totals breaks down debits and credits across entries and adjustments.
type Totals struct {
	OriginalDebit    float64 `json:"original_debit"`
	OriginalCredit   float64 `json:"original_credit"`
	AdjustmentDebit  float64 `json:"adjustment_debit"`
	AdjustmentCredit float64 `json:"adjustment_credit"`
	NetDebit         float64 `json:"net_debit"`
	NetCredit        float64 `json:"net_credit"`
	Balanced         bool    `json:"balanced"`
}

// ComputeAdjustedTotals sums entries and adjustments into net totals.
func ComputeAdjustedTotals(t TrialBalance) Totals {
	var totals Totals
	for _, e := range t.Entries {
		totals.OriginalDebit += e.Debit
		totals.OriginalCredit += e.Credit
	}
	for _, a := range t.Adjustments {
		totals.AdjustmentDebit += a.Debit
		totals.AdjustmentCredit += a.Credit
	}
	totals.NetDebit = totals.OriginalDebit + totals.AdjustmentDebit
	totals.NetCredit = totals.OriginalCredit + totals.AdjustmentCredit
	totals.Balanced = Balanced(totals.NetDebit, totals.NetCredit)
	return totals
}

// Balanced reports whether debit and credit agree within BalanceTolerance.
func Balanced(debit, credit float64) bool {
	diff := debit - credit
	if diff < 0 {
		diff = -diff
	}
	return diff < BalanceTolerance
}
