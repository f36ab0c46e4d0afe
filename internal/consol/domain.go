// Package consol merges per-company monthly series into consolidated KPIs,
// statements, and insights, applying month-bucketed manual adjustments.
package consol

import (
	"time"

	"github.com/finboard-hq/finboard/internal/elimination"
)

// DateLayout is the first-of-month key format used by series points.
const DateLayout = "2006-01-02"

// Point is one month of a company's (or the merged) series. Cash is a running
// balance derived from the other three fields, never an independent input.
type Point struct {
	Date     string  `json:"date"`
	Revenue  float64 `json:"revenue"`
	COGS     float64 `json:"cogs"`
	Expenses float64 `json:"expenses"`
	Cash     float64 `json:"cash"`
}

// Net is the month's contribution to the running cash balance.
func (p Point) Net() float64 {
	return p.Revenue - p.COGS - p.Expenses
}

// CompanySeries is a company's stored monthly series with its currency.
type CompanySeries struct {
	CompanyID string  `json:"company_id"`
	Currency  string  `json:"currency"`
	Points    []Point `json:"points"`
}

// Field names the series figure a consolidation adjustment targets.
type Field string

const (
	FieldRevenue  Field = "revenue"
	FieldCOGS     Field = "cogs"
	FieldExpenses Field = "expenses"
)

// Adjustment is a consolidation-level manual delta, distinct from a
// trial-balance adjustment. Only the month of Date matters when applying it.
type Adjustment struct {
	ID        string    `json:"id"`
	Companies []string  `json:"companies"`
	Date      string    `json:"date"`
	Field     Field     `json:"field"`
	Delta     float64   `json:"delta"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AdjustmentInput carries a new consolidation adjustment.
type AdjustmentInput struct {
	Companies []string `json:"companies" validate:"required,min=1"`
	Date      string   `json:"date" validate:"required"`
	Field     Field    `json:"field" validate:"required,oneof=revenue cogs expenses"`
	Delta     float64  `json:"delta" validate:"required"`
	Note      string   `json:"note"`
}

// Query selects the companies, reporting currency, and month range of a report.
type Query struct {
	Companies []string
	Currency  string
	From      string
	To        string
}

// KPIs are the headline figures of the last period with percent deltas
// against the one before it.
type KPIs struct {
	Revenue        float64 `json:"revenue"`
	RevenuePct     float64 `json:"revenue_pct"`
	GrossProfit    float64 `json:"gross_profit"`
	GrossProfitPct float64 `json:"gross_profit_pct"`
	NetIncome      float64 `json:"net_income"`
	NetIncomePct   float64 `json:"net_income_pct"`
	CashBalance    float64 `json:"cash_balance"`
	CashBalancePct float64 `json:"cash_balance_pct"`
	BurnRate       float64 `json:"burn_rate"`
}

// BalanceSheet is the consolidated position as of the last period.
type BalanceSheet struct {
	Cash               float64 `json:"cash"`
	AccountsReceivable float64 `json:"accounts_receivable"`
	Inventory          float64 `json:"inventory"`
	TotalAssets        float64 `json:"total_assets"`
	AccountsPayable    float64 `json:"accounts_payable"`
	Accruals           float64 `json:"accruals"`
	Debt               float64 `json:"debt"`
	TotalLiabilities   float64 `json:"total_liabilities"`
	Equity             float64 `json:"equity"`
	Estimated          bool    `json:"estimated"`
}

// CashFlow is the consolidated cash-flow statement for the last period.
type CashFlow struct {
	Operating float64 `json:"operating"`
	Investing float64 `json:"investing"`
	Financing float64 `json:"financing"`
	NetChange float64 `json:"net_change"`
}

// Report is the full consolidated output.
type Report struct {
	KPIs           KPIs                `json:"kpis"`
	Series         []Point             `json:"series"`
	BalanceSheet   BalanceSheet        `json:"balance_sheet"`
	CashFlow       CashFlow            `json:"cashflow"`
	Eliminations   []elimination.Entry `json:"eliminations,omitempty"`
	Insights       []string            `json:"insights,omitempty"`
	FXFallbackUsed bool                `json:"fx_fallback_used"`
}
