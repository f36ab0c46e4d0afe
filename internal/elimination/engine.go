// Package elimination synthesizes inter-company elimination entries for
// consolidated views. Real elimination needs matched inter-company
// transactions; this layer approximates with fixed shares of consolidated
// revenue, which the reports surface as estimates.
package elimination

import "math"

// Fixed shares of total consolidated revenue used to size the entries.
const (
	ReceivablePayableShare = 0.01
	SalesShare             = 0.02
)

// Kind labels the elimination category.
type Kind string

const (
	KindReceivablePayable Kind = "intercompany_receivable_payable"
	KindSales             Kind = "intercompany_sales"
)

// Entry is one synthetic elimination line.
type Entry struct {
	Kind        Kind    `json:"kind"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// BuildEntries sizes the standard elimination entries from consolidated
// revenue. Single-company views and non-positive revenue produce nothing.
func BuildEntries(totalRevenue float64, companyCount int) []Entry {
	if companyCount < 2 || totalRevenue <= 0 {
		return nil
	}
	return []Entry{
		{
			Kind:        KindReceivablePayable,
			Description: "Estimated inter-company receivable/payable elimination",
			Amount:      round2(totalRevenue * ReceivablePayableShare),
		},
		{
			Kind:        KindSales,
			Description: "Estimated inter-company sales elimination",
			Amount:      round2(totalRevenue * SalesShare),
		},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
