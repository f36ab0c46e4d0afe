// Package mapping resolves uploaded account rows onto the chart of accounts.
package mapping

// RawAccountRow is a parsed upload row. File decoding happens upstream; this
// DTO is validated at the pipeline boundary before entering the typed core.
type RawAccountRow struct {
	AccountCode string  `json:"account_code" validate:"required"`
	Name        string  `json:"name,omitempty"`
	Debit       float64 `json:"debit" validate:"gte=0"`
	Credit      float64 `json:"credit" validate:"gte=0"`
	Currency    string  `json:"currency,omitempty" validate:"omitempty,len=3"`
}

// Resolution is the outcome of running rows through the matching pipeline.
// Unresolved source codes require manual selection before a trial balance save.
type Resolution struct {
	Mapped     map[string]string `json:"mapped"`
	Unresolved []string          `json:"unresolved,omitempty"`
}
