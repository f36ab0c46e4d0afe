// Package coa manages the per-company chart of accounts.
package coa

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Account models a chart of accounts node.
type Account struct {
	ID        string      `json:"id"`
	CompanyID string      `json:"company_id"`
	Code      string      `json:"account_code"`
	Name      string      `json:"account_name"`
	Type      AccountType `json:"account_type"`
	ParentID  *string     `json:"parent_account_id,omitempty"`
	Currency  string      `json:"currency,omitempty"`
}

// TreeNode is an account with its resolved children.
type TreeNode struct {
	Account
	Children []*TreeNode `json:"children,omitempty"`
}

// ValidationResult reports the outcome of validating an account set.
type ValidationResult struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors,omitempty"`
}
