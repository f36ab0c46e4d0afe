package coa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/finboard-hq/finboard/internal/platform/store"
)

const accountsKey = "accounts"

// ErrInvalidAccounts indicates the account set failed validation.
var ErrInvalidAccounts = errors.New("coa: invalid account set")

// Service persists the chart of accounts as one document per company, so an
// upsert replaces the set wholesale and is atomic.
type Service struct {
	store store.Store
}

// NewService constructs the CoA service.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// List returns the company's accounts, empty when none were saved yet.
func (s *Service) List(ctx context.Context, companyID string) ([]Account, error) {
	doc, err := s.store.Get(ctx, companyID, store.CollectionAccounts, accountsKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var accounts []Account
	if err := json.Unmarshal(doc, &accounts); err != nil {
		return nil, fmt.Errorf("coa: decode accounts: %w", err)
	}
	return accounts, nil
}

// Upsert validates and replaces the company's account set. There is no partial
// patch; callers send the full chart every time.
func (s *Service) Upsert(ctx context.Context, companyID string, accounts []Account) (ValidationResult, error) {
	for i := range accounts {
		accounts[i].CompanyID = companyID
		accounts[i].Code = strings.TrimSpace(accounts[i].Code)
	}
	result := Validate(accounts)
	if !result.OK {
		return result, ErrInvalidAccounts
	}
	doc, err := json.Marshal(accounts)
	if err != nil {
		return result, err
	}
	if err := s.store.Put(ctx, companyID, store.CollectionAccounts, accountsKey, doc); err != nil {
		return result, err
	}
	return result, nil
}

// Tree loads the company's accounts and returns them as a hierarchy.
func (s *Service) Tree(ctx context.Context, companyID string) ([]*TreeNode, error) {
	accounts, err := s.List(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return BuildTree(accounts), nil
}
