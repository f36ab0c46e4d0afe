package coa

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finboard-hq/finboard/internal/platform/store"
)

func strptr(s string) *string { return &s }

func sampleAccounts() []Account {
	return []Account{
		{ID: "a2", Code: "1100", Name: "Receivables", Type: AccountTypeAsset, ParentID: strptr("a1")},
		{ID: "a1", Code: "1000", Name: "Current Assets", Type: AccountTypeAsset},
		{ID: "a3", Code: "1050", Name: "Cash", Type: AccountTypeAsset, ParentID: strptr("a1")},
		{ID: "a4", Code: "4000", Name: "Sales", Type: AccountTypeRevenue},
	}
}

func TestBuildTreeSortsChildrenByCode(t *testing.T) {
	roots := BuildTree(sampleAccounts())
	require.Len(t, roots, 2)
	require.Equal(t, "1000", roots[0].Code)
	require.Equal(t, "4000", roots[1].Code)
	require.Len(t, roots[0].Children, 2)
	require.Equal(t, "1050", roots[0].Children[0].Code)
	require.Equal(t, "1100", roots[0].Children[1].Code)
}

func TestBuildTreeUnresolvedParentBecomesRoot(t *testing.T) {
	accounts := []Account{
		{ID: "a1", Code: "2000", ParentID: strptr("ghost")},
	}
	roots := BuildTree(accounts)
	require.Len(t, roots, 1)
	require.Equal(t, "2000", roots[0].Code)
}

func TestValidate(t *testing.T) {
	require.True(t, Validate(sampleAccounts()).OK)

	cases := []struct {
		name     string
		accounts []Account
	}{
		{"missing code", []Account{{ID: "a1", Code: " "}}},
		{"duplicate code", []Account{{ID: "a1", Code: "1000"}, {ID: "a2", Code: "1000"}}},
		{"duplicate id", []Account{{ID: "a1", Code: "1000"}, {ID: "a1", Code: "1100"}}},
		{"unresolved parent", []Account{{ID: "a1", Code: "1000", ParentID: strptr("nope")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Validate(tc.accounts)
			require.False(t, result.OK)
			require.NotEmpty(t, result.Errors)
		})
	}
}

func TestParentCodes(t *testing.T) {
	parents := ParentCodes(sampleAccounts())
	require.True(t, parents["1000"])
	require.False(t, parents["1100"])
	require.False(t, parents["4000"])
	require.True(t, IsParentAccount(sampleAccounts(), "1000"))
}

func TestServiceUpsertAndList(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()

	result, err := svc.Upsert(ctx, "co-1", sampleAccounts())
	require.NoError(t, err)
	require.True(t, result.OK)

	accounts, err := svc.List(ctx, "co-1")
	require.NoError(t, err)
	require.Len(t, accounts, 4)
	require.Equal(t, "co-1", accounts[0].CompanyID)

	// Invalid sets are rejected before persistence.
	_, err = svc.Upsert(ctx, "co-1", []Account{{ID: "x1", Code: "9"}, {ID: "x2", Code: "9"}})
	require.ErrorIs(t, err, ErrInvalidAccounts)
	accounts, err = svc.List(ctx, "co-1")
	require.NoError(t, err)
	require.Len(t, accounts, 4)

	tree, err := svc.Tree(ctx, "co-1")
	require.NoError(t, err)
	require.Len(t, tree, 2)
}
