package coa

import (
	"fmt"
	"sort"
	"strings"
)

// BuildTree groups accounts under their parents. Accounts whose parent id does
// not resolve become roots. Children are sorted by account code at every level.
func BuildTree(accounts []Account) []*TreeNode {
	nodes := make(map[string]*TreeNode, len(accounts))
	for _, a := range accounts {
		nodes[a.ID] = &TreeNode{Account: a}
	}
	var roots []*TreeNode
	for _, a := range accounts {
		node := nodes[a.ID]
		if a.ParentID != nil {
			if parent, ok := nodes[*a.ParentID]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	sortTree(roots)
	return roots
}

func sortTree(nodes []*TreeNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Code < nodes[j].Code })
	for _, n := range nodes {
		sortTree(n.Children)
	}
}

// Validate flags missing codes, duplicate codes, duplicate ids, and
// unresolved parent references within one company's account set.
func Validate(accounts []Account) ValidationResult {
	result := ValidationResult{OK: true}
	ids := make(map[string]bool, len(accounts))
	codes := make(map[string]bool, len(accounts))

	for _, a := range accounts {
		if strings.TrimSpace(a.Code) == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("account %s: missing account code", a.ID))
			continue
		}
		if codes[a.Code] {
			result.Errors = append(result.Errors, fmt.Sprintf("duplicate account code %s", a.Code))
		}
		codes[a.Code] = true
		if ids[a.ID] {
			result.Errors = append(result.Errors, fmt.Sprintf("duplicate account id %s", a.ID))
		}
		ids[a.ID] = true
	}

	known := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		known[a.ID] = true
	}
	for _, a := range accounts {
		if a.ParentID != nil && !known[*a.ParentID] {
			result.Errors = append(result.Errors, fmt.Sprintf("account %s: parent %s not found", a.Code, *a.ParentID))
		}
	}

	result.OK = len(result.Errors) == 0
	return result
}

// ParentCodes returns the set of account codes that have at least one child.
// Parent-ness is derived, not stored: an account is a parent iff another
// account in the set names it as parent.
func ParentCodes(accounts []Account) map[string]bool {
	byID := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	parents := make(map[string]bool)
	for _, a := range accounts {
		if a.ParentID == nil {
			continue
		}
		if parent, ok := byID[*a.ParentID]; ok {
			parents[parent.Code] = true
		}
	}
	return parents
}

// IsParentAccount reports whether the account with the given code has children.
func IsParentAccount(accounts []Account, code string) bool {
	return ParentCodes(accounts)[code]
}
