package mapping

import (
	"sort"
	"strings"

	"github.com/finboard-hq/finboard/internal/coa"
)

// Scoring weights for fuzzy candidate matching. Pinned as constants so tests
// can assert exact behaviour.
const (
	ScoreExactCode    = 100
	ScoreExactName    = 80
	ScoreNameContains = 40
	ScoreNameWithin   = 20

	// AcceptThreshold is the minimum score a fuzzy candidate needs.
	AcceptThreshold = 40
)

// Score rates a CoA account as a candidate target for a source row.
func Score(sourceCode, sourceName string, account coa.Account) int {
	score := 0
	if sourceCode != "" && sourceCode == account.Code {
		score += ScoreExactCode
	}
	name := strings.ToLower(strings.TrimSpace(sourceName))
	target := strings.ToLower(strings.TrimSpace(account.Name))
	if name != "" && target != "" {
		switch {
		case name == target:
			score += ScoreExactName
		case strings.Contains(target, name):
			score += ScoreNameContains
		case strings.Contains(name, target):
			score += ScoreNameWithin
		}
	}
	return score
}

// BestMatch returns the highest-scoring account code for the row, or "" when
// no candidate reaches the accept threshold. Ties break on account code so the
// result is deterministic.
func BestMatch(sourceCode, sourceName string, accounts []coa.Account) string {
	bestScore := 0
	bestCode := ""
	sorted := append([]coa.Account(nil), accounts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })
	for _, account := range sorted {
		if score := Score(sourceCode, sourceName, account); score > bestScore {
			bestScore = score
			bestCode = account.Code
		}
	}
	if bestScore < AcceptThreshold {
		return ""
	}
	return bestCode
}

// Resolve maps each row's source code onto a CoA code. Exact code matches win,
// then previously learned mappings, then fuzzy name matching. Codes that
// resolve nowhere are reported for manual selection.
func Resolve(rows []RawAccountRow, accounts []coa.Account, learned map[string]string) Resolution {
	codes := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		codes[a.Code] = true
	}

	res := Resolution{Mapped: make(map[string]string, len(rows))}
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		source := strings.TrimSpace(row.AccountCode)
		if source == "" || seen[source] {
			continue
		}
		seen[source] = true

		if codes[source] {
			res.Mapped[source] = source
			continue
		}
		if target, ok := learned[source]; ok && codes[target] {
			res.Mapped[source] = target
			continue
		}
		if target := BestMatch(source, row.Name, accounts); target != "" {
			res.Mapped[source] = target
			continue
		}
		res.Unresolved = append(res.Unresolved, source)
	}
	sort.Strings(res.Unresolved)
	return res
}
