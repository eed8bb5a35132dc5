package lookup_test

import (
	"testing"

	"github.com/AdguardTeam/golibs/testutil"
	"github.com/Sayan314159/Braver/filterlist"
	"github.com/Sayan314159/Braver/lookup"
	"github.com/Sayan314159/Braver/rules"
	"github.com/stretchr/testify/require"
)

// newTestStorage creates a rule storage over a single string list.
func newTestStorage(t *testing.T, rulesText string) (s *filterlist.RuleStorage) {
	t.Helper()

	s, err := filterlist.NewRuleStorage([]filterlist.RuleList{
		&filterlist.StringRuleList{ID: 1, RulesText: rulesText},
	})
	require.NoError(t, err)
	testutil.CleanupAndRequireSuccess(t, s.Close)

	return s
}

// fillTable scans the storage and adds every rule the table accepts,
// returning the number of accepted rules.
func fillTable(t *testing.T, s *filterlist.RuleStorage, table lookup.Table) (added int) {
	t.Helper()

	scanner := s.NewScanner()
	for scanner.Scan() {
		f, idx := scanner.Rule()
		if table.TryAdd(f, idx) {
			added++
		}
	}

	return added
}

// matchedTexts runs MatchAll and returns the texts of the matched rules.
func matchedTexts(table lookup.Table, r *rules.Request) (texts []string) {
	for _, f := range table.MatchAll(r) {
		texts = append(texts, f.Text)
	}

	return texts
}
