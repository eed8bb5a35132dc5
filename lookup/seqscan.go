package lookup

import (
	"github.com/Sayan314159/Braver/rules"
	"golang.org/x/exp/slices"
)

// SeqScanTable is the fallback bucket: a plain list of rules scanned
// sequentially.  Rules end up here only when no other table can index them,
// and the engine keeps an eye on its size, matching over it degrades
// linearly.
type SeqScanTable struct {
	rules []*rules.Rule
}

// type check
var _ Table = (*SeqScanTable)(nil)

// TryAdd implements the [Table] interface for *SeqScanTable.  It accepts
// everything that is not already present.
func (s *SeqScanTable) TryAdd(f *rules.Rule, _ int64) (ok bool) {
	if slices.ContainsFunc(s.rules, func(r *rules.Rule) bool { return r.Text == f.Text }) {
		return false
	}

	s.rules = append(s.rules, f)

	return true
}

// MatchAll implements the [Table] interface for *SeqScanTable.
func (s *SeqScanTable) MatchAll(r *rules.Request) (result []*rules.Rule) {
	for _, rule := range s.rules {
		if rule.Match(r) {
			result = append(result, rule)
		}
	}

	return result
}

// Len returns the number of rules in the bucket.
func (s *SeqScanTable) Len() (n int) {
	return len(s.rules)
}
