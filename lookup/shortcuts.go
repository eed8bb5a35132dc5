package lookup

import (
	"math"
	"strings"

	"github.com/Sayan314159/Braver/filterlist"
	"github.com/Sayan314159/Braver/internal/fasthash"
	"github.com/Sayan314159/Braver/rules"
	"golang.org/x/exp/slices"
)

// shortcutLength is the length of the shortcut window used as the hash key.
const shortcutLength = 5

// ShortcutsTable relies on rule "shortcuts" to quickly find candidate
// rules:
//
//  1. The parser extracts from every rule the longest substring without
//     special characters, the shortcut.
//  2. The table picks a window of shortcutLength bytes from it and keys the
//     rule under the window's hash; a histogram steers the choice to the
//     least-populated bucket.
//  3. On a match the table hashes every window of the same length in the
//     request URL and probes the buckets.
//
// Only rules with a long-enough shortcut are eligible.
type ShortcutsTable struct {
	// ruleStorage is the backing storage for the filtering rules.
	ruleStorage *filterlist.RuleStorage

	// buckets maps a shortcut window hash to the storage indexes of the
	// rules keyed under it.
	buckets map[uint32][]int64

	// histogram tracks bucket sizes to pick the best window per rule.
	histogram map[uint32]int
}

// type check
var _ Table = (*ShortcutsTable)(nil)

// NewShortcutsTable creates a new instance of the ShortcutsTable.
func NewShortcutsTable(rs *filterlist.RuleStorage) (s *ShortcutsTable) {
	return &ShortcutsTable{
		ruleStorage: rs,
		buckets:     map[uint32][]int64{},
		histogram:   map[uint32]int{},
	}
}

// TryAdd implements the [Table] interface for *ShortcutsTable.
func (s *ShortcutsTable) TryAdd(f *rules.Rule, storageIdx int64) (ok bool) {
	shortcut := f.Shortcut
	if len(shortcut) < shortcutLength || isTooGenericShortcut(shortcut) {
		return false
	}

	// Pick the window whose bucket is the least used.
	var bestHash uint32
	minCount := math.MaxInt
	for i := 0; i <= len(shortcut)-shortcutLength; i++ {
		hash := fasthash.Between(shortcut, i, i+shortcutLength)
		if count := s.histogram[hash]; count < minCount {
			minCount = count
			bestHash = hash
		}
	}

	s.histogram[bestHash] = minCount + 1
	s.buckets[bestHash] = append(s.buckets[bestHash], storageIdx)

	return true
}

// MatchAll implements the [Table] interface for *ShortcutsTable.
func (s *ShortcutsTable) MatchAll(r *rules.Request) (result []*rules.Rule) {
	urlLen := len(r.URLLowerCase)
	for i := 0; i <= urlLen-shortcutLength; i++ {
		hash := fasthash.Between(r.URLLowerCase, i, i+shortcutLength)
		ruleIdxs, ok := s.buckets[hash]
		if !ok {
			continue
		}

		for _, ruleIdx := range ruleIdxs {
			rule := s.ruleStorage.Retrieve(ruleIdx)

			// The same bucket can fire several times when the URL has a
			// repeating fragment, make sure a rule is returned once.  The
			// slices are short, a linear check is fine.
			if rule == nil || slices.Contains(result, rule) || !rule.Match(r) {
				continue
			}

			result = append(result, rule)
		}
	}

	return result
}

// isTooGenericShortcut checks if the shortcut is a bare scheme prefix that
// would match almost every URL.  Such rules belong in a slower table.
func isTooGenericShortcut(shortcut string) (ok bool) {
	switch l := len(shortcut); {
	case
		l <= len("ws://") && strings.HasPrefix(shortcut, "ws:"),
		l <= len("wss://") && strings.HasPrefix(shortcut, "wss:"),
		l <= len("https://") && strings.HasPrefix(shortcut, "http"):
		return true
	default:
		return false
	}
}
