package adblock

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/Sayan314159/Braver/filterlist"
	"github.com/Sayan314159/Braver/internal/fasthash"
	"github.com/Sayan314159/Braver/rules"
	"golang.org/x/exp/slices"
)

// ErrEmptyList is returned by LoadSet and Reload when zero usable rules
// came out of the list text.  A silently-empty list is a correctness risk
// the host should know about.
const ErrEmptyList errors.Error = "filter list has no usable rules"

// LoadResult describes the outcome of loading one rule set.
type LoadResult struct {
	// RulesCount is the number of rules compiled into the set.
	RulesCount int

	// SkippedLines is the number of lines rejected by the parser.
	SkippedLines int
}

// ListManager owns the named rule sets ("ads", "trackers", "user-custom"
// and so on) and answers the final allow/block question across all of them.
//
// Matching is a pure read against an immutable published snapshot, there
// are no locks on that path.  Loading and reloading build the replacement
// set completely off to the side and publish it with a single atomic
// pointer swap: a match in progress keeps the snapshot it started with, a
// match started after the swap sees the new one, and nobody ever sees a
// partially-built set.  Superseded snapshots are reclaimed by the garbage
// collector once the last in-flight match drops its reference.
type ListManager struct {
	logger *slog.Logger

	// current is the published snapshot.  Read lock-free by Decide.
	current atomic.Pointer[snapshot]

	// mu serializes the writers: concurrent reloads race safely, but each
	// publish must start from the latest published snapshot so that no
	// set update is lost.
	mu sync.Mutex
}

// snapshot is an immutable view of all loaded rule sets.  It is never
// modified after publication, replacements clone it.
type snapshot struct {
	// sets is ordered by name so that matching across sets is
	// deterministic.
	sets []*ruleSet
}

// ruleSet is one named, compiled rule set.
type ruleSet struct {
	name    string
	engine  *NetworkEngine
	storage *filterlist.RuleStorage
}

// NewListManager creates a manager with no rule sets loaded.  A nil logger
// means [slog.Default].
func NewListManager(logger *slog.Logger) (m *ListManager) {
	if logger == nil {
		logger = slog.Default()
	}

	m = &ListManager{
		logger: logger,
	}
	m.current.Store(&snapshot{})

	return m
}

// LoadSet compiles ruleText into a rule set and publishes it under the
// given name, replacing any previous set with that name.  Individual bad
// lines are skipped and counted, they never fail the load; a list with zero
// usable rules fails with [ErrEmptyList], leaving the previous set, if any,
// fully in effect.
func (m *ListManager) LoadSet(name, ruleText string) (res LoadResult, err error) {
	set, res, err := buildRuleSet(name, ruleText)
	if err != nil {
		return res, err
	}

	m.publish(set)

	m.logger.Info(
		"rule set loaded",
		"list", name,
		"rules", res.RulesCount,
		"skipped", res.SkippedLines,
		"seqscan", set.engine.SeqScanLen(),
	)

	return res, nil
}

// Reload atomically replaces the rule set under the given name.  A failed
// reload leaves the previous snapshot intact and authoritative; when
// several reloads race, the last one to publish wins.
func (m *ListManager) Reload(name, ruleText string) (res LoadResult, err error) {
	return m.LoadSet(name, ruleText)
}

// RemoveSet unloads the named rule set.  It returns false when no set with
// that name is loaded.
func (m *ListManager) RemoveSet(name string) (ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.current.Load()
	i, ok := slices.BinarySearchFunc(cur.sets, name, compareSetName)
	if !ok {
		return false
	}

	next := &snapshot{sets: make([]*ruleSet, 0, len(cur.sets)-1)}
	next.sets = append(next.sets, cur.sets[:i]...)
	next.sets = append(next.sets, cur.sets[i+1:]...)
	m.current.Store(next)

	return true
}

// SetNames returns the names of the loaded rule sets, sorted.
func (m *ListManager) SetNames() (names []string) {
	cur := m.current.Load()
	names = make([]string, 0, len(cur.sets))
	for _, set := range cur.sets {
		names = append(names, set.name)
	}

	return names
}

// Decide matches the request against every loaded rule set and resolves the
// final decision over the union of the candidates: an exception from any
// set overrides a block from any other, otherwise any block candidate
// blocks, otherwise the request is allowed.
//
// Decide never fails.  A descriptor whose URL yields no hostname is
// considered malformed and fails open with the MalformedURL flag set.
func (m *ListManager) Decide(r *rules.Request) (d Decision) {
	if r == nil || r.URL == "" || r.Hostname == "" {
		m.logger.Debug("malformed request failed open", "url", requestURL(r))

		return Decision{MalformedURL: true}
	}

	cur := m.current.Load()

	var block *rules.Rule
	var blockList string
	for _, set := range cur.sets {
		for _, f := range set.engine.MatchAll(r) {
			if f.Kind == rules.KindException {
				m.logger.Debug(
					"request allowed by exception",
					"list", set.name,
					"rule", f.Text,
					"url", r.URL,
				)

				return Decision{Rule: f, List: set.name}
			}

			if block == nil {
				block = f
				blockList = set.name
			}
		}
	}

	if block == nil {
		return Decision{}
	}

	m.logger.Debug(
		"request blocked",
		"list", blockList,
		"rule", block.Text,
		"url", r.URL,
	)

	return Decision{Rule: block, List: blockList, Block: true}
}

// publish replaces or inserts the set in a clone of the current snapshot
// and swaps the clone in.
func (m *ListManager) publish(set *ruleSet) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.current.Load()
	next := &snapshot{sets: slices.Clone(cur.sets)}

	i, ok := slices.BinarySearchFunc(next.sets, set.name, compareSetName)
	if ok {
		next.sets[i] = set
	} else {
		next.sets = slices.Insert(next.sets, i, set)
	}

	m.current.Store(next)
}

// buildRuleSet parses and compiles one rule set.  No manager state is
// touched: building may take a while for large lists and must not hold
// anything Decide needs.
func buildRuleSet(name, ruleText string) (set *ruleSet, res LoadResult, err error) {
	// The storage index keeps the list ID in its upper 32 bits, so the ID
	// must fit in an int32.  Negative IDs are fine.
	list := &filterlist.StringRuleList{
		ID:        int(int32(fasthash.String(name))),
		RulesText: ruleText,
	}

	storage, err := filterlist.NewRuleStorage([]filterlist.RuleList{list})
	if err != nil {
		return nil, LoadResult{}, fmt.Errorf("building rule set %q: %w", name, err)
	}

	engine := NewNetworkEngine(storage)
	res = LoadResult{
		RulesCount:   engine.RulesCount,
		SkippedLines: engine.SkippedCount,
	}

	if engine.RulesCount == 0 {
		return nil, res, fmt.Errorf("loading rule set %q: %w", name, ErrEmptyList)
	}

	return &ruleSet{name: name, engine: engine, storage: storage}, res, nil
}

// compareSetName orders rule sets by name.
func compareSetName(set *ruleSet, name string) (cmp int) {
	return strings.Compare(set.name, name)
}

// requestURL is a nil-safe accessor for logging.
func requestURL(r *rules.Request) (url string) {
	if r == nil {
		return ""
	}

	return r.URL
}
