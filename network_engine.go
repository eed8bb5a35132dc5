package adblock

import (
	"github.com/Sayan314159/Braver/filterlist"
	"github.com/Sayan314159/Braver/lookup"
	"github.com/Sayan314159/Braver/rules"
)

// NetworkEngine is the compiled form of a single rule set: a group of
// lookup tables over the rules of one storage.
type NetworkEngine struct {
	// ruleStorage keeps the rules in their serialized form.  The lookup
	// tables hold storage indexes and materialize rules on demand.
	ruleStorage *filterlist.RuleStorage

	// lookupTables are tried in order when a rule is added: each rule goes
	// to the first table that can index it, so the order is fastest first.
	lookupTables []lookup.Table

	// seqScan is the fallback bucket, also the last of lookupTables.  Kept
	// separately so its size can be inspected.
	seqScan *lookup.SeqScanTable

	// RulesCount is the count of rules added to the engine.
	RulesCount int

	// SkippedCount is the count of list lines rejected during the scan.
	SkippedCount int
}

// NewNetworkEngine scans the specified rule storage and builds an engine of
// every rule found there.  Construction is a pure function of the rule
// sequence: identical lists always produce equivalent engines.
func NewNetworkEngine(s *filterlist.RuleStorage) (engine *NetworkEngine) {
	seqScan := &lookup.SeqScanTable{}
	engine = &NetworkEngine{
		ruleStorage: s,
		lookupTables: []lookup.Table{
			lookup.NewHostnamesTable(s),
			lookup.NewShortcutsTable(s),
			lookup.NewSourceDomainsTable(s),
			seqScan,
		},
		seqScan: seqScan,
	}

	scanner := s.NewScanner()
	for scanner.Scan() {
		f, idx := scanner.Rule()
		engine.addRule(f, idx)
	}

	engine.SkippedCount = scanner.Skipped()

	return engine
}

// Match searches over all rules loaded into the engine and resolves
// precedence: a matching exception rule always wins over matching block
// rules, and any single block match is sufficient to block.
func (n *NetworkEngine) Match(r *rules.Request) (rule *rules.Rule, ok bool) {
	var block *rules.Rule
	for _, f := range n.MatchAll(r) {
		if f.Kind == rules.KindException {
			return f, true
		}

		if block == nil {
			block = f
		}
	}

	return block, block != nil
}

// MatchAll finds all rules matching the request, both block and exception
// ones, with every option qualifier satisfied.
func (n *NetworkEngine) MatchAll(r *rules.Request) (result []*rules.Rule) {
	for _, table := range n.lookupTables {
		result = append(result, table.MatchAll(r)...)
	}

	return result
}

// SeqScanLen returns the size of the sequential-scan fallback bucket.  The
// bucket degrades linearly, hosts may want to alert on its growth.
func (n *NetworkEngine) SeqScanLen() (l int) {
	return n.seqScan.Len()
}

// addRule adds the rule to the first lookup table that accepts it.
func (n *NetworkEngine) addRule(f *rules.Rule, storageIdx int64) {
	for _, table := range n.lookupTables {
		if table.TryAdd(f, storageIdx) {
			n.RulesCount++

			return
		}
	}
}
