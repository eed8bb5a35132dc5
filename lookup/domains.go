package lookup

import (
	"strings"

	"github.com/Sayan314159/Braver/filterlist"
	"github.com/Sayan314159/Braver/internal/fasthash"
	"github.com/Sayan314159/Braver/rules"
)

// SourceDomainsTable is a lookup table keyed by the domains of the $domain
// modifier.  Rules limited to specific requesting domains are only ever
// considered for requests that actually come from those domains.
type SourceDomainsTable struct {
	// ruleStorage is the backing storage for the filtering rules.
	ruleStorage *filterlist.RuleStorage

	// buckets maps a permitted-domain hash to the storage indexes of the
	// rules permitted on that domain.
	buckets map[uint32][]int64
}

// type check
var _ Table = (*SourceDomainsTable)(nil)

// NewSourceDomainsTable creates a new instance of the SourceDomainsTable.
func NewSourceDomainsTable(rs *filterlist.RuleStorage) (d *SourceDomainsTable) {
	return &SourceDomainsTable{
		ruleStorage: rs,
		buckets:     map[uint32][]int64{},
	}
}

// TryAdd implements the [Table] interface for *SourceDomainsTable.
func (d *SourceDomainsTable) TryAdd(f *rules.Rule, storageIdx int64) (ok bool) {
	permitted := f.PermittedDomains()
	if len(permitted) == 0 {
		return false
	}

	for _, domain := range permitted {
		hash := fasthash.String(domain)
		d.buckets[hash] = append(d.buckets[hash], storageIdx)
	}

	return true
}

// MatchAll implements the [Table] interface for *SourceDomainsTable.  The
// buckets are probed with every suffix of the source hostname so that a
// rule permitted on "example.com" fires for requests from
// "sub.example.com" as well.
func (d *SourceDomainsTable) MatchAll(r *rules.Request) (result []*rules.Rule) {
	if r.SourceHostname == "" {
		return nil
	}

	for _, domain := range hostnameSuffixes(r.SourceHostname) {
		ruleIdxs, ok := d.buckets[fasthash.String(domain)]
		if !ok {
			continue
		}

		for _, ruleIdx := range ruleIdxs {
			rule := d.ruleStorage.Retrieve(ruleIdx)
			if rule != nil && rule.Match(r) {
				result = append(result, rule)
			}
		}
	}

	return result
}

// hostnameSuffixes returns every label-aligned suffix of the hostname,
// including the hostname itself.
func hostnameSuffixes(hostname string) (suffixes []string) {
	suffixes = append(suffixes, hostname)
	for i := strings.IndexByte(hostname, '.'); i != -1; i = strings.IndexByte(hostname, '.') {
		hostname = hostname[i+1:]
		if hostname != "" {
			suffixes = append(suffixes, hostname)
		}
	}

	return suffixes
}
