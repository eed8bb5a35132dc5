// Package lookup implements the lookup tables the engine uses to avoid a
// linear scan over every rule per request.  Each table accepts the rules it
// can index efficiently; the engine tries the tables in order and each rule
// ends up in exactly one of them.
package lookup

import (
	"github.com/Sayan314159/Braver/rules"
)

// Table is a lookup table for filtering rules.
type Table interface {
	// TryAdd adds the rule to the table if the rule is eligible for it.
	TryAdd(f *rules.Rule, storageIdx int64) (ok bool)

	// MatchAll returns all rules of this table matching the request.
	MatchAll(r *rules.Request) (result []*rules.Rule)
}
