// Package adblock implements the request-filtering engine of Braver: it
// compiles adblock-style filter lists into lookup indexes and decides, for
// every outgoing network request the browsing surface is about to make,
// whether that request should be blocked.
//
// The engine performs no I/O: the host feeds it raw filter-list text and a
// descriptor per intercepted request, and consumes the returned decision.
package adblock

import (
	"github.com/Sayan314159/Braver/rules"
)

// Decision is the outcome of matching a single request.  It is ephemeral,
// scoped to one Decide call.
type Decision struct {
	// Rule is the rule that produced the decision, nil when no rule
	// matched.
	Rule *rules.Rule

	// List is the name of the rule set the matched rule came from.
	List string

	// Block is true when the request should be blocked.
	Block bool

	// MalformedURL is true when the request URL could not be picked apart.
	// Such requests fail open: legitimate navigation must not break on an
	// internal encoding edge case, so Block is always false here.
	MalformedURL bool
}
