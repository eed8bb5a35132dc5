// Package filterlist contains the rule-list abstractions: serialized lists
// of filtering rules, scanners over them, and the storage that addresses
// rules by a compact int64 index.
package filterlist

import (
	"strings"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/Sayan314159/Braver/rules"
)

// ErrRuleRetrieval signals that the storage index does not address a rule.
const ErrRuleRetrieval errors.Error = "cannot retrieve the rule"

// RuleList represents a set of filtering rules in their serialized form.
type RuleList interface {
	// GetID returns the rule list identifier.
	GetID() (id int)

	// NewScanner creates a new scanner that reads the list contents.
	NewScanner() (sc *RuleScanner)

	// RetrieveRule parses the rule at the specified index.  The index is a
	// byte offset of the rule line, as reported by the scanner.
	RetrieveRule(ruleIdx int) (r *rules.Rule, err error)

	// Close closes the rule list.
	Close() (err error)
}

// StringRuleList is a rule list backed by a string: the engine consumes raw
// filter-list text and leaves fetching and persistence to the host.
type StringRuleList struct {
	// RulesText is the filter-list text, one rule per line.
	RulesText string

	// ID is the rule list identifier.
	ID int
}

// type check
var _ RuleList = (*StringRuleList)(nil)

// GetID implements the [RuleList] interface for *StringRuleList.
func (l *StringRuleList) GetID() (id int) {
	return l.ID
}

// NewScanner implements the [RuleList] interface for *StringRuleList.
func (l *StringRuleList) NewScanner() (sc *RuleScanner) {
	return NewRuleScanner(strings.NewReader(l.RulesText), l.ID)
}

// RetrieveRule implements the [RuleList] interface for *StringRuleList.
func (l *StringRuleList) RetrieveRule(ruleIdx int) (r *rules.Rule, err error) {
	if ruleIdx < 0 || ruleIdx >= len(l.RulesText) {
		return nil, ErrRuleRetrieval
	}

	endOfLine := strings.IndexByte(l.RulesText[ruleIdx:], '\n')
	if endOfLine == -1 {
		endOfLine = len(l.RulesText)
	} else {
		endOfLine += ruleIdx
	}

	line := strings.TrimSpace(l.RulesText[ruleIdx:endOfLine])
	if line == "" {
		return nil, ErrRuleRetrieval
	}

	return rules.ParseRule(line, l.ID)
}

// Close implements the [RuleList] interface for *StringRuleList.
func (l *StringRuleList) Close() (err error) {
	return nil
}
