package filterlist

import (
	"bufio"
	"io"

	"github.com/Sayan314159/Braver/rules"
)

// RuleScanner implements an io.Reader-based scanner over the rules of a
// single list.  Lines that do not parse are counted and skipped, never
// failing the scan: one bad rule must not block the rest of the list.
type RuleScanner struct {
	reader *bufio.Reader

	// listID is the ID of the list whose rules are scanned.
	listID int

	// currentRule is the most recently scanned rule.
	currentRule *rules.Rule

	// currentRuleIdx is the byte offset of the current rule's line.
	currentRuleIdx int

	// currentPos is the byte offset of the line about to be read.
	currentPos int

	// skipped counts the lines rejected by the parser.  Blank lines and
	// comments are not rejections and are not counted.
	skipped int
}

// NewRuleScanner creates a scanner of the reader's contents for the list
// with the given ID.
func NewRuleScanner(reader io.Reader, listID int) (sc *RuleScanner) {
	return &RuleScanner{
		reader: bufio.NewReader(reader),
		listID: listID,
	}
}

// Scan advances to the next usable rule.  It returns false when the list is
// exhausted.
func (s *RuleScanner) Scan() (ok bool) {
	for {
		line, err := s.reader.ReadString('\n')
		if line == "" && err != nil {
			return false
		}

		lineIdx := s.currentPos

		// Advance by the raw line length, terminators included, so that
		// the reported offsets stay exact for CRLF lists too.
		s.currentPos += len(line)

		rule, perr := rules.ParseRule(line, s.listID)
		if perr != nil {
			s.skipped++

			continue
		}

		if rule == nil {
			// Blank line or comment.
			continue
		}

		s.currentRule = rule
		s.currentRuleIdx = lineIdx

		return true
	}
}

// Rule returns the most recently scanned rule and the byte offset of its
// line within the list.
func (s *RuleScanner) Rule() (r *rules.Rule, idx int) {
	return s.currentRule, s.currentRuleIdx
}

// Skipped returns the number of lines rejected so far.
func (s *RuleScanner) Skipped() (n int) {
	return s.skipped
}
