// Package rules implements the filter-rule grammar: parsing a single line of
// filter-list text into an immutable Rule and matching rules against request
// descriptors.
package rules

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/Sayan314159/Braver/internal/urlutil"
)

const (
	maskException    = "@@"
	maskRegexRule    = "/"
	maskHostAnchor   = "||"
	maskPipe         = "|"
	maskAnyCharacter = "*"
	maskSeparator    = '^'

	optionsDelimiter = '$'
	escapeCharacter  = '\\'
)

// Parsing errors.  A rejected line never aborts the rest of the list, the
// scanner records a skip and goes on.
const (
	// ErrUnsupportedOption is returned when a rule carries an option key
	// that is not in the recognized set.  The whole rule is rejected:
	// applying a rule with a misunderstood modifier risks under-blocking.
	ErrUnsupportedOption errors.Error = "unsupported rule option"

	// ErrUnsupportedSyntax is returned for rule forms the engine does not
	// implement, e.g. cosmetic rules or regular expressions that do not
	// compile.
	ErrUnsupportedSyntax errors.Error = "unsupported rule syntax"

	// ErrTooWideRule is returned for patterns that would match almost every
	// URL and carry no domain or resource-type restriction.
	ErrTooWideRule errors.Error = "the rule is too wide, add domain or type restrictions or make it more specific"
)

// cosmeticMarkers are the markers of cosmetic (element-hiding and scriptlet)
// rules.  Cosmetic filtering is out of scope, such rules are rejected
// explicitly so that they are counted as skips and never misparsed as
// network patterns.
var cosmeticMarkers = []string{"##", "#@#", "#?#", "#@?#", "#%#", "#@%#", "$$", "$@$"}

// Kind is the closed set of rule kinds.  The matcher handles it
// exhaustively.
type Kind int

const (
	// KindDomainBlock is a blocking rule whose pattern is a bare
	// host-anchored hostname, e.g. "||ads.example.com^".
	KindDomainBlock Kind = iota

	// KindPatternBlock is any other blocking rule: substring, wildcard or
	// regular-expression patterns.
	KindPatternBlock

	// KindException is an allow rule ("@@" prefix).  A matching exception
	// always overrides matching block rules.
	KindException
)

// String implements the fmt.Stringer interface for Kind.
func (k Kind) String() (s string) {
	switch k {
	case KindDomainBlock:
		return "domain"
	case KindPatternBlock:
		return "pattern"
	case KindException:
		return "exception"
	default:
		return fmt.Sprintf("!bad_kind_%d", k)
	}
}

// Anchor is a bitmask of pattern alignment constraints.  Anchor tokens are
// stripped from the stored pattern during parsing.
type Anchor uint8

const (
	// AnchorHost requires the pattern to align with the start of the
	// request hostname ("||" prefix).
	AnchorHost Anchor = 1 << iota

	// AnchorStart requires the pattern to align with the start of the URL
	// ("|" prefix).
	AnchorStart

	// AnchorEnd requires the pattern to align with the end of the URL
	// ("|" suffix).
	AnchorEnd
)

// Rule is a single compiled filter directive.  A Rule is immutable once
// constructed, the only internal mutation is the lazy memoization of the
// compiled regular expression.
type Rule struct {
	// Text is the original rule text.
	Text string

	// Pattern is the normalized match text with anchor tokens stripped.
	// It is never empty.
	Pattern string

	// Shortcut is the longest substring of the pattern without special
	// characters, lowercased.  Used by the shortcut lookup table.
	Shortcut string

	// Hostname is non-empty if the pattern is a bare host-anchored
	// hostname.  Such rules are eligible for the hostname trie.
	Hostname string

	// Kind is the rule kind.
	Kind Kind

	// Anchors is the set of alignment constraints.
	Anchors Anchor

	// ListID is the identifier of the filter list this rule belongs to.
	ListID int

	permittedDomains  []string
	restrictedDomains []string

	permittedTypes  ResourceType
	restrictedTypes ResourceType

	enabledOptions  RuleOption
	disabledOptions RuleOption

	// mu protects regex and invalid.
	mu      sync.Mutex
	regex   *regexp.Regexp
	invalid bool

	// isRegex is true when Pattern is a literal regular expression.
	isRegex bool
}

// ParseRule parses a single line of filter-list text.  Blank lines and
// comments yield (nil, nil): not a rule, not an error.  Unsupported or
// malformed lines return a non-nil error wrapping one of the parsing
// errors above.
func ParseRule(line string, listID int) (r *Rule, err error) {
	line = strings.TrimSpace(line)

	if line == "" || isComment(line) {
		return nil, nil
	}

	if isCosmetic(line) {
		return nil, fmt.Errorf("cosmetic rule %q: %w", line, ErrUnsupportedSyntax)
	}

	pattern, options, exception, err := parseRuleText(line)
	if err != nil {
		return nil, err
	}

	r = &Rule{
		Text:   line,
		ListID: listID,
	}

	err = r.loadOptions(options)
	if err != nil {
		return nil, err
	}

	err = r.loadPattern(pattern)
	if err != nil {
		return nil, err
	}

	switch {
	case exception:
		r.Kind = KindException
	case r.Hostname != "":
		r.Kind = KindDomainBlock
	default:
		r.Kind = KindPatternBlock
	}

	r.loadShortcut()

	return r, nil
}

// String returns the original rule text.
func (f *Rule) String() (s string) {
	return f.Text
}

// PermittedDomains returns the list of source domains from the $domain
// modifier that this rule is limited to.
func (f *Rule) PermittedDomains() (domains []string) {
	return f.permittedDomains
}

// isComment checks if the line is a comment.  '#' is only a comment marker
// when it does not start a cosmetic marker.
func isComment(line string) (ok bool) {
	if line[0] == '!' {
		return true
	}

	if line[0] == '#' {
		if len(line) == 1 {
			return true
		}

		for _, marker := range cosmeticMarkers {
			if strings.HasPrefix(line, marker) {
				return false
			}
		}

		return true
	}

	return false
}

// isCosmetic checks if the line contains a cosmetic rule marker.
func isCosmetic(line string) (ok bool) {
	for _, marker := range cosmeticMarkers {
		if idx := strings.Index(line, marker); idx >= 0 {
			// "$$" inside an option list is not a cosmetic marker, only
			// markers that follow the domain part directly count.
			if marker[0] == '$' && strings.ContainsRune(line[:idx], optionsDelimiter) {
				continue
			}

			return true
		}
	}

	return false
}

// loadPattern normalizes the raw pattern: detects regular-expression rules,
// strips anchor tokens, validates the result, and derives the bare hostname
// for host-anchored rules.
func (f *Rule) loadPattern(pattern string) (err error) {
	if len(pattern) > 1 &&
		strings.HasPrefix(pattern, maskRegexRule) &&
		strings.HasSuffix(pattern, maskRegexRule) {
		return f.loadRegexPattern(pattern[1 : len(pattern)-1])
	}

	if strings.HasPrefix(pattern, maskHostAnchor) {
		f.Anchors |= AnchorHost
		pattern = pattern[len(maskHostAnchor):]
	} else if strings.HasPrefix(pattern, maskPipe) {
		f.Anchors |= AnchorStart
		pattern = pattern[len(maskPipe):]
	}

	if strings.HasSuffix(pattern, maskPipe) {
		f.Anchors |= AnchorEnd
		pattern = pattern[:len(pattern)-len(maskPipe)]
	}

	// "example.org/*" matches exactly the same requests as "example.org^".
	if strings.HasSuffix(pattern, "/*") {
		pattern = pattern[:len(pattern)-len("/*")] + string(maskSeparator)
	}

	if len(pattern) < 3 {
		if !f.isRestricted() {
			return fmt.Errorf("pattern %q: %w", f.Text, ErrTooWideRule)
		}

		if pattern == "" {
			// Keep the pattern non-empty, the restrictions carry all the
			// selectivity.
			pattern = maskAnyCharacter
		}
	}

	f.Pattern = pattern
	f.Hostname = patternHostname(pattern, f.Anchors)

	return nil
}

// loadRegexPattern validates and stores a literal regular expression
// pattern.  The expression is compiled eagerly: the standard regexp package
// guarantees linear-time matching, but a non-compiling expression must
// reject the rule rather than surface at match time.
func (f *Rule) loadRegexPattern(pattern string) (err error) {
	if pattern == "" {
		return fmt.Errorf("empty regex in %q: %w", f.Text, ErrUnsupportedSyntax)
	}

	// Options are loaded before the pattern, so $match-case is already
	// known here.
	expr := pattern
	if !f.IsOptionEnabled(OptionMatchCase) {
		expr = "(?i)" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("regex in %q: %w", f.Text, ErrUnsupportedSyntax)
	}

	f.Pattern = pattern
	f.isRegex = true
	f.regex = re

	return nil
}

// isRestricted reports whether the rule is limited by the $domain modifier
// or by permitted resource types, which makes very short patterns
// acceptable.
func (f *Rule) isRestricted() (ok bool) {
	return len(f.permittedDomains) > 0 || f.permittedTypes != 0
}

// patternHostname returns the bare hostname if the pattern is a plain
// host-anchored hostname, optionally with a trailing separator, and an
// empty string otherwise.
func patternHostname(pattern string, anchors Anchor) (hostname string) {
	if anchors&AnchorHost == 0 || anchors&AnchorEnd != 0 {
		return ""
	}

	host := strings.TrimSuffix(pattern, string(maskSeparator))
	if strings.ContainsRune(host, maskSeparator) {
		return ""
	}

	if !urlutil.IsDomainName(host) {
		return ""
	}

	return strings.ToLower(host)
}

// loadShortcut extracts the longest substring of the pattern that contains
// no special characters.  Shortcuts shorter than two characters are useless
// for lookup and are dropped.
func (f *Rule) loadShortcut() {
	var shortcut string
	if f.isRegex {
		shortcut = findRegexShortcut(f.Pattern)
	} else {
		shortcut = findShortcut(f.Pattern)
	}

	if len(shortcut) > 1 {
		f.Shortcut = strings.ToLower(shortcut)
	}
}

// parseRuleText splits a rule into the pattern part, the options part, and
// the exception marker.  The options delimiter is searched from the end so
// that '$' characters inside the pattern survive; an escaped delimiter
// ("\$") is not a split point.
func parseRuleText(ruleText string) (pattern, options string, exception bool, err error) {
	startIndex := 0
	if strings.HasPrefix(ruleText, maskException) {
		exception = true
		startIndex = len(maskException)
	}

	if len(ruleText) <= startIndex {
		return "", "", exception, fmt.Errorf("the rule %s is too short", ruleText)
	}

	pattern = ruleText[startIndex:]

	// Regular-expression rules own every character between the slashes,
	// including '$'.
	if len(pattern) > 1 &&
		strings.HasPrefix(pattern, maskRegexRule) &&
		strings.HasSuffix(pattern, maskRegexRule) {
		return pattern, "", exception, nil
	}

	foundEscaped := false
	for i := len(ruleText) - 2; i >= startIndex; i-- {
		if ruleText[i] != optionsDelimiter {
			continue
		}

		if i > startIndex && ruleText[i-1] == escapeCharacter {
			foundEscaped = true

			continue
		}

		pattern = ruleText[startIndex:i]
		options = ruleText[i+1:]

		if foundEscaped {
			options = strings.ReplaceAll(options, `\$`, "$")
		}

		break
	}

	// The escape only exists to survive the delimiter search, the stored
	// pattern must carry the plain '$'.
	if strings.Contains(pattern, `\$`) {
		pattern = strings.ReplaceAll(pattern, `\$`, "$")
	}

	return pattern, options, exception, nil
}
