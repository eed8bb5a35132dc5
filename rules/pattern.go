package rules

import (
	"regexp"
	"strings"
)

// Regular expression fragments the pattern grammar compiles to.
const (
	// regexHostAnchor corresponds to the "||" anchor: the scheme, an
	// optional subdomain prefix.
	regexHostAnchor = `^(http|https|ws|wss)://([a-z0-9-_.]+\.)?`

	// regexSeparator corresponds to the '^' token: any character that is
	// not a letter, a digit, or one of "_-.%", or the end of the URL.
	regexSeparator = `([^ a-zA-Z0-9.%_-]|$)`

	// regexAnyCharacter corresponds to the '*' wildcard.
	regexAnyCharacter = ".*"
)

// regexSpecials are the characters that must be escaped when a pattern is
// compiled to a regular expression.
const regexSpecials = `\.+?()[]{}$|`

// Match checks if this filtering rule matches the specified request.  All
// option qualifiers must be satisfied along with the pattern itself.
func (f *Rule) Match(r *Request) (ok bool) {
	switch {
	case
		!f.matchShortcut(r),
		f.IsOptionEnabled(OptionThirdParty) && !r.ThirdParty,
		f.IsOptionDisabled(OptionThirdParty) && r.ThirdParty,
		!f.matchResourceType(r.ResourceType),
		!f.matchSourceDomain(r.SourceHostname),
		!f.matchPattern(r):
		return false
	}

	return true
}

// matchShortcut quickly rejects URLs that cannot possibly match: the
// shortcut is a literal fragment of the pattern, so it must be a substring
// of the URL.
func (f *Rule) matchShortcut(r *Request) (ok bool) {
	return f.Shortcut == "" || strings.Contains(r.URLLowerCase, f.Shortcut)
}

// matchResourceType checks the request type against the permitted and
// restricted type masks.  Zero permitted mask means all types.
func (f *Rule) matchResourceType(t ResourceType) (ok bool) {
	if f.permittedTypes != 0 && (f.permittedTypes&t) != t {
		return false
	}

	if f.restrictedTypes != 0 && (f.restrictedTypes&t) == t {
		return false
	}

	return true
}

// matchSourceDomain checks the requesting domain against the $domain
// modifier.
func (f *Rule) matchSourceDomain(domain string) (ok bool) {
	if len(f.permittedDomains) == 0 && len(f.restrictedDomains) == 0 {
		return true
	}

	if len(f.restrictedDomains) > 0 && isDomainOrSubdomainOfAny(domain, f.restrictedDomains) {
		return false
	}

	if len(f.permittedDomains) > 0 && !isDomainOrSubdomainOfAny(domain, f.permittedDomains) {
		return false
	}

	return true
}

// matchPattern matches the pattern itself against the request.  Bare
// host-anchored hostnames compare against the request hostname directly and
// never touch the regexp engine.
func (f *Rule) matchPattern(r *Request) (ok bool) {
	if f.Hostname != "" {
		return isHostnameMatch(r.Hostname, f.Hostname)
	}

	switch f.preparePattern() {
	case patternInvalid:
		return false
	case patternMatchesAll:
		return true
	}

	if f.shouldMatchHostname(r) {
		return f.regex.MatchString(r.Hostname)
	}

	return f.regex.MatchString(r.URL)
}

// preparePattern results.
const (
	patternInvalid = iota - 1
	patternMatchesAll
	patternCompiled
)

// preparePattern lazily compiles the pattern to a regular expression.  The
// result is memoized, so the compilation cost is paid at most once per
// rule, and only for rules that survive the cheap checks.
func (f *Rule) preparePattern() (res int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.regex != nil:
		return patternCompiled
	case f.invalid:
		return patternInvalid
	}

	pattern := f.regexText()
	if pattern == regexAnyCharacter {
		return patternMatchesAll
	}

	if !f.IsOptionEnabled(OptionMatchCase) {
		pattern = "(?i)" + pattern
	}

	var err error
	if f.regex, err = regexp.Compile(pattern); err != nil {
		f.invalid = true

		return patternInvalid
	}

	return patternCompiled
}

// regexText converts the stored pattern and anchors to regular-expression
// text.  Literal regex rules are returned as is.
func (f *Rule) regexText() (pattern string) {
	if f.isRegex {
		return f.Pattern
	}

	if f.Pattern == maskAnyCharacter && f.Anchors == 0 {
		return regexAnyCharacter
	}

	var sb strings.Builder
	if f.Anchors&AnchorHost != 0 {
		sb.WriteString(regexHostAnchor)
	} else if f.Anchors&AnchorStart != 0 {
		sb.WriteByte('^')
	}

	for i := 0; i < len(f.Pattern); i++ {
		switch c := f.Pattern[i]; c {
		case '*':
			sb.WriteString(regexAnyCharacter)
		case byte(maskSeparator):
			sb.WriteString(regexSeparator)
		default:
			if strings.IndexByte(regexSpecials, c) != -1 {
				sb.WriteByte('\\')
			}
			sb.WriteByte(c)
		}
	}

	if f.Anchors&AnchorEnd != 0 {
		sb.WriteByte('$')
	}

	return sb.String()
}

// shouldMatchHostname reports whether the pattern should be matched against
// the bare hostname instead of the full URL.  This is the case for
// hostname-only requests (SNI, CONNECT) unless the pattern clearly targets
// a full URL.
func (f *Rule) shouldMatchHostname(r *Request) (ok bool) {
	if !r.IsHostnameRequest {
		return false
	}

	switch {
	case
		f.Anchors&AnchorStart != 0,
		strings.HasPrefix(f.Pattern, "http://"),
		strings.HasPrefix(f.Pattern, "https://"),
		strings.HasPrefix(f.Pattern, "ws://"),
		strings.HasPrefix(f.Pattern, "wss://"),
		strings.HasPrefix(f.Pattern, "://"):
		return false
	}

	return true
}

// findShortcut searches for the longest substring of the pattern that does
// not contain any of the special characters '*', '^' and '|'.
func findShortcut(pattern string) (shortcut string) {
	for pattern != "" {
		i := strings.IndexAny(pattern, "*^|")
		if i == -1 {
			if len(pattern) > len(shortcut) {
				return pattern
			}

			break
		}

		if i > len(shortcut) {
			shortcut = pattern[:i]
		}
		pattern = pattern[i+1:]
	}

	return shortcut
}

// regexShortcutSpecials match the regular-expression metacharacters that
// terminate a literal run.
var regexShortcutSpecials = regexp.MustCompile(`[\\^$*+?.()|[\]{}]`)

// findRegexShortcut searches for the longest literal run inside a regular
// expression.  Expressions using lookaround-like constructs or '?' are too
// tricky to mine, an empty shortcut sends the rule to the slow bucket.
func findRegexShortcut(pattern string) (shortcut string) {
	if strings.Contains(pattern, "?") {
		return ""
	}

	// Character classes and groups may contain literal runs that are not
	// actually required to appear in the URL, so drop their contents
	// entirely before searching.
	if strings.ContainsAny(pattern, "[({") {
		return ""
	}

	for _, part := range regexShortcutSpecials.Split(pattern, -1) {
		if len(part) > len(shortcut) {
			shortcut = part
		}
	}

	return shortcut
}
