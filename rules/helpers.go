package rules

import (
	"strings"

	"github.com/Sayan314159/Braver/internal/urlutil"
	"golang.org/x/net/publicsuffix"
)

// splitWithEscape splits str by sep unless sep is escaped with esc.  Empty
// tokens are dropped.
func splitWithEscape(str string, sep, esc byte) (parts []string) {
	if str == "" {
		return nil
	}

	var sb strings.Builder
	escaped := false
	for i := 0; i < len(str); i++ {
		c := str[i]

		switch {
		case c == esc && !escaped:
			escaped = true
		case c == sep && !escaped:
			if sb.Len() > 0 {
				parts = append(parts, sb.String())
				sb.Reset()
			}
		default:
			if escaped && c != sep {
				sb.WriteByte(esc)
			}
			escaped = false
			sb.WriteByte(c)
		}
	}

	if sb.Len() > 0 {
		parts = append(parts, sb.String())
	}

	return parts
}

// isValidDomainPattern reports whether d is acceptable inside a $domain
// modifier: either a plain domain name or a "domain.*" wildcard-TLD
// pattern.
func isValidDomainPattern(d string) (ok bool) {
	if strings.HasSuffix(d, ".*") {
		return len(d) > len(".*")
	}

	return urlutil.IsDomainName(d)
}

// isHostnameMatch reports whether host equals ruleHost or is its subdomain.
// The comparison is label-aligned: "notads.example.com" never matches the
// rule hostname "ads.example.com".
func isHostnameMatch(host, ruleHost string) (ok bool) {
	return host == ruleHost || strings.HasSuffix(host, "."+ruleHost)
}

// isDomainOrSubdomainOfAny checks if domain is one of domains or their
// subdomain.  A "name.*" entry matches "name" directly under any public
// suffix.
func isDomainOrSubdomainOfAny(domain string, domains []string) (ok bool) {
	for _, d := range domains {
		if strings.HasSuffix(d, ".*") {
			if matchesWildcardTLD(domain, d) {
				return true
			}

			continue
		}

		if isHostnameMatch(domain, d) {
			return true
		}
	}

	return false
}

// matchesWildcardTLD checks domain against a "name.*" pattern: the domain
// must be "name.SUFFIX" or a subdomain of it, where SUFFIX is an ICANN
// public suffix.
func matchesWildcardTLD(domain, pattern string) (ok bool) {
	// "name." including the trailing dot.
	prefix := pattern[:len(pattern)-1]

	if !strings.HasPrefix(domain, prefix) && !strings.Contains(domain, "."+prefix) {
		return false
	}

	suffix, icann := publicsuffix.PublicSuffix(domain)
	if suffix == "" || !icann {
		return false
	}

	return strings.HasSuffix(domain, prefix+suffix)
}
