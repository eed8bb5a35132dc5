// Package urlutil contains allocation-free helpers for picking apart request
// URLs and validating hostnames.  The matching hot path cannot afford
// net/url parsing.
package urlutil

import "strings"

// maxHostnameLen is the maximum length of a hostname including dots as per
// RFC 1035.
const maxHostnameLen = 253

// maxLabelLen is the maximum length of a single hostname label.
const maxLabelLen = 63

// ExtractHostname quickly retrieves the hostname from a URL without parsing
// the whole thing.  It returns an empty string if there is no way to tell
// where the hostname starts.
func ExtractHostname(url string) (hostname string) {
	if url == "" {
		return ""
	}

	firstIdx := strings.Index(url, "//")
	if firstIdx == -1 {
		// Non-hierarchical URL (e.g. stun: or mailto:), the hostname
		// follows the scheme directly.
		firstIdx = strings.Index(url, ":")
		if firstIdx == -1 {
			return ""
		}

		firstIdx++
	} else {
		firstIdx += 2
	}

	nextIdx := len(url)
	for i := firstIdx; i < len(url); i++ {
		c := url[i]
		if c == '/' || c == ':' || c == '?' || c == '#' {
			nextIdx = i

			break
		}
	}

	if nextIdx <= firstIdx {
		return ""
	}

	return url[firstIdx:nextIdx]
}

// IsDomainName reports whether name is a valid domain name consisting of at
// least two labels.  Labels must be 1 to 63 characters of letters, digits
// and hyphens, must not start or end with a hyphen, and the TLD must be
// either alphabetic or an "xn--" punycode label.
func IsDomainName(name string) (ok bool) {
	if len(name) == 0 || len(name) > maxHostnameLen {
		return false
	}

	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return false
	}

	for _, label := range labels {
		if !isValidLabel(label) {
			return false
		}
	}

	return isValidTLD(labels[len(labels)-1])
}

// isValidLabel reports whether a single hostname label is valid.
func isValidLabel(label string) (ok bool) {
	if len(label) == 0 || len(label) > maxLabelLen {
		return false
	}

	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}

	for i := 0; i < len(label); i++ {
		c := label[i]
		if !isAlpha(c) && !(c >= '0' && c <= '9') && c != '-' {
			return false
		}
	}

	return true
}

// isValidTLD reports whether the last label of a hostname is acceptable:
// either all letters, or an IDN label with the "xn--" prefix.
func isValidTLD(label string) (ok bool) {
	if len(label) < 2 {
		return false
	}

	if strings.HasPrefix(label, "xn--") {
		return len(label) > len("xn--")
	}

	for i := 0; i < len(label); i++ {
		if !isAlpha(label[i]) {
			return false
		}
	}

	return true
}

func isAlpha(c byte) (ok bool) {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
