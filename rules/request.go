package rules

import (
	"strings"

	"github.com/Sayan314159/Braver/internal/urlutil"
	"golang.org/x/net/publicsuffix"
)

// maxURLLength limits the URL length to 4 KiB.  URLs longer than a megabyte
// exist in the wild, and there is no point in scanning the whole thing.
const maxURLLength = 4 * 1024

// Request is the descriptor of a single intercepted network request.  It is
// constructed fresh per request by the host's interception hook and is
// never retained by the engine.
type Request struct {
	// URL is the full request URL.
	URL string

	// URLLowerCase is the full request URL in lower case.
	URLLowerCase string

	// Hostname is the hostname extracted from URL.
	Hostname string

	// Domain is the effective TLD of the request hostname plus one label.
	Domain string

	// SourceURL is the full URL of the requesting page.
	SourceURL string

	// SourceHostname is the hostname of the requesting page.
	SourceHostname string

	// SourceDomain is the effective TLD of the source hostname plus one
	// label.
	SourceDomain string

	// ResourceType is the type of the requested resource.
	ResourceType ResourceType

	// ThirdParty is true when the request target and the requesting page
	// belong to different registrable domains.
	ThirdParty bool

	// IsHostnameRequest means that the request is for a bare hostname and
	// not for a URL, e.g. an SNI or HTTP CONNECT interception.
	IsHostnameRequest bool
}

// NewRequest creates a new request descriptor and derives all the fields
// the matcher needs: hostnames, registrable domains, and the third-party
// bit.
func NewRequest(url, sourceURL string, resourceType ResourceType) (r *Request) {
	if len(url) > maxURLLength {
		url = url[:maxURLLength]
	}
	if len(sourceURL) > maxURLLength {
		sourceURL = sourceURL[:maxURLLength]
	}

	r = &Request{
		ResourceType: resourceType,

		URL:          url,
		URLLowerCase: strings.ToLower(url),
		Hostname:     strings.ToLower(urlutil.ExtractHostname(url)),

		SourceURL:      sourceURL,
		SourceHostname: strings.ToLower(urlutil.ExtractHostname(sourceURL)),
	}

	r.Domain = registrableDomain(r.Hostname)
	r.SourceDomain = registrableDomain(r.SourceHostname)

	if r.SourceDomain != "" && r.SourceDomain != r.Domain {
		r.ThirdParty = true
	}

	return r
}

// NewRequestForHostname creates a request descriptor for matching a bare
// hostname.  It uses "http://" as the scheme and TypeDocument as the
// resource type.
func NewRequestForHostname(hostname string) (r *Request) {
	// Avoid fmt.Sprintf and net/url here, this constructor sits on the
	// hot path of hostname-level interception.
	urlStr := "http://" + hostname

	r = &Request{
		ResourceType: TypeDocument,

		URL:          urlStr,
		URLLowerCase: urlStr,
		Hostname:     hostname,

		IsHostnameRequest: true,
	}

	r.Domain = registrableDomain(hostname)

	return r
}

// registrableDomain returns the effective TLD plus one label, falling back
// to the hostname itself when the suffix cannot be determined.  It avoids
// publicsuffix.EffectiveTLDPlusOne which allocates an error on that
// fallback path.
func registrableDomain(hostname string) (domain string) {
	if hostname == "" {
		return ""
	}

	if hostname[0] == '.' || hostname[len(hostname)-1] == '.' {
		return hostname
	}

	suffix, _ := publicsuffix.PublicSuffix(hostname)

	i := len(hostname) - len(suffix) - 1
	if i < 0 || hostname[i] != '.' {
		return hostname
	}

	return hostname[1+strings.LastIndex(hostname[:i], "."):]
}
