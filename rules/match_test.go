package rules_test

import (
	"testing"

	"github.com/Sayan314159/Braver/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRule is a helper that parses a rule and fails the test on error.
func newTestRule(t *testing.T, line string) (r *rules.Rule) {
	t.Helper()

	r, err := rules.ParseRule(line, testListID)
	require.NoError(t, err)
	require.NotNil(t, r)

	return r
}

func TestRuleMatch_hostAnchor(t *testing.T) {
	t.Parallel()

	f := newTestRule(t, "||ads.example.com^")

	// The exact hostname.
	r := rules.NewRequest("http://ads.example.com/banner.png", "", rules.TypeImage)
	assert.True(t, f.Match(r))

	// Any subdomain.
	r = rules.NewRequest("https://sub.ads.example.com/x", "", rules.TypeImage)
	assert.True(t, f.Match(r))

	// Not a label-aligned suffix.
	r = rules.NewRequest("http://notads.example.com/", "", rules.TypeImage)
	assert.False(t, f.Match(r))

	// The hostname appearing in the path does not count.
	r = rules.NewRequest("http://example.com/ads.example.com/x", "", rules.TypeImage)
	assert.False(t, f.Match(r))

	// Hostnames match case-insensitively.
	r = rules.NewRequest("http://ADS.EXAMPLE.COM/banner.png", "", rules.TypeImage)
	assert.True(t, f.Match(r))
}

func TestRuleMatch_separator(t *testing.T) {
	t.Parallel()

	f := newTestRule(t, "||example.org^")

	// '^' matches the end of the URL and any non-URL character.
	r := rules.NewRequest("http://example.org", "", rules.TypeDocument)
	assert.True(t, f.Match(r))

	r = rules.NewRequest("http://example.org/path", "", rules.TypeDocument)
	assert.True(t, f.Match(r))

	r = rules.NewRequest("http://example.org:8080/", "", rules.TypeDocument)
	assert.True(t, f.Match(r))
}

func TestRuleMatch_startEndAnchors(t *testing.T) {
	t.Parallel()

	f := newTestRule(t, "|https://example.org/banner.png|")

	r := rules.NewRequest("https://example.org/banner.png", "", rules.TypeImage)
	assert.True(t, f.Match(r))

	r = rules.NewRequest("https://example.org/banner.png?v=2", "", rules.TypeImage)
	assert.False(t, f.Match(r))

	r = rules.NewRequest("http://proxy.test/?u=https://example.org/banner.png", "", rules.TypeImage)
	assert.False(t, f.Match(r))
}

func TestRuleMatch_substringAndWildcard(t *testing.T) {
	t.Parallel()

	f := newTestRule(t, "/banner/*/img^")

	r := rules.NewRequest("http://example.org/banner/foo/img", "", rules.TypeImage)
	assert.True(t, f.Match(r))

	r = rules.NewRequest("http://example.org/banner/foo/bar/img?param", "", rules.TypeImage)
	assert.True(t, f.Match(r))

	r = rules.NewRequest("http://example.org/banner/img", "", rules.TypeImage)
	assert.False(t, f.Match(r))

	r = rules.NewRequest("http://example.org/banner/foo/imgraph", "", rules.TypeImage)
	assert.False(t, f.Match(r))
}

func TestRuleMatch_regex(t *testing.T) {
	t.Parallel()

	f := newTestRule(t, `/banner\d+/`)

	r := rules.NewRequest("http://example.org/banner123", "", rules.TypeImage)
	assert.True(t, f.Match(r))

	r = rules.NewRequest("http://example.org/banners", "", rules.TypeImage)
	assert.False(t, f.Match(r))
}

func TestRuleMatch_thirdParty(t *testing.T) {
	t.Parallel()

	f := newTestRule(t, "||tracker.example^$third-party")

	// Cross-site request.
	r := rules.NewRequest("https://tracker.example/pixel.js", "https://site.example/page", rules.TypeScript)
	assert.True(t, f.Match(r))

	// Same registrable domain.
	r = rules.NewRequest("https://tracker.example/pixel.js", "https://tracker.example/page", rules.TypeScript)
	assert.False(t, f.Match(r))

	// Subdomain of the same registrable domain is still first-party.
	r = rules.NewRequest("https://sub.tracker.example/pixel.js", "https://tracker.example/page", rules.TypeScript)
	assert.False(t, f.Match(r))

	// The mirror: $first-party.
	f = newTestRule(t, "||tracker.example^$first-party")

	r = rules.NewRequest("https://tracker.example/pixel.js", "https://tracker.example/page", rules.TypeScript)
	assert.True(t, f.Match(r))

	r = rules.NewRequest("https://tracker.example/pixel.js", "https://site.example/page", rules.TypeScript)
	assert.False(t, f.Match(r))
}

func TestRuleMatch_matchCase(t *testing.T) {
	t.Parallel()

	f := newTestRule(t, "/BannerAd$match-case")

	r := rules.NewRequest("http://example.org/BannerAd.png", "", rules.TypeImage)
	assert.True(t, f.Match(r))

	r = rules.NewRequest("http://example.org/bannerad.png", "", rules.TypeImage)
	assert.False(t, f.Match(r))

	// Literal regex rules honor $match-case too.
	f = newTestRule(t, `/BannerAd\d+/$match-case`)

	r = rules.NewRequest("http://example.org/BannerAd123", "", rules.TypeImage)
	assert.True(t, f.Match(r))

	r = rules.NewRequest("http://example.org/bannerad123", "", rules.TypeImage)
	assert.False(t, f.Match(r))

	// Without the option regex rules stay case-insensitive.
	f = newTestRule(t, `/BannerAd\d+/`)

	r = rules.NewRequest("http://example.org/bannerad123", "", rules.TypeImage)
	assert.True(t, f.Match(r))
}

func TestRuleMatch_resourceTypes(t *testing.T) {
	t.Parallel()

	f := newTestRule(t, "||example.org^$script,image")

	r := rules.NewRequest("http://example.org/a.js", "", rules.TypeScript)
	assert.True(t, f.Match(r))

	r = rules.NewRequest("http://example.org/a.png", "", rules.TypeImage)
	assert.True(t, f.Match(r))

	r = rules.NewRequest("http://example.org/a.css", "", rules.TypeStylesheet)
	assert.False(t, f.Match(r))

	// Negated type: everything except scripts.
	f = newTestRule(t, "||example.org^$~script")

	r = rules.NewRequest("http://example.org/a.js", "", rules.TypeScript)
	assert.False(t, f.Match(r))

	r = rules.NewRequest("http://example.org/a.png", "", rules.TypeImage)
	assert.True(t, f.Match(r))
}

func TestRuleMatch_sourceDomains(t *testing.T) {
	t.Parallel()

	f := newTestRule(t, "||ads.example.com^$domain=news.example|blog.example")

	r := rules.NewRequest("http://ads.example.com/b.png", "https://news.example/article", rules.TypeImage)
	assert.True(t, f.Match(r))

	// Subdomains of a permitted domain are permitted.
	r = rules.NewRequest("http://ads.example.com/b.png", "https://m.news.example/article", rules.TypeImage)
	assert.True(t, f.Match(r))

	r = rules.NewRequest("http://ads.example.com/b.png", "https://other.example/article", rules.TypeImage)
	assert.False(t, f.Match(r))

	// No source at all.
	r = rules.NewRequest("http://ads.example.com/b.png", "", rules.TypeImage)
	assert.False(t, f.Match(r))

	// Restricted domain.
	f = newTestRule(t, "||ads.example.com^$domain=~news.example")

	r = rules.NewRequest("http://ads.example.com/b.png", "https://news.example/article", rules.TypeImage)
	assert.False(t, f.Match(r))

	r = rules.NewRequest("http://ads.example.com/b.png", "https://other.example/article", rules.TypeImage)
	assert.True(t, f.Match(r))
}

func TestRuleMatch_wildcardTLD(t *testing.T) {
	t.Parallel()

	f := newTestRule(t, "||ads.example.com^$domain=google.*")

	r := rules.NewRequest("http://ads.example.com/b.png", "https://www.google.com/search", rules.TypeImage)
	assert.True(t, f.Match(r))

	r = rules.NewRequest("http://ads.example.com/b.png", "https://google.de/search", rules.TypeImage)
	assert.True(t, f.Match(r))

	r = rules.NewRequest("http://ads.example.com/b.png", "https://example.org/", rules.TypeImage)
	assert.False(t, f.Match(r))
}

func TestRuleMatch_hostnameRequest(t *testing.T) {
	t.Parallel()

	f := newTestRule(t, "||ads.example.com^")

	r := rules.NewRequestForHostname("ads.example.com")
	assert.True(t, f.Match(r))

	r = rules.NewRequestForHostname("sub.ads.example.com")
	assert.True(t, f.Match(r))

	r = rules.NewRequestForHostname("example.com")
	assert.False(t, f.Match(r))
}
