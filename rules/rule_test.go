package rules_test

import (
	"testing"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/Sayan314159/Braver/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testListID is a test filter list ID.
const testListID = 1

func TestParseRule(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in           string
		name         string
		wantKind     rules.Kind
		wantPattern  string
		wantHostname string
		wantErr      error
		wantNil      bool
	}{{
		in:      "",
		name:    "empty",
		wantNil: true,
	}, {
		in:      "   ",
		name:    "whitespace",
		wantNil: true,
	}, {
		in:      "! comment",
		name:    "comment",
		wantNil: true,
	}, {
		in:      "# hosts-style comment",
		name:    "comment_hash",
		wantNil: true,
	}, {
		in:           "||ads.example.com^",
		name:         "domain_block",
		wantKind:     rules.KindDomainBlock,
		wantPattern:  "ads.example.com^",
		wantHostname: "ads.example.com",
	}, {
		in:           "||Ads.Example.COM^",
		name:         "domain_block_case",
		wantKind:     rules.KindDomainBlock,
		wantPattern:  "Ads.Example.COM^",
		wantHostname: "ads.example.com",
	}, {
		in:           "||example.org/*",
		name:         "trailing_wildcard_path",
		wantKind:     rules.KindDomainBlock,
		wantPattern:  "example.org^",
		wantHostname: "example.org",
	}, {
		in:          "@@||ads.example.com^",
		name:        "exception",
		wantKind:    rules.KindException,
		wantPattern: "ads.example.com^",
		// The hostname is still derived so that exceptions land in the
		// hostname trie too.
		wantHostname: "ads.example.com",
	}, {
		in:          "-banner-ad-",
		name:        "pattern_block",
		wantKind:    rules.KindPatternBlock,
		wantPattern: "-banner-ad-",
	}, {
		in:          "|https://example.org/banner|",
		name:        "start_end_anchors",
		wantKind:    rules.KindPatternBlock,
		wantPattern: "https://example.org/banner",
	}, {
		in:          "||example.org/banner.png|",
		name:        "host_anchor_with_path",
		wantKind:    rules.KindPatternBlock,
		wantPattern: "example.org/banner.png",
	}, {
		in:          `/banner\d+/`,
		name:        "regex",
		wantKind:    rules.KindPatternBlock,
		wantPattern: `banner\d+`,
	}, {
		in:      "||example.org^$unknownmodifier",
		name:    "unknown_option",
		wantErr: rules.ErrUnsupportedOption,
	}, {
		in:      "||example.org^$~domain=example.com",
		name:    "negated_domain_option",
		wantErr: rules.ErrUnsupportedOption,
	}, {
		in:      "##.banner",
		name:    "cosmetic",
		wantErr: rules.ErrUnsupportedSyntax,
	}, {
		in:      "example.org#%#window.ads = false;",
		name:    "scriptlet",
		wantErr: rules.ErrUnsupportedSyntax,
	}, {
		in:      `/[unclosed/`,
		name:    "bad_regex",
		wantErr: rules.ErrUnsupportedSyntax,
	}, {
		in:      "ad",
		name:    "too_wide",
		wantErr: rules.ErrTooWideRule,
	}, {
		in:      "||*^",
		name:    "too_wide_wildcard",
		wantErr: rules.ErrTooWideRule,
	}, {
		in:          "ad$domain=example.com",
		name:        "short_but_restricted",
		wantKind:    rules.KindPatternBlock,
		wantPattern: "ad",
	}, {
		in:          "$script,domain=example.com",
		name:        "empty_pattern_restricted",
		wantKind:    rules.KindPatternBlock,
		wantPattern: "*",
	}}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r, err := rules.ParseRule(tc.in, testListID)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, r)

				return
			}

			require.NoError(t, err)
			if tc.wantNil {
				assert.Nil(t, r)

				return
			}

			require.NotNil(t, r)
			assert.Equal(t, tc.in, r.Text)
			assert.Equal(t, testListID, r.ListID)
			assert.Equal(t, tc.wantKind, r.Kind)
			assert.Equal(t, tc.wantPattern, r.Pattern)
			assert.Equal(t, tc.wantHostname, r.Hostname)
		})
	}
}

func TestParseRule_escapedOptionsDelimiter(t *testing.T) {
	t.Parallel()

	r, err := rules.ParseRule(`||example.org/this\$ispath`, testListID)
	require.NoError(t, err)

	assert.Equal(t, rules.KindPatternBlock, r.Kind)

	// The escape is gone from the stored pattern, so the rule matches a
	// plain '$' in the URL.
	assert.Equal(t, `example.org/this$ispath`, r.Pattern)

	req := rules.NewRequest("http://example.org/this$ispath", "", rules.TypeDocument)
	assert.True(t, r.Match(req))

	req = rules.NewRequest(`http://example.org/this\$ispath`, "", rules.TypeDocument)
	assert.False(t, r.Match(req))
}

func TestParseRule_kindIsClosed(t *testing.T) {
	t.Parallel()

	// Every parsed rule must carry one of the three kinds, the matcher
	// switches over them exhaustively.
	for _, line := range []string{
		"||example.org^",
		"@@||example.org^",
		"/banner/",
		"|http://example.org",
	} {
		r, err := rules.ParseRule(line, testListID)
		require.NoError(t, err)

		switch r.Kind {
		case rules.KindDomainBlock, rules.KindPatternBlock, rules.KindException:
			// Go on.
		default:
			t.Errorf("rule %q: unexpected kind %d", line, r.Kind)
		}
	}
}

func TestParseRule_errorsAreMarked(t *testing.T) {
	t.Parallel()

	_, err := rules.ParseRule("||example.org^$unknownmodifier", testListID)
	assert.True(t, errors.Is(err, rules.ErrUnsupportedOption))

	// The error text names the offending option so that list maintainers can
	// find the line.
	assert.Contains(t, err.Error(), "unknownmodifier")
}
