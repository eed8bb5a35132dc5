package lookup_test

import (
	"strings"
	"testing"

	"github.com/Sayan314159/Braver/lookup"
	"github.com/Sayan314159/Braver/rules"
	"github.com/stretchr/testify/assert"
)

func TestShortcutsTable(t *testing.T) {
	t.Parallel()

	rulesText := strings.Join([]string{
		"/banner/ads/*",
		"||example.org/creative.png",
		// The shortcut is too short.
		"abc^",
		// The shortcut is a bare scheme prefix.
		"|https://*ad",
	}, "\n")

	storage := newTestStorage(t, rulesText)
	table := lookup.NewShortcutsTable(storage)

	added := fillTable(t, storage, table)
	assert.Equal(t, 2, added)

	r := rules.NewRequest("http://example.com/banner/ads/123", "", rules.TypeImage)
	assert.Equal(t, []string{"/banner/ads/*"}, matchedTexts(table, r))

	r = rules.NewRequest("https://example.org/creative.png", "", rules.TypeImage)
	assert.Equal(t, []string{"||example.org/creative.png"}, matchedTexts(table, r))

	r = rules.NewRequest("http://example.com/", "", rules.TypeDocument)
	assert.Empty(t, matchedTexts(table, r))
}

func TestShortcutsTable_noDuplicates(t *testing.T) {
	t.Parallel()

	storage := newTestStorage(t, "/banner/ads/*")
	table := lookup.NewShortcutsTable(storage)
	fillTable(t, storage, table)

	// The URL repeats the shortcut, the rule must still be returned once.
	r := rules.NewRequest("http://example.com/banner/ads/banner/ads/1", "", rules.TypeImage)
	assert.Equal(t, []string{"/banner/ads/*"}, matchedTexts(table, r))
}
