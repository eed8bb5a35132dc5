package rules

import (
	"fmt"
	"math/bits"
	"strings"
)

// RuleOption is the enumeration of the binary rule options.  Options are
// stored as flags to keep rules small.
type RuleOption uint32

const (
	// OptionThirdParty is the $third-party modifier.  Enabled it requires a
	// third-party request, disabled (via $first-party or $~third-party) it
	// requires a first-party one.
	OptionThirdParty RuleOption = 1 << iota

	// OptionMatchCase is the $match-case modifier: the pattern is matched
	// case-sensitively.
	OptionMatchCase
)

// ResourceType is a bitmask of request resource types.
type ResourceType uint32

const (
	// TypeDocument is a top-level document (main frame).
	TypeDocument ResourceType = 1 << iota
	// TypeSubdocument is an embedded document, $subdocument.
	TypeSubdocument
	// TypeScript is a script resource, $script.
	TypeScript
	// TypeStylesheet is a CSS resource, $stylesheet.
	TypeStylesheet
	// TypeObject is a browser plugin resource, $object.
	TypeObject
	// TypeImage is any image, $image.
	TypeImage
	// TypeXmlhttprequest is a fetch/XHR request, $xmlhttprequest.
	TypeXmlhttprequest
	// TypeMedia is an audio or video resource, $media.
	TypeMedia
	// TypeFont is a font resource, $font.
	TypeFont
	// TypeWebsocket is a websocket connection, $websocket.
	TypeWebsocket
	// TypePing is a beacon or ping request, $ping.
	TypePing
	// TypeOther is any other request type.
	TypeOther
)

// Count returns the count of the enabled type flags.
func (t ResourceType) Count() (n int) {
	return bits.OnesCount32(uint32(t))
}

// resourceTypeNames is the recognized set of resource-type option keys.
// This table, together with the switch in loadOption, is the exhaustive
// enumeration of supported options: anything else rejects the rule.
var resourceTypeNames = map[string]ResourceType{
	"document":       TypeDocument,
	"subdocument":    TypeSubdocument,
	"script":         TypeScript,
	"stylesheet":     TypeStylesheet,
	"object":         TypeObject,
	"image":          TypeImage,
	"xmlhttprequest": TypeXmlhttprequest,
	"media":          TypeMedia,
	"font":           TypeFont,
	"websocket":      TypeWebsocket,
	"ping":           TypePing,
	"other":          TypeOther,
}

// IsOptionEnabled returns true if the specified option is enabled.
func (f *Rule) IsOptionEnabled(option RuleOption) (ok bool) {
	return (f.enabledOptions & option) == option
}

// IsOptionDisabled returns true if the specified option is explicitly
// disabled.
func (f *Rule) IsOptionDisabled(option RuleOption) (ok bool) {
	return (f.disabledOptions & option) == option
}

// loadOptions parses the comma-separated option list that follows the '$'
// delimiter.  Commas escaped with a backslash do not split.
func (f *Rule) loadOptions(options string) (err error) {
	if options == "" {
		return nil
	}

	for _, option := range splitWithEscape(options, ',', escapeCharacter) {
		name, value := option, ""
		if valueIndex := strings.Index(option, "="); valueIndex > 0 {
			name = option[:valueIndex]
			value = option[valueIndex+1:]
		}

		err = f.loadOption(name, value)
		if err != nil {
			return err
		}
	}

	return nil
}

// loadOption applies a single option qualifier.  Unknown keys reject the
// rule: a partially understood rule must never be applied.
func (f *Rule) loadOption(name, value string) (err error) {
	negated := strings.HasPrefix(name, "~")
	if negated {
		name = name[1:]
	}

	if t, ok := resourceTypeNames[name]; ok {
		f.setResourceType(t, !negated)

		return nil
	}

	switch name {
	case "third-party":
		f.setOption(OptionThirdParty, !negated)
	case "first-party":
		f.setOption(OptionThirdParty, negated)
	case "match-case":
		f.setOption(OptionMatchCase, !negated)
	case "domain":
		if negated {
			return fmt.Errorf("option ~domain in %q: %w", f.Text, ErrUnsupportedOption)
		}

		f.permittedDomains, f.restrictedDomains, err = loadDomains(value, "|")

		return err
	default:
		return fmt.Errorf("option %q in %q: %w", name, f.Text, ErrUnsupportedOption)
	}

	return nil
}

// setOption enables or explicitly disables the specified option.
func (f *Rule) setOption(option RuleOption, enabled bool) {
	if enabled {
		f.enabledOptions |= option
	} else {
		f.disabledOptions |= option
	}
}

// setResourceType permits or restricts the specified resource type.
func (f *Rule) setResourceType(t ResourceType, permitted bool) {
	if permitted {
		f.permittedTypes |= t
	} else {
		f.restrictedTypes |= t
	}
}

// loadDomains parses the $domain modifier value: a list of domains split by
// sep, each optionally negated with '~'.  A "domain.*" entry matches the
// domain under any public suffix.
func loadDomains(domains, sep string) (permitted, restricted []string, err error) {
	if domains == "" {
		return nil, nil, fmt.Errorf("no domains specified: %w", ErrUnsupportedSyntax)
	}

	for _, d := range strings.Split(domains, sep) {
		negated := strings.HasPrefix(d, "~")
		if negated {
			d = d[1:]
		}

		d = strings.ToLower(d)
		if !isValidDomainPattern(d) {
			return nil, nil, fmt.Errorf("invalid domain %q: %w", d, ErrUnsupportedSyntax)
		}

		if negated {
			restricted = append(restricted, d)
		} else {
			permitted = append(permitted, d)
		}
	}

	return permitted, restricted, nil
}
