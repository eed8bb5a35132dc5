// braverfilter is a command-line checker: it loads one or more filter lists
// and prints the filtering decision for the specified request.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	adblock "github.com/Sayan314159/Braver"
	"github.com/Sayan314159/Braver/rules"
	goFlags "github.com/jessevdk/go-flags"
)

// Options -- console arguments
type Options struct {
	// Verbose - should we write debug-level log
	Verbose bool `short:"v" long:"verbose" description:"Verbose output (optional)." optional:"yes" optional-value:"true"`

	// FilterLists - paths to the filter lists
	FilterLists []string `short:"f" long:"filter" description:"Path to the filter list file. Can be specified multiple times." required:"true"`

	// URL - the request URL to check
	URL string `short:"u" long:"url" description:"The request URL to check." required:"true"`

	// SourceURL - the URL of the page the request comes from
	SourceURL string `short:"s" long:"source" description:"The URL of the page that makes the request."`

	// ResourceType - the type of the requested resource
	ResourceType string `short:"t" long:"type" description:"Resource type of the request." default:"document" choice:"document" choice:"subdocument" choice:"script" choice:"stylesheet" choice:"object" choice:"image" choice:"xmlhttprequest" choice:"media" choice:"font" choice:"websocket" choice:"ping" choice:"other"`

	// Hostname - check a bare hostname instead of a URL
	Hostname bool `long:"hostname" description:"Treat the URL argument as a bare hostname." optional:"yes" optional-value:"true"`
}

// resourceTypes maps the --type values to resource-type masks.
var resourceTypes = map[string]rules.ResourceType{
	"document":       rules.TypeDocument,
	"subdocument":    rules.TypeSubdocument,
	"script":         rules.TypeScript,
	"stylesheet":     rules.TypeStylesheet,
	"object":         rules.TypeObject,
	"image":          rules.TypeImage,
	"xmlhttprequest": rules.TypeXmlhttprequest,
	"media":          rules.TypeMedia,
	"font":           rules.TypeFont,
	"websocket":      rules.TypeWebsocket,
	"ping":           rules.TypePing,
	"other":          rules.TypeOther,
}

func main() {
	var options Options
	parser := goFlags.NewParser(&options, goFlags.Default)

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*goFlags.Error); ok && flagsErr.Type == goFlags.ErrHelp {
			os.Exit(0)
		}

		os.Exit(1)
	}

	os.Exit(run(options))
}

// run returns the process exit code: 0 when the request is allowed, 1 when
// it is blocked, 2 on errors.
func run(options Options) (exitCode int) {
	logger := slogutil.New(&slogutil.Config{
		Format:  slogutil.FormatText,
		Verbose: options.Verbose,
	})

	m := adblock.NewListManager(logger)
	for _, p := range options.FilterLists {
		text, err := os.ReadFile(filepath.Clean(p))
		if err != nil {
			logger.Error("reading filter list", "path", p, slogutil.KeyError, err)

			return 2
		}

		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		res, err := m.LoadSet(name, string(text))
		if err != nil {
			logger.Error("loading filter list", "path", p, slogutil.KeyError, err)

			return 2
		}

		logger.Debug("filter list ready", "name", name, "rules", res.RulesCount, "skipped", res.SkippedLines)
	}

	var r *rules.Request
	if options.Hostname {
		r = rules.NewRequestForHostname(options.URL)
	} else {
		r = rules.NewRequest(options.URL, options.SourceURL, resourceTypes[options.ResourceType])
	}

	d := m.Decide(r)
	switch {
	case d.MalformedURL:
		fmt.Println("allowed: the URL could not be parsed")
	case d.Block:
		fmt.Printf("blocked by %q from list %q\n", d.Rule.Text, d.List)

		return 1
	case d.Rule != nil:
		fmt.Printf("allowed by exception %q from list %q\n", d.Rule.Text, d.List)
	default:
		fmt.Println("allowed: no matching rules")
	}

	return 0
}
