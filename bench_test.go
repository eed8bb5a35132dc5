package adblock

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
	"time"

	"github.com/Sayan314159/Braver/rules"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// synthRulesCount is the size of the synthetic list used by the footprint
// test.  Large enough to exercise every lookup table, small enough for CI.
const synthRulesCount = 20_000

// synthRulesText generates a synthetic filter list that spreads rules over
// all the lookup tables.
func synthRulesText() (text string) {
	var sb strings.Builder
	for i := 0; i < synthRulesCount; i++ {
		switch i % 4 {
		case 0:
			fmt.Fprintf(&sb, "||ads%d.example.com^\n", i)
		case 1:
			fmt.Fprintf(&sb, "/creative%d/banner^\n", i)
		case 2:
			fmt.Fprintf(&sb, "||tracker%d.example.org^$third-party\n", i)
		default:
			fmt.Fprintf(&sb, "pixel%d$domain=site%d.example\n", i, i)
		}
	}

	return sb.String()
}

func TestBenchEngineFootprint(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping the footprint test in short mode")
	}

	debug.SetGCPercent(10)

	startHeap, startRSS := alloc(t)
	t.Logf(
		"Allocated before loading rules (heap/RSS, kiB): %d/%d",
		startHeap,
		startRSS,
	)

	startParse := time.Now()
	engine := NewNetworkEngine(newTestRuleStorage(t, 1, synthRulesText()))
	require.NotNil(t, engine)
	assert.Equal(t, synthRulesCount, engine.RulesCount)
	t.Logf("Elapsed on parsing rules: %v", time.Since(startParse))

	loadHeap, loadRSS := alloc(t)
	t.Logf(
		"Allocated after loading rules (heap/RSS, kiB): %d/%d (%d/%d diff)",
		loadHeap,
		loadRSS,
		loadHeap-startHeap,
		loadRSS-startRSS,
	)

	var requests []*rules.Request
	for i := 0; i < 1_000; i++ {
		requests = append(requests, rules.NewRequest(
			fmt.Sprintf("http://ads%d.example.com/creative%d/banner", i*4, i*4+1),
			fmt.Sprintf("https://site%d.example/page", i),
			rules.TypeImage,
		))
	}

	totalMatches := 0
	startMatch := time.Now()
	for _, r := range requests {
		if _, ok := engine.Match(r); ok {
			totalMatches++
		}
	}
	elapsedMatch := time.Since(startMatch)

	assert.Equal(t, len(requests), totalMatches)
	t.Logf("Total matches: %d", totalMatches)
	t.Logf("Elapsed per request: %v", elapsedMatch/time.Duration(len(requests)))

	matchHeap, matchRSS := alloc(t)
	t.Logf(
		"Allocated after matching (heap/RSS, kiB): %d/%d (%d/%d diff)",
		matchHeap,
		matchRSS,
		matchHeap-loadHeap,
		matchRSS-loadRSS,
	)
}

// alloc returns the heap and RSS sizes in kibibytes.
func alloc(t *testing.T) (heap, rss uint64) {
	p, err := process.NewProcess(int32(os.Getpid()))
	require.NoError(t, err)

	mi, err := p.MemoryInfo()
	require.NoError(t, err)

	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)

	return ms.Alloc / 1024, mi.RSS / 1024
}
