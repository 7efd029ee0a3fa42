// Package telemetry wires up a quiet, in-memory metrics sink for the
// block device and B-tree layers (pkg/block and pkg/btree call
// metrics.IncrCounter directly; this package just gives those counters
// somewhere to land and a way to read them back out).
package telemetry

import (
	"fmt"
	"io"
	"sort"
	"time"

	metrics "github.com/armon/go-metrics"
)

var sink *metrics.InmemSink

// Enable installs a process-wide in-memory metrics sink. Until this is
// called, metrics.IncrCounter calls from pkg/block and pkg/btree are
// harmless no-ops against the library's default blackhole sink.
func Enable() error {
	sink = metrics.NewInmemSink(10*time.Second, time.Minute)
	cfg := metrics.DefaultConfig("btreeidx")
	cfg.EnableHostname = false
	cfg.EnableRuntimeMetrics = false
	_, err := metrics.NewGlobal(cfg, sink)
	return err
}

// Report writes a one-line-per-counter summary of everything recorded
// since the most recent interval to w. It is a no-op if Enable was
// never called.
func Report(w io.Writer) {
	if sink == nil {
		return
	}

	intervals := sink.Data()
	if len(intervals) == 0 {
		return
	}
	// The most recently started interval carries the freshest counts.
	latest := intervals[len(intervals)-1]

	names := make([]string, 0, len(latest.Counters))
	for name := range latest.Counters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c := latest.Counters[name]
		fmt.Fprintf(w, "  %s: %d\n", name, c.Count)
	}
}
