package telemetry

import (
	"bytes"
	"strings"
	"testing"

	metrics "github.com/armon/go-metrics"
)

func TestReportIsNoOpBeforeEnable(t *testing.T) {
	sink = nil
	var buf bytes.Buffer
	Report(&buf)
	if buf.Len() != 0 {
		t.Fatalf("Report before Enable wrote %q, want empty", buf.String())
	}
}

func TestReportPrintsIncrementedCounters(t *testing.T) {
	if err := Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	defer func() { sink = nil }()

	metrics.IncrCounter([]string{"block", "read"}, 1)
	metrics.IncrCounter([]string{"block", "read"}, 1)
	metrics.IncrCounter([]string{"block", "write"}, 1)

	var buf bytes.Buffer
	Report(&buf)

	out := buf.String()
	if !strings.Contains(out, "block.read: 2") {
		t.Fatalf("Report output %q missing block.read: 2", out)
	}
	if !strings.Contains(out, "block.write: 1") {
		t.Fatalf("Report output %q missing block.write: 1", out)
	}
}
