package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/thomasrohde/treelox/pkg/diagnostics"
	"github.com/thomasrohde/treelox/pkg/evaluator"
	"github.com/thomasrohde/treelox/pkg/runtime"
)

// TraceSummary aggregates the events of one trace file.
type TraceSummary struct {
	RunID       string         `json:"runId"`
	TotalEvents int            `json:"totalEvents"`
	Statements  int            `json:"statements"`
	Blocks      int            `json:"blocks"`
	MaxDepth    int            `json:"maxDepth"`
	Faults      int            `json:"faults"`
	FaultCodes  map[string]int `json:"faultCodes"`
	StartTime   string         `json:"startTime,omitempty"`
	EndTime     string         `json:"endTime,omitempty"`
	DurationMs  float64        `json:"durationMs"`
}

func (ap *app) cmdTrace(c *traceCmd) int {
	f, err := os.Open(c.File)
	if err != nil {
		ap.printDiags(ap.pretty, diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", c.File), nil, ""))
		return runtime.ExitNoInput
	}
	defer f.Close()

	summary, err := computeTraceSummary(f)
	if err != nil {
		ap.printDiags(ap.pretty, diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, ""))
		return runtime.ExitNoInput
	}

	if c.Text {
		printTraceSummaryText(ap.stdout, summary)
		return runtime.ExitOK
	}
	b, _ := json.Marshal(summary)
	fmt.Fprintln(ap.stdout, string(b))
	return runtime.ExitOK
}

// computeTraceSummary reads NDJSON trace events. Lines that are not valid
// events are skipped.
func computeTraceSummary(r io.Reader) (*TraceSummary, error) {
	summary := &TraceSummary{FaultCodes: make(map[string]int)}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event evaluator.TraceEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}

		summary.TotalEvents++
		if summary.RunID == "" {
			summary.RunID = event.RunID
		}
		if event.Depth > summary.MaxDepth {
			summary.MaxDepth = event.Depth
		}

		switch event.Event {
		case evaluator.TraceRunStart:
			if summary.StartTime == "" {
				summary.StartTime = event.Timestamp
			}
		case evaluator.TraceRunEnd:
			summary.EndTime = event.Timestamp
		case evaluator.TraceStmtStart:
			summary.Statements++
		case evaluator.TraceBlockEnter:
			summary.Blocks++
		case evaluator.TraceFault:
			summary.Faults++
			if code, ok := event.Data["code"]; ok {
				summary.FaultCodes[code]++
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read trace")
	}

	if summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := parseTime(summary.StartTime)
		end, err2 := parseTime(summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Microseconds()) / 1000
		}
	}
	return summary, nil
}

func printTraceSummaryText(w io.Writer, s *TraceSummary) {
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Events: %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Statements: %d\n", s.Statements)
	fmt.Fprintf(w, "Blocks: %d (max depth %d)\n", s.Blocks, s.MaxDepth)
	fmt.Fprintf(w, "Faults: %d\n", s.Faults)
	codes := lo.Keys(s.FaultCodes)
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "  %s: %d\n", code, s.FaultCodes[code])
	}
	if s.DurationMs > 0 {
		fmt.Fprintf(w, "Duration: %.3fms\n", s.DurationMs)
	}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, errors.Errorf("cannot parse time: %s", s)
}
