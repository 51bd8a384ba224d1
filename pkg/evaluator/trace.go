package evaluator

import (
	"time"

	"github.com/thomasrohde/treelox/pkg/ast"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart   TraceEventType = "run_start"
	TraceRunEnd     TraceEventType = "run_end"
	TraceStmtStart  TraceEventType = "stmt_start"
	TraceStmtEnd    TraceEventType = "stmt_end"
	TraceBlockEnter TraceEventType = "block_enter"
	TraceBlockExit  TraceEventType = "block_exit"
	TraceFault      TraceEventType = "fault"
)

// TraceEvent represents a single trace event emitted during execution.
// Depth is the number of live scopes when the event fired.
type TraceEvent struct {
	Timestamp string            `json:"ts"`
	RunID     string            `json:"runId"`
	Event     TraceEventType    `json:"event"`
	Span      *ast.Span         `json:"span,omitempty"`
	Depth     int               `json:"depth"`
	Data      map[string]string `json:"data,omitempty"`
}

func (in *Interpreter) emit(event TraceEventType, span *ast.Span, depth int) {
	in.emitWithData(event, span, depth, nil)
}

func (in *Interpreter) emitWithData(event TraceEventType, span *ast.Span, depth int, data map[string]string) {
	if in.trace == nil {
		return
	}
	in.trace(TraceEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RunID:     in.runID,
		Event:     event,
		Span:      span,
		Depth:     depth,
		Data:      data,
	})
}
