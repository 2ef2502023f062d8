// Package observability provides Cadencio's Prometheus metrics and a small
// in-memory operation tracer.
//
// This provides:
//   - Spans for each ledger command (schedule, confirm, borrow, transfer, undo)
//   - Counters and gauges for ledger activity under the "cadencio" namespace
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ═══════════════════════════════════════════════════════════════════════════
// Operation Spans
// ═══════════════════════════════════════════════════════════════════════════

// Span records one ledger command.
type Span struct {
	TraceID   string            `json:"trace_id"`
	SpanID    string            `json:"span_id"`
	Operation string            `json:"operation"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
	Duration  time.Duration     `json:"duration,omitempty"`
	Status    SpanStatus        `json:"status"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// SpanStatus indicates success/failure.
type SpanStatus int

const (
	SpanOK SpanStatus = iota
	SpanError
)

// ─── Tracer ─────────────────────────────────────────────────────────────────

// Tracer keeps the most recent spans in a ring buffer for /api/debug/spans.
type Tracer struct {
	mu       sync.Mutex
	spans    []Span
	maxSpans int
	enabled  bool
}

// TracerConfig configures the tracer.
type TracerConfig struct {
	Enabled  bool
	MaxSpans int // ring buffer size (default 1000)
}

// DefaultTracerConfig returns local defaults.
func DefaultTracerConfig() TracerConfig {
	return TracerConfig{
		Enabled:  true,
		MaxSpans: 1000,
	}
}

// NewTracer creates a new tracer.
func NewTracer(cfg TracerConfig) *Tracer {
	if cfg.MaxSpans <= 0 {
		cfg.MaxSpans = DefaultTracerConfig().MaxSpans
	}
	return &Tracer{
		spans:    make([]Span, 0, cfg.MaxSpans),
		maxSpans: cfg.MaxSpans,
		enabled:  cfg.Enabled,
	}
}

// StartSpan begins a span. A nil tracer is valid and records nothing.
func (t *Tracer) StartSpan(ctx context.Context, operation string, attrs map[string]string) *Span {
	if t == nil || !t.enabled {
		return &Span{Operation: operation}
	}
	return &Span{
		TraceID:   traceIDFromContext(ctx),
		SpanID:    uuid.NewString(),
		Operation: operation,
		StartTime: time.Now(),
		Status:    SpanOK,
		Attrs:     attrs,
	}
}

// EndSpan completes a span and records it.
func (t *Tracer) EndSpan(span *Span, err error) {
	if t == nil || !t.enabled || span == nil {
		return
	}

	span.EndTime = time.Now()
	span.Duration = span.EndTime.Sub(span.StartTime)
	if err != nil {
		span.Status = SpanError
		if span.Attrs == nil {
			span.Attrs = make(map[string]string)
		}
		span.Attrs["error"] = err.Error()
		TraceErrors.Inc()
	}
	TracesRecorded.Inc()

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.spans) >= t.maxSpans {
		t.spans = t.spans[1:]
	}
	t.spans = append(t.spans, *span)
}

// Trace wraps fn in a span named operation and returns fn's error.
func (t *Tracer) Trace(ctx context.Context, operation string, attrs map[string]string, fn func() error) error {
	span := t.StartSpan(ctx, operation, attrs)
	err := fn()
	t.EndSpan(span, err)
	return err
}

// Spans returns a copy of the most recent spans.
func (t *Tracer) Spans(limit int) []Span {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if limit <= 0 || limit > len(t.spans) {
		limit = len(t.spans)
	}
	start := len(t.spans) - limit
	out := make([]Span, limit)
	copy(out, t.spans[start:])
	return out
}

// SpanCount returns the number of recorded spans.
func (t *Tracer) SpanCount() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.spans)
}

// ─── Context Helpers ────────────────────────────────────────────────────────

type contextKey string

const traceIDKey contextKey = "cadencio-trace-id"

// WithTraceID returns a context carrying traceID. The API sets it from the
// chi request id so every span of one request shares a trace.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func traceIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok && v != "" {
		return v
	}
	return uuid.NewString()
}

// ═══════════════════════════════════════════════════════════════════════════
// Prometheus Metrics
// ═══════════════════════════════════════════════════════════════════════════

// ─── Store ──────────────────────────────────────────────────────────────────

// StoreUpdates counts Ledger Store write transactions by outcome.
var StoreUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cadencio",
	Subsystem: "store",
	Name:      "updates_total",
	Help:      "Ledger store write transactions by outcome (commit, rollback).",
}, []string{"outcome"})

// ─── Ledger ─────────────────────────────────────────────────────────────────

// TransactionsCreated counts created transactions by direction.
var TransactionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cadencio",
	Subsystem: "ledger",
	Name:      "transactions_created_total",
	Help:      "Transactions created, by direction.",
}, []string{"direction"})

// CyclesScheduled counts cycles produced by plan expansion, by plan type.
var CyclesScheduled = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cadencio",
	Subsystem: "ledger",
	Name:      "cycles_scheduled_total",
	Help:      "Obligation cycles generated by scheduling, by plan type.",
}, []string{"plan"})

// ScheduleTruncations counts plan expansions that hit the cycle bound.
var ScheduleTruncations = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cadencio",
	Subsystem: "ledger",
	Name:      "schedule_truncations_total",
	Help:      "Monthly expansions that reached the cycle bound.",
})

// CyclesMissed counts cycles flipped to MISSED by the sweep.
var CyclesMissed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cadencio",
	Subsystem: "ledger",
	Name:      "cycles_missed_total",
	Help:      "Cycles flipped from PLANNED to MISSED.",
})

// Confirmations counts confirmed obligation payments.
var Confirmations = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cadencio",
	Subsystem: "ledger",
	Name:      "confirmations_total",
	Help:      "Obligation cycles confirmed paid.",
})

// Borrows counts recorded borrow events.
var Borrows = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cadencio",
	Subsystem: "ledger",
	Name:      "borrows_total",
	Help:      "Borrow events recorded against obligations.",
})

// Undos counts undone activities by undo kind.
var Undos = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cadencio",
	Subsystem: "ledger",
	Name:      "undos_total",
	Help:      "Activities undone, by undo kind.",
}, []string{"kind"})

// StaleUndos counts undo-latest attempts rejected as stale.
var StaleUndos = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cadencio",
	Subsystem: "ledger",
	Name:      "stale_undos_total",
	Help:      "Undo-latest requests rejected because newer activity exists.",
})

// ─── Planner ────────────────────────────────────────────────────────────────

// Suggestions counts synthesized plans by kind.
var Suggestions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cadencio",
	Subsystem: "planner",
	Name:      "suggestions_total",
	Help:      "Plan suggestions by kind (NONE, ONE_TIME, MONTHLY, SPLIT).",
}, []string{"kind"})

// ─── Insights ───────────────────────────────────────────────────────────────

// ZoneBalance reports the derived balance per zone at the last dashboard build.
var ZoneBalance = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "cadencio",
	Subsystem: "insights",
	Name:      "zone_balance",
	Help:      "Derived zone balance in minor units.",
}, []string{"zone"})

// ObligationsOutstanding reports the sum of remaining obligation totals.
var ObligationsOutstanding = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "cadencio",
	Subsystem: "insights",
	Name:      "obligations_outstanding",
	Help:      "Sum of remaining obligation totals in minor units.",
})

// DashboardBuilds counts dashboard recomputations.
var DashboardBuilds = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cadencio",
	Subsystem: "insights",
	Name:      "dashboard_builds_total",
	Help:      "Dashboard snapshots computed.",
})

// ─── Trace Metrics ──────────────────────────────────────────────────────────

// TracesRecorded tracks total spans recorded.
var TracesRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cadencio",
	Subsystem: "traces",
	Name:      "spans_recorded_total",
	Help:      "Total operation spans recorded.",
})

// TraceErrors tracks error spans.
var TraceErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cadencio",
	Subsystem: "traces",
	Name:      "error_spans_total",
	Help:      "Total operation spans with error status.",
})
