package obs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Sink delivers events to the observatory. Implementations must be
// safe for concurrent use.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
}

// Emitter is the write-only observability handle held by a core
// service. Every method swallows sink failures: the collector being
// down degrades to a warning log, never to a caller-visible error.
type Emitter struct {
	sink    Sink
	service string
	timeout time.Duration
	logger  *slog.Logger
}

// NewEmitter creates an emitter for one service. A nil sink disables
// emission entirely.
func NewEmitter(sink Sink, service string, logger *slog.Logger) *Emitter {
	if sink == nil {
		sink = NopSink{}
	}
	return &Emitter{
		sink:    sink,
		service: service,
		timeout: 2 * time.Second,
		logger:  logger,
	}
}

// StartTrace emits a trace_started event and returns the new trace ID.
// The ID is generated locally so tracing works even when the collector
// is unreachable.
func (e *Emitter) StartTrace(operation string, attrs map[string]any) string {
	traceID := uuid.NewString()
	data := map[string]any{"operation": operation}
	for k, v := range attrs {
		data[k] = v
	}
	e.emit(Event{
		EventType: EventTraceStarted,
		TraceID:   traceID,
		Data:      data,
	})
	return traceID
}

// EndTrace emits a trace_completed event with the terminal status.
func (e *Emitter) EndTrace(traceID, status string, attrs map[string]any) {
	data := map[string]any{"status": status}
	for k, v := range attrs {
		data[k] = v
	}
	e.emit(Event{
		EventType: EventTraceCompleted,
		TraceID:   traceID,
		Data:      data,
	})
}

// AddSpan emits a span event for one timed operation within a trace.
func (e *Emitter) AddSpan(traceID, operation string, start, end time.Time, status string, attrs map[string]any) {
	data := map[string]any{
		"operation":   operation,
		"start_time":  start.Format(time.RFC3339Nano),
		"end_time":    end.Format(time.RFC3339Nano),
		"duration_ms": float64(end.Sub(start)) / float64(time.Millisecond),
		"status":      status,
	}
	for k, v := range attrs {
		data[k] = v
	}
	e.emit(Event{
		EventType: EventSpan,
		TraceID:   traceID,
		Data:      data,
	})
}

// LogEvent emits a free-form domain event.
func (e *Emitter) LogEvent(eventType, traceID string, data map[string]any) {
	e.emit(Event{
		EventType: eventType,
		TraceID:   traceID,
		Data:      data,
	})
}

func (e *Emitter) emit(ev Event) {
	ev.EventID = uuid.NewString()
	ev.Timestamp = time.Now().UTC()
	ev.Service = e.service

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	if err := e.sink.Emit(ctx, ev); err != nil {
		e.logger.Warn("Observability emit failed", "event_type", ev.EventType, "error", err)
	}
}
