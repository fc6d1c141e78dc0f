// Package executor runs workflow plans step by step against the
// registered agents, accumulating outputs in a shared run context and
// retrying transient failures with exponential backoff.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/maestrohq/maestro/internal/metrics"
	"github.com/maestrohq/maestro/internal/obs"
	"github.com/maestrohq/maestro/internal/plan"
	"github.com/maestrohq/maestro/internal/registry"
)

// Run terminal statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// TraceEntry records the outcome of one executed step.
type TraceEntry struct {
	Step       int            `json:"step"`
	Agent      string         `json:"agent"`
	DurationMs int64          `json:"duration_ms"`
	Status     string         `json:"status"`
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Result is the terminal outcome of one workflow run.
type Result struct {
	Status         string       `json:"status"`
	FailedStep     int          `json:"failed_step,omitempty"`
	FailedAgent    string       `json:"failed_agent,omitempty"`
	Error          string       `json:"error,omitempty"`
	ExecutionTrace []TraceEntry `json:"execution_trace"`
	PartialContext Context      `json:"partial_context,omitempty"`
	FinalOutput    Context      `json:"final_output,omitempty"`
}

// statusError is an agent response with a non-2xx status code. The
// code decides retryability: 4xx fails immediately, 5xx retries.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.code, e.body)
}

// Engine executes plans. Safe for concurrent runs; each run gets its
// own context and trace.
type Engine struct {
	registry    *registry.Client
	stepTimeout time.Duration
	emitter     *obs.Emitter
	stats       *Stats
	logger      *slog.Logger
	httpClient  *http.Client
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewEngine creates an execution engine.
func NewEngine(registryClient *registry.Client, stepTimeout time.Duration, emitter *obs.Emitter, stats *Stats, logger *slog.Logger) *Engine {
	return &Engine{
		registry:    registryClient,
		stepTimeout: stepTimeout,
		emitter:     emitter,
		stats:       stats,
		logger:      logger,
		httpClient:  &http.Client{},
		sleep: func(ctx context.Context, d time.Duration) error {
			select {
			case <-time.After(d):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
}

// Run executes the plan in order, stopping at the first failed step.
// A registry fetch failure aborts before anything runs; a step naming
// an unregistered agent aborts at that step, after the earlier steps
// have executed and their outputs accumulated.
func (e *Engine) Run(ctx context.Context, steps []plan.Step, maxRetries int, baseDelay time.Duration) (*Result, error) {
	endpoints, err := e.resolveEndpoints(ctx)
	if err != nil {
		return nil, err
	}

	traceID := e.emitter.StartTrace("execute_workflow", map[string]any{"steps": len(steps)})
	runStart := time.Now()
	runCtx := NewContext()
	trace := make([]TraceEntry, 0, len(steps))

	for _, step := range steps {
		endpoint, ok := endpoints[step.AgentName]
		if !ok {
			e.logger.Error("Workflow step names unregistered agent", "step", step.Step, "agent", step.AgentName)
			e.finishRun(traceID, obs.StatusError, runStart)
			return nil, fmt.Errorf("Agent '%s' not found in registry.", step.AgentName)
		}

		start := time.Now()
		output, stepErr := e.executeStep(ctx, step, endpoint, maxRetries, baseDelay, runCtx)
		durationMs := time.Since(start).Milliseconds()

		status := StatusSuccess
		if stepErr != nil {
			status = StatusFailed
		}
		e.emitter.AddSpan(traceID, fmt.Sprintf("step_%d", step.Step), start, time.Now(), status, map[string]any{
			"agent_name": step.AgentName,
			"task":       step.Task,
		})
		e.emitter.LogEvent(obs.EventAgentInvocation, traceID, map[string]any{
			"agent_name": step.AgentName,
			"success":    stepErr == nil,
			"latency_ms": durationMs,
		})
		metrics.AgentInvocations.WithLabelValues(step.AgentName, status).Inc()
		metrics.StepLatency.WithLabelValues(step.AgentName).Observe(time.Since(start).Seconds())
		e.stats.RecordStep(step.AgentName, float64(durationMs))

		if stepErr != nil {
			trace = append(trace, TraceEntry{
				Step:       step.Step,
				Agent:      step.AgentName,
				DurationMs: durationMs,
				Status:     StatusFailed,
				Error:      stepErr.Error(),
			})
			e.logger.Error("Workflow step failed", "step", step.Step, "agent", step.AgentName, "error", stepErr)
			e.finishRun(traceID, StatusFailed, runStart)
			return &Result{
				Status:         StatusFailed,
				FailedStep:     step.Step,
				FailedAgent:    step.AgentName,
				Error:          stepErr.Error(),
				ExecutionTrace: trace,
				PartialContext: runCtx,
			}, nil
		}

		runCtx.AddStepOutput(step.Step, output)
		trace = append(trace, TraceEntry{
			Step:       step.Step,
			Agent:      step.AgentName,
			DurationMs: durationMs,
			Status:     StatusSuccess,
			Output:     output,
		})
		e.logger.Info("Workflow step completed", "step", step.Step, "agent", step.AgentName, "duration_ms", durationMs)
	}

	e.finishRun(traceID, StatusSuccess, runStart)
	return &Result{
		Status:         StatusSuccess,
		FinalOutput:    runCtx,
		ExecutionTrace: trace,
	}, nil
}

// resolveEndpoints fetches the catalog once and maps agent names to
// endpoints. Unknown agents are caught per step, inside the run loop.
func (e *Engine) resolveEndpoints(ctx context.Context) (map[string]string, error) {
	cards, err := e.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent endpoints: %w", err)
	}

	endpoints := make(map[string]string, len(cards))
	for _, card := range cards {
		endpoints[card.Name] = card.Endpoint
	}
	return endpoints, nil
}

// executeStep invokes one agent with retries. Transport errors and 5xx
// responses back off exponentially (baseDelay doubling per attempt);
// a 4xx response fails on its first occurrence.
func (e *Engine) executeStep(ctx context.Context, step plan.Step, endpoint string, maxRetries int, baseDelay time.Duration, runCtx Context) (map[string]any, error) {
	payload := map[string]any{
		"task":    step.Task,
		"context": runCtx,
	}

	var lastErr string
	for attempt := 0; attempt <= maxRetries; attempt++ {
		output, err := e.invoke(ctx, endpoint, payload)
		if err == nil {
			return output, nil
		}
		lastErr = err.Error()

		var se *statusError
		if errors.As(err, &se) && se.code >= 400 && se.code < 500 {
			break
		}
		if attempt < maxRetries {
			delay := baseDelay * (1 << attempt)
			e.logger.Warn("Step attempt failed, backing off",
				"agent", step.AgentName, "attempt", attempt+1, "delay", delay, "error", err)
			if err := e.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("Agent '%s' failed after %d attempts. Last error: %s", step.AgentName, maxRetries+1, lastErr)
}

// invoke performs one POST to an agent endpoint.
func (e *Engine) invoke(ctx context.Context, endpoint string, payload map[string]any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal step payload: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &statusError{code: resp.StatusCode, body: string(respBody)}
	}

	var output map[string]any
	if err := json.Unmarshal(respBody, &output); err != nil {
		return nil, fmt.Errorf("failed to decode agent response: %w", err)
	}
	return output, nil
}

func (e *Engine) finishRun(traceID, status string, start time.Time) {
	e.emitter.EndTrace(traceID, status, map[string]any{
		"duration_ms": float64(time.Since(start)) / float64(time.Millisecond),
	})
	metrics.Executions.WithLabelValues(status).Inc()
	e.stats.RecordExecution(traceID, status, time.Since(start))
}
