package obs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/maestrohq/maestro/internal/config"
	"github.com/maestrohq/maestro/internal/eventbus"
)

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(context.Context, Event) error { return nil }

// HTTPSink posts events to the observatory's ingest endpoint.
type HTTPSink struct {
	url        string
	httpClient *http.Client
}

// NewHTTPSink creates a sink posting to <baseURL>/events.
func NewHTTPSink(baseURL string) *HTTPSink {
	return &HTTPSink{
		url:        baseURL + "/events",
		httpClient: &http.Client{},
	}
}

func (s *HTTPSink) Emit(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("observatory returned status %d", resp.StatusCode)
	}
	return nil
}

// StreamSink publishes events to the Redis Streams event bus. The
// observatory consumes the stream with a consumer group, so events
// survive a brief collector restart.
type StreamSink struct {
	publisher *eventbus.Publisher
}

// NewStreamSink creates a sink publishing to the shared event stream.
func NewStreamSink(publisher *eventbus.Publisher) *StreamSink {
	return &StreamSink{publisher: publisher}
}

func (s *StreamSink) Emit(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return s.publisher.Publish(ctx, map[string]any{"event": string(body)})
}

// NewSinkFromConfig picks the event transport for a service: the Redis
// stream when enabled and reachable, the observatory's HTTP ingest when
// a URL is configured, otherwise nothing. The returned close func stops
// the transport and is always safe to call.
func NewSinkFromConfig(cfg *config.Config, logger *slog.Logger) (Sink, func()) {
	if cfg.Redis.Enabled {
		publisher, err := eventbus.NewPublisher(eventbus.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err == nil {
			return NewStreamSink(publisher), func() { publisher.Close() }
		}
		logger.Warn("Redis event transport unavailable, falling back to HTTP", "error", err)
	}
	if cfg.Observatory.URL != "" {
		return NewHTTPSink(cfg.Observatory.URL), func() {}
	}
	return nil, func() {}
}
