// Package oracle wraps the reasoning backends the planner uses to draft
// workflow plans. Both backends speak strict JSON so the planner can
// parse candidate plans directly from completions.
package oracle

import (
	"context"
	"fmt"

	"github.com/maestrohq/maestro/internal/config"
)

// Request is one completion request to a reasoning backend.
type Request struct {
	System      string
	Prompt      string
	Model       string
	Temperature float64
	JSONMode    bool
}

// Response is the completion returned by a backend.
type Response struct {
	Content    string
	Model      string
	TokensUsed int
}

// Client is a reasoning backend.
type Client interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
	Health() error
}

// New creates the backend selected by configuration.
func New(cfg *config.OracleConfig) (Client, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaClient(cfg)
	case "openai-compatible", "openai", "openrouter", "vllm":
		return NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported oracle provider: %s", cfg.Provider)
	}
}
