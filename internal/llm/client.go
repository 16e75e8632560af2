package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Veraticus/despensa/internal/common"
)

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is a single system + user completion request.
type Request struct {
	System string
	User   string
	// JSON asks the provider for a JSON object response when supported.
	JSON bool
}

// Config holds provider and call settings.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	MaxRetries  int
	RateLimit   int
	Temperature float64
	MaxTokens   int
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// statusError classifies a non-200 provider response. Rate limits and server
// errors are retried; any other status is permanent.
func statusError(provider string, code int, body []byte) error {
	text := string(body)
	if len(text) > 500 {
		text = text[:500] + "..."
	}
	err := fmt.Errorf("%w: %s (status %d): %s", common.ErrProviderStatus, provider, code, text)

	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case code >= 500:
		return &common.RetryableError{Err: err, Retryable: true}
	default:
		return common.Permanent(err)
	}
}
