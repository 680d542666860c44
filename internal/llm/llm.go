package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Client sends a single prompt to a hosted model and returns its text output.
// When a successful reply cannot be read, the raw body is returned together
// with an error wrapping ErrBadResponse or ErrRejected.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Provider names a client for logs and stored results.
type Provider interface {
	Provider() string
	Model() string
}

var (
	ErrNotConfigured = errors.New("llm not configured")
	ErrTimeout       = errors.New("llm request timeout")
	ErrUnauthorized  = errors.New("llm credentials rejected")
	ErrUnavailable   = errors.New("llm service unavailable")
	ErrRejected      = errors.New("llm request rejected")
	ErrBadResponse   = errors.New("llm response unreadable")
)

// PlaceholderClient is used when no provider credentials are configured.
type PlaceholderClient struct{}

// Generate returns ErrNotConfigured.
func (PlaceholderClient) Generate(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", ErrNotConfigured
}

func (PlaceholderClient) Provider() string { return "none" }
func (PlaceholderClient) Model() string    { return "" }

// StatusError maps a non-2xx provider response to one of the sentinel errors.
func StatusError(provider string, status int, message string) error {
	message = strings.TrimSpace(message)
	if len(message) > 300 {
		message = message[:300]
	}
	var kind error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = ErrUnauthorized
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = ErrTimeout
	case status == http.StatusTooManyRequests || status >= 500:
		kind = ErrUnavailable
	default:
		kind = ErrRejected
	}
	if message == "" {
		return fmt.Errorf("%s http status %d: %w", provider, status, kind)
	}
	return fmt.Errorf("%s http status %d: %s: %w", provider, status, message, kind)
}

// TransportError classifies a failed round trip.
func TransportError(provider string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s request: %w: %v", provider, ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s request: %w", provider, err)
	}
	return fmt.Errorf("%s request: %w: %v", provider, ErrUnavailable, err)
}

// StripCodeFence removes a surrounding markdown code fence, if any.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
