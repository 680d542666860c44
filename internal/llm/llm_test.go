package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusError(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{status: http.StatusUnauthorized, want: ErrUnauthorized},
		{status: http.StatusForbidden, want: ErrUnauthorized},
		{status: http.StatusGatewayTimeout, want: ErrTimeout},
		{status: http.StatusTooManyRequests, want: ErrUnavailable},
		{status: http.StatusServiceUnavailable, want: ErrUnavailable},
		{status: http.StatusBadRequest, want: ErrRejected},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := StatusError("gemini", tt.status, "boom")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	if err := TransportError("openai", context.DeadlineExceeded); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if err := TransportError("openai", errors.New("connection refused")); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := TransportError("openai", context.Canceled); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		"{\"a\":1}":                  `{"a":1}`,
		"```json\n{\"a\":1}\n```":    `{"a":1}`,
		"```\n{\"a\":1}```":          `{"a":1}`,
		"  plain text response  \n": "plain text response",
	}
	for in, want := range tests {
		if got := StripCodeFence(in); got != want {
			t.Fatalf("StripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPlaceholderClient(t *testing.T) {
	_, err := PlaceholderClient{}.Generate(context.Background(), "hi")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
