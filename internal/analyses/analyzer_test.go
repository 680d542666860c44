package analyses

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legaldocs-backend/internal/llm"
	"legaldocs-backend/internal/llm/gemini"
)

type fakeLLM struct {
	out     string
	err     error
	prompts []string
	block   bool
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.out, f.err
}

func (f *fakeLLM) Provider() string { return "fake" }
func (f *fakeLLM) Model() string    { return "fake-1" }

func fixedNow() func() time.Time {
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func TestAnalyzeCompleted(t *testing.T) {
	client := &fakeLLM{out: `{"summary":"Lease agreement.","keyPoints":["Rent is $1,000"],"insights":{"complexityScore":4,"legalAreas":["Property"]}}`}
	a := &Analyzer{LLM: client, Now: fixedNow()}

	res, err := a.Analyze(context.Background(), "The Tenant shall pay rent.", Request{Type: TypeSummary, Options: DefaultOptions()})
	require.NoError(t, err)
	require.Len(t, client.prompts, 1)

	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, TypeSummary, res.AnalysisType)
	assert.Equal(t, LevelIntermediate, res.DetailLevel)
	assert.Equal(t, "Lease agreement.", res.Summary)
	assert.Equal(t, 4, res.Insights.ComplexityScore)
	assert.Equal(t, "Medium", res.Insights.ComplexityLevel)
	assert.Equal(t, 5, res.Insights.WordCount)
	assert.Equal(t, "fake", res.Provider)
	assert.Equal(t, "fake-1", res.Model)
	assert.Equal(t, client.out, res.RawResponse)
	assert.Empty(t, res.ErrorCode)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), res.AnalyzedAt)
}

func TestAnalyzeRequeriesEveryTime(t *testing.T) {
	client := &fakeLLM{out: `{"summary":"s"}`}
	a := &Analyzer{LLM: client}
	for i := 0; i < 2; i++ {
		_, err := a.Analyze(context.Background(), "same text", Request{})
		require.NoError(t, err)
	}
	assert.Len(t, client.prompts, 2)
}

func TestAnalyzeSchemaMismatchKeepsRaw(t *testing.T) {
	client := &fakeLLM{out: "Sorry, I can only answer questions about cooking."}
	a := &Analyzer{LLM: client}

	res, err := a.Analyze(context.Background(), "contract text", Request{})
	require.Error(t, err)

	var aerr *Error
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, ErrorCodeLLMSchemaMismatch, aerr.Code)
	assert.Equal(t, client.out, aerr.Raw)
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, ErrorCodeLLMSchemaMismatch, res.ErrorCode)
	assert.Equal(t, client.out, res.RawResponse)
	assert.NotEmpty(t, res.Error)
}

func TestAnalyzeUnreadableProviderReplyKeepsRaw(t *testing.T) {
	body := `<html>proxy says hi: SUMMARY: not json</html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	client, err := gemini.NewClient(context.Background(), gemini.Options{
		APIKey:  "test-key",
		Model:   "gemini-2.5-flash",
		BaseURL: srv.URL,
		Timeout: time.Second,
	})
	require.NoError(t, err)

	res, err := (&Analyzer{LLM: client}).Analyze(context.Background(), "contract text", Request{})
	var aerr *Error
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, ErrorCodeLLMSchemaMismatch, aerr.Code)
	assert.ErrorIs(t, err, llm.ErrBadResponse)
	assert.Equal(t, body, aerr.Raw)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, body, res.RawResponse)
}

func TestAnalyzeMapsClientErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "auth", err: llm.StatusError("gemini", 401, "bad key"), want: ErrorCodeLLMAuth},
		{name: "unavailable", err: llm.StatusError("gemini", 503, ""), want: ErrorCodeLLMUnavailable},
		{name: "rejected", err: llm.StatusError("gemini", 400, "blocked"), want: ErrorCodeLLMRejected},
		{name: "timeout", err: llm.ErrTimeout, want: ErrorCodeLLMTimeout},
		{name: "not configured", err: llm.ErrNotConfigured, want: ErrorCodeLLMNotConfigured},
		{name: "bad response", err: llm.ErrBadResponse, want: ErrorCodeLLMSchemaMismatch},
		{name: "network", err: errors.New("dial tcp: connection refused"), want: ErrorCodeLLMUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Analyzer{LLM: &fakeLLM{err: tt.err}}
			res, err := a.Analyze(context.Background(), "text", Request{})
			var aerr *Error
			require.True(t, errors.As(err, &aerr))
			assert.Equal(t, tt.want, aerr.Code)
			assert.Equal(t, tt.want, res.ErrorCode)
		})
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	a := &Analyzer{LLM: &fakeLLM{block: true}, Timeout: 20 * time.Millisecond}
	_, err := a.Analyze(context.Background(), "text", Request{})

	var aerr *Error
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, ErrorCodeLLMTimeout, aerr.Code)
	assert.True(t, aerr.Timeout())
}

func TestAnalyzeEmptyText(t *testing.T) {
	client := &fakeLLM{}
	a := &Analyzer{LLM: client}
	res, err := a.Analyze(context.Background(), "   ", Request{})

	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Equal(t, ErrorCodeValidation, res.ErrorCode)
	assert.Empty(t, client.prompts)
}

func TestAnalyzePlaceholderClient(t *testing.T) {
	a := &Analyzer{LLM: llm.PlaceholderClient{}}
	res, err := a.Analyze(context.Background(), "text", Request{})
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
	assert.Equal(t, ErrorCodeLLMNotConfigured, res.ErrorCode)
	assert.Equal(t, "none", res.Provider)
}
