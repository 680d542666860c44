package analyses

import (
	"context"
	"errors"
	"strings"
	"time"

	"legaldocs-backend/internal/llm"
	"legaldocs-backend/internal/shared/metrics"
	"legaldocs-backend/internal/shared/telemetry"
)

// DefaultTimeout bounds one model call.
const DefaultTimeout = 120 * time.Second

// Analyzer turns document text into a Result with a single model call.
// It holds no per-document state and is safe for concurrent use.
type Analyzer struct {
	LLM            llm.Client
	MaxPromptChars int
	Timeout        time.Duration
	Now            func() time.Time
}

// Analyze runs one analysis. On failure the returned Result has
// Status=failed and carries the error code and any raw model output, and
// the error is an *Error.
func (a *Analyzer) Analyze(ctx context.Context, text string, req Request) (Result, error) {
	req = req.normalized()
	start := a.now()
	res := Result{
		AnalysisType: req.Type,
		DetailLevel:  req.Level,
		Options:      req.Options,
	}
	if p, ok := a.LLM.(llm.Provider); ok {
		res.Provider = p.Provider()
		res.Model = p.Model()
	}

	if strings.TrimSpace(text) == "" {
		return a.fail(res, start, &Error{Code: ErrorCodeValidation, Err: ErrEmptyText})
	}
	if a.LLM == nil {
		return a.fail(res, start, &Error{Code: ErrorCodeLLMNotConfigured, Err: llm.ErrNotConfigured})
	}

	prompt, err := BuildPrompt(text, req, a.MaxPromptChars)
	if err != nil {
		return a.fail(res, start, &Error{Code: ErrorCodeValidation, Err: err})
	}

	metrics.IncAnalysisStarted()
	telemetry.Info("analysis.status", map[string]any{
		"status":        "started",
		"analysis_type": string(req.Type),
		"detail_level":  string(req.Level),
		"provider":      res.Provider,
		"model":         res.Model,
		"prompt_chars":  len(prompt),
	})

	callCtx, cancel := context.WithTimeout(ctx, a.timeout())
	defer cancel()
	raw, err := a.LLM.Generate(callCtx, prompt)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = errors.Join(llm.ErrTimeout, err)
		}
		return a.fail(res, start, &Error{Code: codeForLLMError(err), Raw: raw, Err: err})
	}

	parsed, err := parseResponse(raw)
	if err != nil {
		return a.fail(res, start, &Error{Code: ErrorCodeLLMSchemaMismatch, Raw: raw, Err: err})
	}
	parsed.AnalysisType = res.AnalysisType
	parsed.DetailLevel = res.DetailLevel
	parsed.Options = res.Options
	parsed.Provider = res.Provider
	parsed.Model = res.Model
	parsed.RawResponse = raw
	parsed.Status = StatusCompleted
	fillInsights(&parsed.Insights, text)

	end := a.now()
	parsed.AnalyzedAt = end
	parsed.DurationMs = end.Sub(start).Milliseconds()

	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(float64(parsed.DurationMs))
	telemetry.Info("analysis.status", map[string]any{
		"status":           "completed",
		"analysis_type":    string(req.Type),
		"duration_ms":      parsed.DurationMs,
		"key_points":       len(parsed.KeyPoints),
		"risk_flags":       len(parsed.RiskFlags),
		"complexity_score": parsed.Insights.ComplexityScore,
	})
	return parsed, nil
}

func (a *Analyzer) fail(res Result, start time.Time, aerr *Error) (Result, error) {
	end := a.now()
	res.Status = StatusFailed
	res.ErrorCode = aerr.Code
	res.Error = aerr.Error()
	res.RawResponse = aerr.Raw
	res.AnalyzedAt = end
	res.DurationMs = end.Sub(start).Milliseconds()

	metrics.IncAnalysisFailed(aerr.Code)
	telemetry.Warn("analysis.status", map[string]any{
		"status":        "failed",
		"analysis_type": string(res.AnalysisType),
		"error_code":    aerr.Code,
		"error":         aerr.Error(),
		"has_raw":       aerr.Raw != "",
		"duration_ms":   res.DurationMs,
	})
	return res, aerr
}

func (a *Analyzer) timeout() time.Duration {
	if a.Timeout > 0 {
		return a.Timeout
	}
	return DefaultTimeout
}

func (a *Analyzer) now() time.Time {
	if a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}
