package main

// Development helper that extracts and analyzes a single file without the
// HTTP server and prints the result to stdout.
//   go run ./cmd/analyzefile -file contract.pdf -type risk_assessment

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"legaldocs-backend/internal/analyses"
	"legaldocs-backend/internal/extract"
	"legaldocs-backend/internal/llm"
	"legaldocs-backend/internal/llm/gemini"
	"legaldocs-backend/internal/llm/openai"
	"legaldocs-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	filePath := flag.String("file", "", "Path to a PDF, DOCX or TXT file")
	analysisType := flag.String("type", string(analyses.TypeComprehensive), "Analysis type")
	level := flag.String("level", string(analyses.LevelIntermediate), "Detail level")
	timeline := flag.Bool("timeline", false, "Include timeline analysis")
	extractOnly := flag.Bool("extract-only", false, "Print extracted text and stop")
	promptOnly := flag.Bool("prompt-only", false, "Print the prompt and stop")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider (gemini or openai)")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	flag.Parse()

	if strings.TrimSpace(*filePath) == "" {
		exitErr("file path is required")
	}
	data, err := os.ReadFile(*filePath)
	if err != nil {
		exitErr(fmt.Sprintf("read file: %v", err))
	}
	fileName := filepath.Base(*filePath)

	ft, err := extract.DetectFileType("", fileName, data)
	if err != nil {
		exitErr(err.Error())
	}
	ctx := context.Background()
	text, err := extract.ExtractTextFromBytes(ctx, data, ft)
	if err != nil {
		exitErr(fmt.Sprintf("extract text: %v", err))
	}
	if *extractOnly {
		fmt.Println(text)
		return
	}

	req, err := buildRequest(*analysisType, *level, *timeline)
	if err != nil {
		exitErr(err.Error())
	}
	if *promptOnly {
		prompt, err := analyses.BuildPrompt(text, req, cfg.MaxPromptChars)
		if err != nil {
			exitErr(err.Error())
		}
		fmt.Println(prompt)
		return
	}

	client, err := buildClient(ctx, cfg, *provider, *model)
	if err != nil {
		exitErr(err.Error())
	}
	analyzer := &analyses.Analyzer{LLM: client, MaxPromptChars: cfg.MaxPromptChars, Timeout: cfg.LLMTimeout}
	result, analyzeErr := analyzer.Analyze(ctx, text, req)

	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	pretty = append(pretty, '\n')
	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}

	var aerr *analyses.Error
	if errors.As(analyzeErr, &aerr) {
		exitErr(fmt.Sprintf("analysis failed (%s): %v", aerr.Code, aerr.Err))
	}
}

func buildRequest(kind, level string, timeline bool) (analyses.Request, error) {
	t, err := analyses.ParseType(kind)
	if err != nil {
		return analyses.Request{}, err
	}
	l, err := analyses.ParseLevel(level)
	if err != nil {
		return analyses.Request{}, err
	}
	opts := analyses.DefaultOptions()
	opts.TimelineAnalysis = timeline
	return analyses.Request{Type: t, Level: l, Options: opts}, nil
}

func buildClient(ctx context.Context, cfg config.Config, provider, model string) (llm.Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai":
		return openai.NewClient(cfg.OpenAIAPIKey, model, cfg.LLMBaseURL, cfg.LLMTimeout)
	case "", "gemini":
		return gemini.NewClient(ctx, gemini.Options{
			APIKey:  cfg.GeminiAPIKey,
			Model:   model,
			BaseURL: cfg.LLMBaseURL,
			Timeout: cfg.LLMTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
