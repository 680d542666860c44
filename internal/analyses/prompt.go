package analyses

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
	"unicode/utf8"
)

// DefaultMaxPromptChars bounds how much document text is sent to the model.
const DefaultMaxPromptChars = 8000

//go:embed prompts/analysis.tmpl
var analysisTemplateText string

var analysisTemplate = template.Must(template.New("analysis").Parse(analysisTemplateText))

var levelGuidance = map[Level]string{
	LevelBasic:        "Use short sentences and avoid legal jargon.",
	LevelIntermediate: "Explain legal terms briefly where they matter.",
	LevelAdvanced:     "Discuss clause interactions and notable drafting choices.",
	LevelExpert:       "Write for a practising lawyer; cite clauses and note enforceability concerns.",
}

var typeFocus = map[Type][]string{
	TypeSummary: {
		"the document's purpose in two or three sentences",
		"the parties and what each of them gives and gets",
	},
	TypeKeyPoints: {
		"critical clauses and provisions",
		"rights and obligations",
		"important definitions",
		"performance requirements",
	},
	TypeRiskAssessment: {
		"potential legal risks",
		"liability issues",
		"compliance requirements",
		"financial obligations",
		"termination clauses",
	},
	TypeEntityExtraction: {
		"parties involved",
		"important dates and deadlines",
		"key legal terms",
		"amounts",
	},
	TypeContractReview: {
		"one-sided or unusual terms",
		"missing standard protections",
		"payment, renewal and termination mechanics",
		"points worth negotiating",
	},
	TypeComplianceCheck: {
		"regulatory obligations the document creates or references",
		"gaps against common compliance requirements",
		"reporting and record keeping duties",
	},
}

type promptData struct {
	TypeLabel        string
	LevelLabel       string
	LevelGuidance    string
	Focus            []string
	ExtractEntities  bool
	AssessRisks      bool
	TimelineAnalysis bool
	Text             string
	Truncated        bool
	MaxChars         int
}

// BuildPrompt renders the single prompt sent for req. Text beyond maxChars
// characters is dropped.
func BuildPrompt(text string, req Request, maxChars int) (string, error) {
	req = req.normalized()
	if maxChars <= 0 {
		maxChars = DefaultMaxPromptChars
	}
	body, truncated := truncateRunes(text, maxChars)

	opts := req.Options
	switch req.Type {
	case TypeRiskAssessment:
		opts.AssessRisks = true
	case TypeEntityExtraction:
		opts.ExtractEntities = true
	}

	data := promptData{
		TypeLabel:        req.Type.Label(),
		LevelLabel:       string(req.Level),
		LevelGuidance:    levelGuidance[req.Level],
		Focus:            typeFocus[req.Type],
		ExtractEntities:  opts.ExtractEntities,
		AssessRisks:      opts.AssessRisks,
		TimelineAnalysis: opts.TimelineAnalysis,
		Text:             body,
		Truncated:        truncated,
		MaxChars:         maxChars,
	}
	var buf bytes.Buffer
	if err := analysisTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render analysis prompt: %w", err)
	}
	return buf.String(), nil
}

func truncateRunes(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}
