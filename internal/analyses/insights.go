package analyses

import "legaldocs-backend/internal/extract"

// EstimateInsights computes the indicators that do not need a model.
func EstimateInsights(text string) Insights {
	st := extract.TextStats(text)
	score := EstimateComplexity(st.Words, st.Uppercase)
	return Insights{
		ComplexityScore:    score,
		ComplexityLevel:    ComplexityLevel(score),
		ComplexityEstimate: true,
		WordCount:          st.Words,
		CharacterCount:     st.Characters,
		ReadingTimeMinutes: st.ReadingMinutes,
	}
}

// EstimateComplexity scores a text 1..10 from its length and the amount of
// capitalised wording (defined terms, headings).
func EstimateComplexity(words, uppercase int) int {
	return clampScore(words/500 + uppercase/100)
}

// ComplexityLevel buckets a 1..10 score.
func ComplexityLevel(score int) string {
	switch {
	case score <= 3:
		return "Low"
	case score <= 7:
		return "Medium"
	default:
		return "High"
	}
}

// fillInsights completes model-provided insights with local counts. A missing
// or out of range complexity score is replaced by the estimate.
func fillInsights(in *Insights, text string) {
	est := EstimateInsights(text)
	in.WordCount = est.WordCount
	in.CharacterCount = est.CharacterCount
	in.ReadingTimeMinutes = est.ReadingTimeMinutes
	if in.ComplexityScore < 1 || in.ComplexityScore > 10 {
		in.ComplexityScore = est.ComplexityScore
		in.ComplexityEstimate = true
	}
	in.ComplexityLevel = ComplexityLevel(in.ComplexityScore)
}

func clampScore(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
