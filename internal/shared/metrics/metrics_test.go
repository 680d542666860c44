package metrics

import (
	"strings"
	"testing"
)

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	var b strings.Builder
	snap := h.Snapshot()
	var cumulative uint64
	for i := range snap.buckets {
		cumulative += snap.counts[i]
		b.WriteString(formatFloat(snap.buckets[i]))
		b.WriteString("=")
		b.WriteString(formatFloat(float64(cumulative)))
		b.WriteString(" ")
	}
	if got := strings.TrimSpace(b.String()); got != "10=1 100=2" {
		t.Fatalf("unexpected cumulative buckets: %q", got)
	}
	if snap.count != 3 {
		t.Fatalf("expected 3 observations, got %d", snap.count)
	}
}

func TestRenderIncludesLabeledFailures(t *testing.T) {
	IncAnalysisFailed("LLM_TIMEOUT")
	IncExtractionFailed("PDF")

	out := Render()
	for _, want := range []string{
		`analysis_failed_total{code="LLM_TIMEOUT"}`,
		`extraction_failed_total{file_type="PDF"}`,
		"# TYPE analysis_duration_ms histogram",
		"documents_uploaded_total",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
