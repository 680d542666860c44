// Package dashboard aggregates stored documents into the analytics view.
package dashboard

import (
	"sort"
	"strings"
	"time"

	"legaldocs-backend/internal/analyses"
	"legaldocs-backend/internal/documents"
	"legaldocs-backend/internal/extract"
)

const (
	complexityBins = 10
	wordCountBins  = 10
	topLegalAreas  = 10
	recentLimit    = 7
	unknownType    = "UNKNOWN"
)

// Dashboard is the aggregated analytics payload.
type Dashboard struct {
	GeneratedAt  time.Time       `json:"generatedAt"`
	Metrics      Metrics         `json:"metrics"`
	ByFileType   []Count         `json:"byFileType"`
	UploadsByDay []DayCount      `json:"uploadsByDay"`
	MonthlyTrend []MonthTrend    `json:"monthlyTrend"`
	Complexity   ComplexityStats `json:"complexity"`
	LegalAreas   []Count         `json:"legalAreas"`
	WordCounts   []Bin           `json:"wordCounts"`
	Recent       []RecentItem    `json:"recent"`
}

// Metrics are the headline numbers.
type Metrics struct {
	TotalDocuments    int        `json:"totalDocuments"`
	AnalyzedDocuments int        `json:"analyzedDocuments"`
	FailedAnalyses    int        `json:"failedAnalyses"`
	FailedExtractions int        `json:"failedExtractions"`
	TotalCharacters   int        `json:"totalCharacters"`
	TotalWords        int        `json:"totalWords"`
	AverageCharacters int        `json:"averageCharacters"`
	LatestUpload      *time.Time `json:"latestUpload,omitempty"`
}

// Count is a labelled frequency.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DayCount is the number of uploads on one UTC date (YYYY-MM-DD).
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// MonthTrend holds uploads and average word count for one UTC month (YYYY-MM).
type MonthTrend struct {
	Month        string `json:"month"`
	Documents    int    `json:"documents"`
	AverageWords int    `json:"averageWords"`
}

// Bin is a histogram bucket covering [Min, Max].
type Bin struct {
	Min   int `json:"min"`
	Max   int `json:"max"`
	Count int `json:"count"`
}

// ComplexityStats is the 1..10 score histogram. Estimated counts documents
// whose score was computed locally instead of taken from an analysis.
type ComplexityStats struct {
	Bins      []Bin   `json:"bins"`
	Average   float64 `json:"average"`
	Estimated int     `json:"estimated"`
}

// RecentItem is one of the most recent uploads.
type RecentItem struct {
	DocumentID string    `json:"documentId"`
	FileName   string    `json:"fileName"`
	WordCount  int       `json:"wordCount"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Build aggregates docs. It does not depend on the order of docs and never
// mutates them.
func Build(docs []documents.Document, now time.Time) Dashboard {
	d := Dashboard{
		GeneratedAt:  now.UTC(),
		ByFileType:   []Count{},
		UploadsByDay: []DayCount{},
		MonthlyTrend: []MonthTrend{},
		LegalAreas:   []Count{},
		WordCounts:   []Bin{},
		Recent:       []RecentItem{},
		Complexity:   ComplexityStats{Bins: scoreBins()},
	}
	if len(docs) == 0 {
		return d
	}

	byType := map[string]int{}
	byDay := map[string]int{}
	type monthAcc struct{ docs, words int }
	byMonth := map[string]*monthAcc{}
	areas := newCounter()
	words := make([]int, len(docs))
	scoreSum := 0

	for i, doc := range docs {
		st := extract.TextStats(doc.Content)
		words[i] = st.Words

		d.Metrics.TotalDocuments++
		d.Metrics.TotalCharacters += st.Characters
		d.Metrics.TotalWords += st.Words
		if doc.ExtractionError != "" {
			d.Metrics.FailedExtractions++
		}
		if doc.Analysis != nil {
			switch doc.Analysis.Status {
			case analyses.StatusCompleted:
				d.Metrics.AnalyzedDocuments++
				for _, area := range doc.Analysis.Insights.LegalAreas {
					areas.add(area)
				}
			case analyses.StatusFailed:
				d.Metrics.FailedAnalyses++
			}
		}
		uploaded := doc.UploadedAt.UTC()
		if d.Metrics.LatestUpload == nil || uploaded.After(*d.Metrics.LatestUpload) {
			latest := uploaded
			d.Metrics.LatestUpload = &latest
		}

		byType[fileTypeLabel(doc.FileType)]++
		byDay[uploaded.Format(time.DateOnly)]++
		month := uploaded.Format("2006-01")
		acc, ok := byMonth[month]
		if !ok {
			acc = &monthAcc{}
			byMonth[month] = acc
		}
		acc.docs++
		acc.words += st.Words

		score, estimated := complexityScore(doc, st)
		if estimated {
			d.Complexity.Estimated++
		}
		d.Complexity.Bins[score-1].Count++
		scoreSum += score
	}

	d.Metrics.AverageCharacters = d.Metrics.TotalCharacters / d.Metrics.TotalDocuments
	d.Complexity.Average = round1(float64(scoreSum) / float64(d.Metrics.TotalDocuments))
	d.ByFileType = fileTypeCounts(byType)
	for _, day := range sortedKeys(byDay) {
		d.UploadsByDay = append(d.UploadsByDay, DayCount{Date: day, Count: byDay[day]})
	}
	for _, month := range sortedKeys(byMonth) {
		acc := byMonth[month]
		d.MonthlyTrend = append(d.MonthlyTrend, MonthTrend{
			Month:        month,
			Documents:    acc.docs,
			AverageWords: (acc.words + acc.docs/2) / acc.docs,
		})
	}
	d.LegalAreas = areas.top(topLegalAreas)
	d.WordCounts = wordHistogram(words, wordCountBins)
	d.Recent = recent(docs, recentLimit)
	return d
}

// complexityScore prefers the score of a completed analysis and falls back
// to the local estimate.
func complexityScore(doc documents.Document, st extract.Stats) (int, bool) {
	if a := doc.Analysis; a != nil && a.Status == analyses.StatusCompleted {
		if s := a.Insights.ComplexityScore; s >= 1 && s <= complexityBins {
			return s, a.Insights.ComplexityEstimate
		}
	}
	return analyses.EstimateComplexity(st.Words, st.Uppercase), true
}

func fileTypeLabel(ft extract.FileType) string {
	label := strings.ToUpper(strings.TrimSpace(string(ft)))
	if label == "" {
		return unknownType
	}
	return label
}

// fileTypeCounts lists the supported types first, in a fixed order, followed
// by anything else alphabetically. Types with no documents are omitted.
func fileTypeCounts(byType map[string]int) []Count {
	out := []Count{}
	seen := map[string]bool{}
	for _, ft := range []extract.FileType{extract.FileTypePDF, extract.FileTypeDOCX, extract.FileTypeTXT} {
		label := string(ft)
		seen[label] = true
		if n := byType[label]; n > 0 {
			out = append(out, Count{Label: label, Count: n})
		}
	}
	for _, label := range sortedKeys(byType) {
		if !seen[label] {
			out = append(out, Count{Label: label, Count: byType[label]})
		}
	}
	return out
}

func scoreBins() []Bin {
	bins := make([]Bin, complexityBins)
	for i := range bins {
		bins[i] = Bin{Min: i + 1, Max: i + 1}
	}
	return bins
}

// wordHistogram spreads values over n equal-width integer buckets starting at
// zero. The last bucket always contains the maximum.
func wordHistogram(values []int, n int) []Bin {
	if len(values) == 0 || n <= 0 {
		return []Bin{}
	}
	maxVal := 0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	width := (maxVal + n) / n
	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Min: i * width, Max: (i+1)*width - 1}
	}
	for _, v := range values {
		idx := v / width
		if idx >= n {
			idx = n - 1
		}
		bins[idx].Count++
	}
	return bins
}

func recent(docs []documents.Document, limit int) []RecentItem {
	sorted := make([]documents.Document, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].UploadedAt.Equal(sorted[j].UploadedAt) {
			return sorted[i].UploadedAt.After(sorted[j].UploadedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]RecentItem, 0, len(sorted))
	for _, doc := range sorted {
		out = append(out, RecentItem{
			DocumentID: doc.ID,
			FileName:   doc.FileName,
			WordCount:  extract.TextStats(doc.Content).Words,
			UploadedAt: doc.UploadedAt.UTC(),
		})
	}
	return out
}

// counter tallies labels case-insensitively, keeping the first spelling seen.
type counter struct {
	counts map[string]int
	labels map[string]string
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}, labels: map[string]string{}}
}

func (c *counter) add(label string) {
	label = strings.Join(strings.Fields(label), " ")
	if label == "" {
		return
	}
	key := strings.ToLower(label)
	if _, ok := c.labels[key]; !ok {
		c.labels[key] = label
	}
	c.counts[key]++
}

func (c *counter) top(n int) []Count {
	out := make([]Count, 0, len(c.counts))
	for key, count := range c.counts {
		out = append(out, Count{Label: c.labels[key], Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return strings.ToLower(out[i].Label) < strings.ToLower(out[j].Label)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
