package dashboard

import (
	"fmt"
	"strconv"
)

// Chart kinds understood by the frontend.
const (
	KindLine      = "line"
	KindPie       = "pie"
	KindHistogram = "histogram"
	KindBar       = "bar"
)

// Chart is a renderer-neutral chart description.
type Chart struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	XLabel      string   `json:"xLabel,omitempty"`
	YLabel      string   `json:"yLabel,omitempty"`
	Y2Label     string   `json:"y2Label,omitempty"`
	Horizontal  bool     `json:"horizontal,omitempty"`
	Series      []Series `json:"series"`
	Annotations []string `json:"annotations,omitempty"`
	Empty       string   `json:"empty,omitempty"`
}

// Series is one named set of points.
type Series struct {
	Name      string  `json:"name"`
	Points    []Point `json:"points"`
	Secondary bool    `json:"secondary,omitempty"`
}

// Point is a labelled value.
type Point struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// Charts renders the dashboard into chart specs in display order.
func (d Dashboard) Charts() []Chart {
	return []Chart{
		d.uploadsChart(),
		d.fileTypesChart(),
		d.complexityChart(),
		d.trendChart(),
		d.legalAreasChart(),
		d.wordCountChart(),
		d.recentChart(),
	}
}

func (d Dashboard) uploadsChart() Chart {
	points := make([]Point, 0, len(d.UploadsByDay))
	for _, day := range d.UploadsByDay {
		points = append(points, Point{X: day.Date, Y: float64(day.Count)})
	}
	return Chart{
		ID:     "uploads_timeline",
		Kind:   KindLine,
		Title:  "Document Uploads Over Time",
		XLabel: "Date",
		YLabel: "Number of Documents",
		Series: []Series{{Name: "Uploads", Points: points}},
	}
}

func (d Dashboard) fileTypesChart() Chart {
	return Chart{
		ID:     "file_types",
		Kind:   KindPie,
		Title:  "File Types Distribution",
		Series: []Series{{Name: "File Types", Points: countPoints(d.ByFileType)}},
	}
}

func (d Dashboard) complexityChart() Chart {
	points := make([]Point, 0, len(d.Complexity.Bins))
	for _, bin := range d.Complexity.Bins {
		points = append(points, Point{X: strconv.Itoa(bin.Min), Y: float64(bin.Count)})
	}
	c := Chart{
		ID:     "complexity",
		Kind:   KindHistogram,
		Title:  "Document Complexity Distribution",
		XLabel: "Complexity Score (1-10)",
		YLabel: "Number of Documents",
		Series: []Series{{Name: "Documents", Points: points}},
	}
	if d.Metrics.TotalDocuments > 0 {
		c.Annotations = []string{fmt.Sprintf("Average: %.1f", d.Complexity.Average)}
	}
	return c
}

func (d Dashboard) trendChart() Chart {
	counts := make([]Point, 0, len(d.MonthlyTrend))
	avg := make([]Point, 0, len(d.MonthlyTrend))
	for _, m := range d.MonthlyTrend {
		counts = append(counts, Point{X: m.Month, Y: float64(m.Documents)})
		avg = append(avg, Point{X: m.Month, Y: float64(m.AverageWords)})
	}
	return Chart{
		ID:      "upload_trends",
		Kind:    KindLine,
		Title:   "Document Upload Trends",
		XLabel:  "Month",
		YLabel:  "Number of Documents",
		Y2Label: "Average Word Count",
		Series: []Series{
			{Name: "Document Count", Points: counts},
			{Name: "Avg Word Count", Points: avg, Secondary: true},
		},
	}
}

func (d Dashboard) legalAreasChart() Chart {
	c := Chart{
		ID:         "legal_areas",
		Kind:       KindBar,
		Title:      "Most Common Legal Areas",
		XLabel:     "Frequency",
		YLabel:     "Legal Areas",
		Horizontal: true,
		Series:     []Series{{Name: "Legal Areas", Points: countPoints(d.LegalAreas)}},
	}
	if len(d.LegalAreas) == 0 {
		c.Empty = "No legal area data available"
	}
	return c
}

func (d Dashboard) wordCountChart() Chart {
	points := make([]Point, 0, len(d.WordCounts))
	for _, bin := range d.WordCounts {
		points = append(points, Point{X: fmt.Sprintf("%d-%d", bin.Min, bin.Max), Y: float64(bin.Count)})
	}
	return Chart{
		ID:     "document_sizes",
		Kind:   KindHistogram,
		Title:  "Document Size Distribution",
		XLabel: "Word Count",
		YLabel: "Number of Documents",
		Series: []Series{{Name: "Size Distribution", Points: points}},
	}
}

func (d Dashboard) recentChart() Chart {
	points := make([]Point, 0, len(d.Recent))
	for _, item := range d.Recent {
		points = append(points, Point{X: shortName(item.FileName), Y: float64(item.WordCount)})
	}
	return Chart{
		ID:     "recent_activity",
		Kind:   KindBar,
		Title:  "Recent Activity",
		XLabel: "Document",
		YLabel: "Word Count",
		Series: []Series{{Name: "Recent Docs", Points: points}},
	}
}

func countPoints(counts []Count) []Point {
	points := make([]Point, 0, len(counts))
	for _, c := range counts {
		points = append(points, Point{X: c.Label, Y: float64(c.Count)})
	}
	return points
}

// shortName keeps bar labels readable.
func shortName(name string) string {
	r := []rune(name)
	if len(r) <= 20 {
		return name
	}
	return string(r[:20]) + "..."
}
