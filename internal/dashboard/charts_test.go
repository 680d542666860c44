package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chartByID(t *testing.T, charts []Chart, id string) Chart {
	t.Helper()
	for _, c := range charts {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("chart %q not found", id)
	return Chart{}
}

func TestCharts(t *testing.T) {
	charts := Build(sampleDocs(), time.Now()).Charts()
	require.Len(t, charts, 7)

	uploads := chartByID(t, charts, "uploads_timeline")
	assert.Equal(t, KindLine, uploads.Kind)
	assert.Equal(t, "Document Uploads Over Time", uploads.Title)
	assert.Equal(t, "Number of Documents", uploads.YLabel)
	assert.Len(t, uploads.Series[0].Points, 4)

	types := chartByID(t, charts, "file_types")
	assert.Equal(t, KindPie, types.Kind)
	total := 0.0
	for _, p := range types.Series[0].Points {
		total += p.Y
	}
	assert.Equal(t, 5.0, total)

	complexity := chartByID(t, charts, "complexity")
	assert.Equal(t, KindHistogram, complexity.Kind)
	assert.Equal(t, "Complexity Score (1-10)", complexity.XLabel)
	assert.Equal(t, []string{"Average: 2.2"}, complexity.Annotations)
	assert.Equal(t, Point{X: "7", Y: 1}, complexity.Series[0].Points[6])

	trends := chartByID(t, charts, "upload_trends")
	require.Len(t, trends.Series, 2)
	assert.True(t, trends.Series[1].Secondary)
	assert.Equal(t, "Average Word Count", trends.Y2Label)

	areas := chartByID(t, charts, "legal_areas")
	assert.True(t, areas.Horizontal)
	assert.Empty(t, areas.Empty)
	assert.Equal(t, Point{X: "Contract Law", Y: 2}, areas.Series[0].Points[0])

	sizes := chartByID(t, charts, "document_sizes")
	assert.Equal(t, "0-2", sizes.Series[0].Points[0].X)
}

func TestChartsEmpty(t *testing.T) {
	charts := Build(nil, time.Now()).Charts()

	areas := chartByID(t, charts, "legal_areas")
	assert.Equal(t, "No legal area data available", areas.Empty)
	assert.Empty(t, chartByID(t, charts, "complexity").Annotations)
	assert.Empty(t, chartByID(t, charts, "recent_activity").Series[0].Points)
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "short.pdf", shortName("short.pdf"))
	assert.Equal(t, "a_very_long_contract...", shortName("a_very_long_contract_name_2025.pdf"))
}
