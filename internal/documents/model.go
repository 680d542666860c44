package documents

import (
	"time"

	"legaldocs-backend/internal/analyses"
	"legaldocs-backend/internal/extract"
)

// AnalysisPending marks a document that has not been analyzed yet. Analyzed
// documents carry analyses.StatusCompleted or analyses.StatusFailed.
const AnalysisPending = "pending"

// Document is one uploaded file with its extracted text and latest analysis.
type Document struct {
	ID              string
	FileName        string
	FileType        extract.FileType
	MimeType        string
	SizeBytes       int64
	StorageKey      string
	Content         string
	ExtractionError string
	AnalysisStatus  string
	Analysis        *analyses.Result
	UploadedAt      time.Time
	AnalyzedAt      *time.Time
	// Seq is the insertion order assigned by the repository. It breaks ties
	// between documents uploaded at the same instant.
	Seq int64
}

// Analyzed reports whether a completed analysis is attached.
func (d Document) Analyzed() bool {
	return d.Analysis != nil && d.AnalysisStatus == analyses.StatusCompleted
}
