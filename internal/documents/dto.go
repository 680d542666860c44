package documents

import (
	"time"

	"legaldocs-backend/internal/analyses"
	"legaldocs-backend/internal/extract"
)

const previewChars = 200

// DocumentSummary is the list representation of a document.
type DocumentSummary struct {
	DocumentID      string     `json:"documentId"`
	FileName        string     `json:"fileName"`
	FileType        string     `json:"fileType"`
	MimeType        string     `json:"mimeType"`
	SizeBytes       int64      `json:"sizeBytes"`
	UploadedAt      time.Time  `json:"uploadedAt"`
	WordCount       int        `json:"wordCount"`
	Preview         string     `json:"preview"`
	ExtractionError string     `json:"extractionError,omitempty"`
	AnalysisStatus  string     `json:"analysisStatus"`
	AnalysisType    string     `json:"analysisType,omitempty"`
	AnalyzedAt      *time.Time `json:"analyzedAt,omitempty"`
}

// DocumentResponse is the full representation of a document.
type DocumentResponse struct {
	DocumentSummary
	Characters     int              `json:"characters"`
	ReadingMinutes int              `json:"readingMinutes"`
	Content        string           `json:"content"`
	Analysis       *analyses.Result `json:"analysis,omitempty"`
}

// ListResponse wraps a page of documents.
type ListResponse struct {
	Documents []DocumentSummary `json:"documents"`
	Count     int               `json:"count"`
}

func toSummary(doc Document) DocumentSummary {
	stats := extract.TextStats(doc.Content)
	s := DocumentSummary{
		DocumentID:      doc.ID,
		FileName:        doc.FileName,
		FileType:        string(doc.FileType),
		MimeType:        doc.MimeType,
		SizeBytes:       doc.SizeBytes,
		UploadedAt:      doc.UploadedAt,
		WordCount:       stats.Words,
		Preview:         preview(doc.Content),
		ExtractionError: doc.ExtractionError,
		AnalysisStatus:  doc.AnalysisStatus,
		AnalyzedAt:      doc.AnalyzedAt,
	}
	if doc.Analysis != nil {
		s.AnalysisType = string(doc.Analysis.AnalysisType)
	}
	return s
}

func toResponse(doc Document) DocumentResponse {
	stats := extract.TextStats(doc.Content)
	return DocumentResponse{
		DocumentSummary: toSummary(doc),
		Characters:      stats.Characters,
		ReadingMinutes:  stats.ReadingMinutes,
		Content:         doc.Content,
		Analysis:        doc.Analysis,
	}
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewChars {
		return content
	}
	return string(runes[:previewChars]) + "..."
}
