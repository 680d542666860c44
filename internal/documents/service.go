package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"legaldocs-backend/internal/analyses"
	"legaldocs-backend/internal/extract"
	"legaldocs-backend/internal/llm"
	"legaldocs-backend/internal/shared/metrics"
	"legaldocs-backend/internal/shared/storage/object"
	"legaldocs-backend/internal/shared/telemetry"
	"legaldocs-backend/internal/shared/util"
)

// DefaultRetention is how old a document must be before Cleanup removes it.
const DefaultRetention = 30 * 24 * time.Hour

// Analyzer produces an analysis result for document text.
type Analyzer interface {
	Analyze(ctx context.Context, text string, req analyses.Request) (analyses.Result, error)
}

// Service contains business logic for documents.
type Service struct {
	Repo           Repo
	Store          object.ObjectStore
	Analyzer       Analyzer
	MaxUploadBytes int64
	Now            func() time.Time
}

// Upload validates, stores and extracts a file, then records the document.
// When extraction fails the document is still recorded with its
// ExtractionError set, and the *extract.Error is returned alongside it.
func (s *Service) Upload(ctx context.Context, fileName, declaredMime string, r io.Reader) (Document, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	maxBytes := s.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = extract.DefaultMaxBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return Document{}, fmt.Errorf("read upload: %w", err)
	}
	if err := extract.Validate(name, int64(len(data)), maxBytes); err != nil && !errors.Is(err, extract.ErrEmptyContent) {
		return Document{}, err
	}
	fileType, err := extract.DetectFileType(declaredMime, name, data)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		ID:             uuid.NewString(),
		FileName:       name,
		FileType:       fileType,
		MimeType:       fileType.MimeType(),
		SizeBytes:      int64(len(data)),
		AnalysisStatus: AnalysisPending,
		UploadedAt:     s.now(),
	}

	if s.Store != nil {
		key, _, err := s.Store.Save(ctx, name, bytes.NewReader(data))
		if err != nil {
			return Document{}, fmt.Errorf("store original: %w", err)
		}
		doc.StorageKey = key
	}

	text, extractErr := extract.ExtractTextFromBytes(ctx, data, fileType)
	if extractErr != nil {
		var xerr *extract.Error
		if !errors.As(extractErr, &xerr) {
			s.removeObject(doc)
			return Document{}, extractErr
		}
		doc.ExtractionError = xerr.Error()
		metrics.IncExtractionFailed(string(fileType))
		telemetry.Warn("document.extraction_failed", map[string]any{
			"document_id": doc.ID,
			"file_type":   string(fileType),
			"size_bytes":  doc.SizeBytes,
			"error":       xerr.Error(),
		})
	}
	doc.Content = text

	if err := s.Repo.Create(ctx, doc); err != nil {
		s.removeObject(doc)
		return Document{}, err
	}

	metrics.IncDocumentsUploaded()
	telemetry.Info("document.uploaded", map[string]any{
		"document_id": doc.ID,
		"file_type":   string(doc.FileType),
		"size_bytes":  doc.SizeBytes,
		"characters":  len([]rune(doc.Content)),
	})
	if extractErr != nil {
		return doc, extractErr
	}
	return doc, nil
}

// Get returns one document.
func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	if id == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns documents matching filter, newest first by default.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Document, error) {
	return s.Repo.List(ctx, filter)
}

// Analyze runs an analysis on the stored text and replaces the previous
// result. Failed runs are stored as well; in that case the updated document
// is returned together with the *analyses.Error.
func (s *Service) Analyze(ctx context.Context, id string, req analyses.Request) (Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if doc.Content == "" {
		return doc, ErrNoContent
	}
	if s.Analyzer == nil {
		return doc, &analyses.Error{Code: analyses.ErrorCodeLLMNotConfigured, Err: llm.ErrNotConfigured}
	}

	result, analyzeErr := s.Analyzer.Analyze(ctx, doc.Content, req)
	if result.AnalyzedAt.IsZero() {
		result.AnalyzedAt = s.now()
	}

	// The result is kept even when the caller went away mid-analysis.
	if err := s.Repo.UpdateAnalysis(context.WithoutCancel(ctx), id, result); err != nil {
		return doc, err
	}
	at := result.AnalyzedAt
	doc.Analysis = &result
	doc.AnalysisStatus = result.Status
	doc.AnalyzedAt = &at

	telemetry.Info("document.analyzed", map[string]any{
		"document_id":   id,
		"status":        result.Status,
		"analysis_type": string(result.AnalysisType),
		"error_code":    result.ErrorCode,
	})
	return doc, analyzeErr
}

// Delete removes a document, its analysis result and its stored original.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.removeObject(doc)
	metrics.IncDocumentsDeleted(1)
	telemetry.Info("document.deleted", map[string]any{"document_id": id})
	return nil
}

// Cleanup deletes documents uploaded more than olderThan ago and returns how
// many were removed.
func (s *Service) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		olderThan = DefaultRetention
	}
	cutoff := s.now().Add(-olderThan)
	docs, err := s.Repo.List(ctx, ListFilter{UploadedBefore: cutoff, Sort: SortOldest})
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, doc := range docs {
		if err := s.Repo.Delete(ctx, doc.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return deleted, err
		}
		s.removeObject(doc)
		deleted++
	}
	if deleted > 0 {
		metrics.IncDocumentsDeleted(deleted)
	}
	telemetry.Info("document.cleanup", map[string]any{
		"cutoff":  cutoff.Format(time.RFC3339),
		"deleted": deleted,
	})
	return deleted, nil
}

func (s *Service) removeObject(doc Document) {
	if s.Store == nil || doc.StorageKey == "" {
		return
	}
	if err := s.Store.Delete(context.Background(), doc.StorageKey); err != nil && !errors.Is(err, object.ErrNotFound) {
		telemetry.Warn("document.object_delete_failed", map[string]any{
			"document_id": doc.ID,
			"storage_key": doc.StorageKey,
			"error":       err.Error(),
		})
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
