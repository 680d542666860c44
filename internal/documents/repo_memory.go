package documents

import (
	"context"
	"sync"
	"time"

	"legaldocs-backend/internal/analyses"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document
	seq  int64
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Document),
	}
}

// Create stores a document. An existing id is overwritten.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.AnalysisStatus == "" {
		doc.AnalysisStatus = AnalysisPending
	}
	doc.UploadedAt = doc.UploadedAt.UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	doc.Seq = r.seq
	r.data[doc.ID] = cloneDocument(doc)
	return nil
}

// GetByID returns a document by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return cloneDocument(doc), nil
}

// List returns matching documents in the requested order.
func (r *MemoryRepo) List(ctx context.Context, filter ListFilter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := filter.normalized()

	r.mu.RLock()
	docs := make([]Document, 0, len(r.data))
	for _, doc := range r.data {
		if f.matches(doc) {
			docs = append(docs, cloneDocument(doc))
		}
	}
	r.mu.RUnlock()

	sortDocuments(docs, f.Sort)
	if f.Limit > 0 && len(docs) > f.Limit {
		docs = docs[:f.Limit]
	}
	return docs, nil
}

// UpdateAnalysis replaces the analysis result of a document.
func (r *MemoryRepo) UpdateAnalysis(ctx context.Context, id string, result analyses.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	at := result.AnalyzedAt
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()
	doc.AnalysisStatus = result.Status
	doc.Analysis = &result
	doc.AnalyzedAt = &at
	r.data[id] = cloneDocument(doc)
	return nil
}

// Delete removes a document.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// cloneDocument copies the analysis so callers cannot mutate stored state.
func cloneDocument(doc Document) Document {
	if doc.Analysis != nil {
		res := *doc.Analysis
		res.KeyPoints = append([]string(nil), res.KeyPoints...)
		res.RiskFlags = append([]analyses.RiskFlag(nil), res.RiskFlags...)
		res.Entities = append([]analyses.Entity(nil), res.Entities...)
		res.Timeline = append([]analyses.TimelineEvent(nil), res.Timeline...)
		res.Recommendations = append([]string(nil), res.Recommendations...)
		res.Insights.LegalAreas = append([]string(nil), res.Insights.LegalAreas...)
		res.Insights.ImportantDates = append([]string(nil), res.Insights.ImportantDates...)
		doc.Analysis = &res
	}
	if doc.AnalyzedAt != nil {
		at := *doc.AnalyzedAt
		doc.AnalyzedAt = &at
	}
	return doc
}

var (
	_ Repo = (*MemoryRepo)(nil)
	_ Repo = (*SQLRepo)(nil)
)
