package documents

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"legaldocs-backend/internal/analyses"
	"legaldocs-backend/internal/extract"
	"legaldocs-backend/internal/extract/extracttest"
	"legaldocs-backend/internal/llm"
	"legaldocs-backend/internal/shared/storage/object"
	"legaldocs-backend/internal/shared/storage/object/local"
)

// scriptedLLM returns queued responses in order.
type scriptedLLM struct {
	mu      sync.Mutex
	outputs []string
	errs    []error
	calls   int
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	var out string
	var err error
	if i < len(s.outputs) {
		out = s.outputs[i]
	}
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return out, err
}

// stepClock advances one second per call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func newTestService(t *testing.T, repo Repo, client llm.Client) (*Service, *local.Store) {
	t.Helper()
	store := local.New(t.TempDir())
	clock := stepClock(time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC))
	svc := &Service{
		Repo:     repo,
		Store:    store,
		Analyzer: &analyses.Analyzer{LLM: client, Now: clock},
		Now:      clock,
	}
	return svc, store
}

func TestServiceUploadPDFThenTXT(t *testing.T) {
	for name, repo := range repoImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc, store := newTestService(t, repo, &scriptedLLM{})

			pdf := extracttest.TextPDF("Page one terms", "Page two terms", "Page three terms")
			pdfDoc, err := svc.Upload(ctx, "contract.pdf", "application/pdf", bytes.NewReader(pdf))
			if err != nil {
				t.Fatalf("upload pdf: %v", err)
			}
			if pdfDoc.FileType != extract.FileTypePDF {
				t.Fatalf("expected PDF, got %s", pdfDoc.FileType)
			}
			for _, page := range []string{"Page one", "Page two", "Page three"} {
				if !strings.Contains(pdfDoc.Content, page) {
					t.Fatalf("expected %q in content %q", page, pdfDoc.Content)
				}
			}

			txtDoc, err := svc.Upload(ctx, "note.txt", "", strings.NewReader("Hello world"))
			if err != nil {
				t.Fatalf("upload txt: %v", err)
			}
			if txtDoc.Content != "Hello world" {
				t.Fatalf("unexpected txt content %q", txtDoc.Content)
			}

			docs, err := svc.List(ctx, ListFilter{})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(docs) != 2 || docs[0].ID != txtDoc.ID || docs[1].ID != pdfDoc.ID {
				t.Fatalf("expected txt then pdf, got %v", ids(docs))
			}

			if err := svc.Delete(ctx, pdfDoc.ID); err != nil {
				t.Fatalf("delete pdf: %v", err)
			}
			docs, err = svc.List(ctx, ListFilter{})
			if err != nil {
				t.Fatalf("list after delete: %v", err)
			}
			if len(docs) != 1 || docs[0].ID != txtDoc.ID {
				t.Fatalf("expected only txt left, got %v", ids(docs))
			}
			if _, err := store.Open(ctx, pdfDoc.StorageKey); !errors.Is(err, object.ErrNotFound) {
				t.Fatalf("expected stored original to be removed, got %v", err)
			}
		})
	}
}

func TestServiceUploadCorruptIsPersisted(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	svc, _ := newTestService(t, repo, &scriptedLLM{})

	doc, err := svc.Upload(ctx, "broken.pdf", "application/pdf", strings.NewReader("%PDF-1.4 this is not a pdf"))
	var xerr *extract.Error
	if !errors.As(err, &xerr) {
		t.Fatalf("expected *extract.Error, got %v", err)
	}
	if doc.ID == "" || doc.ExtractionError == "" || doc.Content != "" {
		t.Fatalf("expected persisted document with extraction error, got %+v", doc)
	}
	stored, err := repo.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("expected document to be stored: %v", err)
	}
	if stored.FileType != extract.FileTypePDF || stored.FileName != "broken.pdf" {
		t.Fatalf("unexpected stored document %+v", stored)
	}

	_, err = svc.Analyze(ctx, doc.ID, analyses.Request{})
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestServiceUploadRejections(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	svc, _ := newTestService(t, repo, &scriptedLLM{})
	svc.MaxUploadBytes = 16

	if _, err := svc.Upload(ctx, "big.txt", "text/plain", strings.NewReader(strings.Repeat("a", 17))); !errors.Is(err, extract.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if _, err := svc.Upload(ctx, "image.png", "image/png", bytes.NewReader([]byte("\x89PNG\r\n\x1a\n"))); !errors.Is(err, extract.ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if _, err := svc.Upload(ctx, "../etc/passwd", "", strings.NewReader("x")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	docs, _ := repo.List(ctx, ListFilter{})
	if len(docs) != 0 {
		t.Fatalf("rejected uploads must not be stored, got %v", ids(docs))
	}
}

func TestServiceReanalysisReplacesResult(t *testing.T) {
	ctx := context.Background()
	client := &scriptedLLM{
		outputs: []string{
			`{"summary":"First pass","keyPoints":["a","b"],"riskFlags":["High: penalty"]}`,
			`{"summary":"Second pass","keyPoints":["c"]}`,
			"not an analysis",
		},
	}
	svc, _ := newTestService(t, NewMemoryRepo(), client)

	doc, err := svc.Upload(ctx, "agreement.txt", "text/plain", strings.NewReader("This AGREEMENT binds the PARTIES."))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	first, err := svc.Analyze(ctx, doc.ID, analyses.Request{Type: analyses.TypeRiskAssessment})
	if err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	if first.Analysis.Summary != "First pass" || len(first.Analysis.RiskFlags) != 1 {
		t.Fatalf("unexpected first result %+v", first.Analysis)
	}

	second, err := svc.Analyze(ctx, doc.ID, analyses.Request{Type: analyses.TypeSummary})
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	stored, err := svc.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Analysis.Summary != "Second pass" || len(stored.Analysis.RiskFlags) != 0 || stored.Analysis.AnalysisType != analyses.TypeSummary {
		t.Fatalf("expected second result to replace first, got %+v", stored.Analysis)
	}
	if second.AnalysisStatus != analyses.StatusCompleted {
		t.Fatalf("expected completed status, got %q", second.AnalysisStatus)
	}

	failed, err := svc.Analyze(ctx, doc.ID, analyses.Request{})
	var aerr *analyses.Error
	if !errors.As(err, &aerr) || aerr.Code != analyses.ErrorCodeLLMSchemaMismatch {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	if failed.AnalysisStatus != analyses.StatusFailed || failed.Analysis.RawResponse != "not an analysis" {
		t.Fatalf("expected failed result with raw response, got %+v", failed.Analysis)
	}
	stored, _ = svc.Get(ctx, doc.ID)
	if stored.AnalysisStatus != analyses.StatusFailed || stored.Analysis.Summary != "" {
		t.Fatalf("expected failed result to be stored, got %+v", stored.Analysis)
	}
}

func TestServiceAnalyzeMissingDocument(t *testing.T) {
	svc, _ := newTestService(t, NewMemoryRepo(), &scriptedLLM{})
	if _, err := svc.Analyze(context.Background(), "missing", analyses.Request{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestServiceCleanup(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	svc, _ := newTestService(t, repo, &scriptedLLM{})
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	for id, age := range map[string]time.Duration{"old": 40 * 24 * time.Hour, "recent": 2 * time.Hour} {
		doc := Document{ID: id, FileName: id + ".txt", FileType: extract.FileTypeTXT, Content: "x", UploadedAt: now.Add(-age)}
		if err := repo.Create(ctx, doc); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	deleted, err := svc.Cleanup(ctx, 0)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}
	docs, _ := repo.List(ctx, ListFilter{})
	if len(docs) != 1 || docs[0].ID != "recent" {
		t.Fatalf("expected only recent document, got %v", ids(docs))
	}
}
