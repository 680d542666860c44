package documents

import (
	"context"
	"sort"
	"strings"
	"time"

	"legaldocs-backend/internal/analyses"
	"legaldocs-backend/internal/extract"
)

// Repo persists documents. Implementations return ErrNotFound for unknown
// ids and wrap every other failure with ErrStorage.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id string) (Document, error)
	List(ctx context.Context, filter ListFilter) ([]Document, error)
	UpdateAnalysis(ctx context.Context, id string, result analyses.Result) error
	Delete(ctx context.Context, id string) error
}

const (
	SortNewest   = "newest"
	SortOldest   = "oldest"
	SortFileName = "filename"
)

// ListFilter narrows List results. Zero values mean no restriction.
type ListFilter struct {
	FileType       extract.FileType
	Status         string
	Search         string
	Sort           string
	UploadedBefore time.Time
	Limit          int
}

func (f ListFilter) normalized() ListFilter {
	f.Search = strings.TrimSpace(f.Search)
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	switch strings.ToLower(strings.TrimSpace(f.Sort)) {
	case SortOldest:
		f.Sort = SortOldest
	case SortFileName, "name":
		f.Sort = SortFileName
	default:
		f.Sort = SortNewest
	}
	if f.Limit < 0 {
		f.Limit = 0
	}
	return f
}

func (f ListFilter) matches(doc Document) bool {
	if f.FileType != "" && doc.FileType != f.FileType {
		return false
	}
	if f.Status != "" && doc.AnalysisStatus != f.Status {
		return false
	}
	if !f.UploadedBefore.IsZero() && !doc.UploadedAt.Before(f.UploadedBefore) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(doc.FileName), q) && !strings.Contains(strings.ToLower(doc.Content), q) {
			return false
		}
	}
	return true
}

// sortDocuments orders docs the way the SQL repo does.
func sortDocuments(docs []Document, order string) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		switch order {
		case SortOldest:
			if !a.UploadedAt.Equal(b.UploadedAt) {
				return a.UploadedAt.Before(b.UploadedAt)
			}
			return a.Seq < b.Seq
		case SortFileName:
			an, bn := strings.ToLower(a.FileName), strings.ToLower(b.FileName)
			if an != bn {
				return an < bn
			}
			if !a.UploadedAt.Equal(b.UploadedAt) {
				return a.UploadedAt.After(b.UploadedAt)
			}
			return a.Seq > b.Seq
		default:
			if !a.UploadedAt.Equal(b.UploadedAt) {
				return a.UploadedAt.After(b.UploadedAt)
			}
			return a.Seq > b.Seq
		}
	})
}
