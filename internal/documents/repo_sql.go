package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"legaldocs-backend/internal/analyses"
	"legaldocs-backend/internal/extract"
)

// SQLRepo implements Repo on SQLite or Postgres. Queries are written with
// ? placeholders and rebound for the driver in use.
type SQLRepo struct {
	DB *sqlx.DB
}

const selectColumns = `
SELECT id, filename, file_type, mime_type, size_bytes, storage_key, upload_timestamp, content,
       extraction_error, analysis_status, analysis_result, analyzed_at, seq
FROM documents`

type documentRow struct {
	ID              string         `db:"id"`
	FileName        string         `db:"filename"`
	FileType        string         `db:"file_type"`
	MimeType        string         `db:"mime_type"`
	SizeBytes       int64          `db:"size_bytes"`
	StorageKey      sql.NullString `db:"storage_key"`
	UploadedAt      dbTime         `db:"upload_timestamp"`
	Content         string         `db:"content"`
	ExtractionError sql.NullString `db:"extraction_error"`
	AnalysisStatus  string         `db:"analysis_status"`
	AnalysisResult  sql.NullString `db:"analysis_result"`
	AnalyzedAt      dbTime         `db:"analyzed_at"`
	Seq             int64          `db:"seq"`
}

// Create inserts a new document.
func (r *SQLRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    filename,
    file_type,
    mime_type,
    size_bytes,
    storage_key,
    upload_timestamp,
    content,
    extraction_error,
    analysis_status,
    analysis_result,
    analyzed_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	status := doc.AnalysisStatus
	if status == "" {
		status = AnalysisPending
	}
	result, err := encodeResult(doc.Analysis)
	if err != nil {
		return fmt.Errorf("documents: create: %w: %w", ErrStorage, err)
	}
	var analyzedAt interface{}
	if doc.AnalyzedAt != nil {
		analyzedAt = doc.AnalyzedAt.UTC()
	}

	_, err = r.DB.ExecContext(
		ctx,
		r.DB.Rebind(query),
		doc.ID,
		doc.FileName,
		string(doc.FileType),
		doc.MimeType,
		doc.SizeBytes,
		nullString(doc.StorageKey),
		doc.UploadedAt.UTC(),
		doc.Content,
		nullString(doc.ExtractionError),
		status,
		result,
		analyzedAt,
	)
	if err != nil {
		return fmt.Errorf("documents: create: %w: %w", ErrStorage, err)
	}
	return nil
}

// GetByID fetches a document by ID.
func (r *SQLRepo) GetByID(ctx context.Context, id string) (Document, error) {
	var row documentRow
	err := r.DB.GetContext(ctx, &row, r.DB.Rebind(selectColumns+"\nWHERE id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("documents: get: %w: %w", ErrStorage, err)
	}
	return row.toDocument()
}

// List returns documents matching the filter, newest first unless another
// order is requested.
func (r *SQLRepo) List(ctx context.Context, filter ListFilter) ([]Document, error) {
	query, args := buildListQuery(filter.normalized())

	var rows []documentRow
	if err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("documents: list: %w: %w", ErrStorage, err)
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.toDocument()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func buildListQuery(f ListFilter) (string, []interface{}) {
	var where []string
	var args []interface{}
	if f.FileType != "" {
		where = append(where, "file_type = ?")
		args = append(args, string(f.FileType))
	}
	if f.Status != "" {
		where = append(where, "analysis_status = ?")
		args = append(args, f.Status)
	}
	if !f.UploadedBefore.IsZero() {
		where = append(where, "upload_timestamp < ?")
		args = append(args, f.UploadedBefore.UTC())
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		where = append(where, `(LOWER(filename) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	var b strings.Builder
	b.WriteString(selectColumns)
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	switch f.Sort {
	case SortOldest:
		b.WriteString("\nORDER BY upload_timestamp ASC, seq ASC")
	case SortFileName:
		b.WriteString("\nORDER BY LOWER(filename) ASC, upload_timestamp DESC, seq DESC")
	default:
		b.WriteString("\nORDER BY upload_timestamp DESC, seq DESC")
	}
	if f.Limit > 0 {
		b.WriteString("\nLIMIT ?")
		args = append(args, f.Limit)
	}
	return b.String(), args
}

// UpdateAnalysis replaces the stored analysis result of a document.
func (r *SQLRepo) UpdateAnalysis(ctx context.Context, id string, result analyses.Result) error {
	const query = `
UPDATE documents
SET analysis_status = ?, analysis_result = ?, analyzed_at = ?
WHERE id = ?`

	encoded, err := encodeResult(&result)
	if err != nil {
		return fmt.Errorf("documents: update analysis: %w: %w", ErrStorage, err)
	}
	analyzedAt := result.AnalyzedAt
	if analyzedAt.IsZero() {
		analyzedAt = time.Now()
	}
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(query), result.Status, encoded, analyzedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("documents: update analysis: %w: %w", ErrStorage, err)
	}
	return requireAffected(res, "update analysis")
}

// Delete removes a document together with its analysis result.
func (r *SQLRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM documents WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("documents: delete: %w: %w", ErrStorage, err)
	}
	return requireAffected(res, "delete")
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("documents: %s: %w: %w", op, ErrStorage, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (row documentRow) toDocument() (Document, error) {
	doc := Document{
		ID:              row.ID,
		FileName:        row.FileName,
		FileType:        extract.FileType(row.FileType),
		MimeType:        row.MimeType,
		SizeBytes:       row.SizeBytes,
		StorageKey:      row.StorageKey.String,
		UploadedAt:      row.UploadedAt.Time,
		Content:         row.Content,
		ExtractionError: row.ExtractionError.String,
		AnalysisStatus:  row.AnalysisStatus,
		Seq:             row.Seq,
	}
	if row.AnalyzedAt.Valid {
		t := row.AnalyzedAt.Time
		doc.AnalyzedAt = &t
	}
	if row.AnalysisResult.Valid && row.AnalysisResult.String != "" {
		var res analyses.Result
		if err := json.Unmarshal([]byte(row.AnalysisResult.String), &res); err != nil {
			return Document{}, fmt.Errorf("documents: decode analysis of %s: %w: %w", row.ID, ErrStorage, err)
		}
		doc.Analysis = &res
	}
	return doc, nil
}

func encodeResult(res *analyses.Result) (interface{}, error) {
	if res == nil {
		return nil, nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// dbTime scans timestamps from both drivers. SQLite hands back text or
// integers depending on how the value was written; Postgres returns time.Time.
type dbTime struct {
	Time  time.Time
	Valid bool
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Scan implements sql.Scanner.
func (t *dbTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = dbTime{}
		return nil
	case time.Time:
		*t = dbTime{Time: v.UTC(), Valid: true}
		return nil
	case int64:
		*t = dbTime{Time: time.Unix(v, 0).UTC(), Valid: true}
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *dbTime) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*t = dbTime{}
		return nil
	}
	// time.Time.String output carries a monotonic clock suffix.
	if i := strings.Index(s, " m="); i > 0 {
		s = s[:i]
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = dbTime{Time: parsed.UTC(), Valid: true}
			return nil
		}
	}
	if parsed, err := time.Parse("2006-01-02 15:04:05.999999999 -0700 MST", s); err == nil {
		*t = dbTime{Time: parsed.UTC(), Valid: true}
		return nil
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}
