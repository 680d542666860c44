package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// FileType is one of the supported document formats.
type FileType string

const (
	FileTypePDF  FileType = "PDF"
	FileTypeDOCX FileType = "DOCX"
	FileTypeTXT  FileType = "TXT"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeTXT  = "text/plain"
)

// DefaultMaxBytes is the upload size limit when none is configured.
const DefaultMaxBytes int64 = 50 << 20

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrCorrupt         = errors.New("file could not be read")
	ErrEmptyContent    = errors.New("no text could be extracted")
	ErrTooLarge        = errors.New("file exceeds size limit")
)

// Error reports a failed extraction. Err wraps one of the sentinel errors above.
type Error struct {
	FileType FileType
	Err      error
}

func (e *Error) Error() string {
	if e.FileType == "" {
		return "extract: " + e.Err.Error()
	}
	return fmt.Sprintf("extract %s: %s", strings.ToLower(string(e.FileType)), e.Err.Error())
}

func (e *Error) Unwrap() error { return e.Err }

func newError(ft FileType, kind error, cause error) *Error {
	if cause == nil {
		return &Error{FileType: ft, Err: kind}
	}
	return &Error{FileType: ft, Err: fmt.Errorf("%w: %v", kind, cause)}
}

// ParseFileType accepts "pdf", ".DOCX", "txt" and similar spellings.
func ParseFileType(raw string) (FileType, error) {
	switch strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(raw), ".")) {
	case "PDF":
		return FileTypePDF, nil
	case "DOCX":
		return FileTypeDOCX, nil
	case "TXT", "TEXT":
		return FileTypeTXT, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, raw)
	}
}

// MimeType returns the canonical MIME type stored for ft.
func (ft FileType) MimeType() string {
	switch ft {
	case FileTypePDF:
		return mimePDF
	case FileTypeDOCX:
		return mimeDOCX
	case FileTypeTXT:
		return mimeTXT
	default:
		return "application/octet-stream"
	}
}

// Validate checks name and size before any parsing happens.
func Validate(fileName string, size, maxBytes int64) error {
	if strings.TrimSpace(fileName) == "" {
		return &Error{Err: fmt.Errorf("%w: file name is required", ErrUnsupportedType)}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if size > maxBytes {
		return &Error{Err: fmt.Errorf("%w: %d bytes > %d MB", ErrTooLarge, size, maxBytes>>20)}
	}
	if size == 0 {
		return &Error{Err: fmt.Errorf("%w: file is empty", ErrEmptyContent)}
	}
	return nil
}

// ExtractTextFromBytes extracts plain text from an in-memory payload of the given type.
// Failures are returned as *Error; parsers that panic on malformed input
// are reported as ErrCorrupt.
func ExtractTextFromBytes(ctx context.Context, data []byte, ft FileType) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", newError(ft, ErrEmptyContent, nil)
	}

	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = newError(ft, ErrCorrupt, fmt.Errorf("parser panic: %v", rec))
		}
	}()

	var raw string
	switch ft {
	case FileTypePDF:
		raw, err = extractPDF(ctx, data)
	case FileTypeDOCX:
		raw, err = extractDOCX(data)
	case FileTypeTXT:
		raw, err = decodeText(data)
	default:
		return "", newError(ft, ErrUnsupportedType, nil)
	}
	if err != nil {
		var extractErr *Error
		if errors.As(err, &extractErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", newError(ft, ErrCorrupt, err)
	}

	text = Preprocess(raw)
	if text == "" {
		return "", newError(ft, ErrEmptyContent, nil)
	}
	return text, nil
}

func extensionType(fileName string) (FileType, bool) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return FileTypePDF, true
	case ".docx":
		return FileTypeDOCX, true
	case ".txt", ".text":
		return FileTypeTXT, true
	default:
		return "", false
	}
}
