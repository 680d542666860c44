package documents

import "errors"

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrNoContent    = errors.New("document has no extracted text")
	ErrStorage      = errors.New("document storage failure")
)
