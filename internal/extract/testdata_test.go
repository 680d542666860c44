package extract

import (
	"testing"

	"legaldocs-backend/internal/extract/extracttest"
)

func buildTextPDF(pages ...string) []byte {
	return extracttest.TextPDF(pages...)
}

func buildDOCX(t *testing.T, before []string, rows []string, after []string) []byte {
	return extracttest.DOCX(t, before, rows, after)
}
