package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectFileType resolves the document format from the declared MIME type,
// then the file extension, then the content itself.
func DetectFileType(declaredMime, fileName string, data []byte) (FileType, error) {
	if ft, ok := mimeType(normalizeMimeType(declaredMime, data)); ok {
		return ft, nil
	}
	if ft, ok := extensionType(fileName); ok {
		return ft, nil
	}
	if len(data) > 0 {
		detected := mimetype.Detect(data)
		if ft, ok := mimeType(normalizeMimeType(detected.String(), data)); ok {
			return ft, nil
		}
		return "", &Error{Err: fmt.Errorf("%w: %s (%s)", ErrUnsupportedType, fileName, detected.String())}
	}
	return "", &Error{Err: fmt.Errorf("%w: %s", ErrUnsupportedType, fileName)}
}

func mimeType(clean string) (FileType, bool) {
	switch clean {
	case mimePDF, "application/x-pdf":
		return FileTypePDF, true
	case mimeDOCX:
		return FileTypeDOCX, true
	case mimeTXT:
		return FileTypeTXT, true
	default:
		return "", false
	}
}

// normalizeMimeType lower-cases and strips parameters. Generic zip payloads
// are mapped to DOCX when they carry a Word document part.
func normalizeMimeType(raw string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(raw, ";")[0]))
	if clean != "application/zip" && clean != "application/x-zip-compressed" {
		return clean
	}
	if isWordPackage(data) {
		return mimeDOCX
	}
	return clean
}

func isWordPackage(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}
