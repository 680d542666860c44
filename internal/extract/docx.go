package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// extractDOCX returns paragraph text in document order. Paragraphs inside
// tables are emitted where the table appears.
func extractDOCX(data []byte) (string, error) {
	body, err := documentXML(data)
	if err != nil {
		return "", err
	}
	return walkDocumentXML(body)
}

func documentXML(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err == nil {
		defer r.Close()
		return r.Editable().GetContent(), nil
	}
	// Some producers omit parts the docx package insists on; read the body directly.
	return readDocumentPart(data)
}

func readDocumentPart(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		raw, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return "", errors.New("word/document.xml not found")
}

func walkDocumentXML(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	inText := false
	propsDepth := 0
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr", "rPr":
				propsDepth++
			case "t":
				inText = true
			case "tab":
				if propsDepth > 0 {
					continue
				}
				buf.WriteString("\t")
			case "br", "cr":
				buf.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "pPr", "rPr":
				propsDepth--
			case "t":
				inText = false
			case "p":
				buf.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
	return buf.String(), nil
}
