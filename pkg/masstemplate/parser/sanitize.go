package parser

import (
	"archive/zip"
	"bytes"
	"io"
	"regexp"
	"strings"
)

var (
	sheetViewsRe = regexp.MustCompile(`(?is)<(?:\w+:)?sheetViews\b.*?</(?:\w+:)?sheetViews>`)
	paneSelfRe   = regexp.MustCompile(`(?i)<(?:\w+:)?pane\b[^>]*/>`)
	paneBlockRe  = regexp.MustCompile(`(?is)<(?:\w+:)?pane\b[^>]*>.*?</(?:\w+:)?pane>`)
)

// SanitizeWorkbook removes <sheetViews> and <pane> elements from every
// worksheet part of an xlsx archive. Marketplace exports carry frozen-pane
// definitions that some readers reject. The input bytes are returned
// unchanged when nothing was stripped or the data is not a zip archive.
func SanitizeWorkbook(data []byte) []byte {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return data
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	modified := false
	for _, f := range r.File {
		content, err := readZipEntry(f)
		if err != nil {
			return data
		}
		if isWorksheetPart(f.Name) {
			stripped := stripSheetViews(content)
			if !bytes.Equal(stripped, content) {
				content = stripped
				modified = true
			}
		}

		header := f.FileHeader
		out, err := w.CreateHeader(&header)
		if err != nil {
			return data
		}
		if _, err := out.Write(content); err != nil {
			return data
		}
	}
	if err := w.Close(); err != nil || !modified {
		return data
	}
	return buf.Bytes()
}

func isWorksheetPart(name string) bool {
	return strings.HasPrefix(name, "xl/worksheets/sheet") && strings.HasSuffix(name, ".xml")
}

func stripSheetViews(content []byte) []byte {
	content = sheetViewsRe.ReplaceAll(content, nil)
	content = paneSelfRe.ReplaceAll(content, nil)
	return paneBlockRe.ReplaceAll(content, nil)
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
