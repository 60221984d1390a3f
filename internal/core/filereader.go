package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

// DefaultMaxFileSize is the maximum accepted upload size (10MB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReadFile reads an uploaded file fully into memory and returns it as CSV text.
// Text files are passed through; XLSX workbooks are converted from their first
// sheet. Anything else is rejected with ErrUnsupportedFile.
func ReadFile(name string, r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: %s exceeds %dMB", ErrFileTooLarge, name, maxSize/(1024*1024))
	}
	if len(bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))) == 0 {
		return nil, ErrEmptyFile
	}

	mt := mimetype.Detect(data)
	switch {
	case mt.Is(xlsxMIME) || isZippedWorkbook(name, mt):
		return xlsxToCSV(data)
	case isTextMIME(mt) || looksLikeCSV(name, data):
		return sanitizeUTF8(bytes.TrimPrefix(data, utf8BOM)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, mt.String())
	}
}

// isTextMIME walks the detected type's ancestry looking for a text type.
func isTextMIME(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") || m.Is("text/csv") {
			return true
		}
	}
	return false
}

// isZippedWorkbook catches workbooks whose part order hides them from
// sniffing; they are detected as plain zip archives.
func isZippedWorkbook(name string, mt *mimetype.MIME) bool {
	return mt.Is("application/zip") && strings.EqualFold(filepath.Ext(name), ".xlsx")
}

// looksLikeCSV accepts .csv files whose encoding defeated sniffing
// (Latin-1 exports, for example) as long as they contain no NUL bytes.
func looksLikeCSV(name string, data []byte) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return (ext == ".csv" || ext == ".txt") && bytes.IndexByte(data, 0) < 0
}

func xlsxToCSV(data []byte) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("convert sheet: %w", err)
	}
	return buf.Bytes(), nil
}
