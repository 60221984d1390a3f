package core

// parse.go turns import text into a header row and data rows.
//
// Tokenizing is done by encoding/csv, so quoted fields, embedded commas and
// escaped quotes survive intact. Ragged rows are tolerated: cells past the
// header are dropped and missing trailing cells are absent from the row map.
// Lines that are blank after trimming are skipped in every pass; a line of
// bare delimiters is still a row, with every cell empty.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// DefaultPreviewRows is the number of rows shown before submit.
const DefaultPreviewRows = 5

// utf8BOM is the byte order mark written by Excel and Windows tools.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParsedRow is one non-blank data row keyed by lowercased header.
type ParsedRow struct {
	Line   int               `json:"line"` // 1-based source line
	Values map[string]string `json:"values"`
}

// ParsedFile is the result of a full parse.
type ParsedFile struct {
	Headers []string    `json:"headers"`
	Rows    []ParsedRow `json:"rows"`
}

// Preview returns the first n data rows as header to value maps.
// The result is never nil, so an empty file previews as an empty list.
func (p *ParsedFile) Preview(n int) []map[string]string {
	if n <= 0 {
		n = DefaultPreviewRows
	}
	out := make([]map[string]string, 0, min(n, len(p.Rows)))
	for _, row := range p.Rows {
		if len(out) == n {
			break
		}
		out = append(out, row.Values)
	}
	return out
}

// ParseCSV parses the full import text. The first record is always the header
// row and is never returned as data.
func ParseCSV(data []byte) (*ParsedFile, error) {
	data = sanitizeUTF8(bytes.TrimPrefix(data, utf8BOM))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}

	parsed := &ParsedFile{
		Headers: make([]string, len(header)),
		Rows:    []ParsedRow{},
	}
	for i, h := range header {
		parsed.Headers[i] = strings.ToLower(CleanCell(h))
	}

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}

		if isBlankLine(record) {
			continue
		}

		line, _ := r.FieldPos(0)
		parsed.Rows = append(parsed.Rows, ParsedRow{
			Line:   line,
			Values: rowValues(parsed.Headers, record),
		})
	}

	return parsed, nil
}

// rowValues zips a record with the header row. Empty headers are ignored and
// the first occurrence of a repeated header wins.
func rowValues(headers, record []string) map[string]string {
	values := make(map[string]string, len(headers))
	for i, h := range headers {
		if h == "" || i >= len(record) {
			continue
		}
		if _, dup := values[h]; dup {
			continue
		}
		values[h] = strings.TrimSpace(record[i])
	}
	return values
}

// isBlankLine reports whether a record came from a whitespace-only line.
// encoding/csv drops empty lines itself and hands back the rest as one field.
func isBlankLine(record []string) bool {
	return len(record) == 1 && strings.TrimSpace(record[0]) == ""
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
