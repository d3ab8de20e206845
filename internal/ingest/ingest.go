// Package ingest turns pasted text and uploaded files into raw name lists.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"hrevent/internal/domain"
)

// DefaultMaxUploadBytes caps uploaded name lists
const DefaultMaxUploadBytes = 1 << 20

var allowedExtensions = map[string]bool{
	".csv": true,
	".txt": true,
}

// ParseText splits pasted text into names: one per line, and for CSV-like
// rows only the first field is kept. Blank lines are dropped.
func ParseText(text string) []string {
	text = strings.TrimPrefix(text, "\uFEFF")

	names := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if name := firstField(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// firstField returns the trimmed first comma-separated field of line.
// Quoted fields may contain commas.
func firstField(line string) string {
	if strings.TrimSpace(line) == "" {
		return ""
	}

	r := csv.NewReader(strings.NewReader(line))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	record, err := r.Read()
	if err != nil || len(record) == 0 {
		head, _, _ := strings.Cut(line, ",")
		return strings.TrimSpace(head)
	}
	return strings.TrimSpace(record[0])
}

// ParseUpload reads an uploaded .csv or .txt file. Content is sniffed rather
// than trusted from the client, and UTF-8/UTF-16 byte-order marks are honored.
func ParseUpload(r io.Reader, filename string, limit int64) ([]string, error) {
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("extension %q: %w", ext, domain.ErrUnsupportedFile)
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, domain.ErrFileTooLarge
	}

	if !isText(data) {
		return nil, fmt.Errorf("content %s: %w", mimetype.Detect(data).String(), domain.ErrUnsupportedFile)
	}

	decoded, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode upload: %w", err)
	}

	return ParseText(decoded), nil
}

// isText reports whether the sniffed type is text/plain or one of its children (text/csv)
func isText(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// decode converts data to a UTF-8 string, stripping any byte-order mark
func decode(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), decoder))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
