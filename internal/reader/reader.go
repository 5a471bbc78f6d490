// Package reader enumerates the raw directory tree written by the source
// extractors and decodes its files into loosely-typed records.
//
// Expected layout: root/{source}/{date}/*.json, where date is YYYYMMDD or
// YYYY-MM-DD. A date directory that parses as neither is attributed to the
// current UTC date rather than discarded — extractors occasionally write
// scratch directories and their data is still worth keeping.
package reader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/enterate/incident-etl/internal/domain"
)

// Envelope keys recognized when a file holds an object wrapping the record
// list instead of a bare array. "incidencias" is the ayto feed's native key.
var listKeys = []string{"items", "results", "data", "events", "incidencias"}

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// File is one raw data file together with its partition date.
type File struct {
	Path string
	Date string // YYYY-MM-DD
}

// ListFiles returns every data file under root/{source}, oldest date first.
// A missing source directory yields an empty slice; sources are independent
// inputs and absence is not an error.
func ListFiles(root, source string) ([]File, error) {
	srcDir := filepath.Join(root, source)
	dateDirs, err := os.ReadDir(srcDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read source dir %s: %w", srcDir, err)
	}

	var out []File
	for _, d := range dateDirs {
		if !d.IsDir() {
			continue
		}
		date := parseDateDir(d.Name())
		entries, err := os.ReadDir(filepath.Join(srcDir, d.Name()))
		if err != nil {
			return nil, fmt.Errorf("read date dir %s: %w", d.Name(), err)
		}
		for _, e := range entries {
			if e.IsDir() || !isDataFile(e.Name()) {
				continue
			}
			out = append(out, File{
				Path: filepath.Join(srcDir, d.Name(), e.Name()),
				Date: date,
			})
		}
	}
	return out, nil
}

// parseDateDir normalizes a date directory name to YYYY-MM-DD, substituting
// the current UTC date when the name is unparseable.
func parseDateDir(name string) string {
	name = strings.TrimSpace(name)
	if len(name) == 8 && isDigits(name) {
		return name[0:4] + "-" + name[4:6] + "-" + name[6:8]
	}
	if isoDateRe.MatchString(name) {
		return name
	}
	return domain.Now().Format("2006-01-02")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isDataFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".jsonl", ".ndjson":
		return true
	}
	return false
}

// ReadRecords reads and decodes one raw file. The top level may be a record
// array, an object wrapping one under a recognized list key, or a bare
// object (treated as a single-record list).
func ReadRecords(path string) ([]domain.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return DecodeRecords(data)
}

// DecodeRecords parses raw file contents into records. See ReadRecords.
func DecodeRecords(data []byte) ([]domain.RawRecord, error) {
	var top any
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("decode raw file: %w", err)
	}

	switch v := top.(type) {
	case []any:
		return toRecords(v), nil
	case map[string]any:
		for _, k := range listKeys {
			if list, ok := v[k].([]any); ok {
				return toRecords(list), nil
			}
		}
		return []domain.RawRecord{domain.RawRecord(v)}, nil
	}
	return nil, nil
}

// toRecords keeps the object elements of a decoded array; scalar entries
// have no fields for any unifier to read.
func toRecords(list []any) []domain.RawRecord {
	out := make([]domain.RawRecord, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, domain.RawRecord(m))
		}
	}
	return out
}
