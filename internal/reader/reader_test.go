package reader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enterate/incident-etl/internal/domain"
)

func writeRawFile(t *testing.T, root, source, date, name, content string) string {
	t.Helper()
	dir := filepath.Join(root, source, date)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestListFiles(t *testing.T) {
	root := t.TempDir()
	writeRawFile(t, root, "canal", "20250101", "events.json", "[]")
	writeRawFile(t, root, "canal", "20250102", "data.jsonl", "")
	writeRawFile(t, root, "canal", "20250102", "notes.txt", "ignored")
	writeRawFile(t, root, "ide", "20250101", "cortes.json", "[]")

	files, err := ListFiles(root, "canal")
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "2025-01-01", files[0].Date)
	assert.Equal(t, filepath.Join(root, "canal", "20250101", "events.json"), files[0].Path)
	assert.Equal(t, "2025-01-02", files[1].Date)
	assert.Equal(t, "data.jsonl", filepath.Base(files[1].Path))
}

func TestListFilesMissingSource(t *testing.T) {
	files, err := ListFiles(t.TempDir(), "gas")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestListFilesSkipsNestedDirs(t *testing.T) {
	root := t.TempDir()
	writeRawFile(t, root, "ayto", "20250101", "events.json", "[]")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ayto", "20250101", "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ayto", "stray.json"), []byte("[]"), 0o644))

	files, err := ListFiles(root, "ayto")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "events.json", filepath.Base(files[0].Path))
}

func TestParseDateDir(t *testing.T) {
	assert.Equal(t, "2025-01-01", parseDateDir("20250101"))
	assert.Equal(t, "2025-01-01", parseDateDir("2025-01-01"))

	today := domain.Now().Format("2006-01-02")
	assert.Equal(t, today, parseDateDir("scratch"))
	assert.Equal(t, today, parseDateDir("2025"))
	assert.Equal(t, today, parseDateDir("2025010"))
}

func TestDecodeRecordsArray(t *testing.T) {
	recs, err := DecodeRecords([]byte(`[{"via": "Calle Goya"}, {"via": "Calle Mayor"}]`))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, domain.RawRecord{"via": "Calle Goya"}, recs[0])
}

func TestDecodeRecordsEnvelope(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"items", `{"items": [{"id": "1"}]}`},
		{"results", `{"results": [{"id": "1"}]}`},
		{"data", `{"data": [{"id": "1"}]}`},
		{"events", `{"events": [{"id": "1"}]}`},
		{"incidencias", `{"incidencias": [{"id": "1"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := DecodeRecords([]byte(tt.input))
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.Equal(t, domain.RawRecord{"id": "1"}, recs[0])
		})
	}
}

func TestDecodeRecordsBareObject(t *testing.T) {
	recs, err := DecodeRecords([]byte(`{"via": "Calle Goya", "numero": "12"}`))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Calle Goya", recs[0]["via"])
}

func TestDecodeRecordsSkipsScalarElements(t *testing.T) {
	recs, err := DecodeRecords([]byte(`[{"id": "1"}, "noise", 42, null]`))
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestDecodeRecordsMalformed(t *testing.T) {
	_, err := DecodeRecords([]byte(`{"items": [`))
	assert.Error(t, err)
}

func TestReadRecords(t *testing.T) {
	root := t.TempDir()
	path := writeRawFile(t, root, "canal", "20250101", "events.json", `{"items": [{"id": "1"}]}`)

	recs, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, err = ReadRecords(filepath.Join(root, "missing.json"))
	assert.Error(t, err)
}
