// Package storage materializes canonical incidents into the curated
// directory tree:
//
//	{dir}/{source}/dt={YYYY-MM-DD}/part-000.jsonl
//	{dir}/{source}/history.jsonl
//	{dir}/union/dt={YYYY-MM-DD}/part-000.jsonl
//	{dir}/union/history.jsonl
//
// Partitions are replaced wholesale, never appended, so reprocessing a day
// is idempotent. History and union artifacts are materialized views over
// the partitions on disk and are rebuilt in full every run. Every artifact
// is written to a temporary file in its target directory and renamed into
// place; a failed write leaves no partial output behind.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/enterate/incident-etl/internal/domain"
)

const (
	partFile    = "part-000.jsonl"
	historyFile = "history.jsonl"
	unionDir    = "union"
	datePrefix  = "dt="
)

// Store reads and writes curated artifacts under one root directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. The directory is created lazily on
// first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// WritePartition replaces the partition artifact for (source, date).
func (s *Store) WritePartition(source, date string, recs []domain.CanonicalIncident) error {
	path := s.partitionPath(source, date)
	if err := s.writeRecords(path, recs); err != nil {
		return fmt.Errorf("write partition %s/%s: %w", source, date, err)
	}
	return nil
}

// ReadPartition loads the partition for (source, date). A missing partition
// yields a nil slice, not an error.
func (s *Store) ReadPartition(source, date string) ([]domain.CanonicalIncident, error) {
	recs, err := readRecords(s.partitionPath(source, date))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read partition %s/%s: %w", source, date, err)
	}
	return recs, nil
}

// PartitionDates lists the dates with a partition on storage for a source,
// in ascending order.
func (s *Store) PartitionDates(source string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, source))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list partitions for %s: %w", source, err)
	}

	var dates []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), datePrefix) {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.dir, source, e.Name(), partFile)); err == nil {
			dates = append(dates, strings.TrimPrefix(e.Name(), datePrefix))
		}
	}
	return dates, nil
}

// BuildHistory rebuilds a source's full history by concatenating every
// partition found on storage, oldest first. With no partitions present the
// existing history, if any, is left untouched.
func (s *Store) BuildHistory(source string) error {
	dates, err := s.PartitionDates(source)
	if err != nil {
		return err
	}
	if len(dates) == 0 {
		return nil
	}

	var all []domain.CanonicalIncident
	for _, date := range dates {
		recs, err := s.ReadPartition(source, date)
		if err != nil {
			return err
		}
		all = append(all, recs...)
	}

	path := filepath.Join(s.dir, source, historyFile)
	if err := s.writeRecords(path, all); err != nil {
		return fmt.Errorf("write history for %s: %w", source, err)
	}
	return nil
}

// BuildUnionPartition merges one date's partitions across the given sources
// into the union partition for that date. The artifact is written even when
// every source is empty for the date, so downstream loads see the date.
func (s *Store) BuildUnionPartition(date string, sources []string) error {
	merged := make([]domain.CanonicalIncident, 0)
	for _, src := range sources {
		recs, err := s.ReadPartition(src, date)
		if err != nil {
			return err
		}
		merged = append(merged, recs...)
	}

	path := s.partitionPath(unionDir, date)
	if err := s.writeRecords(path, merged); err != nil {
		return fmt.Errorf("write union partition %s: %w", date, err)
	}
	return nil
}

// BuildUnionHistory rebuilds the cross-source history from every union
// partition on storage.
func (s *Store) BuildUnionHistory() error {
	return s.BuildHistory(unionDir)
}

func (s *Store) partitionPath(source, date string) string {
	return filepath.Join(s.dir, source, datePrefix+date, partFile)
}

// writeRecords serializes records as line-delimited JSON into a temp file
// next to the target and renames it into place.
func (s *Store) writeRecords(path string, recs []domain.CanonicalIncident) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-part-*")
	if err != nil {
		return err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	enc := json.NewEncoder(tmp)
	for i := range recs {
		if err := enc.Encode(&recs[i]); err != nil {
			return err
		}
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// readRecords decodes a line-delimited artifact.
func readRecords(path string) ([]domain.CanonicalIncident, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []domain.CanonicalIncident
	dec := json.NewDecoder(f)
	for {
		var rec domain.CanonicalIncident
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		out = append(out, rec)
	}
}
