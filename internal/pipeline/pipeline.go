// Package pipeline orchestrates one batch transform run: raw records are
// filtered, normalized, geolocation-enriched, unified, fingerprinted, and
// materialized into partitioned storage, after which per-source histories,
// union partitions, and the union history are rebuilt from storage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/enterate/incident-etl/internal/domain"
	"github.com/enterate/incident-etl/internal/observability"
	"github.com/enterate/incident-etl/internal/reader"
	"github.com/enterate/incident-etl/internal/source"
	"github.com/enterate/incident-etl/internal/storage"
)

// Pipeline runs the normalization/deduplication/storage stages. Sources are
// processed sequentially; the only blocking operation is the rate-limited
// geocoding call, so there is no write concurrency to coordinate.
type Pipeline struct {
	registry []source.Descriptor
	store    *storage.Store
	geocoder domain.Geocoder
	filter   *domain.MunicipalityFilter
	loc      *time.Location
	city     string
	country  string
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// New creates a Pipeline. geocoder may be nil to disable enrichment.
func New(registry []source.Descriptor, store *storage.Store, geocoder domain.Geocoder,
	opts source.Options, loc *time.Location, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		registry: registry,
		store:    store,
		geocoder: geocoder,
		filter:   domain.NewMunicipalityFilter(opts.City),
		loc:      loc,
		city:     opts.City,
		country:  opts.Country,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once the run has materialized at least one
// partition.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no partition written yet")
	}
	return nil
}

// Run executes one complete transform over the raw directory tree. A
// partition write failure aborts the failing source but the remaining
// sources still run; a history or union rebuild failure is fatal because a
// stale derived artifact must not be silently believed current.
func (p *Pipeline) Run(ctx context.Context, rawDir string) error {
	start := time.Now()
	p.logger.Info("transform run started", "raw_dir", rawDir)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	touched := make(map[string]struct{})
	var sourceErrs error

	for i := range p.registry {
		desc := &p.registry[i]
		dates, err := p.processSource(ctx, rawDir, desc)
		if err != nil {
			p.logger.Error("source processing aborted", "source", desc.Name, "error", err)
			sourceErrs = errors.Join(sourceErrs, fmt.Errorf("source %s: %w", desc.Name, err))
			continue
		}
		for _, d := range dates {
			touched[d] = struct{}{}
		}
	}

	// Histories and the union are total recomputations from the partitions
	// on storage, including partitions from earlier runs.
	for i := range p.registry {
		name := string(p.registry[i].Name)
		if err := p.store.BuildHistory(name); err != nil {
			return errors.Join(sourceErrs, fmt.Errorf("rebuild history for %s: %w", name, err))
		}
	}

	names := p.sourceNames()
	for _, date := range sortedDates(touched) {
		if err := p.store.BuildUnionPartition(date, names); err != nil {
			return errors.Join(sourceErrs, fmt.Errorf("rebuild union partition %s: %w", date, err))
		}
	}
	if err := p.store.BuildUnionHistory(); err != nil {
		return errors.Join(sourceErrs, fmt.Errorf("rebuild union history: %w", err))
	}

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("transform run finished",
		"dates_touched", len(touched),
		"duration", time.Since(start).Round(time.Millisecond),
		"failed_sources", sourceErrs != nil,
	)
	return sourceErrs
}

// processSource transforms every raw file of one source and replaces the
// touched partitions. Returns the partition dates written.
func (p *Pipeline) processSource(ctx context.Context, rawDir string, desc *source.Descriptor) ([]string, error) {
	name := string(desc.Name)
	files, err := reader.ListFiles(rawDir, name)
	if err != nil {
		return nil, err
	}

	// date -> fingerprint -> incident; the first record wins a fingerprint.
	parts := make(map[string]map[string]domain.CanonicalIncident)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if desc.AcceptFile != nil && !desc.AcceptFile(filepath.Base(f.Path)) {
			continue
		}

		recs, err := reader.ReadRecords(f.Path)
		if err != nil {
			p.logger.Warn("skipping unreadable file", "source", name, "path", f.Path, "error", err)
			p.metrics.FilesSkipped.WithLabelValues(name).Inc()
			continue
		}

		for _, raw := range recs {
			p.metrics.RecordsRead.WithLabelValues(name).Inc()

			if !p.filter.Keep(raw, desc.Filter) {
				p.metrics.RecordsFiltered.WithLabelValues(name).Inc()
				continue
			}

			rec := desc.Normalize(raw)
			rec = domain.EnrichGeolocation(ctx, rec, p.geocoder, p.city, p.country, p.logger)

			inc, err := desc.Unify(rec, p.loc)
			if err != nil {
				p.logger.Warn("dropping defective record", "source", name, "path", f.Path, "error", err)
				p.metrics.RecordsDropped.WithLabelValues(name).Inc()
				continue
			}
			inc.Fingerprint = domain.Fingerprint(inc)

			byFp := parts[f.Date]
			if byFp == nil {
				byFp = make(map[string]domain.CanonicalIncident)
				parts[f.Date] = byFp
			}
			if _, dup := byFp[inc.Fingerprint]; !dup {
				byFp[inc.Fingerprint] = inc
			}
		}
	}

	var written []string
	for _, date := range sortedPartKeys(parts) {
		recs := orderedRecords(parts[date])
		if err := p.store.WritePartition(name, date, recs); err != nil {
			return nil, err
		}
		p.metrics.PartitionsWritten.Inc()
		p.ready.Store(true)
		p.logger.Info("partition written", "source", name, "date", date, "records", len(recs))
		written = append(written, date)
	}
	return written, nil
}

func (p *Pipeline) sourceNames() []string {
	names := make([]string, len(p.registry))
	for i := range p.registry {
		names[i] = string(p.registry[i].Name)
	}
	return names
}

// orderedRecords sorts a deduplicated partition by fingerprint so repeated
// runs over the same input produce byte-identical artifacts.
func orderedRecords(byFp map[string]domain.CanonicalIncident) []domain.CanonicalIncident {
	fps := make([]string, 0, len(byFp))
	for fp := range byFp {
		fps = append(fps, fp)
	}
	sort.Strings(fps)

	out := make([]domain.CanonicalIncident, 0, len(fps))
	for _, fp := range fps {
		out = append(out, byFp[fp])
	}
	return out
}

func sortedPartKeys(parts map[string]map[string]domain.CanonicalIncident) []string {
	keys := make([]string, 0, len(parts))
	for k := range parts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedDates(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
