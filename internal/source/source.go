// Package source registers the per-feed behavior of the pipeline: which
// municipality checks apply, how a feed's records are normalized, and how
// they map into the canonical incident schema. Adding a feed means adding
// one descriptor here; nothing else branches on the source name.
package source

import (
	"time"

	"github.com/enterate/incident-etl/internal/domain"
)

// Options configure the descriptors for a target municipality.
type Options struct {
	City    string             // canonical city name, e.g. "Madrid"
	Country string             // forward-geocoding country suffix, e.g. "Spain"
	Box     domain.BoundingBox // municipal bounding box for coordinate checks
}

// Descriptor bundles the three per-source capabilities: filter, normalize,
// unify. Normalize and Unify are pure except for the ingestion clock.
type Descriptor struct {
	Name     domain.Source
	Category domain.Category
	Filter   domain.FilterSpec

	// AcceptFile reports whether a data file in the source's date directory
	// should be processed. Nil accepts every file.
	AcceptFile func(name string) bool

	// Normalize cleans address fields on a copy of the record. After it
	// returns, the record's "via"/"numero" keys hold cleaned values when the
	// source has any address information at all.
	Normalize func(rec domain.RawRecord) domain.RawRecord

	// Unify maps a cleaned record into the canonical schema, converting
	// source-local times to UTC instants. A defective record (no usable
	// start timestamp) returns an error and is dropped by the caller.
	Unify func(rec domain.RawRecord, loc *time.Location) (domain.CanonicalIncident, error)
}

// Registry returns the descriptors for every known source, in processing
// order.
func Registry(opts Options) []Descriptor {
	return []Descriptor{
		ide(opts),
		canal(opts),
		ayto(opts),
		gas(opts),
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func floatField(rec domain.RawRecord, keys ...string) *float64 {
	if v, ok := rec.Float(keys...); ok {
		return &v
	}
	return nil
}

// cleanAddress normalizes the record's street and number in place and, for
// sources with a free-text field, fills missing street/number from it.
// Structured values are never overwritten by extracted ones.
func cleanAddress(rec domain.RawRecord, textKeys ...string) {
	street, _ := rec.String("via", "street", "calle")
	number, _ := rec.String("numero", "number")

	if street == "" || number == "" {
		if text, ok := rec.String(textKeys...); ok {
			extStreet, extNumber := domain.ExtractStreetNumber(text)
			if street == "" && extStreet != "" {
				street = extStreet
			}
			if number == "" && extNumber != "" {
				number = extNumber
			}
		}
	}

	if street != "" {
		rec["via"] = domain.CleanStreet(street)
	}
	if number != "" {
		rec["numero"] = domain.CleanNumber(number)
	}
}

// scrub drops upstream bookkeeping keys that must not leak into outputs.
func scrub(rec domain.RawRecord) domain.RawRecord {
	out := rec.Clone()
	delete(out, "fuente")
	delete(out, "source")
	return out
}
