package source

import (
	"strings"
	"time"

	"github.com/enterate/incident-etl/internal/domain"
)

// ayto is the municipal roadworks/traffic feed. The extractor writes both a
// raw dump of the parsed XML and a normalized events file per day; only the
// events files are data. Addresses hide inside descripcion behind "nº"-style
// markers. Unscheduled entries are incidents currently in effect.
func ayto(opts Options) Descriptor {
	return Descriptor{
		Name:     domain.SourceAyto,
		Category: domain.CategoryRoad,
		Filter: domain.FilterSpec{
			CityKeys:    []string{"municipio", "city"},
			AddressKeys: []string{"via", "street", "calle", "direccion", "descripcion"},
			Strict:      true,
			Soft:        true,
			BBox:        true,
			Box:         opts.Box,
			LatKey:      "lat",
			LonKey:      "lon",
		},
		AcceptFile: func(name string) bool {
			return strings.Contains(strings.ToLower(name), "events")
		},
		Normalize: func(rec domain.RawRecord) domain.RawRecord {
			out := scrub(rec)
			cleanAddress(out, "descripcion", "mensaje")
			return out
		},
		Unify: func(rec domain.RawRecord, loc *time.Location) (domain.CanonicalIncident, error) {
			return unifyEvent(rec, loc, opts, domain.SourceAyto, domain.CategoryRoad,
				domain.StatusActive, "descripcion", "mensaje")
		},
	}
}
