package source

import (
	"time"

	"github.com/enterate/incident-etl/internal/domain"
)

// gas is the gas network interventions feed: structured via/numero,
// coordinates, and full RFC 3339 timestamps. City arrives only inside the
// free-text address, if at all.
func gas(opts Options) Descriptor {
	return Descriptor{
		Name:     domain.SourceGas,
		Category: domain.CategoryGas,
		Filter: domain.FilterSpec{
			CityKeys:    []string{"city"},
			AddressKeys: []string{"street", "direccion"},
			Strict:      true,
			Soft:        true,
			BBox:        true,
			Box:         opts.Box,
			LatKey:      "lat",
			LonKey:      "lon",
		},
		Normalize: func(rec domain.RawRecord) domain.RawRecord {
			out := scrub(rec)
			cleanAddress(out, "direccion")
			return out
		},
		Unify: func(rec domain.RawRecord, loc *time.Location) (domain.CanonicalIncident, error) {
			return unifyEvent(rec, loc, opts, domain.SourceGas, domain.CategoryGas,
				domain.StatusUnplanned, "mensaje")
		},
	}
}
