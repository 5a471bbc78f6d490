package source

import (
	"time"

	"github.com/enterate/incident-etl/internal/domain"
)

// canal is the water utility's supply-incident map. Records carry a
// free-text direccion plus coordinates; there is no structured city field,
// so the filter leans on the bounding box and the address text.
func canal(opts Options) Descriptor {
	return Descriptor{
		Name:     domain.SourceCanal,
		Category: domain.CategoryWater,
		Filter: domain.FilterSpec{
			CityKeys:    []string{"municipio", "city"},
			AddressKeys: []string{"via", "street", "direccion"},
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
			return unifyEvent(rec, loc, opts, domain.SourceCanal, domain.CategoryWater,
				domain.StatusUnplanned, "mensaje", "descripcion")
		},
	}
}
