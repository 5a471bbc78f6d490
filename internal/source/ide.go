package source

import (
	"fmt"
	"time"

	"github.com/enterate/incident-etl/internal/domain"
)

// ide is the weekly electricity maintenance feed: PDF rows with a strict
// municipality column, local date/time pairs, and no coordinates. Every
// published cut is a scheduled one, so the status is always planned.
func ide(opts Options) Descriptor {
	return Descriptor{
		Name:     domain.SourceIDE,
		Category: domain.CategoryElectricity,
		Filter: domain.FilterSpec{
			CityKeys: []string{"municipio"},
			Strict:   true,
		},
		Normalize: func(rec domain.RawRecord) domain.RawRecord {
			out := scrub(rec)
			cleanAddress(out)
			return out
		},
		Unify: func(rec domain.RawRecord, loc *time.Location) (domain.CanonicalIncident, error) {
			fecha, ok := rec.String("fecha")
			if !ok {
				return domain.CanonicalIncident{}, fmt.Errorf("ide record missing fecha")
			}
			horaInicio, _ := rec.String("hora_inicio")
			start, err := parseDayTime(fecha, horaInicio, loc)
			if err != nil {
				return domain.CanonicalIncident{}, fmt.Errorf("ide start: %w", err)
			}

			var end *time.Time
			if horaFin, ok := rec.String("hora_fin"); ok {
				if e, err := parseDayTime(fecha, horaFin, loc); err == nil {
					// A fin before the inicio is a window crossing midnight.
					if e.Before(start) {
						e = e.Add(24 * time.Hour)
					}
					end = &e
				}
			}

			city, _ := rec.String("municipio")
			if city == "" {
				city = opts.City
			}
			street, _ := rec.String("via")
			number, _ := rec.String("numero")

			return domain.CanonicalIncident{
				Source:        domain.SourceIDE,
				Category:      domain.CategoryElectricity,
				Status:        domain.StatusPlanned,
				City:          city,
				Street:        strPtr(street),
				StreetNumber:  strPtr(number),
				Lat:           floatField(rec, "lat"),
				Lon:           floatField(rec, "lon"),
				StartTSUTC:    start,
				EndTSUTC:      end,
				IngestedAtUTC: domain.Now(),
			}, nil
		},
	}
}
