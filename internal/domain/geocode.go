package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ForwardQuery builds the provider query string for an address, in the form
// "{number} {street}, {city}, {country}". Returns "" when both street and
// number are absent; there is nothing worth asking the provider then.
func ForwardQuery(street, number, city, country string) string {
	s := strings.TrimSpace(street)
	n := strings.TrimSpace(number)
	if s == "" && n == "" {
		return ""
	}
	return CollapseWhitespace(fmt.Sprintf("%s %s, %s, %s", n, s, city, country))
}

// EnrichGeolocation fills missing geolocation on a normalized record.
// Exactly one direction can fire per record:
//
//   - coordinates missing and an address present  -> forward lookup
//   - coordinates present and street missing      -> reverse lookup
//
// Results only fill empty fields. If geocoder is nil or the lookup fails,
// the record is returned unchanged: null geolocation is an accepted
// outcome, never retried within a run.
func EnrichGeolocation(ctx context.Context, rec RawRecord, g Geocoder, city, country string, logger *slog.Logger) RawRecord {
	if g == nil {
		return rec
	}

	street, _ := rec.String("via")
	number, _ := rec.String("numero")
	lat, okLat := rec.Float("lat")
	lon, okLon := rec.Float("lon")
	hasCoords := okLat && okLon

	if !hasCoords {
		query := ForwardQuery(street, number, city, country)
		if query == "" {
			return rec
		}
		coords, found, err := g.ForwardGeocode(ctx, query)
		if err != nil {
			logger.Warn("forward geocoding failed", "query", query, "error", err)
			return rec
		}
		if found {
			rec["lat"] = coords.Lat
			rec["lon"] = coords.Lon
		}
		return rec
	}

	if street == "" {
		addr, found, err := g.ReverseGeocode(ctx, lat, lon)
		if err != nil {
			logger.Warn("reverse geocoding failed", "lat", lat, "lon", lon, "error", err)
			return rec
		}
		if found {
			if addr.Street != "" {
				rec["via"] = addr.Street
			}
			if number == "" && addr.Number != "" {
				rec["numero"] = addr.Number
			}
		}
	}

	return rec
}
