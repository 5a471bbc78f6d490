package source

import (
	"fmt"
	"strings"
	"time"
)

// Layouts tried, in order, for ISO-like timestamps that carry no offset.
// They are interpreted in the source's local timezone.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseTimestamp parses an ISO-like timestamp and re-expresses it in UTC.
// Values with an explicit offset (or trailing "Z") are taken as-is; naive
// values are assumed to be in loc, per the feed conventions.
func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	// Some feeds append "Z" to what is actually a local wall-clock reading;
	// RFC 3339 parsing above already consumed well-formed UTC values, so a
	// leftover suffix here is noise.
	trimmed := strings.TrimSuffix(s, "Z")
	if dot := strings.IndexByte(trimmed, '.'); dot > 0 {
		trimmed = trimmed[:dot]
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// parseDayTime combines a DD/MM/YYYY date with an HH:MM wall-clock time in
// the source's local timezone and returns the UTC instant.
func parseDayTime(fecha, hora string, loc *time.Location) (time.Time, error) {
	fecha = strings.TrimSpace(fecha)
	hora = strings.TrimSpace(hora)
	if fecha == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if hora == "" {
		hora = "00:00"
	}
	t, err := time.ParseInLocation("02/01/2006 15:04", fecha+" "+hora, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q %q: %w", fecha, hora, err)
	}
	return t.UTC(), nil
}
