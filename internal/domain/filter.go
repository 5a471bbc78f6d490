package domain

import (
	"regexp"
	"strings"
)

// BoundingBox is a rectangular lat/lon region.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains reports whether the coordinate falls inside the box.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// FilterSpec selects which municipality checks apply to a source's records
// and which raw fields feed them. Checks combine with logical OR in the
// order: strict/soft city match, bounding box, soft address-text match.
type FilterSpec struct {
	CityKeys    []string // candidate raw keys holding the city name
	AddressKeys []string // free-text fields concatenated for the soft match
	Strict      bool
	Soft        bool
	BBox        bool
	Box         BoundingBox
	LatKey      string
	LonKey      string
}

// MunicipalityFilter decides whether a raw record belongs to the target
// city. Construct one per run with the configured municipality name.
type MunicipalityFilter struct {
	needle   string // accent-stripped, lowercased target name
	strictRe *regexp.Regexp
}

// NewMunicipalityFilter builds a filter for the given municipality name,
// e.g. "Madrid".
func NewMunicipalityFilter(target string) *MunicipalityFilter {
	needle := strings.ToLower(StripAccents(CollapseWhitespace(target)))
	// Strict form tolerates a parenthetical qualifier: "madrid (capital)".
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(needle) + `(?:\s*\(capital\))?$`)
	return &MunicipalityFilter{needle: needle, strictRe: re}
}

// MatchStrict reports whether the value, accent-stripped and case-folded,
// equals the target name optionally followed by "(Capital)".
func (f *MunicipalityFilter) MatchStrict(v string) bool {
	if v == "" {
		return false
	}
	t := strings.ToLower(StripAccents(CollapseWhitespace(v)))
	return f.strictRe.MatchString(t)
}

// MatchSoft reports whether the value contains the target name,
// case-insensitively.
func (f *MunicipalityFilter) MatchSoft(v string) bool {
	if v == "" {
		return false
	}
	return strings.Contains(strings.ToLower(v), f.needle)
}

// Keep applies the configured checks to a raw record. A record failing all
// of them does not belong to the target municipality; dropping it is
// expected, not an error.
func (f *MunicipalityFilter) Keep(rec RawRecord, spec FilterSpec) bool {
	if spec.Strict || spec.Soft {
		if city, ok := rec.String(spec.CityKeys...); ok {
			if spec.Strict && f.MatchStrict(city) {
				return true
			}
			if spec.Soft && f.MatchSoft(city) {
				return true
			}
		}
	}

	if spec.BBox {
		lat, okLat := rec.Float(spec.LatKey)
		lon, okLon := rec.Float(spec.LonKey)
		if okLat && okLon && spec.Box.Contains(lat, lon) {
			return true
		}
	}

	// Last resort when the structured city field is absent or untrustworthy:
	// soft match against the concatenated free-text address fields.
	if len(spec.AddressKeys) > 0 {
		var parts []string
		for _, k := range spec.AddressKeys {
			if v, ok := rec.String(k); ok {
				parts = append(parts, v)
			}
		}
		if f.MatchSoft(strings.Join(parts, " ")) {
			return true
		}
	}

	return false
}
