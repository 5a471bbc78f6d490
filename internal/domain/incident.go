package domain

import (
	"strconv"
	"strings"
	"time"
)

// Source identifies the upstream feed that reported an incident.
type Source string

const (
	SourceIDE   Source = "ide"   // i-DE electricity outage PDF (weekly)
	SourceCanal Source = "canal" // Canal de Isabel II water supply incidents
	SourceAyto  Source = "ayto"  // Ayuntamiento de Madrid traffic/roadworks XML
	SourceGas   Source = "gas"   // gas network interventions feed
)

// Category is the incident type in the canonical schema.
type Category string

const (
	CategoryElectricity Category = "electricity"
	CategoryWater       Category = "water"
	CategoryRoad        Category = "road"
	CategoryGas         Category = "gas"
)

// Status is the lifecycle state of an incident.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusActive    Status = "active"
	StatusUnplanned Status = "unplanned"
)

// CanonicalIncident is the unified, source-agnostic record produced by the
// pipeline. It is the only shape that reaches partitioned storage.
type CanonicalIncident struct {
	Source        Source     `json:"source"`
	Category      Category   `json:"category"`
	Status        Status     `json:"status"`
	City          string     `json:"city"`
	Street        *string    `json:"street"`
	StreetNumber  *string    `json:"street_number"`
	Lat           *float64   `json:"lat"`
	Lon           *float64   `json:"lon"`
	StartTSUTC    time.Time  `json:"start_ts_utc"`
	EndTSUTC      *time.Time `json:"end_ts_utc"`
	Description   *string    `json:"description"`
	EventID       *string    `json:"event_id"`
	IngestedAtUTC time.Time  `json:"ingested_at_utc"`
	Fingerprint   string     `json:"fingerprint"`
}

// RawRecord is one loosely-typed record as read from a source file.
// Shapes vary per source; accessors tolerate missing keys and the usual
// JSON scalar encodings (string, float64, bool, nil).
type RawRecord map[string]any

// String returns the first non-empty string value among the given keys.
func (r RawRecord) String(keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s, true
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), true
		case bool:
			return strconv.FormatBool(t), true
		}
	}
	return "", false
}

// Float returns the first numeric value among the given keys. String values
// are parsed, tolerating a decimal comma.
func (r RawRecord) Float(keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case float64:
			return t, true
		case string:
			s := strings.ReplaceAll(strings.TrimSpace(t), ",", ".")
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// Bool returns the first boolean value among the given keys. String values
// "true", "1", "s", "si", "y", "yes" (case-insensitive) count as true.
func (r RawRecord) Bool(keys ...string) (bool, bool) {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case bool:
			return t, true
		case string:
			switch strings.ToLower(strings.TrimSpace(t)) {
			case "true", "1", "s", "si", "sí", "y", "yes":
				return true, true
			case "false", "0", "n", "no":
				return false, true
			}
		}
	}
	return false, false
}

// Clone returns a shallow copy so normalization never mutates the decoded file.
func (r RawRecord) Clone() RawRecord {
	out := make(RawRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
