package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchStrict(t *testing.T) {
	f := NewMunicipalityFilter("Madrid")

	tests := []struct {
		name     string
		value    string
		expected bool
	}{
		{"exact", "Madrid", true},
		{"case folded", "MADRID", true},
		{"accents stripped", "Madríd", true},
		{"capital qualifier", "Madrid (Capital)", true},
		{"qualifier without space", "Madrid(Capital)", true},
		{"extra whitespace", "  Madrid ", true},
		{"other municipality", "Móstoles", false},
		{"substring is not strict", "Madrid Norte", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.MatchStrict(tt.value))
		})
	}
}

func TestMatchSoft(t *testing.T) {
	f := NewMunicipalityFilter("Madrid")

	assert.True(t, f.MatchSoft("Avenida de Madrid, 12"))
	assert.True(t, f.MatchSoft("MADRID CENTRO"))
	assert.False(t, f.MatchSoft("Toledo"))
	assert.False(t, f.MatchSoft(""))
}

func TestFilterKeep(t *testing.T) {
	f := NewMunicipalityFilter("Madrid")
	box := BoundingBox{MinLat: 40.2, MaxLat: 40.6, MinLon: -3.9, MaxLon: -3.4}

	strictSpec := FilterSpec{CityKeys: []string{"municipio"}, Strict: true}
	fullSpec := FilterSpec{
		CityKeys:    []string{"municipio", "city"},
		AddressKeys: []string{"via", "direccion"},
		Strict:      true,
		Soft:        true,
		BBox:        true,
		Box:         box,
		LatKey:      "lat",
		LonKey:      "lon",
	}

	tests := []struct {
		name     string
		rec      RawRecord
		spec     FilterSpec
		expected bool
	}{
		{"strict city match", RawRecord{"municipio": "Madrid"}, strictSpec, true},
		{"strict rejects other city", RawRecord{"municipio": "Getafe"}, strictSpec, false},
		{"strict rejects missing city", RawRecord{"via": "Calle Goya"}, strictSpec, false},
		{"soft city match", RawRecord{"city": "zona de Madrid"}, fullSpec, true},
		{"bbox inside", RawRecord{"lat": 40.41, "lon": -3.70}, fullSpec, true},
		{"bbox outside", RawRecord{"lat": 41.5, "lon": -3.70}, fullSpec, false},
		{"bbox with string coords", RawRecord{"lat": "40.41", "lon": "-3.70"}, fullSpec, true},
		{"address soft match", RawRecord{"direccion": "Calle Goya 12, Madrid"}, fullSpec, true},
		{"address concatenation", RawRecord{"via": "Calle Goya", "direccion": "distrito Madrid"}, fullSpec, true},
		{"nothing matches", RawRecord{"municipio": "Toledo", "lat": 39.8, "lon": -4.0, "direccion": "Plaza Mayor"}, fullSpec, false},
		{"empty record", RawRecord{}, fullSpec, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.Keep(tt.rec, tt.spec))
		})
	}
}

func TestBoundingBoxContains(t *testing.T) {
	box := BoundingBox{MinLat: 40.2, MaxLat: 40.6, MinLon: -3.9, MaxLon: -3.4}

	assert.True(t, box.Contains(40.4, -3.7))
	assert.True(t, box.Contains(40.2, -3.9), "edges are inclusive")
	assert.True(t, box.Contains(40.6, -3.4), "edges are inclusive")
	assert.False(t, box.Contains(40.7, -3.7))
	assert.False(t, box.Contains(40.4, -3.0))
}
