package domain

import "context"

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Address is the street-level result of a reverse lookup.
type Address struct {
	Street string
	Number string
}

// Geocoder resolves missing geolocation data. The boolean return is false
// when the provider had no answer for the query; that is not an error.
type Geocoder interface {
	// ForwardGeocode converts free-form address text to coordinates.
	ForwardGeocode(ctx context.Context, query string) (Coordinates, bool, error)

	// ReverseGeocode converts coordinates to a street and house number.
	ReverseGeocode(ctx context.Context, lat, lon float64) (Address, bool, error)
}
