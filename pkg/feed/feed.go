// Package feed acquires live aircraft-position data from interchangeable
// third-party providers and normalizes it into one canonical Flight schema.
//
// Adapters return provider-shaped raw batches and never normalize; unit
// conversion and status classification are centralized in Normalize so that
// adding a provider never touches the normalization rules.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/unklstewy/skyframe/pkg/geo"
)

// ErrUnsupported is returned by optional capabilities a provider does not
// implement. Callers use it to distinguish "no data" from "not implemented".
var ErrUnsupported = errors.New("operation not supported by this provider")

// Provider is the interface all flight data sources must implement.
// AreaQuery, BoundsQuery and FlightDetails are mandatory; the airport and
// health capabilities are optional and return ErrUnsupported when absent.
type Provider interface {
	// Name returns a short provider identifier for logging and snapshots.
	Name() string

	// AreaQuery returns raw flights within a radius of a center point.
	// radiusKm is the search radius in kilometers.
	AreaQuery(ctx context.Context, lat, lon, radiusKm float64) (*RawBatch, error)

	// BoundsQuery returns raw flights inside a geographic rectangle.
	BoundsQuery(ctx context.Context, bounds geo.RectangleBounds) (*RawBatch, error)

	// FlightDetails returns the provider-specific detail blob for one
	// flight. The payload is passed through without normalization.
	FlightDetails(ctx context.Context, id string) (json.RawMessage, error)

	// AirportArrivals returns raw arrivals for an ICAO airport code within
	// the given window. Optional; may return ErrUnsupported.
	AirportArrivals(ctx context.Context, icao string, begin, end time.Time) (json.RawMessage, error)

	// AirportDepartures returns raw departures for an ICAO airport code
	// within the given window. Optional; may return ErrUnsupported.
	AirportDepartures(ctx context.Context, icao string, begin, end time.Time) (json.RawMessage, error)

	// Health reports adapter credential/token state. Optional; may return
	// ErrUnsupported.
	Health() (*Health, error)

	// Close cleanly shuts down the provider connection.
	Close() error
}

// Health describes an authenticated adapter's credential state.
type Health struct {
	// Name is the provider identifier
	Name string `json:"name"`

	// HasToken reports whether a bearer token is currently cached
	HasToken bool `json:"has_token"`

	// TokenExpiry is when the cached token stops being usable
	TokenExpiry time.Time `json:"token_expiry"`

	// Configured reports whether credentials were supplied at construction
	Configured bool `json:"configured"`
}

// UnitSystem identifies the units a provider reports speeds and altitudes in.
// Normalization converts only the units the specific provider emits.
type UnitSystem int

const (
	// UnitsAeronautical means feet, knots and feet-per-minute (pass-through).
	UnitsAeronautical UnitSystem = iota

	// UnitsMetric means meters and meters-per-second (converted).
	UnitsMetric
)

// RawRecord is a single provider record reshaped into named fields but not
// normalized: values keep the provider's units and missing coordinates are
// NaN. Adapters fill only the fields their provider carries.
type RawRecord struct {
	// ID is the provider-supplied flight identifier, if any
	ID string

	// ICAO24 is the 24-bit transponder hex address
	ICAO24 string

	// Callsign as broadcast, already whitespace-trimmed
	Callsign string

	// FlightNumber is the commercial flight number, if the provider carries one
	FlightNumber string

	// AirlineCode is the 2-3 letter carrier prefix parsed from the callsign
	// or flight number; empty when no prefix matched
	AirlineCode string

	// Registration is the airframe tail number
	Registration string

	// TypeCode is the ICAO aircraft type designator (e.g. "B738")
	TypeCode string

	// OriginIATA and DestinationIATA are route endpoints, if carried
	OriginIATA      string
	DestinationIATA string

	// OriginCountry is the state of registry, if carried
	OriginCountry string

	// Squawk is the transponder code
	Squawk string

	// Latitude/Longitude in decimal degrees; NaN when the provider omitted them
	Latitude  float64
	Longitude float64

	// Altitude, Velocity and VerticalRate in the batch's UnitSystem
	Altitude     float64
	Velocity     float64
	VerticalRate float64

	// Heading is the ground track in degrees
	Heading float64

	// OnGround reports the provider's surface flag
	OnGround bool

	// Timestamp is the record's position time as a Unix timestamp in seconds
	Timestamp int64
}

// RawBatch is one provider response worth of raw records.
type RawBatch struct {
	// Source is the provider name
	Source string

	// Time is the provider's batch timestamp (Unix seconds), 0 if absent
	Time int64

	// Units declares how Altitude/Velocity/VerticalRate are expressed
	Units UnitSystem

	// Records are the reshaped provider rows
	Records []RawRecord
}

// icaoAirportRe matches a 4-letter ICAO airport code.
var icaoAirportRe = regexp.MustCompile(`^[A-Z]{4}$`)

// validateAirportICAO rejects malformed airport codes before any network
// call is made.
func validateAirportICAO(icao string) error {
	if !icaoAirportRe.MatchString(icao) {
		return fmt.Errorf("invalid ICAO airport code %q", icao)
	}
	return nil
}

// validateCoordinates rejects non-finite center coordinates before any
// network call is made.
func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return fmt.Errorf("non-finite coordinates (%v, %v)", lat, lon)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("coordinates out of range (%v, %v)", lat, lon)
	}
	return nil
}
