package feed

import (
	"math"
	"time"
)

// Unit conversion factors applied when a provider reports metric units.
const (
	// MetersToFeet converts meters to feet
	MetersToFeet = 3.28084

	// MetersPerSecondToKnots converts m/s to knots
	MetersPerSecondToKnots = 1.94384

	// MetersPerSecondToFPM converts m/s to feet per minute
	MetersPerSecondToFPM = 196.8504
)

// Status classification thresholds.
const (
	// approachAltitudeFt is the ceiling below which a descending aircraft
	// counts as approaching
	approachAltitudeFt = 3000

	// approachRateFPM is the vertical-speed ceiling for approaching
	approachRateFPM = -200

	// climbRateFPM / descendRateFPM bound level flight
	climbRateFPM   = 300
	descendRateFPM = -300
)

// Unknown is the placeholder used for missing airline/airport codes so the
// display boundary never has to disambiguate empty strings.
const Unknown = "unknown"

// Status describes an aircraft's flight phase.
type Status string

const (
	StatusClimbing    Status = "climbing"
	StatusDescending  Status = "descending"
	StatusCruising    Status = "cruising"
	StatusApproaching Status = "approaching"
	StatusLanded      Status = "landed"
)

// Airline identifies the operating carrier of a flight.
type Airline struct {
	Name string `json:"name"`
	IATA string `json:"iata"`
	ICAO string `json:"icao"`
	Logo string `json:"logo,omitempty"`
}

// Aircraft describes the airframe.
type Aircraft struct {
	// Type is a human-readable type label
	Type string `json:"type"`

	// ICAOType is the ICAO type designator (e.g. "A320")
	ICAOType string `json:"icao_type"`

	// Registration is the tail number
	Registration string `json:"registration"`
}

// Endpoint is one end of a route (departure or arrival).
type Endpoint struct {
	Airport   string `json:"airport"`
	IATA      string `json:"iata"`
	City      string `json:"city"`
	Country   string `json:"country"`
	LocalTime string `json:"local_time,omitempty"`
}

// Position is a single normalized position fix.
type Position struct {
	// AltitudeFt is the altitude in feet MSL
	AltitudeFt int `json:"altitude_ft"`

	// GroundSpeedKt is the ground speed in knots
	GroundSpeedKt int `json:"ground_speed_kt"`

	// Heading is the ground track in degrees [0, 360)
	Heading float64 `json:"heading"`

	// VerticalRateFPM is the signed vertical speed in feet per minute
	VerticalRateFPM int `json:"vertical_rate_fpm"`

	// Latitude/Longitude in decimal degrees
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Flight is the canonical display schema: one immutable snapshot of one
// aircraft per poll.
type Flight struct {
	// ID uniquely identifies the flight within a snapshot. Derived from the
	// provider identifier, or from icao24+callsign when the provider has none.
	ID string `json:"id"`

	FlightNumber string   `json:"flight_number"`
	Callsign     string   `json:"callsign"`
	Airline      Airline  `json:"airline"`
	Aircraft     Aircraft `json:"aircraft"`
	Departure    Endpoint `json:"departure"`
	Arrival      Endpoint `json:"arrival"`
	Position     Position `json:"position"`
	Status       Status   `json:"status"`
}

// Snapshot is one normalized poll result: the produced feed boundary.
type Snapshot struct {
	Flights []Flight `json:"flights"`

	// Source is the provider name the batch came from
	Source string `json:"source"`

	// Timestamp is the batch time in Unix milliseconds
	Timestamp int64 `json:"timestamp"`
}

// Normalize maps a raw provider batch into the canonical schema. It is a
// pure function: records with missing or non-finite coordinates are dropped,
// units are converted only when the batch declares metric units, and the
// flight status is classified from the converted values.
func Normalize(batch *RawBatch) Snapshot {
	snap := Snapshot{
		Source:  batch.Source,
		Flights: make([]Flight, 0, len(batch.Records)),
	}

	if batch.Time > 0 {
		snap.Timestamp = batch.Time * 1000
	} else {
		snap.Timestamp = time.Now().UnixMilli()
	}

	for _, rec := range batch.Records {
		if !isFinite(rec.Latitude) || !isFinite(rec.Longitude) {
			continue
		}
		snap.Flights = append(snap.Flights, normalizeRecord(rec, batch.Units))
	}

	return snap
}

func normalizeRecord(rec RawRecord, units UnitSystem) Flight {
	altFt := rec.Altitude
	speedKt := rec.Velocity
	rateFPM := rec.VerticalRate
	if units == UnitsMetric {
		altFt = rec.Altitude * MetersToFeet
		speedKt = rec.Velocity * MetersPerSecondToKnots
		rateFPM = rec.VerticalRate * MetersPerSecondToFPM
	}

	f := Flight{
		ID:           flightID(rec),
		FlightNumber: rec.FlightNumber,
		Callsign:     rec.Callsign,
		Airline:      normalizeAirline(rec.AirlineCode),
		Aircraft: Aircraft{
			Type:         rec.TypeCode,
			ICAOType:     rec.TypeCode,
			Registration: rec.Registration,
		},
		Departure: normalizeEndpoint(rec.OriginIATA),
		Arrival:   normalizeEndpoint(rec.DestinationIATA),
		Position: Position{
			AltitudeFt:      int(math.Round(altFt)),
			GroundSpeedKt:   int(math.Round(speedKt)),
			Heading:         normalizeHeading(rec.Heading),
			VerticalRateFPM: int(math.Round(rateFPM)),
			Latitude:        rec.Latitude,
			Longitude:       rec.Longitude,
		},
	}

	f.Status = classifyStatus(rec.OnGround, f.Position.AltitudeFt, f.Position.VerticalRateFPM)

	return f
}

// classifyStatus assigns the flight phase. Rules are evaluated in a fixed
// order; the first match wins.
func classifyStatus(onGround bool, altitudeFt, verticalRateFPM int) Status {
	switch {
	case onGround:
		return StatusLanded
	case altitudeFt < approachAltitudeFt && verticalRateFPM < approachRateFPM:
		return StatusApproaching
	case verticalRateFPM > climbRateFPM:
		return StatusClimbing
	case verticalRateFPM < descendRateFPM:
		return StatusDescending
	default:
		return StatusCruising
	}
}

// flightID derives the snapshot identifier: the provider id when present,
// otherwise icao24 and callsign joined with unknown placeholders.
func flightID(rec RawRecord) string {
	if rec.ID != "" {
		return rec.ID
	}

	icao := rec.ICAO24
	if icao == "" {
		icao = Unknown
	}
	callsign := rec.Callsign
	if callsign == "" {
		callsign = Unknown
	}
	return icao + "_" + callsign
}

// normalizeAirline resolves the carrier prefix against the embedded airline
// directory, falling back to explicit unknown placeholders.
func normalizeAirline(code string) Airline {
	if code == "" {
		return Airline{Name: Unknown, IATA: Unknown, ICAO: Unknown}
	}

	if entry, ok := LookupAirline(code); ok {
		a := Airline{Name: entry.Name, IATA: entry.IATA, ICAO: entry.ICAO, Logo: entry.Logo}
		if a.IATA == "" {
			a.IATA = Unknown
		}
		if a.ICAO == "" {
			a.ICAO = Unknown
		}
		return a
	}

	a := Airline{Name: Unknown, IATA: Unknown, ICAO: Unknown}
	if len(code) == 2 {
		a.IATA = code
	} else {
		a.ICAO = code
	}
	return a
}

// normalizeEndpoint wraps a route endpoint code, using the unknown
// placeholder when the provider carried none.
func normalizeEndpoint(iata string) Endpoint {
	if iata == "" {
		return Endpoint{Airport: Unknown, IATA: Unknown, City: Unknown, Country: Unknown}
	}
	return Endpoint{Airport: Unknown, IATA: iata, City: Unknown, Country: Unknown}
}

// normalizeHeading wraps a track into [0, 360).
func normalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
