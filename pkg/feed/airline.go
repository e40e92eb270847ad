package feed

import (
	"encoding/json"
	"log"
	"regexp"
	"strings"

	_ "embed"
)

//go:embed assets/airlines.json
var airlinesJSON []byte

// AirlineEntry represents a single carrier from the embedded dataset.
type AirlineEntry struct {
	Name string `json:"name"`
	IATA string `json:"iata"` // 2-letter code
	ICAO string `json:"icao"` // 3-letter code
	Logo string `json:"logo,omitempty"`
}

// airlineByCode maps uppercase IATA and ICAO codes to their entry.
var airlineByCode map[string]AirlineEntry

func init() {
	var data struct {
		Airlines []AirlineEntry `json:"airlines"`
	}
	if err := json.Unmarshal(airlinesJSON, &data); err != nil {
		log.Printf("[feed] warning: could not parse airlines.json: %v", err)
		return
	}

	airlineByCode = make(map[string]AirlineEntry, len(data.Airlines)*2)
	for _, a := range data.Airlines {
		if a.IATA != "" {
			airlineByCode[strings.ToUpper(a.IATA)] = a
		}
		if a.ICAO != "" {
			airlineByCode[strings.ToUpper(a.ICAO)] = a
		}
	}
}

// LookupAirline returns the airline entry for an IATA or ICAO carrier code
// (case-insensitive).
func LookupAirline(code string) (AirlineEntry, bool) {
	a, ok := airlineByCode[strings.ToUpper(code)]
	return a, ok
}

// callsignRe matches a 2-3 letter carrier prefix followed by a flight number
// at the start of a callsign or commercial flight number.
var callsignRe = regexp.MustCompile(`^([A-Z]{2,3})\s?([0-9][A-Z0-9]*)$`)

// splitCallsign parses a callsign (or flight number) into its carrier prefix
// and flight number. An unmatched callsign yields an empty carrier code and
// the input unchanged as the number.
func splitCallsign(callsign string) (airlineCode, flightNumber string) {
	cs := strings.TrimSpace(strings.ToUpper(callsign))
	m := callsignRe.FindStringSubmatch(cs)
	if m == nil {
		return "", cs
	}
	return m[1], m[1] + m[2]
}
