package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/unklstewy/skyframe/pkg/geo"
)

// radarFieldCount is the number of positional fields in a bounds-feed row:
// icao24, lat, lon, heading, altitude-ft, velocity-kt, squawk, radar, type,
// registration, timestamp, origin, destination, flight number, on-ground,
// vertical-rate-fpm, callsign.
const radarFieldCount = 17

// RadarClient implements Provider against the unauthenticated public bounds
// feed. One request per bounds query; no credentials, no token handling.
// Airport arrivals/departures and health are not supported.
type RadarClient struct {
	// baseURL is the feed base URL (custom for testing)
	baseURL string

	// detailURL is the per-flight detail endpoint base URL
	detailURL string

	// httpClient is the HTTP client used for feed requests
	httpClient *http.Client

	// limiter throttles outgoing requests
	limiter *rate.Limiter
}

// RadarConfig contains configuration for the bounds-feed client.
type RadarConfig struct {
	BaseURL           string
	DetailURL         string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// NewRadarClient creates a new unauthenticated bounds-feed client.
func NewRadarClient(cfg RadarConfig) *RadarClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 1.0
	}

	return &RadarClient{
		baseURL:   cfg.BaseURL,
		detailURL: cfg.DetailURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

func (c *RadarClient) Name() string { return "radar" }

// AreaQuery converts the circle to a bounding rectangle and delegates to
// BoundsQuery; the public feed only understands rectangles.
func (c *RadarClient) AreaQuery(ctx context.Context, lat, lon, radiusKm float64) (*RawBatch, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	return c.BoundsQuery(ctx, geo.FromCircle(lat, lon, radiusKm))
}

// BoundsQuery fetches all flights inside a rectangle with a single request.
// The response maps flight identifiers to fixed-length positional arrays;
// rows failing the array-length or coordinate checks are dropped silently.
func (c *RadarClient) BoundsQuery(ctx context.Context, bounds geo.RectangleBounds) (*RawBatch, error) {
	bounds = geo.Sanitize(bounds)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s?bounds=%.3f,%.3f,%.3f,%.3f",
		c.baseURL, bounds.North, bounds.South, bounds.West, bounds.East)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	// The feed is a single JSON object whose flight entries sit alongside
	// scalar bookkeeping keys (counts, version), so decode values lazily.
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse feed response: %w", err)
	}

	batch := &RawBatch{
		Source: c.Name(),
		Units:  UnitsAeronautical,
	}

	for id, raw := range entries {
		var fields []any
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue // bookkeeping key, not a flight row
		}
		rec, ok := parseRadarRow(id, fields)
		if !ok {
			continue
		}
		batch.Records = append(batch.Records, rec)
		if rec.Timestamp > batch.Time {
			batch.Time = rec.Timestamp
		}
	}

	return batch, nil
}

// FlightDetails returns the provider's detail blob for one flight identifier.
func (c *RadarClient) FlightDetails(ctx context.Context, id string) (json.RawMessage, error) {
	if c.detailURL == "" {
		return nil, ErrUnsupported
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s?flight=%s", c.detailURL, id)
	return c.get(ctx, url)
}

// AirportArrivals is not available on the public bounds feed.
func (c *RadarClient) AirportArrivals(ctx context.Context, icao string, begin, end time.Time) (json.RawMessage, error) {
	return nil, ErrUnsupported
}

// AirportDepartures is not available on the public bounds feed.
func (c *RadarClient) AirportDepartures(ctx context.Context, icao string, begin, end time.Time) (json.RawMessage, error) {
	return nil, ErrUnsupported
}

// Health is not available on the public bounds feed; there are no
// credentials to report on.
func (c *RadarClient) Health() (*Health, error) {
	return nil, ErrUnsupported
}

// Close cleanly shuts down the client. No persistent connections are held.
func (c *RadarClient) Close() error {
	return nil
}

// get issues one GET request and returns the response body.
func (c *RadarClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header),
			Message:    "rate limit exceeded",
		}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("feed returned status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// parseRadarRow converts one positional array into a RawRecord.
// Returns ok=false when the row fails the array-length or coordinate checks.
func parseRadarRow(id string, fields []any) (RawRecord, bool) {
	if len(fields) < radarFieldCount {
		return RawRecord{}, false
	}

	lat, latOK := toFloat(fields[1])
	lon, lonOK := toFloat(fields[2])
	if !latOK || !lonOK || math.IsNaN(lat) || math.IsNaN(lon) {
		return RawRecord{}, false
	}

	rec := RawRecord{
		ID:        id,
		Latitude:  lat,
		Longitude: lon,
	}

	rec.ICAO24, _ = toString(fields[0])
	rec.Heading, _ = toFloat(fields[3])
	rec.Altitude, _ = toFloat(fields[4])
	rec.Velocity, _ = toFloat(fields[5])
	rec.Squawk, _ = toString(fields[6])
	rec.TypeCode, _ = toString(fields[8])
	rec.Registration, _ = toString(fields[9])
	if ts, ok := toFloat(fields[10]); ok {
		rec.Timestamp = int64(ts)
	}
	rec.OriginIATA, _ = toString(fields[11])
	rec.DestinationIATA, _ = toString(fields[12])
	rec.FlightNumber, _ = toString(fields[13])
	if onGround, ok := toFloat(fields[14]); ok && onGround != 0 {
		rec.OnGround = true
	}
	rec.VerticalRate, _ = toFloat(fields[15])
	rec.Callsign, _ = toString(fields[16])

	// Carrier prefix comes from the callsign, falling back to the
	// commercial flight number.
	if code, _ := splitCallsign(rec.Callsign); code != "" {
		rec.AirlineCode = code
	} else if code, _ := splitCallsign(rec.FlightNumber); code != "" {
		rec.AirlineCode = code
	}

	return rec, true
}

// toFloat safely extracts a float64 from a decoded JSON value.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// toString safely extracts a string from a decoded JSON value.
func toString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
