package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/unklstewy/skyframe/pkg/geo"
)

const (
	// openskyStateFieldCount is the number of positional fields in a state
	// vector: icao24, callsign, origin country, two timestamps, lon, lat,
	// baro altitude, on-ground, velocity, track, vertical rate, sensors,
	// geo altitude, squawk, spi, position source.
	openskyStateFieldCount = 17

	// tokenRefreshMargin refreshes the bearer token this long before its
	// nominal expiry so a token cannot expire mid-request.
	tokenRefreshMargin = 5 * time.Minute
)

// OpenSkyClient implements Provider against the OpenSky Network REST API
// using the OAuth2 client-credentials grant. The bearer token is cached per
// client instance and refreshed lazily.
type OpenSkyClient struct {
	// baseURL is the API base URL (custom for testing)
	baseURL string

	// tokenURL is the OAuth2 token endpoint
	tokenURL string

	// clientID / clientSecret are the client-credentials pair
	clientID     string
	clientSecret string

	// httpClient is the HTTP client used for API and token requests
	httpClient *http.Client

	// limiter throttles outgoing API requests
	limiter *rate.Limiter

	// mu guards the cached token; the scheduler is single-threaded but the
	// client itself may be shared across goroutines by other callers
	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// OpenSkyConfig contains configuration for the OpenSky client.
type OpenSkyConfig struct {
	BaseURL           string
	TokenURL          string
	ClientID          string
	ClientSecret      string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// NewOpenSkyClient creates a new OpenSky API client.
func NewOpenSkyClient(cfg OpenSkyConfig) *OpenSkyClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 0.5
	}

	return &OpenSkyClient{
		baseURL:      cfg.BaseURL,
		tokenURL:     cfg.TokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

func (c *OpenSkyClient) Name() string { return "opensky" }

// AreaQuery converts the circle to a bounding rectangle and delegates to
// BoundsQuery; the states endpoint only understands rectangles.
func (c *OpenSkyClient) AreaQuery(ctx context.Context, lat, lon, radiusKm float64) (*RawBatch, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	return c.BoundsQuery(ctx, geo.FromCircle(lat, lon, radiusKm))
}

// BoundsQuery fetches all state vectors inside a rectangle.
func (c *OpenSkyClient) BoundsQuery(ctx context.Context, bounds geo.RectangleBounds) (*RawBatch, error) {
	bounds = geo.Sanitize(bounds)

	endpoint := fmt.Sprintf("%s/states/all?lamin=%.4f&lomin=%.4f&lamax=%.4f&lomax=%.4f",
		c.baseURL, bounds.South, bounds.West, bounds.North, bounds.East)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Time   int64   `json:"time"`
		States [][]any `json:"states"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse states response: %w", err)
	}

	batch := &RawBatch{
		Source: c.Name(),
		Time:   raw.Time,
		Units:  UnitsMetric,
	}

	for _, state := range raw.States {
		rec, ok := parseStateVector(state)
		if !ok {
			continue
		}
		batch.Records = append(batch.Records, rec)
	}

	return batch, nil
}

// FlightDetails returns the raw track blob for one ICAO24 address.
func (c *OpenSkyClient) FlightDetails(ctx context.Context, id string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/tracks/all?icao24=%s&time=0", c.baseURL, url.QueryEscape(id))
	return c.get(ctx, endpoint)
}

// AirportArrivals returns raw arrival records for an airport within the
// given window.
func (c *OpenSkyClient) AirportArrivals(ctx context.Context, icao string, begin, end time.Time) (json.RawMessage, error) {
	return c.airportFlights(ctx, "arrival", icao, begin, end)
}

// AirportDepartures returns raw departure records for an airport within the
// given window.
func (c *OpenSkyClient) AirportDepartures(ctx context.Context, icao string, begin, end time.Time) (json.RawMessage, error) {
	return c.airportFlights(ctx, "departure", icao, begin, end)
}

func (c *OpenSkyClient) airportFlights(ctx context.Context, kind, icao string, begin, end time.Time) (json.RawMessage, error) {
	icao = strings.ToUpper(strings.TrimSpace(icao))
	if err := validateAirportICAO(icao); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/flights/%s?airport=%s&begin=%d&end=%d",
		c.baseURL, kind, icao, begin.Unix(), end.Unix())
	return c.get(ctx, endpoint)
}

// Health reports the current token/credential state.
func (c *OpenSkyClient) Health() (*Health, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return &Health{
		Name:        c.Name(),
		HasToken:    c.accessToken != "",
		TokenExpiry: c.tokenExpiry,
		Configured:  c.clientID != "" && c.clientSecret != "",
	}, nil
}

// Close cleanly shuts down the client and drops the cached token.
func (c *OpenSkyClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
	c.tokenExpiry = time.Time{}
	return nil
}

// get issues one authenticated GET request and returns the response body.
func (c *OpenSkyClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
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
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// token returns a valid bearer token, acquiring or refreshing one through
// the client-credentials grant when the cached token is missing or inside
// the refresh margin.
func (c *OpenSkyClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	if c.clientID == "" || c.clientSecret == "" {
		return "", fmt.Errorf("opensky credentials not configured")
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access token")
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenRefreshMargin)

	return c.accessToken, nil
}

// parseStateVector converts one positional state vector into a RawRecord.
// Returns ok=false when the vector fails the array-length or coordinate
// checks.
func parseStateVector(state []any) (RawRecord, bool) {
	if len(state) < openskyStateFieldCount {
		return RawRecord{}, false
	}

	lat, latOK := toFloat(state[6])
	lon, lonOK := toFloat(state[5])
	if !latOK || !lonOK || math.IsNaN(lat) || math.IsNaN(lon) {
		return RawRecord{}, false
	}

	rec := RawRecord{
		Latitude:  lat,
		Longitude: lon,
	}

	rec.ICAO24, _ = toString(state[0])
	if cs, ok := toString(state[1]); ok {
		// OpenSky pads callsigns with trailing spaces.
		rec.Callsign = strings.TrimSpace(cs)
	}
	rec.OriginCountry, _ = toString(state[2])
	if ts, ok := toFloat(state[3]); ok {
		rec.Timestamp = int64(ts)
	}
	rec.Altitude, _ = toFloat(state[7])
	if onGround, ok := state[8].(bool); ok {
		rec.OnGround = onGround
	}
	rec.Velocity, _ = toFloat(state[9])
	rec.Heading, _ = toFloat(state[10])
	rec.VerticalRate, _ = toFloat(state[11])
	rec.Squawk, _ = toString(state[14])

	rec.AirlineCode, rec.FlightNumber = splitCallsign(rec.Callsign)

	return rec, true
}
