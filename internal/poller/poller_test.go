package poller

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/unklstewy/skyframe/pkg/config"
	"github.com/unklstewy/skyframe/pkg/feed"
	"github.com/unklstewy/skyframe/pkg/geo"
)

// scriptedProvider returns one canned response per BoundsQuery call,
// repeating the last entry when the script runs out.
type scriptedProvider struct {
	script []scriptStep
	calls  int
	bounds []geo.RectangleBounds
}

type scriptStep struct {
	batch *feed.RawBatch
	err   error
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) BoundsQuery(ctx context.Context, bounds geo.RectangleBounds) (*feed.RawBatch, error) {
	p.bounds = append(p.bounds, bounds)
	step := p.script[min(p.calls, len(p.script)-1)]
	p.calls++
	return step.batch, step.err
}

func (p *scriptedProvider) AreaQuery(ctx context.Context, lat, lon, radiusKm float64) (*feed.RawBatch, error) {
	return nil, feed.ErrUnsupported
}

func (p *scriptedProvider) FlightDetails(ctx context.Context, id string) (json.RawMessage, error) {
	return nil, feed.ErrUnsupported
}

func (p *scriptedProvider) AirportArrivals(ctx context.Context, icao string, begin, end time.Time) (json.RawMessage, error) {
	return nil, feed.ErrUnsupported
}

func (p *scriptedProvider) AirportDepartures(ctx context.Context, icao string, begin, end time.Time) (json.RawMessage, error) {
	return nil, feed.ErrUnsupported
}

func (p *scriptedProvider) Health() (*feed.Health, error) { return nil, feed.ErrUnsupported }
func (p *scriptedProvider) Close() error                  { return nil }

func testFeedConfig() config.FeedConfig {
	return config.FeedConfig{
		Provider: "scripted",
		Region: config.RegionConfig{
			Latitude:  51.0,
			Longitude: 0.0,
			RadiusKm:  50,
		},
	}
}

func nonEmptyBatch() *feed.RawBatch {
	return &feed.RawBatch{
		Source: "scripted",
		Units:  feed.UnitsAeronautical,
		Records: []feed.RawRecord{
			{
				ICAO24:    "abc123",
				Callsign:  "BAW117",
				Latitude:  51.1,
				Longitude: 0.1,
			},
		},
	}
}

func emptyBatch() *feed.RawBatch {
	return &feed.RawBatch{Source: "scripted", Units: feed.UnitsAeronautical}
}

// TestResultEmpty tests the hysteresis input classification.
func TestResultEmpty(t *testing.T) {
	if !(Result{Err: errors.New("boom")}).Empty() {
		t.Error("Expected failed poll to count as empty")
	}
	if !(Result{Snapshot: feed.Snapshot{}}).Empty() {
		t.Error("Expected zero-flight snapshot to count as empty")
	}
	nonEmpty := Result{Snapshot: feed.Snapshot{Flights: []feed.Flight{{ID: "x"}}}}
	if nonEmpty.Empty() {
		t.Error("Expected snapshot with flights to count as non-empty")
	}
}

func nonEmptyResult() Result {
	return Result{Snapshot: feed.Snapshot{Flights: []feed.Flight{{ID: "x"}}}}
}

// TestNextInterval tests the adaptive interval selection. The interval
// follows the most recent successful poll, so each subtest starts from a
// fresh poller.
func TestNextInterval(t *testing.T) {
	t.Run("Non-empty success uses active interval", func(t *testing.T) {
		p := New(&scriptedProvider{}, testFeedConfig())
		if got := p.nextInterval(nonEmptyResult()); got != DefaultActiveInterval {
			t.Errorf("Expected %v, got %v", DefaultActiveInterval, got)
		}
	})

	t.Run("Empty success uses idle interval", func(t *testing.T) {
		p := New(&scriptedProvider{}, testFeedConfig())
		if got := p.nextInterval(Result{}); got != DefaultIdleInterval {
			t.Errorf("Expected %v, got %v", DefaultIdleInterval, got)
		}
	})

	t.Run("Error before any success uses idle interval", func(t *testing.T) {
		p := New(&scriptedProvider{}, testFeedConfig())
		r := Result{Err: errors.New("connection refused")}
		if got := p.nextInterval(r); got != DefaultIdleInterval {
			t.Errorf("Expected %v, got %v", DefaultIdleInterval, got)
		}
	})

	t.Run("Error after non-empty success keeps active interval", func(t *testing.T) {
		p := New(&scriptedProvider{}, testFeedConfig())
		p.nextInterval(nonEmptyResult())
		r := Result{Err: errors.New("connection refused")}
		if got := p.nextInterval(r); got != DefaultActiveInterval {
			t.Errorf("Expected %v (unchanged by failure), got %v", DefaultActiveInterval, got)
		}
	})

	t.Run("Empty success after non-empty success drops to idle", func(t *testing.T) {
		p := New(&scriptedProvider{}, testFeedConfig())
		p.nextInterval(nonEmptyResult())
		if got := p.nextInterval(Result{}); got != DefaultIdleInterval {
			t.Errorf("Expected %v, got %v", DefaultIdleInterval, got)
		}
	})

	t.Run("Retry-After extends beyond idle interval", func(t *testing.T) {
		p := New(&scriptedProvider{}, testFeedConfig())
		r := Result{Err: &feed.RateLimitError{StatusCode: 429, RetryAfter: 2 * time.Minute}}
		if got := p.nextInterval(r); got != 2*time.Minute {
			t.Errorf("Expected 2m, got %v", got)
		}
	})

	t.Run("Short Retry-After does not shrink the interval", func(t *testing.T) {
		p := New(&scriptedProvider{}, testFeedConfig())
		r := Result{Err: &feed.RateLimitError{StatusCode: 429, RetryAfter: time.Second}}
		if got := p.nextInterval(r); got != DefaultIdleInterval {
			t.Errorf("Expected %v, got %v", DefaultIdleInterval, got)
		}
	})
}

// TestConfiguredIntervals tests the config override and zero fallback.
func TestConfiguredIntervals(t *testing.T) {
	cfg := testFeedConfig()
	cfg.ActiveIntervalSeconds = 5
	cfg.IdleIntervalSeconds = 60

	p := New(&scriptedProvider{}, cfg)
	if p.activeInterval != 5*time.Second {
		t.Errorf("Expected 5s, got %v", p.activeInterval)
	}
	if p.idleInterval != 60*time.Second {
		t.Errorf("Expected 60s, got %v", p.idleInterval)
	}

	p = New(&scriptedProvider{}, testFeedConfig())
	if p.activeInterval != DefaultActiveInterval || p.idleInterval != DefaultIdleInterval {
		t.Errorf("Expected defaults, got %v/%v", p.activeInterval, p.idleInterval)
	}
}

// TestBoundsFromRegion tests region resolution.
func TestBoundsFromRegion(t *testing.T) {
	t.Run("Circle expands to a rectangle", func(t *testing.T) {
		b := BoundsFromRegion(config.RegionConfig{Latitude: 51, Longitude: 0, RadiusKm: 50})
		if b.North != 51.5 || b.South != 50.5 || b.East != 0.5 || b.West != -0.5 {
			t.Errorf("Unexpected bounds: %+v", b)
		}
	})

	t.Run("Explicit rectangle is sanitized", func(t *testing.T) {
		b := BoundsFromRegion(config.RegionConfig{
			UseRectangle: true,
			North:        40.0,
			South:        42.0, // inverted on purpose
			East:         -73.0,
			West:         -75.0,
		})
		if b.North != 42.0 || b.South != 40.0 {
			t.Errorf("Expected north/south repaired, got %+v", b)
		}
	})
}

// TestRunDeliversResults tests the polling loop end to end with short
// intervals and a scripted provider.
func TestRunDeliversResults(t *testing.T) {
	provider := &scriptedProvider{script: []scriptStep{
		{batch: nonEmptyBatch()},
		{err: errors.New("upstream down")},
		{batch: emptyBatch()},
	}}

	p := New(provider, testFeedConfig())
	p.activeInterval = time.Millisecond
	p.idleInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	first := <-p.Results()
	if first.Seq != 1 {
		t.Errorf("Expected seq 1, got %d", first.Seq)
	}
	if first.Empty() {
		t.Error("Expected first poll to carry a flight")
	}
	if first.Snapshot.Flights[0].ID != "abc123_BAW117" {
		t.Errorf("Unexpected flight: %+v", first.Snapshot.Flights[0])
	}

	second := <-p.Results()
	if second.Seq != 2 || second.Err == nil {
		t.Errorf("Expected failed seq 2, got seq %d err %v", second.Seq, second.Err)
	}

	third := <-p.Results()
	if third.Seq != 3 || !third.Empty() || third.Err != nil {
		t.Errorf("Expected clean empty seq 3, got %+v", third)
	}

	cancel()

	if len(provider.bounds) < 3 {
		t.Fatalf("Expected at least 3 bounds queries, got %d", len(provider.bounds))
	}
	if provider.bounds[0] != (geo.RectangleBounds{North: 51.5, South: 50.5, East: 0.5, West: -0.5}) {
		t.Errorf("Unexpected query bounds: %+v", provider.bounds[0])
	}
}
