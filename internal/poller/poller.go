// Package poller drives the periodic fetch-and-normalize pipeline with an
// adaptive interval: fast while aircraft are present, slow while the sky is
// empty. A failed fetch is delivered as a result (never retried immediately)
// so the display hysteresis can count it as an empty poll.
package poller

import (
	"context"
	"log"
	"time"

	"github.com/unklstewy/skyframe/pkg/config"
	"github.com/unklstewy/skyframe/pkg/feed"
	"github.com/unklstewy/skyframe/pkg/geo"
)

// Default poll intervals.
const (
	DefaultActiveInterval = 15 * time.Second
	DefaultIdleInterval   = 30 * time.Second
)

// Result is one completed poll. Seq increases monotonically with issue
// order; the consumer applies results in completion order (last-applied
// wins) and can use Seq to spot a stale overwrite.
type Result struct {
	// Seq is the poll sequence number, starting at 1
	Seq uint64

	// Snapshot is the normalized batch; zero-valued when Err is set
	Snapshot feed.Snapshot

	// Err is the transport/auth failure that aborted this poll, if any
	Err error
}

// Empty reports whether this result counts as an empty poll for the
// display-mode hysteresis: errors and zero-flight snapshots both do.
func (r Result) Empty() bool {
	return r.Err != nil || len(r.Snapshot.Flights) == 0
}

// Poller periodically queries one provider over a fixed region.
type Poller struct {
	provider feed.Provider
	bounds   geo.RectangleBounds

	activeInterval time.Duration
	idleInterval   time.Duration

	// lastSuccessNonEmpty remembers whether the most recent successful
	// poll carried flights; failed polls leave it untouched so a
	// transient error does not change the cadence by itself.
	lastSuccessNonEmpty bool

	seq     uint64
	results chan Result
}

// New creates a poller over the configured region. Intervals of zero fall
// back to the defaults.
func New(provider feed.Provider, cfg config.FeedConfig) *Poller {
	active := time.Duration(cfg.ActiveIntervalSeconds) * time.Second
	if active <= 0 {
		active = DefaultActiveInterval
	}
	idle := time.Duration(cfg.IdleIntervalSeconds) * time.Second
	if idle <= 0 {
		idle = DefaultIdleInterval
	}

	return &Poller{
		provider:       provider,
		bounds:         BoundsFromRegion(cfg.Region),
		activeInterval: active,
		idleInterval:   idle,
		results:        make(chan Result, 1),
	}
}

// BoundsFromRegion resolves the configured region into a sanitized query
// rectangle.
func BoundsFromRegion(region config.RegionConfig) geo.RectangleBounds {
	if region.UseRectangle {
		return geo.Sanitize(geo.RectangleBounds{
			North: region.North,
			South: region.South,
			East:  region.East,
			West:  region.West,
		})
	}
	return geo.FromCircle(region.Latitude, region.Longitude, region.RadiusKm)
}

// Results returns the channel completed polls are delivered on.
func (p *Poller) Results() <-chan Result {
	return p.results
}

// Run polls until the context is cancelled. The first poll fires
// immediately; each subsequent poll is scheduled after the adaptive
// interval. Run owns all poller state, so callers get the single-threaded
// scheduling the state machines downstream rely on.
func (p *Poller) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		result := p.poll(ctx)

		select {
		case <-ctx.Done():
			return
		case p.results <- result:
		}

		timer.Reset(p.nextInterval(result))
	}
}

// poll performs one fetch-and-normalize cycle.
func (p *Poller) poll(ctx context.Context) Result {
	p.seq++

	batch, err := p.provider.BoundsQuery(ctx, p.bounds)
	if err != nil {
		log.Printf("[poller] poll %d failed: %v", p.seq, err)
		return Result{Seq: p.seq, Err: err}
	}

	return Result{Seq: p.seq, Snapshot: feed.Normalize(batch)}
}

// nextInterval picks the delay before the next poll: the active interval
// while the most recent successful result carried flights, the idle
// interval otherwise. Failed polls keep the current cadence. A rate
// limited poll waits at least as long as the provider asked for.
func (p *Poller) nextInterval(last Result) time.Duration {
	if last.Err == nil {
		p.lastSuccessNonEmpty = len(last.Snapshot.Flights) > 0
	}

	interval := p.idleInterval
	if p.lastSuccessNonEmpty {
		interval = p.activeInterval
	}

	if rle, ok := feed.IsRateLimitError(last.Err); ok && rle.RetryAfter > interval {
		interval = rle.RetryAfter
	}

	return interval
}
