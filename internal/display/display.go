// Package display holds the display-mode state machine: an asymmetric
// hysteresis between the flight carousel and the photo slideshow. Switching
// away from flights takes a streak of empty polls; switching back happens on
// the first non-empty poll.
//
// The controller is a plain state machine mutated only from the owning event
// loop (poll completions and carousel ticks), so it carries no locking.
package display

import (
	"log"

	"github.com/unklstewy/skyframe/internal/poller"
	"github.com/unklstewy/skyframe/pkg/feed"
)

// Mode is what the display is currently showing.
type Mode string

const (
	// ModeFlight shows the flight-information carousel
	ModeFlight Mode = "flight"

	// ModePhotos shows the photo slideshow fallback
	ModePhotos Mode = "photos"
)

// DefaultEmptyStreakThreshold is how many consecutive empty or failed polls
// switch the display to photos.
const DefaultEmptyStreakThreshold = 3

// Controller owns the display mode and the flight-carousel sub-state.
type Controller struct {
	mode        Mode
	emptyStreak int
	threshold   int

	flights []feed.Flight
	index   int

	lastSeq uint64
}

// New creates a controller starting in flight mode. A threshold <= 0 falls
// back to the default.
func New(threshold int) *Controller {
	if threshold <= 0 {
		threshold = DefaultEmptyStreakThreshold
	}
	return &Controller{
		mode:      ModeFlight,
		threshold: threshold,
	}
}

// Apply feeds one completed poll into the state machine. A successful poll
// with flights resets the streak and returns to flight mode immediately; an
// empty or failed poll grows the streak and flips to photos once the
// threshold is reached. Results are applied in completion order
// (last-applied wins); an out-of-order arrival is only logged.
func (c *Controller) Apply(r poller.Result) {
	if r.Seq < c.lastSeq {
		log.Printf("[display] stale poll %d applied after %d", r.Seq, c.lastSeq)
	}
	c.lastSeq = r.Seq

	if r.Empty() {
		c.emptyStreak++
		if c.emptyStreak >= c.threshold {
			c.mode = ModePhotos
		}
		// Keep the last known flight list on screen until the mode flips;
		// clamp in case it shrank on a previous poll.
		c.clampIndex()
		return
	}

	c.emptyStreak = 0
	c.mode = ModeFlight
	c.flights = r.Snapshot.Flights
	c.clampIndex()
}

// AdvanceCarousel moves to the next flight card. Called on the fixed
// carousel tick; a no-op unless flight mode is showing at least two flights.
func (c *Controller) AdvanceCarousel() {
	if c.mode != ModeFlight || len(c.flights) < 2 {
		return
	}
	c.index = (c.index + 1) % len(c.flights)
}

// Select manually picks a flight card. The pick overrides whatever the next
// carousel tick would have computed but does not reset or pause the tick.
func (c *Controller) Select(index int) {
	if index < 0 || index >= len(c.flights) {
		return
	}
	c.index = index
}

// Mode returns the current display mode.
func (c *Controller) Mode() Mode { return c.mode }

// EmptyStreak returns the current consecutive empty/error poll count.
func (c *Controller) EmptyStreak() int { return c.emptyStreak }

// Flights returns the most recent non-empty flight list.
func (c *Controller) Flights() []feed.Flight { return c.flights }

// Index returns the current carousel position.
func (c *Controller) Index() int { return c.index }

// Current returns the flight the carousel is pointing at.
func (c *Controller) Current() (feed.Flight, bool) {
	if len(c.flights) == 0 {
		return feed.Flight{}, false
	}
	return c.flights[c.index], true
}

// clampIndex keeps the carousel position valid when the list shrinks.
func (c *Controller) clampIndex() {
	if len(c.flights) == 0 {
		c.index = 0
		return
	}
	if c.index > len(c.flights)-1 {
		c.index = len(c.flights) - 1
	}
}
