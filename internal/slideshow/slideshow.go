// Package slideshow implements the photo rotation shown while no aircraft
// are present: a double-buffered crossfade with non-repeating selection and
// anti-burn-in overlay drift.
//
// The engine is a plain state machine. The owning event loop feeds it timer
// expirations and preload completions; it never blocks and performs no I/O
// itself (preloading is delegated to a Loader).
package slideshow

import (
	"math/rand"
	"time"
)

// Timing defaults.
const (
	// DefaultInterval is how long each photo is shown
	DefaultInterval = 10 * time.Second

	// DefaultCrossfade is the nominal crossfade duration
	DefaultCrossfade = 1200 * time.Millisecond

	// CornerTogglePeriod is how often the overlay corners swap sides
	CornerTogglePeriod = 180 * time.Second

	// DriftPeriod is how often the overlay pixel offset is recomputed
	DriftPeriod = 90 * time.Second

	// driftRangePx bounds the overlay offset on each axis (±)
	driftRangePx = 8
)

// Photo is one slideshow entry, owned by the admin side and read-only here.
type Photo struct {
	ID      string `json:"id"`
	Src     string `json:"src"`
	Caption string `json:"caption,omitempty"`
}

// Layer identifies one of the two image buffers.
type Layer int

const (
	LayerA Layer = iota
	LayerB
)

func (l Layer) other() Layer {
	if l == LayerA {
		return LayerB
	}
	return LayerA
}

// Corner is the horizontal side an overlay is pinned to.
type Corner int

const (
	CornerLeft Corner = iota
	CornerRight
)

// Drift is the current anti-burn-in pixel offset applied to both overlays.
type Drift struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Options configures an Engine.
type Options struct {
	// Shuffle selects random non-repeating order instead of sequential
	Shuffle bool

	// Interval is how long each photo is shown (0 = default)
	Interval time.Duration

	// Crossfade is the nominal transition duration (0 = default)
	Crossfade time.Duration

	// Rand supplies randomness for shuffle and drift; nil seeds from the clock
	Rand *rand.Rand
}

// Engine owns the slideshow state. Exactly one layer is active (opacity 1);
// the other is hidden and preloading the next photo.
type Engine struct {
	photos    []Photo
	shuffle   bool
	interval  time.Duration
	crossfade time.Duration

	active        Layer
	indexA        int
	indexB        int
	hiddenReady   bool
	transitioning bool
	swapGuard     bool

	clockCorner Corner
	dotsCorner  Corner
	drift       Drift

	rng *rand.Rand
}

// New creates an engine over the given photo list. With zero photos the
// engine renders nothing; with one photo no preload cycle ever arms.
func New(photos []Photo, opts Options) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Crossfade <= 0 {
		opts.Crossfade = DefaultCrossfade
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	e := &Engine{
		photos:      photos,
		shuffle:     opts.Shuffle,
		interval:    opts.Interval,
		crossfade:   opts.Crossfade,
		active:      LayerA,
		dotsCorner:  CornerRight,
		clockCorner: CornerLeft,
		rng:         opts.Rand,
	}

	if len(photos) > 1 {
		e.indexB = e.PickNext(e.indexA)
	}

	return e
}

// Interval is how long each photo is shown before a transition is armed.
func (e *Engine) Interval() time.Duration { return e.interval }

// Crossfade is the nominal transition duration.
func (e *Engine) Crossfade() time.Duration { return e.crossfade }

// PickNext selects the next photo index, never returning excludeIndex.
// Sequential order steps by one; shuffle with two photos alternates
// deterministically; shuffle with more photos rejection-samples a uniform
// index until it differs from the excluded one. Only the immediate repeat is
// guaranteed away, not repeats two cycles back.
func (e *Engine) PickNext(excludeIndex int) int {
	n := len(e.photos)
	if n < 2 {
		return excludeIndex
	}

	if !e.shuffle {
		return (excludeIndex + 1) % n
	}
	if n == 2 {
		return (excludeIndex + 1) % 2
	}

	next := excludeIndex
	for next == excludeIndex {
		next = e.rng.Intn(n)
	}
	return next
}

// ActivePhoto returns the photo currently shown at full opacity.
func (e *Engine) ActivePhoto() (Photo, bool) {
	if len(e.photos) == 0 {
		return Photo{}, false
	}
	return e.photos[e.activeIndex()], true
}

// HiddenPhoto returns the photo the hidden layer should be preloading, or
// ok=false when no rotation is possible.
func (e *Engine) HiddenPhoto() (Photo, bool) {
	if len(e.photos) < 2 {
		return Photo{}, false
	}
	return e.photos[e.hiddenIndex()], true
}

// PreloadDone marks the hidden layer ready. Load errors count as ready too,
// so one broken image cannot stall the show. Completions for a photo the
// hidden layer no longer holds are ignored.
func (e *Engine) PreloadDone(src string) {
	if len(e.photos) < 2 {
		return
	}
	if e.photos[e.hiddenIndex()].Src != src {
		return
	}
	e.hiddenReady = true
}

// Armed reports whether the interval countdown may start: the hidden layer
// is preloaded and no crossfade is in flight.
func (e *Engine) Armed() bool {
	return len(e.photos) > 1 && e.hiddenReady && !e.transitioning
}

// BeginTransition starts the crossfade on interval expiry. A no-op unless
// the engine is armed.
func (e *Engine) BeginTransition() {
	if !e.Armed() {
		return
	}
	e.transitioning = true
	e.swapGuard = false
}

// CompleteTransition finishes the crossfade: layer roles swap, the new
// hidden layer is pointed at the next pick and must preload afresh. The swap
// guard coalesces a double-fired completion into one swap.
func (e *Engine) CompleteTransition() {
	if !e.transitioning || e.swapGuard {
		return
	}
	e.swapGuard = true

	e.active = e.active.other()
	next := e.PickNext(e.activeIndex())
	if e.active == LayerA {
		e.indexB = next
	} else {
		e.indexA = next
	}

	e.hiddenReady = false
	e.transitioning = false
}

// Transitioning reports whether a crossfade is in flight.
func (e *Engine) Transitioning() bool { return e.transitioning }

// ActiveLayer returns the layer currently at full opacity.
func (e *Engine) ActiveLayer() Layer { return e.active }

// ToggleCorners flips the clock and dots overlays to their other side. Each
// overlay keeps its own corner so the two stay on opposite sides when they
// started that way.
func (e *Engine) ToggleCorners() {
	e.clockCorner = toggleCorner(e.clockCorner)
	e.dotsCorner = toggleCorner(e.dotsCorner)
}

// RecomputeDrift picks a fresh pixel offset for both overlays, each axis
// sampled independently within ±8px.
func (e *Engine) RecomputeDrift() {
	e.drift = Drift{
		X: e.rng.Intn(2*driftRangePx+1) - driftRangePx,
		Y: e.rng.Intn(2*driftRangePx+1) - driftRangePx,
	}
}

// ClockCorner returns the clock overlay's side.
func (e *Engine) ClockCorner() Corner { return e.clockCorner }

// DotsCorner returns the indicator dots' side.
func (e *Engine) DotsCorner() Corner { return e.dotsCorner }

// CurrentDrift returns the overlay pixel offset.
func (e *Engine) CurrentDrift() Drift { return e.drift }

// PhotoCount returns the number of photos in rotation.
func (e *Engine) PhotoCount() int { return len(e.photos) }

// ActiveIndex returns the index of the photo on the active layer.
func (e *Engine) ActiveIndex() int { return e.activeIndex() }

func (e *Engine) activeIndex() int {
	if e.active == LayerA {
		return e.indexA
	}
	return e.indexB
}

func (e *Engine) hiddenIndex() int {
	if e.active == LayerA {
		return e.indexB
	}
	return e.indexA
}

func toggleCorner(c Corner) Corner {
	if c == CornerLeft {
		return CornerRight
	}
	return CornerLeft
}
