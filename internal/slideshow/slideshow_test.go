package slideshow

import (
	"fmt"
	"math/rand"
	"testing"
	"time"
)

func testPhotos(n int) []Photo {
	photos := make([]Photo, n)
	for i := range photos {
		photos[i] = Photo{
			ID:  fmt.Sprintf("p%d", i),
			Src: fmt.Sprintf("photo-%d.jpg", i),
		}
	}
	return photos
}

func newTestEngine(n int, shuffle bool) *Engine {
	return New(testPhotos(n), Options{
		Shuffle: shuffle,
		Rand:    rand.New(rand.NewSource(42)),
	})
}

// TestPickNext tests the selection rules.
func TestPickNext(t *testing.T) {
	t.Run("Sequential order wraps", func(t *testing.T) {
		e := newTestEngine(3, false)

		if got := e.PickNext(0); got != 1 {
			t.Errorf("Expected 1, got %d", got)
		}
		if got := e.PickNext(2); got != 0 {
			t.Errorf("Expected wrap to 0, got %d", got)
		}
	})

	t.Run("Shuffle with 2 photos strictly alternates", func(t *testing.T) {
		e := newTestEngine(2, true)

		idx := 0
		for i := 0; i < 10; i++ {
			next := e.PickNext(idx)
			if next != 1-idx {
				t.Fatalf("Step %d: expected %d, got %d", i, 1-idx, next)
			}
			idx = next
		}
	})

	t.Run("Shuffle never repeats the excluded index", func(t *testing.T) {
		e := newTestEngine(5, true)

		idx := 0
		for i := 0; i < 1000; i++ {
			next := e.PickNext(idx)
			if next == idx {
				t.Fatalf("Trial %d: pick repeated index %d", i, idx)
			}
			if next < 0 || next >= 5 {
				t.Fatalf("Trial %d: pick %d out of range", i, next)
			}
			idx = next
		}
	})

	t.Run("Single photo returns the same index", func(t *testing.T) {
		e := newTestEngine(1, true)
		if got := e.PickNext(0); got != 0 {
			t.Errorf("Expected 0, got %d", got)
		}
	})
}

// TestCrossfadeCycle tests the preload/arm/swap sequence.
func TestCrossfadeCycle(t *testing.T) {
	e := newTestEngine(4, false)

	if e.Armed() {
		t.Fatal("Expected unarmed before preload")
	}

	hidden, ok := e.HiddenPhoto()
	if !ok {
		t.Fatal("Expected a hidden photo to preload")
	}
	if hidden.Src != "photo-1.jpg" {
		t.Errorf("Expected sequential hidden photo-1.jpg, got %s", hidden.Src)
	}

	// A transition cannot start before the hidden layer is ready.
	e.BeginTransition()
	if e.Transitioning() {
		t.Fatal("Expected no transition before preload completes")
	}

	e.PreloadDone(hidden.Src)
	if !e.Armed() {
		t.Fatal("Expected armed after preload")
	}

	e.BeginTransition()
	if !e.Transitioning() {
		t.Fatal("Expected transition in flight")
	}

	prevActive := e.ActiveLayer()
	e.CompleteTransition()

	if e.Transitioning() {
		t.Error("Expected transition finished")
	}
	if e.ActiveLayer() == prevActive {
		t.Error("Expected layers to swap")
	}
	if e.ActiveIndex() != 1 {
		t.Errorf("Expected photo 1 active after swap, got %d", e.ActiveIndex())
	}
	if e.Armed() {
		t.Error("Expected fresh preload required after swap")
	}

	hidden, _ = e.HiddenPhoto()
	if hidden.Src != "photo-2.jpg" {
		t.Errorf("Expected next hidden photo-2.jpg, got %s", hidden.Src)
	}
}

// TestSwapGuard tests that a double-fired completion coalesces to one swap.
func TestSwapGuard(t *testing.T) {
	e := newTestEngine(3, false)

	hidden, _ := e.HiddenPhoto()
	e.PreloadDone(hidden.Src)
	e.BeginTransition()

	e.CompleteTransition()
	activeAfterFirst := e.ActiveIndex()

	e.CompleteTransition() // transient double trigger

	if e.ActiveIndex() != activeAfterFirst {
		t.Errorf("Expected one swap, active index moved to %d", e.ActiveIndex())
	}
}

// TestPreloadGuards tests gating details of the preload step.
func TestPreloadGuards(t *testing.T) {
	t.Run("Stale completion for another photo ignored", func(t *testing.T) {
		e := newTestEngine(3, false)

		e.PreloadDone("photo-99.jpg")
		if e.Armed() {
			t.Error("Expected stale preload completion to be ignored")
		}
	})

	t.Run("Single photo never arms", func(t *testing.T) {
		e := newTestEngine(1, false)

		if _, ok := e.HiddenPhoto(); ok {
			t.Error("Expected no hidden photo with a single entry")
		}
		e.PreloadDone("photo-0.jpg")
		if e.Armed() {
			t.Error("Expected single-photo engine to never arm")
		}
	})

	t.Run("Zero photos render nothing", func(t *testing.T) {
		e := newTestEngine(0, true)

		if _, ok := e.ActivePhoto(); ok {
			t.Error("Expected no active photo")
		}
		if e.Armed() {
			t.Error("Expected empty engine to never arm")
		}
	})
}

// TestBurnInAvoidance tests the decorative overlay timers' state.
func TestBurnInAvoidance(t *testing.T) {
	t.Run("Corners toggle and stay on opposite sides", func(t *testing.T) {
		e := newTestEngine(3, false)

		clock, dots := e.ClockCorner(), e.DotsCorner()
		if clock == dots {
			t.Fatalf("Expected overlays to start on opposite sides")
		}

		e.ToggleCorners()
		if e.ClockCorner() == clock {
			t.Error("Expected clock corner to flip")
		}
		if e.DotsCorner() == dots {
			t.Error("Expected dots corner to flip")
		}
		if e.ClockCorner() == e.DotsCorner() {
			t.Error("Expected overlays still on opposite sides")
		}

		e.ToggleCorners()
		if e.ClockCorner() != clock || e.DotsCorner() != dots {
			t.Error("Expected corners back to the initial sides")
		}
	})

	t.Run("Drift stays within ±8px on each axis", func(t *testing.T) {
		e := newTestEngine(3, false)

		seenNonZero := false
		for i := 0; i < 200; i++ {
			e.RecomputeDrift()
			d := e.CurrentDrift()
			if d.X < -8 || d.X > 8 || d.Y < -8 || d.Y > 8 {
				t.Fatalf("Drift out of range: %+v", d)
			}
			if d.X != 0 || d.Y != 0 {
				seenNonZero = true
			}
		}
		if !seenNonZero {
			t.Error("Expected drift to actually move")
		}
	})
}

// TestOptionDefaults tests interval/crossfade fallbacks.
func TestOptionDefaults(t *testing.T) {
	e := New(testPhotos(2), Options{})

	if e.Interval() != 10*time.Second {
		t.Errorf("Expected 10s default interval, got %v", e.Interval())
	}
	if e.Crossfade() != 1200*time.Millisecond {
		t.Errorf("Expected 1.2s default crossfade, got %v", e.Crossfade())
	}
}
