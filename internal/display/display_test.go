package display

import (
	"errors"
	"fmt"
	"testing"

	"github.com/unklstewy/skyframe/internal/poller"
	"github.com/unklstewy/skyframe/pkg/feed"
)

func nonEmptyPoll(seq uint64, n int) poller.Result {
	flights := make([]feed.Flight, n)
	for i := range flights {
		flights[i] = feed.Flight{ID: fmt.Sprintf("f%d", i)}
	}
	return poller.Result{Seq: seq, Snapshot: feed.Snapshot{Flights: flights, Source: "test"}}
}

func emptyPoll(seq uint64) poller.Result {
	return poller.Result{Seq: seq, Snapshot: feed.Snapshot{Source: "test"}}
}

func errorPoll(seq uint64) poller.Result {
	return poller.Result{Seq: seq, Err: errors.New("boom")}
}

// TestHysteresis tests the asymmetric mode switching.
func TestHysteresis(t *testing.T) {
	t.Run("Switches to photos exactly on the 3rd empty poll", func(t *testing.T) {
		c := New(3)

		c.Apply(emptyPoll(1))
		if c.Mode() != ModeFlight {
			t.Fatalf("Expected flight mode after 1 empty poll, got %s", c.Mode())
		}
		c.Apply(emptyPoll(2))
		if c.Mode() != ModeFlight {
			t.Fatalf("Expected flight mode after 2 empty polls, got %s", c.Mode())
		}
		c.Apply(emptyPoll(3))
		if c.Mode() != ModePhotos {
			t.Fatalf("Expected photos mode on the 3rd empty poll, got %s", c.Mode())
		}
	})

	t.Run("Errors count toward the streak", func(t *testing.T) {
		c := New(3)

		c.Apply(errorPoll(1))
		c.Apply(emptyPoll(2))
		c.Apply(errorPoll(3))

		if c.Mode() != ModePhotos {
			t.Errorf("Expected photos mode, got %s", c.Mode())
		}
		if c.EmptyStreak() != 3 {
			t.Errorf("Expected streak 3, got %d", c.EmptyStreak())
		}
	})

	t.Run("Single non-empty poll returns to flight immediately", func(t *testing.T) {
		c := New(3)
		for seq := uint64(1); seq <= 5; seq++ {
			c.Apply(emptyPoll(seq))
		}
		if c.Mode() != ModePhotos {
			t.Fatalf("Expected photos mode, got %s", c.Mode())
		}

		c.Apply(nonEmptyPoll(6, 1))

		if c.Mode() != ModeFlight {
			t.Errorf("Expected immediate return to flight mode, got %s", c.Mode())
		}
		if c.EmptyStreak() != 0 {
			t.Errorf("Expected streak reset, got %d", c.EmptyStreak())
		}
	})

	t.Run("Non-empty poll resets a partial streak", func(t *testing.T) {
		c := New(3)

		c.Apply(emptyPoll(1))
		c.Apply(emptyPoll(2))
		c.Apply(nonEmptyPoll(3, 1))
		c.Apply(emptyPoll(4))
		c.Apply(emptyPoll(5))

		if c.Mode() != ModeFlight {
			t.Errorf("Expected flight mode with streak 2, got %s", c.Mode())
		}
	})
}

// TestCarousel tests the flight-card rotation sub-state.
func TestCarousel(t *testing.T) {
	t.Run("Advances modulo N", func(t *testing.T) {
		c := New(3)
		c.Apply(nonEmptyPoll(1, 3))

		indexes := []int{}
		for i := 0; i < 4; i++ {
			c.AdvanceCarousel()
			indexes = append(indexes, c.Index())
		}

		expected := []int{1, 2, 0, 1}
		for i, want := range expected {
			if indexes[i] != want {
				t.Errorf("Tick %d: expected index %d, got %d", i, want, indexes[i])
			}
		}
	})

	t.Run("No rotation with fewer than 2 flights", func(t *testing.T) {
		c := New(3)
		c.Apply(nonEmptyPoll(1, 1))

		c.AdvanceCarousel()
		if c.Index() != 0 {
			t.Errorf("Expected index 0, got %d", c.Index())
		}
	})

	t.Run("Index clamps when the list shrinks", func(t *testing.T) {
		c := New(3)
		c.Apply(nonEmptyPoll(1, 5))
		c.Select(4)

		c.Apply(nonEmptyPoll(2, 2))

		if c.Index() != 1 {
			t.Errorf("Expected index clamped to 1, got %d", c.Index())
		}
	})

	t.Run("Manual select overrides position and rotation continues", func(t *testing.T) {
		c := New(3)
		c.Apply(nonEmptyPoll(1, 4))

		c.Select(2)
		if c.Index() != 2 {
			t.Fatalf("Expected index 2, got %d", c.Index())
		}

		c.AdvanceCarousel()
		if c.Index() != 3 {
			t.Errorf("Expected next tick to advance from the manual pick, got %d", c.Index())
		}
	})

	t.Run("Out-of-range select ignored", func(t *testing.T) {
		c := New(3)
		c.Apply(nonEmptyPoll(1, 2))

		c.Select(7)
		c.Select(-1)
		if c.Index() != 0 {
			t.Errorf("Expected index unchanged, got %d", c.Index())
		}
	})

	t.Run("No advance while in photos mode", func(t *testing.T) {
		c := New(1)
		c.Apply(nonEmptyPoll(1, 3))
		c.Apply(emptyPoll(2))
		if c.Mode() != ModePhotos {
			t.Fatalf("Expected photos mode, got %s", c.Mode())
		}

		c.AdvanceCarousel()
		if c.Index() != 0 {
			t.Errorf("Expected carousel frozen in photos mode, got %d", c.Index())
		}
	})
}

// TestCurrent tests the card accessor.
func TestCurrent(t *testing.T) {
	c := New(3)

	if _, ok := c.Current(); ok {
		t.Error("Expected no current flight before the first poll")
	}

	c.Apply(nonEmptyPoll(1, 2))
	c.AdvanceCarousel()

	f, ok := c.Current()
	if !ok {
		t.Fatal("Expected a current flight")
	}
	if f.ID != "f1" {
		t.Errorf("Expected f1, got %s", f.ID)
	}
}

// TestDefaultThreshold tests the threshold fallback.
func TestDefaultThreshold(t *testing.T) {
	c := New(0)

	c.Apply(emptyPoll(1))
	c.Apply(emptyPoll(2))
	if c.Mode() != ModeFlight {
		t.Fatalf("Expected default threshold of 3, got photos after 2")
	}
	c.Apply(emptyPoll(3))
	if c.Mode() != ModePhotos {
		t.Errorf("Expected photos after 3 empty polls")
	}
}
