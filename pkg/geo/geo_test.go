package geo

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestFromCircle tests radius-to-degree-offset conversion.
func TestFromCircle(t *testing.T) {
	t.Run("50km radius yields 0.5 degree offset", func(t *testing.T) {
		b := FromCircle(51.47, -0.45, 50)

		if !almostEqual(b.North, 51.97) {
			t.Errorf("Expected north 51.97, got %f", b.North)
		}
		if !almostEqual(b.South, 50.97) {
			t.Errorf("Expected south 50.97, got %f", b.South)
		}
		if !almostEqual(b.East, 0.05) {
			t.Errorf("Expected east 0.05, got %f", b.East)
		}
		if !almostEqual(b.West, -0.95) {
			t.Errorf("Expected west -0.95, got %f", b.West)
		}
	})

	t.Run("Tiny radius floors at 0.05 degrees", func(t *testing.T) {
		b := FromCircle(10.0, 10.0, 1)

		if !almostEqual(b.North, 10.05) {
			t.Errorf("Expected north 10.05, got %f", b.North)
		}
		if !almostEqual(b.West, 9.95) {
			t.Errorf("Expected west 9.95, got %f", b.West)
		}
	})

	t.Run("Zero radius still produces a box", func(t *testing.T) {
		b := FromCircle(0, 0, 0)

		if b.North <= b.South || b.East <= b.West {
			t.Errorf("Expected non-degenerate box, got %+v", b)
		}
	})
}

// TestFromCorners tests rectangle construction from corner pairs.
func TestFromCorners(t *testing.T) {
	t.Run("Normal corners", func(t *testing.T) {
		b := FromCorners(52.0, -1.0, 51.0, 1.0)

		expected := RectangleBounds{North: 52.0, South: 51.0, East: 1.0, West: -1.0}
		if b != expected {
			t.Errorf("Expected %+v, got %+v", expected, b)
		}
	})

	t.Run("Swapped corners are repaired", func(t *testing.T) {
		b := FromCorners(51.0, 1.0, 52.0, -1.0)

		if b.North != 52.0 || b.South != 51.0 {
			t.Errorf("Expected latitudes repaired, got %+v", b)
		}
		if b.East != 1.0 || b.West != -1.0 {
			t.Errorf("Expected longitudes repaired, got %+v", b)
		}
	})
}

// TestSanitize tests inverted-rectangle repair.
func TestSanitize(t *testing.T) {
	t.Run("Fully inverted rectangle", func(t *testing.T) {
		b := Sanitize(RectangleBounds{North: 10, South: 20, East: 5, West: 15})

		expected := RectangleBounds{North: 20, South: 10, East: 15, West: 5}
		if b != expected {
			t.Errorf("Expected %+v, got %+v", expected, b)
		}
	})

	t.Run("Well-formed rectangle is unchanged", func(t *testing.T) {
		in := RectangleBounds{North: 20, South: 10, East: 15, West: 5}
		if got := Sanitize(in); got != in {
			t.Errorf("Expected %+v unchanged, got %+v", in, got)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		in := RectangleBounds{North: -5, South: 5, East: -100, West: 100}
		once := Sanitize(in)
		twice := Sanitize(once)

		if once != twice {
			t.Errorf("Expected Sanitize to be idempotent: %+v vs %+v", once, twice)
		}
		if once.North < once.South {
			t.Errorf("Expected north >= south, got %+v", once)
		}
		if once.East < once.West {
			t.Errorf("Expected east >= west, got %+v", once)
		}
	})
}
