package dmapwm

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestSolveDivisorRejectsOutOfBounds(t *testing.T) {
	if _, err := solveDivisor(0.4); !errors.Is(err, ErrInvalidPulseWidth) {
		t.Fatalf("want ErrInvalidPulseWidth at the lower boundary, got %v", err)
	}
	if _, err := solveDivisor(3.5e10 + 1); !errors.Is(err, ErrInvalidPulseWidth) {
		t.Fatalf("want ErrInvalidPulseWidth above the upper boundary, got %v", err)
	}
}

func TestSolveDivisorAcceptsJustAboveLowerBound(t *testing.T) {
	timing, err := solveDivisor(0.401)
	if err != nil {
		t.Fatalf("solveDivisor(0.401): %v", err)
	}
	if timing.divisor < minDivisor || timing.divisor > maxDivisor {
		t.Fatalf("divisor %d out of [1,4095]", timing.divisor)
	}
}

func TestSolveDivisorCloseToRequestedWhenUnclamped(t *testing.T) {
	// When the unclamped divisor already lands in [1,4095], the range
	// stays at nominal and the achieved pulse width matches the
	// request exactly, up to the divisor's integer rounding.
	for _, pwUs := range []float64{5, 50, 5000} {
		timing, err := solveDivisor(pwUs)
		if err != nil {
			t.Fatalf("solveDivisor(%v): %v", pwUs, err)
		}
		if timing.divisor == minDivisor || timing.divisor == maxDivisor {
			continue // clamped; covered separately below
		}
		tickQuantum := 1e6 * nominalPwmRange / sourceClockHz
		if diff := math.Abs(timing.pulseWidthUs - pwUs); diff > tickQuantum {
			t.Fatalf("pwUs=%v: achieved %v differs by more than one tick (%v)", pwUs, timing.pulseWidthUs, tickQuantum)
		}
	}
}

func TestSolveDivisorClampsAtExtremeDivisor(t *testing.T) {
	// A huge pulse width at the nominal range pushes the divisor above
	// 4095, forcing a range recompute.
	timing, err := solveDivisor(1e6)
	if err != nil {
		t.Fatalf("solveDivisor(1e6): %v", err)
	}
	if timing.divisor != maxDivisor {
		t.Fatalf("expected divisor clamped to %d, got %d", maxDivisor, timing.divisor)
	}
	if !almostEqual(timing.pulseWidthUs, 1e6, timing.pulseWidthUs*0.01) {
		t.Fatalf("achieved pulse width %v too far from 1e6 after clamp", timing.pulseWidthUs)
	}
}
