package dmapwm

import "math"

// sourceClockHz is the PLLD-derived PWM clock source frequency. Fixed
// across the supported boards.
const sourceClockHz = 500_000_000

const (
	minDivisor = 1
	maxDivisor = 4095

	nominalPwmRange = 100

	minPulseWidthUs = 0.4
	maxPulseWidthUs = 3.5e10
)

// clockTiming is the result of resolving a requested pulse width into
// a clock divisor and PWM range the hardware can realize.
type clockTiming struct {
	divisor      uint32
	pwmRange     uint32
	pulseWidthUs float64
}

// solveDivisor implements the pulse-width/divisor solver: given a
// requested per-tick pulse width, it picks the divisor and PWM range
// that realize it, preferring a range near nominalPwmRange so the
// controller's own duty resolution stays near 1% while the divisor
// carries the dynamic range.
func solveDivisor(pwUs float64) (clockTiming, error) {
	if pwUs <= minPulseWidthUs || pwUs > maxPulseWidthUs {
		return clockTiming{}, ErrInvalidPulseWidth
	}

	pwmRange := float64(nominalPwmRange)
	divisor := math.Round((pwUs / 1e6) / pwmRange * sourceClockHz)

	if divisor < minDivisor {
		divisor = minDivisor
	} else if divisor > maxDivisor {
		divisor = maxDivisor
	} else {
		actual := pwmRange / (sourceClockHz / divisor) * 1e6
		return clockTiming{
			divisor:      uint32(divisor),
			pwmRange:     nominalPwmRange,
			pulseWidthUs: actual,
		}, nil
	}

	pwmRange = (pwUs / 1e6) * (sourceClockHz / divisor)
	if pwmRange < 1 {
		return clockTiming{}, ErrInvalidPulseWidth
	}

	pwmRangeRounded := math.Floor(pwmRange)
	actual := pwmRangeRounded / (sourceClockHz / divisor) * 1e6

	return clockTiming{
		divisor:      uint32(divisor),
		pwmRange:     uint32(pwmRangeRounded),
		pulseWidthUs: actual,
	}, nil
}
