package dmapwm

// Suggested pulse widths for common PWM use cases, in microseconds.
// Callers are free to pass any value accepted by Config; these exist
// only as convenient defaults for the three use cases the original
// tool shipped presets for.
const (
	DefaultPulseWidthUs    = 5
	MotorPulseWidthUs      = 0.4
	ServoPulseWidthUs      = 50
	DefaultLEDPulseWidthUs = 5000
)
