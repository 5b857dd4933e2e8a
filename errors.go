package dmapwm

import "errors"

// Error kinds returned by engine operations. Each wraps additional
// context via fmt.Errorf("%w: ...") where the underlying collaborator
// (board detection, peripheral mapper, allocator) supplied one; callers
// should compare with errors.Is against these sentinels.
var (
	ErrChannelAlreadyRequested = errors.New("dmapwm: a channel is already requested, global config is frozen")
	ErrInvalidPulseWidth       = errors.New("dmapwm: pulse width outside supported range")
	ErrNoFreeChannel           = errors.New("dmapwm: no free DMA channel")
	ErrInvalidChannel          = errors.New("dmapwm: invalid or unrequested channel")
	ErrInvalidDuty             = errors.New("dmapwm: duty cycle outside [0,100]")
	ErrInvalidGpio             = errors.New("dmapwm: gpio pin outside [0,31]")
	ErrFrequencyNotMet         = errors.New("dmapwm: frequency too high for the configured pulse width")
	ErrPwmNotSet               = errors.New("dmapwm: channel has no PWM sequence built")
	ErrNoBoardIdentifier       = errors.New("dmapwm: could not identify board revision")
	ErrMapFailed               = errors.New("dmapwm: peripheral memory mapping failed")
	ErrSignalHandlerFailed     = errors.New("dmapwm: could not install termination signal handler")
	ErrOutOfMemory             = errors.New("dmapwm: requested sequence needs more pages than allocated")
)
