package dmapwm

// RegSnapshot is a read-only snapshot of the key registers governing
// one channel's waveform: the shared PWM controller and clock manager
// state, plus that channel's own DMA bank.
type RegSnapshot struct {
	PwmCtl  uint32
	PwmSta  uint32
	PwmDmac uint32
	ClkCtl  uint32
	ClkDiv  uint32
	DmaCS   uint32
	DmaDbg  uint32
}

// FreqOf returns the achieved frequency for a configured channel.
func (e *Engine) FreqOf(ch int) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkChannel(ch); err != nil {
		return 0, err
	}
	return e.channels[ch].freqAct, nil
}

// DutyOf returns the achieved duty cycle for a configured channel.
func (e *Engine) DutyOf(ch int) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkChannel(ch); err != nil {
		return 0, err
	}
	return e.channels[ch].dutyAct, nil
}

// PulseWidth returns the achieved per-tick pulse width, in
// microseconds. Always succeeds - it reflects global configuration,
// not a per-channel value.
func (e *Engine) PulseWidth() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pulseWidthUs
}

// Snapshot reads back the registers governing a channel's waveform.
func (e *Engine) Snapshot(ch int) (RegSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkChannel(ch); err != nil {
		return RegSnapshot{}, err
	}
	c := &e.channels[ch]
	return RegSnapshot{
		PwmCtl:  e.pwmRegs.read(pwmCtlOffset),
		PwmSta:  e.pwmRegs.read(pwmStaOffset),
		PwmDmac: e.pwmRegs.read(pwmDmacOffset),
		ClkCtl:  e.clkRegs.read(pwmClkCtlOffset),
		ClkDiv:  e.clkRegs.read(pwmClkDivOffset),
		DmaCS:   c.regs.cs(),
		DmaDbg:  c.regs.debug(),
	}, nil
}
