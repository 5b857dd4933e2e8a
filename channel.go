package dmapwm

import "time"

const numChannels = 7

// channelHWIndex maps logical channel slots 0..6 to physical DMA
// channel numbers. Channels 0-3 and 5-7 are reserved by the operating
// environment and must never be used.
var channelHWIndex = [numChannels]uint32{10, 8, 9, 11, 12, 13, 14}

type channelState uint8

const (
	stateFree channelState = iota
	stateRequested
	stateConfigured
	stateRunning
	stateDisabled
)

// pwmBuffer is one half of a channel's ping-pong pair: a page-aligned
// uncached CB region plus the two 4-byte scratch words the head and
// clear CBs source their GPIO masks from.
type pwmBuffer struct {
	cbRegion    *uncachedRegion
	setMask     *uncachedRegion
	clearMask   *uncachedRegion
	cbCapacity  int // CBs the region can hold
}

func (b *pwmBuffer) release() error {
	var firstErr error
	for _, r := range []*uncachedRegion{b.cbRegion, b.setMask, b.clearMask} {
		if err := r.release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Channel is one DMA-channel slot, carrying its own ping-pong buffers
// and realized waveform properties. The zero value is a free,
// unrequested slot.
type Channel struct {
	state channelState

	hwIndex uint32
	regs    dmaChannelRegs

	buffers  [2]pwmBuffer
	activeBuf int

	freqDes float64
	dutyDes float64

	freqAct           float64
	dutyAct           float64
	dutyResolutionPct float64
	subcycleUs        float64

	cbTotal     int
	cbSetWait   int
	cbClearWait int

	lastSetMask uint32

	sequenceBuilt bool
}

func (c *Channel) inactiveBuf() int { return 1 - c.activeBuf }

// findFreeChannel scans every slot and returns the lowest free index.
// This replaces the original source's loop-index check against
// NUM_DMA_CHANNELS, which could never trigger because the comparison
// lived inside the loop that had already advanced past it - scanning
// to completion and checking for "none free" afterward is the fix.
func (e *Engine) findFreeChannel() (int, bool) {
	for i := range e.channels {
		if e.channels[i].state == stateFree {
			return i, true
		}
	}
	return 0, false
}

// Request reserves the lowest free DMA channel slot and allocates its
// ping-pong uncached buffers. It triggers one-time global bring-up on
// the very first call.
func (e *Engine) Request() (int, error) {
	if err := e.ensureInitialized(); err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	slot, ok := e.findFreeChannel()
	if !ok {
		return 0, ErrNoFreeChannel
	}

	ch := &e.channels[slot]
	ch.hwIndex = channelHWIndex[slot]
	ch.regs = dmaChannelRegs{dma: e.dmaRegs, stride: ch.hwIndex * dmaChannelStride}

	for i := range ch.buffers {
		buf, err := e.allocBuffer()
		if err != nil {
			// Release anything already acquired for this request
			// before giving up, per the no-partial-side-effects rule.
			for j := 0; j < i; j++ {
				ch.buffers[j].release()
			}
			ch.buffers = [2]pwmBuffer{}
			return 0, err
		}
		ch.buffers[i] = buf
	}

	ch.state = stateRequested
	ch.activeBuf = 0
	return slot, nil
}

func (e *Engine) allocBuffer() (pwmBuffer, error) {
	pageSize := e.pageSize
	cbRegionSize := uint32(e.allocatedPagesPerBuffer * pageSize)

	cbRegion, err := allocUncached(cbRegionSize)
	if err != nil {
		return pwmBuffer{}, err
	}
	setMask, err := allocUncached(4)
	if err != nil {
		cbRegion.release()
		return pwmBuffer{}, err
	}
	clearMask, err := allocUncached(4)
	if err != nil {
		cbRegion.release()
		setMask.release()
		return pwmBuffer{}, err
	}

	return pwmBuffer{
		cbRegion:   cbRegion,
		setMask:    setMask,
		clearMask:  clearMask,
		cbCapacity: int(cbRegionSize) / (cbSizeWords * 4),
	}, nil
}

func (e *Engine) checkChannel(ch int) error {
	if ch < 0 || ch >= numChannels {
		return ErrInvalidChannel
	}
	if e.channels[ch].state == stateFree {
		return ErrInvalidChannel
	}
	return nil
}

// Set computes a new CB sequence into the inactive buffer and swaps it
// in. If the channel is already enabled, the new ring takes effect at
// the next Enable-style CONBLK_AD write, glitchlessly.
func (e *Engine) Set(ch int, gpios []uint8, freqHz, dutyPct float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkChannel(ch); err != nil {
		return err
	}
	if dutyPct < 0 || dutyPct > 100 {
		return ErrInvalidDuty
	}
	for _, p := range gpios {
		if p > 31 {
			return ErrInvalidGpio
		}
	}
	if freqHz <= 0 {
		return ErrFrequencyNotMet
	}

	c := &e.channels[ch]
	wasRunning := c.state == stateRunning
	buf := &c.buffers[c.inactiveBuf()]

	plan, err := synthesizeCBSeq(
		gpios, freqHz, dutyPct, e.pulseWidthUs,
		e.allocatedPagesPerBuffer, e.pageSize, e.board,
		buf.setMask.busAddr(), buf.clearMask.busAddr(),
		func(i int) uint32 { return buf.cbRegion.busAddrOf(uint32(i * cbSizeWords)) },
	)
	if err != nil {
		return err
	}
	if plan.cbTotal > buf.cbCapacity {
		return ErrOutOfMemory
	}

	for _, p := range gpios {
		word := gpioFselWord(p)
		reg := e.gpioRegs.reg(word * 4)
		*reg = gpioFselWrite(p, *reg)
	}

	*buf.setMask.word(0) = plan.setMask
	*buf.clearMask.word(0) = plan.clearMask

	for i, cb := range plan.cbs {
		writeControlBlock(buf.cbRegion, i, cb)
	}

	c.activeBuf = c.inactiveBuf()
	c.sequenceBuilt = true
	c.freqDes = freqHz
	c.dutyDes = dutyPct
	c.freqAct = plan.freqAct
	c.dutyAct = plan.dutyAct
	c.dutyResolutionPct = plan.dutyResolutionPct
	c.subcycleUs = plan.subcycleUs
	c.cbTotal = plan.cbTotal
	c.cbSetWait = plan.cbSetWait
	c.cbClearWait = plan.cbClearWait
	c.lastSetMask = plan.setMask
	c.state = stateConfigured

	if wasRunning {
		return e.enableLocked(ch)
	}
	return nil
}

func writeControlBlock(region *uncachedRegion, index int, cb controlBlock) {
	base := index * cbSizeWords
	*region.word(uint32(base + 0)) = cb.info
	*region.word(uint32(base + 1)) = cb.srcBusAddr
	*region.word(uint32(base + 2)) = cb.dstBusAddr
	*region.word(uint32(base + 3)) = cb.lengthBytes
	*region.word(uint32(base + 4)) = cb.stride
	*region.word(uint32(base + 5)) = cb.nextCbBusAddr
	*region.word(uint32(base + 6)) = cb.reserved[0]
	*region.word(uint32(base + 7)) = cb.reserved[1]
}

const dmaSettleDelay = 10 * time.Microsecond

// Enable arms DMA on the channel's active buffer. Safe to call again
// on an already-running channel (e.g. after Set swapped buffers);
// each call re-issues the full abort/reset/arm sequence the datasheet
// requires between CONBLK_AD changes.
func (e *Engine) Enable(ch int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkChannel(ch); err != nil {
		return err
	}
	if !e.channels[ch].sequenceBuilt {
		return ErrPwmNotSet
	}
	return e.enableLocked(ch)
}

func (e *Engine) enableLocked(ch int) error {
	c := &e.channels[ch]

	c.regs.orCS(dmaCSAbort)
	time.Sleep(dmaSettleDelay)
	c.regs.andCS(^dmaCSActive)
	c.regs.orCS(dmaCSEnd)
	c.regs.orCS(dmaCSReset)
	time.Sleep(dmaSettleDelay)

	firstCB := c.buffers[c.activeBuf].cbRegion.busAddr()
	c.regs.setConblkAd(firstCB)

	c.regs.setCS(dmaPanicPriority(7) | dmaPriority(7) | dmaCSWaitOutstandingWrites)
	c.regs.orCS(dmaCSActive)

	c.state = stateRunning
	return nil
}

// Disable aborts DMA and drives every bit of the last-set GPIO mask
// low directly, idempotently.
func (e *Engine) Disable(ch int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkChannel(ch); err != nil {
		return err
	}
	e.disableLocked(ch)
	return nil
}

func (e *Engine) disableLocked(ch int) {
	c := &e.channels[ch]

	c.regs.orCS(dmaCSAbort)
	time.Sleep(dmaSettleDelay)
	c.regs.andCS(^dmaCSActive)
	c.regs.orCS(dmaCSEnd)
	c.regs.orCS(dmaCSReset)
	time.Sleep(dmaSettleDelay)

	for p := uint8(0); p < 32; p++ {
		if c.lastSetMask&(1<<p) != 0 {
			*e.gpioRegs.reg(gpioGpclr0) = 1 << p
		}
	}

	if c.state == stateRunning {
		c.state = stateDisabled
	}
}

// Free disables the channel, releases its six uncached regions, and
// returns the slot to Free. Calling Free on an already-free slot
// returns InvalidChannel, harmlessly.
func (e *Engine) Free(ch int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkChannel(ch); err != nil {
		return err
	}
	e.freeLocked(ch)
	return nil
}

func (e *Engine) freeLocked(ch int) {
	c := &e.channels[ch]
	e.disableLocked(ch)

	for i := range c.buffers {
		c.buffers[i].release()
	}

	*c = Channel{}
}
