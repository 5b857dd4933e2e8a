package dmapwm

import "math"

const cbSizeWords = 8 // 32 bytes: info, src, dst, len, stride, next, reserved[2]

// controlBlock mirrors the DMA controller's 32-byte hardware record.
// Fields are bus addresses, never virtual pointers - the DMA engine
// only ever walks bus addresses.
type controlBlock struct {
	info          uint32
	srcBusAddr    uint32
	dstBusAddr    uint32
	lengthBytes   uint32
	stride        uint32
	nextCbBusAddr uint32
	reserved      [2]uint32
}

// cbPlan is the pure result of the CB-sequence synthesizer: the
// control blocks to write into the inactive buffer, plus the derived
// quantities the caller needs to update the channel's realized
// properties. It touches no hardware and allocates no uncached
// memory - everything here is addresses and counts supplied by, and
// destined for, the caller.
type cbPlan struct {
	cbs []controlBlock

	setMask   uint32
	clearMask uint32

	freqAct           float64
	dutyAct           float64
	dutyResolutionPct float64
	subcycleUs        float64

	cbTotal    int
	cbSetWait  int
	cbClearWait int
}

// synthesizeCBSeq builds the circular control-block list implementing
// one PWM period on the given GPIO pins.
//
// gpios must each be in [0,31]; freqHz > 0; dutyPct in [0,100].
// setMaskBus/clearMaskBus are the bus addresses of the two 4-byte
// uncached scratch words the caller has reserved for this buffer;
// cbBusAddr(i) must return the bus address CB i will occupy once the
// returned blocks are written sequentially into the caller's CB
// region, for i in [0, cbTotal).
func synthesizeCBSeq(
	gpios []uint8,
	freqHz float64,
	dutyPct float64,
	pulseWidthUs float64,
	allocatedPages int,
	pageSize int,
	board boardProfile,
	setMaskBus, clearMaskBus uint32,
	cbBusAddr func(i int) uint32,
) (cbPlan, error) {
	subcycleUs := 1e6 / freqHz
	waitTicks := int(math.Floor(subcycleUs / pulseWidthUs / 2))
	if waitTicks == 0 {
		return cbPlan{}, ErrFrequencyNotMet
	}

	pagesNeeded := int(math.Ceil(float64(waitTicks) / float64(pageSize)))
	if pagesNeeded > allocatedPages {
		return cbPlan{}, ErrOutOfMemory
	}

	dutyResolutionPct := 100 / float64(waitTicks)

	var dutyAct float64
	if math.Mod(dutyPct, 100) == 0 {
		dutyAct = dutyPct
	} else {
		dutyAct = math.Round(dutyPct/dutyResolutionPct) * dutyResolutionPct
	}

	waitSet := int(math.Floor(float64(waitTicks) * dutyAct / 100 / 2))
	waitClear := int(math.Abs(float64(waitTicks - waitSet)))

	fullDuty := dutyAct == 0 || dutyAct == 100
	cbTotal := waitTicks
	if fullDuty {
		cbTotal++
	} else {
		cbTotal += 2
	}

	var setMask, clearMask uint32
	for _, p := range gpios {
		if p > 31 {
			return cbPlan{}, ErrInvalidGpio
		}
		setMask |= 1 << p
		clearMask |= 1 << p
	}

	cbs := make([]controlBlock, 0, cbTotal)
	idx := 0
	next := func() uint32 { return cbBusAddr(idx + 1) }

	// Head CB: forces the correct initial level regardless of duty.
	head := controlBlock{
		info:          dmaTINoWideBursts | dmaTIWaitResp,
		lengthBytes:   4,
		nextCbBusAddr: next(),
	}
	if dutyAct > 0 {
		head.srcBusAddr = setMaskBus
		head.dstBusAddr = board.gpset0Bus()
	} else {
		head.srcBusAddr = clearMaskBus
		head.dstBusAddr = board.gpclr0Bus()
	}
	cbs = append(cbs, head)
	idx++

	waitTemplate := func() controlBlock {
		return controlBlock{
			info:          dmaTINoWideBursts | dmaTIWaitResp | dmaTIDestDreq | dmaPermap(dreqPeripheralPWM),
			srcBusAddr:    0xabcdef,
			dstBusAddr:    board.pwmfif1Bus(),
			lengthBytes:   4,
		}
	}

	for i := 0; i < waitSet; i++ {
		cb := waitTemplate()
		cb.nextCbBusAddr = next()
		cbs = append(cbs, cb)
		idx++
	}

	if !fullDuty {
		clear := controlBlock{
			info:          dmaTINoWideBursts | dmaTIWaitResp,
			srcBusAddr:    clearMaskBus,
			dstBusAddr:    board.gpclr0Bus(),
			lengthBytes:   4,
			nextCbBusAddr: next(),
		}
		cbs = append(cbs, clear)
		idx++
	}

	for i := 0; i < waitClear; i++ {
		cb := waitTemplate()
		cb.nextCbBusAddr = next()
		cbs = append(cbs, cb)
		idx++
	}

	// Close the ring.
	cbs[len(cbs)-1].nextCbBusAddr = cbBusAddr(0)

	actualSubcycleUs := float64(waitTicks) * pulseWidthUs * 2

	return cbPlan{
		cbs:               cbs,
		setMask:           setMask,
		clearMask:         clearMask,
		freqAct:           1e6 / actualSubcycleUs,
		dutyAct:           dutyAct,
		dutyResolutionPct: dutyResolutionPct,
		subcycleUs:        actualSubcycleUs,
		cbTotal:           len(cbs),
		cbSetWait:         waitSet,
		cbClearWait:       waitClear,
	}, nil
}

// gpioFselWrite returns the read-modify-write needed to set pin p's
// function-select field to GPIO output (001), given the current value
// of the function-select word it lives in.
func gpioFselWrite(p uint8, cur uint32) uint32 {
	const pinMask = 7
	shift := (p % 10) * 3
	return (cur &^ (pinMask << shift)) | (1 << shift)
}

func gpioFselWord(p uint8) uint32 { return uint32(p) / 10 }
