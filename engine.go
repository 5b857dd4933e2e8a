package dmapwm

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const (
	defaultAllocatedPages = 16
	defaultPulseWidthUs   = 5
)

// Engine is the single object carrying every piece of process-wide
// state the original source kept in file scope: the board profile,
// the four peripheral mappings, the clock/range pair, and the channel
// table. Construct one with New, use it from a single goroutine (or
// serialize calls externally), and call Shutdown before exit -
// Shutdown also runs automatically on HUP/INT/QUIT/TERM.
type Engine struct {
	mu sync.Mutex

	initialized bool
	pageSize    int

	board    boardProfile
	gpioRegs *peripheralView
	dmaRegs  *peripheralView
	pwmRegs  *peripheralView
	clkRegs  *peripheralView

	allocatedPagesPerBuffer int
	pulseWidthUs            float64
	clockDivisor            uint32
	pwmRange                uint32

	channels [numChannels]Channel

	sigCh chan os.Signal
}

// New returns an Engine with the default configuration (16 pages per
// buffer, a 5 microsecond pulse width). Bring-up is deferred to the
// first Request.
func New() *Engine {
	return &Engine{
		pageSize:                os.Getpagesize(),
		allocatedPagesPerBuffer: defaultAllocatedPages,
		pulseWidthUs:            defaultPulseWidthUs,
	}
}

// Config sets the pages-per-buffer and target pulse width used by the
// next bring-up. It fails once any channel has left the Free state,
// since the clock divisor and PWM range it implies are only pushed to
// hardware at bring-up.
func (e *Engine) Config(pages int, pwUs float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.channels {
		if e.channels[i].state != stateFree {
			return ErrChannelAlreadyRequested
		}
	}

	timing, err := solveDivisor(pwUs)
	if err != nil {
		return err
	}

	e.allocatedPagesPerBuffer = pages
	e.pulseWidthUs = timing.pulseWidthUs
	e.clockDivisor = timing.divisor
	e.pwmRange = timing.pwmRange
	return nil
}

// ensureInitialized runs the one-time global bring-up sequence on the
// first call and is a no-op on every later one. The latch lives on
// the Engine, not in a package-level variable, so that two Engines in
// the same process (in tests, say) do not interfere.
func (e *Engine) ensureInitialized() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}

	if err := e.installSignalHandler(); err != nil {
		return fmt.Errorf("%w: %v", ErrSignalHandlerFailed, err)
	}

	board, err := resolveBoardProfile()
	if err != nil {
		return err
	}
	e.board = board

	if e.clockDivisor == 0 {
		timing, err := solveDivisor(e.pulseWidthUs)
		if err != nil {
			return err
		}
		e.pulseWidthUs = timing.pulseWidthUs
		e.clockDivisor = timing.divisor
		e.pwmRange = timing.pwmRange
	}

	views, err := mapAll()
	if err != nil {
		return err
	}
	e.gpioRegs, e.dmaRegs, e.pwmRegs, e.clkRegs = views[0], views[1], views[2], views[3]

	e.bringUpClock()
	e.bringUpController()

	e.initialized = true
	return nil
}

// mapAll maps the four peripheral blocks this engine touches.
// rpimemmap.Map resolves the board's physical base internally (the
// same way DerLukas15-rpiws281x's initializeDMA/initializeClock call
// it), so each block is mapped by its bare offset within the
// peripheral address space, never by periPhysBase+offset.
func mapAll() ([4]*peripheralView, error) {
	offsets := [4]uint32{gpioBlockOffset, dmaBlockOffset, pwmCtlBlockOffset, pwmClkBlockOffset}
	var views [4]*peripheralView
	for i, offset := range offsets {
		v, err := mapPeripheral(offset)
		if err != nil {
			for j := 0; j < i; j++ {
				views[j].unmap()
			}
			return [4]*peripheralView{}, err
		}
		views[i] = v
	}
	return views, nil
}

// bringUpClock programs the PWM clock manager: stop it, select PLLD
// as the source while still disabled, write the divisor, then enable.
// Every write is followed by the settle delay the datasheet mandates.
func (e *Engine) bringUpClock() {
	e.clkRegs.write(pwmClkCtlOffset, 0)
	time.Sleep(dmaSettleDelay)
	e.clkRegs.write(pwmClkCtlOffset, pwmClkPassword|pwmClkSrcPlld)
	time.Sleep(dmaSettleDelay)
	e.clkRegs.write(pwmClkDivOffset, pwmClkPassword|(e.clockDivisor<<pwmClkDivShift))
	time.Sleep(dmaSettleDelay)
	e.clkRegs.write(pwmClkCtlOffset, pwmClkPassword|pwmClkSrcPlld|pwmClkEnable)
	time.Sleep(dmaSettleDelay)
}

func (e *Engine) bringUpController() {
	e.pwmRegs.write(pwmCtlOffset, 0)
	e.pwmRegs.write(pwmRng1Offset, e.pwmRange)
	e.pwmRegs.write(pwmDmacOffset, pwmDmacEnable|pwmDmacDreqThresh(15)|pwmDmacPanicThresh(15))
	e.pwmRegs.write(pwmCtlOffset, pwmCtlClearFifo)
	e.pwmRegs.write(pwmCtlOffset, pwmCtlUseFifo|pwmCtlCh1Enable)
}

// installSignalHandler routes HUP, INT, QUIT and TERM into the
// shutdown path. Unlike the original source's handler, which logged
// via stdio and was therefore not async-signal-safe, the handler here
// only sends on a channel; the actual teardown (register writes and
// the allocator's release calls) runs on an ordinary goroutine, so it
// is free to do anything a normal Go function can do.
func (e *Engine) installSignalHandler() error {
	e.sigCh = make(chan os.Signal, 1)
	signal.Notify(e.sigCh,
		unix.SIGHUP, unix.SIGINT, unix.SIGQUIT, unix.SIGTERM)

	go func() {
		if _, ok := <-e.sigCh; !ok {
			return
		}
		e.Shutdown()
		os.Exit(1)
	}()
	return nil
}

// Shutdown frees every live channel, releasing its uncached memory -
// the only resource the OS will not reclaim on its own. The four
// cacheable peripheral mappings are deliberately left mapped: per the
// engine's memory ownership policy, unmapping them during a signal
// handler is unsafe and offers no benefit, since the process is about
// to exit anyway. Safe to call more than once.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return
	}

	for i := range e.channels {
		if e.channels[i].state != stateFree {
			e.freeLocked(i)
		}
	}
}
