package dmapwm

import (
	"fmt"

	"github.com/DerLukas15/rpihardware"
)

// boardProfile holds the per-SoC physical base (kept for board
// classification; rpimemmap resolves its own peripheral base
// internally and is never given periPhysBase directly - see mapAll)
// and the bus address DMA control blocks must use to reach the same
// peripherals.
type boardProfile struct {
	periPhysBase uint32
	periBusBase  uint32
}

const (
	periBusBase = 0x7e000000

	gpioBlockOffset   = 0x200000
	dmaBlockOffset    = 0x007000
	pwmCtlBlockOffset = 0x20c000
	pwmClkBlockOffset = 0x101000
	gpset0Offset      = 0x20001c
	gpclr0Offset      = 0x200028
	pwmfif1Offset     = 0x20c018
)

// boardProfiles is the fixed table mandated for the three supported
// SoCs. rpihardware.RPiType only tells us which chip family a given
// board revision uses; the base addresses themselves are ours to keep
// exact, since the CB synthesizer and tests depend on them verbatim.
var boardProfiles = map[rpihardware.RPiType]boardProfile{
	rpihardware.RPiTypeZero: {periPhysBase: 0x20000000, periBusBase: periBusBase}, // BCM2835
	rpihardware.RPiType1:    {periPhysBase: 0x20000000, periBusBase: periBusBase}, // BCM2835
	rpihardware.RPiType2:    {periPhysBase: 0x3f000000, periBusBase: periBusBase}, // BCM2837
	rpihardware.RPiType3:    {periPhysBase: 0x3f000000, periBusBase: periBusBase}, // BCM2837
	rpihardware.RPiType4:    {periPhysBase: 0xfe000000, periBusBase: periBusBase}, // BCM2711
}

// detectHardware is a package-level indirection over rpihardware.Detect
// so tests can substitute a fake board without real hardware present.
var detectHardware = rpihardware.Detect

func resolveBoardProfile() (boardProfile, error) {
	hw, err := detectHardware()
	if err != nil {
		return boardProfile{}, fmt.Errorf("%w: %v", ErrNoBoardIdentifier, err)
	}

	profile, ok := boardProfiles[hw.RPiType]
	if !ok {
		return boardProfile{}, ErrNoBoardIdentifier
	}
	return profile, nil
}

func (b boardProfile) gpset0Bus() uint32  { return b.periBusBase + gpset0Offset }
func (b boardProfile) gpclr0Bus() uint32  { return b.periBusBase + gpclr0Offset }
func (b boardProfile) pwmfif1Bus() uint32 { return b.periBusBase + pwmfif1Offset }
