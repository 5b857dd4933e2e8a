package dmapwm

import (
	"fmt"
	"os"

	"github.com/DerLukas15/rpimemmap"
)

// peripheralView is a typed, volatile window over one memory-mapped
// peripheral region (GPIO, DMA controller, PWM controller or PWM
// clock manager). Reads and writes go straight through rpimemmap's
// mapping, so the compiler never reorders or caches a stale value.
type peripheralView struct {
	mem rpimemmap.MemMap
}

// mapPeripheral maps one peripheral block by its bare offset within
// the peripheral address space (e.g. gpioBlockOffset); rpimemmap
// resolves the board's physical base internally and must not be given
// an already board-adjusted address.
func mapPeripheral(blockOffset uint32) (*peripheralView, error) {
	mem := rpimemmap.NewPeripheral(uint32(os.Getpagesize()))
	if err := mem.Map(blockOffset, rpimemmap.MemDevDefault, 0); err != nil {
		return nil, fmt.Errorf("%w: mapping 0x%x: %v", ErrMapFailed, blockOffset, err)
	}
	return &peripheralView{mem: mem}, nil
}

func (v *peripheralView) reg(offset uint32) *uint32 {
	return rpimemmap.Reg32(v.mem, offset)
}

func (v *peripheralView) read(offset uint32) uint32 {
	return *v.reg(offset)
}

func (v *peripheralView) write(offset, val uint32) {
	*v.reg(offset) = val
}

func (v *peripheralView) or(offset, mask uint32) {
	*v.reg(offset) |= mask
}

func (v *peripheralView) and(offset, mask uint32) {
	*v.reg(offset) &= mask
}

func (v *peripheralView) unmap() error {
	if v == nil || v.mem == nil {
		return nil
	}
	return v.mem.Unmap()
}

// dmaChannelRegs is a view into one channel's 0x100-byte register
// bank inside the shared DMA controller mapping.
type dmaChannelRegs struct {
	dma    *peripheralView
	stride uint32
}

func (c dmaChannelRegs) off(reg uint32) uint32 { return c.stride + reg }

func (c dmaChannelRegs) cs() uint32           { return c.dma.read(c.off(dmaCSOffset)) }
func (c dmaChannelRegs) setCS(v uint32)       { c.dma.write(c.off(dmaCSOffset), v) }
func (c dmaChannelRegs) orCS(mask uint32)     { c.dma.or(c.off(dmaCSOffset), mask) }
func (c dmaChannelRegs) andCS(mask uint32)    { c.dma.and(c.off(dmaCSOffset), mask) }
func (c dmaChannelRegs) setConblkAd(v uint32) { c.dma.write(c.off(dmaConblkAdOffset), v) }
func (c dmaChannelRegs) debug() uint32        { return c.dma.read(c.off(dmaDebugOffset)) }
