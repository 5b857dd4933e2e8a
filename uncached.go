package dmapwm

import (
	"fmt"

	"github.com/DerLukas15/rpimemmap"
)

// uncachedRegion is a thin wrapper around the externally supplied
// uncached-memory allocator (the VideoCore mailbox, via rpimemmap's
// "direct|coherent" alias). It exposes exactly what the CB synthesizer
// needs: a bus address, a way to reach an offset inside the region by
// bus address, and a register-style accessor for writing words into
// the region from this side.
type uncachedRegion struct {
	mem rpimemmap.MemMap
}

func allocUncached(size uint32) (*uncachedRegion, error) {
	mem := rpimemmap.NewUncached(size)
	if err := mem.Map(0, rpimemmap.MemDevDefault, rpimemmap.UncachedMemFlagDirect); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}
	return &uncachedRegion{mem: mem}, nil
}

func (u *uncachedRegion) busAddr() uint32 {
	return u.mem.BusAddr()
}

func (u *uncachedRegion) busAddrOf(wordOffset uint32) uint32 {
	return u.mem.BusAddr() + wordOffset*4
}

func (u *uncachedRegion) word(wordOffset uint32) *uint32 {
	return rpimemmap.Reg32(u.mem, wordOffset*4)
}

// release frees the region via the allocator. Safe to call once; a
// second call on an already-released handle is a caller bug, not
// guarded against here since ownership is affine by construction.
func (u *uncachedRegion) release() error {
	if u == nil || u.mem == nil {
		return nil
	}
	return u.mem.Unmap()
}
