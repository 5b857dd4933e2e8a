package dmapwm

// Register offsets and bit values for the DMA controller, PWM
// controller and PWM clock manager. Names and values follow the
// BCM2835 ARM Peripherals datasheet, as mirrored across the rpiws281x
// and ledctl register maps.
const (
	// DMA controller, per-channel bank (stride 0x100).
	dmaCSOffset       = 0x00
	dmaConblkAdOffset = 0x04
	dmaDebugOffset    = 0x20
	dmaChannelStride  = 0x100

	dmaCSReset                   uint32 = 1 << 31
	dmaCSAbort                   uint32 = 1 << 30
	dmaCSWaitOutstandingWrites   uint32 = 1 << 28
	dmaCSError                   uint32 = 1 << 8
	dmaCSInt                     uint32 = 1 << 2
	dmaCSEnd                     uint32 = 1 << 1
	dmaCSActive                  uint32 = 1 << 0

	dmaTINoWideBursts uint32 = 1 << 26
	dmaTIWaitResp     uint32 = 1 << 3
	dmaTIDestDreq     uint32 = 1 << 6

	dmaPriorityShift     = 16
	dmaPanicPriorityShift = 20
	dmaPermapShift       = 16

	// GPIO set / clear registers, byte offsets.
	gpioGpset0 = 0x1c
	gpioGpclr0 = 0x28

	// PWM controller.
	pwmCtlOffset  = 0x00
	pwmStaOffset  = 0x04
	pwmDmacOffset = 0x08
	pwmRng1Offset = 0x10
	pwmFif1Offset = 0x18

	pwmCtlClearFifo uint32 = 1 << 6
	pwmCtlUseFifo   uint32 = 1 << 5
	pwmCtlCh1Enable uint32 = 1 << 0

	pwmDmacEnable      uint32 = 1 << 31
	pwmDmacPanicShift  = 8
	pwmDmacDreqShift   = 0

	// PWM clock manager. The clock-manager block also hosts several
	// other peripherals' clocks (GP0 at 0x00, PCM at 0x98, ...); PWM's
	// own ctl/div pair lives at 0xa0/0xa4, not at the block's base.
	pwmClkCtlOffset = 0xa0
	pwmClkDivOffset = 0xa4

	pwmClkPassword  uint32 = 0x5a000000
	pwmClkSrcPlld   uint32 = 6
	pwmClkEnable    uint32 = 1 << 4
	pwmClkBusy      uint32 = 1 << 7
	pwmClkDivShift  = 12

	// PERMAP value selecting the PWM peripheral (index 5) as the
	// DMA DREQ source.
	dreqPeripheralPWM uint32 = 5
)

func dmaPermap(peripheral uint32) uint32 { return (peripheral & 0x1f) << dmaPermapShift }
func dmaPriority(v uint32) uint32        { return (v & 0xf) << dmaPriorityShift }
func dmaPanicPriority(v uint32) uint32   { return (v & 0xf) << dmaPanicPriorityShift }
func pwmDmacPanicThresh(v uint32) uint32 { return (v & 0xff) << pwmDmacPanicShift }
func pwmDmacDreqThresh(v uint32) uint32  { return (v & 0xff) << pwmDmacDreqShift }
