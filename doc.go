/*

Package dmapwm drives arbitrary GPIO pins on a Raspberry Pi (BCM2835,
BCM2837 or BCM2711) with a hardware-timed PWM waveform, without any
CPU involvement once the waveform is armed.

It works by programming the chip's DMA controller to walk a ring of
control blocks that alternately write the GPIO set/clear registers and
wait on the hardware PWM peripheral's DREQ line for pacing. The PWM
peripheral itself never reaches a pin - it is only used as a paced
tick source for the DMA engine.

Example of use:

	eng := dmapwm.New()
	defer eng.Shutdown()

	if err := eng.Config(16, dmapwm.DefaultLEDPulseWidthUs); err != nil {
		log.Fatal(err)
	}

	ch, err := eng.Request()
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Free(ch)

	if err := eng.Set(ch, []uint8{26}, 1, 75); err != nil {
		log.Fatal(err)
	}
	if err := eng.Enable(ch); err != nil {
		log.Fatal(err)
	}

Call Config before the first Request if the defaults (16 pages per
buffer, a 5 microsecond pulse width) do not fit the application.

The engine requires root, since it maps /dev/mem and the VideoCore
mailbox device, and it owns process-wide state: construct one Engine,
use it from a single goroutine or serialize calls externally.

*/
package dmapwm
