// Command dmapwmdemo drives one GPIO pin through a short PWM routine:
// configure, request a channel, set a signal, enable it, update it in
// place, then tear everything down. It needs root, since the engine
// maps /dev/mem and the VideoCore mailbox device.
package main

import (
	"log"
	"time"

	dmapwm "github.com/besp9510/dma-pwm"
)

func main() {
	eng := dmapwm.New()
	defer eng.Shutdown()

	if err := eng.Config(16, dmapwm.DefaultLEDPulseWidthUs); err != nil {
		log.Fatalf("config: %v", err)
	}

	ch, err := eng.Request()
	if err != nil {
		log.Fatalf("request: %v", err)
	}
	log.Printf("channel %d requested", ch)

	gpio := []uint8{26}
	if err := eng.Set(ch, gpio, 1, 75); err != nil {
		eng.Free(ch)
		log.Fatalf("set: %v", err)
	}
	if err := eng.Enable(ch); err != nil {
		eng.Free(ch)
		log.Fatalf("enable: %v", err)
	}
	log.Printf("channel %d enabled", ch)

	time.Sleep(5 * time.Second)

	if err := eng.Set(ch, gpio, 5, 50); err != nil {
		eng.Free(ch)
		log.Fatalf("update: %v", err)
	}
	freq, _ := eng.FreqOf(ch)
	duty, _ := eng.DutyOf(ch)
	log.Printf("channel %d updated: %.3f Hz, %.3f%% duty", ch, freq, duty)

	time.Sleep(5 * time.Second)

	if err := eng.Disable(ch); err != nil {
		log.Fatalf("disable: %v", err)
	}
	log.Printf("channel %d disabled", ch)

	if err := eng.Free(ch); err != nil {
		log.Fatalf("free: %v", err)
	}
	log.Printf("channel %d freed", ch)
}
