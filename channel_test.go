package dmapwm

import "testing"

func TestFindFreeChannelScansAllSlots(t *testing.T) {
	e := New()
	for i := range e.channels {
		e.channels[i].state = stateRequested
	}
	if _, ok := e.findFreeChannel(); ok {
		t.Fatal("expected no free channel when every slot is taken")
	}

	e.channels[numChannels-1].state = stateFree
	slot, ok := e.findFreeChannel()
	if !ok || slot != numChannels-1 {
		t.Fatalf("findFreeChannel = (%d, %v), want (%d, true)", slot, ok, numChannels-1)
	}
}

func TestCheckChannelRejectsOutOfRange(t *testing.T) {
	e := New()
	if err := e.checkChannel(-1); err != ErrInvalidChannel {
		t.Errorf("checkChannel(-1) = %v, want ErrInvalidChannel", err)
	}
	if err := e.checkChannel(numChannels); err != ErrInvalidChannel {
		t.Errorf("checkChannel(%d) = %v, want ErrInvalidChannel", numChannels, err)
	}
}

func TestCheckChannelRejectsFreeSlot(t *testing.T) {
	e := New()
	if err := e.checkChannel(0); err != ErrInvalidChannel {
		t.Errorf("checkChannel(0) on a free slot = %v, want ErrInvalidChannel", err)
	}
}

func TestCheckChannelAcceptsRequestedSlot(t *testing.T) {
	e := New()
	e.channels[2].state = stateRequested
	if err := e.checkChannel(2); err != nil {
		t.Errorf("checkChannel(2) = %v, want nil", err)
	}
}

func TestChannelHWIndexExcludesReservedChannels(t *testing.T) {
	reserved := map[uint32]bool{0: true, 1: true, 2: true, 3: true, 5: true, 6: true, 7: true}
	for slot, hw := range channelHWIndex {
		if reserved[hw] {
			t.Errorf("slot %d maps to reserved hardware channel %d", slot, hw)
		}
	}
	if len(channelHWIndex) != numChannels {
		t.Fatalf("channelHWIndex has %d entries, want %d", len(channelHWIndex), numChannels)
	}
}
