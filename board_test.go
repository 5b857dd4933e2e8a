package dmapwm

import (
	"errors"
	"testing"

	"github.com/DerLukas15/rpihardware"
)

func withFakeHardware(t *testing.T, hw *rpihardware.Hardware, err error) {
	prev := detectHardware
	detectHardware = func() (*rpihardware.Hardware, error) { return hw, err }
	t.Cleanup(func() { detectHardware = prev })
}

func TestResolveBoardProfileKnownBoards(t *testing.T) {
	cases := []struct {
		name     string
		rpiType  rpihardware.RPiType
		wantPhys uint32
	}{
		{"BCM2835", rpihardware.RPiType1, 0x20000000},
		{"BCM2837", rpihardware.RPiType3, 0x3f000000},
		{"BCM2711", rpihardware.RPiType4, 0xfe000000},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			withFakeHardware(t, &rpihardware.Hardware{RPiType: c.rpiType}, nil)

			profile, err := resolveBoardProfile()
			if err != nil {
				t.Fatalf("resolveBoardProfile: %v", err)
			}
			if profile.periPhysBase != c.wantPhys {
				t.Errorf("periPhysBase = 0x%x, want 0x%x", profile.periPhysBase, c.wantPhys)
			}
			if profile.periBusBase != periBusBase {
				t.Errorf("periBusBase = 0x%x, want 0x%x", profile.periBusBase, periBusBase)
			}
		})
	}
}

func TestResolveBoardProfileUnknownBoard(t *testing.T) {
	withFakeHardware(t, &rpihardware.Hardware{RPiType: rpihardware.RPiType(255)}, nil)

	_, err := resolveBoardProfile()
	if !errors.Is(err, ErrNoBoardIdentifier) {
		t.Fatalf("err = %v, want ErrNoBoardIdentifier", err)
	}
}

func TestResolveBoardProfileDetectionFailure(t *testing.T) {
	withFakeHardware(t, nil, errors.New("no /proc/device-tree"))

	_, err := resolveBoardProfile()
	if !errors.Is(err, ErrNoBoardIdentifier) {
		t.Fatalf("err = %v, want ErrNoBoardIdentifier", err)
	}
}

func TestGpioFselWrite(t *testing.T) {
	// Setting pin 4 (shift 12) to output must clear its 3-bit field
	// and set it to 001, leaving neighboring fields untouched.
	cur := uint32(0b111_111_111_111_111) // all fields set to 7 (garbage)
	got := gpioFselWrite(4, cur)

	const pinMask = 7
	shift := uint32(4%10) * 3
	if (got>>shift)&pinMask != 1 {
		t.Errorf("pin 4 field = %o, want 1", (got>>shift)&pinMask)
	}
	// Neighboring field (pin 3) must be unchanged.
	otherShift := uint32(3%10) * 3
	if (got>>otherShift)&pinMask != (cur>>otherShift)&pinMask {
		t.Errorf("pin 3 field was disturbed")
	}
}
