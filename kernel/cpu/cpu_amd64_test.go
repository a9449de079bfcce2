package cpu

import "testing"

func TestIsIntel(t *testing.T) {
	defer func() { cpuidFn = ID }()

	specs := []struct {
		vendor        string
		ebx, ecx, edx uint32
		exp           bool
	}{
		{"GenuineIntel", 0x756e6547, 0x6c65746e, 0x49656e69, true},
		{"AuthenticAMD", 0x68747541, 0x444d4163, 0x69746e65, false},
		// A single mismatched register must not pass for Intel.
		{"GenuineIntel with a corrupt EDX", 0x756e6547, 0x6c65746e, 0x49656e70, false},
	}

	for specIndex, spec := range specs {
		cpuidFn = func(leaf uint32) (uint32, uint32, uint32, uint32) {
			if leaf != 0 {
				t.Errorf("[spec %d] expected the vendor query to use leaf 0; got %d", specIndex, leaf)
			}
			return 0xd, spec.ebx, spec.ecx, spec.edx
		}

		if got := IsIntel(); got != spec.exp {
			t.Errorf("[spec %d] expected IsIntel to report %t for %q; got %t",
				specIndex, spec.exp, spec.vendor, got)
		}
	}
}
