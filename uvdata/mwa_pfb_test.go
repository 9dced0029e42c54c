package uvdata

import "testing"

// The input->output mapping must be a total bijection on 0..255; any
// collision or gap would silently corrupt every visibility.
func TestPFBMappingIsBijection(t *testing.T) {
	m := pfbInputsToOutputs()
	seen := make([]bool, 256)
	for in, out := range m {
		if out < 0 || out > 255 {
			t.Fatalf("input %d maps to %d, outside 0..255", in, out)
		}
		if seen[out] {
			t.Fatalf("output %d produced twice", out)
		}
		seen[out] = true
	}
	for out, ok := range seen {
		if !ok {
			t.Fatalf("output %d never produced", out)
		}
	}
}

// Output index i of bank p must come from input pfbMapper[i%64] + 64*(i/64),
// the documented hardware wiring.
func TestPFBMappingMatchesWiring(t *testing.T) {
	m := pfbInputsToOutputs()
	for out := 0; out < 256; out++ {
		bank := out / 64
		in := pfbMapper[out%64] + 64*bank
		if m[in] != out {
			t.Fatalf("mapping[%d] = %d, want %d", in, m[in], out)
		}
	}
}

func TestPFBBankStructure(t *testing.T) {
	m := pfbInputsToOutputs()
	// inputs and outputs never cross bank boundaries
	for in, out := range m {
		if in/64 != out/64 {
			t.Fatalf("input %d (bank %d) maps across banks to %d", in, in/64, out)
		}
	}
}
