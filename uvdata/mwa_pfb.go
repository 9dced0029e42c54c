package uvdata

// The MWA polyphase filterbank scrambles the 256 correlator inputs (128 tiles
// x 2 receiver polarizations) into a fixed output order. pfbMapper is the
// documented wiring for one 64-input bank: pfbMapper[i] is the input whose
// output index is i, following floor(i/4) + (i%4)*16. The full 256-input
// mapping replicates the bank four times.
var pfbMapper = [64]int{
	0, 16, 32, 48, 1, 17, 33, 49, 2, 18, 34, 50, 3, 19, 35, 51,
	4, 20, 36, 52, 5, 21, 37, 53, 6, 22, 38, 54, 7, 23, 39, 55,
	8, 24, 40, 56, 9, 25, 41, 57, 10, 26, 42, 58, 11, 27, 43, 59,
	12, 28, 44, 60, 13, 29, 45, 61, 14, 30, 46, 62, 15, 31, 47, 63,
}

// pfbInputsToOutputs inverts pfbMapper across the four banks, yielding the
// total bijection from PFB input index to PFB output index. Any deviation
// from the hardware wiring here silently corrupts every visibility, so the
// table is exercised by a bijection test rather than runtime checks.
func pfbInputsToOutputs() [256]int {
	var m [256]int
	for p := 0; p < 4; p++ {
		for i := 0; i < 64; i++ {
			m[pfbMapper[i]+p*64] = p*64 + i
		}
	}
	return m
}
