package uvdata

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// The correlator numbers its output files with a folded convention: channels
// at or below 128 are assigned to files in ascending order, channels above
// 128 in descending order. So for CHANNELS = [127, 128, 129, 130], file 1
// carries 127, file 2 carries 128, file 3 carries 130, and file 4 carries 129.

// mwaFoldedChannel returns the physical coarse channel carried by 1-based
// file number k, given the full channel list from the metadata.
func mwaFoldedChannel(coarse []int, k int) (int, error) {
	if k < 1 || k > len(coarse) {
		return 0, &FormatError{Reason: fmt.Sprintf("file number %d outside 1..%d", k, len(coarse))}
	}
	low := 0
	for _, ch := range coarse {
		if ch <= 128 {
			low++
		}
	}
	if k-1 < low {
		return coarse[k-1], nil
	}
	return coarse[len(coarse)+low-k], nil
}

// mwaChannelMap is the resolved bookkeeping for the coarse channels actually
// present in the input.
type mwaChannelMap struct {
	includedCoarse  []int       // physical channel numbers, ascending
	fileNumToIndex  map[int]int // file number -> 0-based frequency-block index
	fileNumToCoarse map[int]int
}

// resolveMWAChannels maps the included file numbers through the folding
// convention and orders their channels into contiguous frequency-block
// indices. Gaps in the included channel set and partial coverage are
// recoverable: downstream arrays are sized to the included set, so both only
// warn.
func resolveMWAChannels(coarse []int, fileNums []int, warns *Warnings) (mwaChannelMap, error) {
	cm := mwaChannelMap{
		fileNumToIndex:  make(map[int]int, len(fileNums)),
		fileNumToCoarse: make(map[int]int, len(fileNums)),
	}
	for _, k := range fileNums {
		ch, err := mwaFoldedChannel(coarse, k)
		if err != nil {
			return cm, err
		}
		cm.fileNumToCoarse[k] = ch
		cm.includedCoarse = append(cm.includedCoarse, ch)
	}
	sort.Ints(cm.includedCoarse)
	rank := make(map[int]int, len(cm.includedCoarse))
	for i, ch := range cm.includedCoarse {
		rank[ch] = i
	}
	for k, ch := range cm.fileNumToCoarse {
		cm.fileNumToIndex[k] = rank[ch]
	}
	for i := 1; i < len(cm.includedCoarse); i++ {
		if cm.includedCoarse[i]-cm.includedCoarse[i-1] != 1 {
			warns.addf("coarse channels are not contiguous for this observation")
			break
		}
	}
	if len(cm.includedCoarse) != len(coarse) {
		warns.addf("some coarse channel files were not submitted")
	}
	return cm, nil
}

// Fine-channel geometry constants, kHz. Each 1.28 MHz coarse channel is split
// into 10 kHz fine channels; channel number C has its lowest fine-channel
// center at C*1280 - 640.
const (
	coarseWidthKHz  = 1280
	nominalFineKHz  = 10
	coarseCenterOff = 640
)

// buildMWAFreqArray expands each included coarse channel into its fine
// sub-grid, in Hz. When fine channels have been averaged by some factor, the
// first output bin's center moves up by (factor-1)*10/2 kHz, the mean of the
// centers it absorbed.
func buildMWAFreqArray(includedCoarse []int, fineCount int, chanWidthHz float64) []float64 {
	widthKHz := chanWidthHz / 1000
	avgFactor := widthKHz / nominalFineKHz
	offset := (avgFactor - 1) * nominalFineKHz / 2

	freqs := make([]float64, len(includedCoarse)*fineCount)
	for i, ch := range includedCoarse {
		first := float64(ch)*coarseWidthKHz - coarseCenterOff + offset
		block := freqs[i*fineCount : (i+1)*fineCount]
		if fineCount == 1 {
			block[0] = first
		} else {
			floats.Span(block, first, first+float64(fineCount-1)*widthKHz)
		}
		for k := range block {
			block[k] *= 1000 // kHz -> Hz
		}
	}
	return freqs
}
