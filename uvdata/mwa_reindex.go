package uvdata

import "fmt"

// reindexMWA scatters the staging cube into the canonical (baseline-time,
// frequency, polarization) arrays. For each requested pair of antenna-table
// slots and receiver polarizations:
//
//  1. PFB input index = 2*slot + pol.
//  2. PFB output index via the hardware mapping.
//  3. output tile = index/2, output pol = index%2.
//  4. The correlator stores the triangle with tile1 >= tile2; when the
//     requested pair comes out swapped the raw value is the conjugate of the
//     requested visibility.
//
// Flags are copied through the same index, never conjugated. After the full
// enumeration, every baseline touching a flagged antenna is forced fully
// flagged, overriding per-cell scatter results. Nsamples is 1 wherever the
// final cell is unflagged.
//
// An out-of-range raw index means the PFB table or antenna table is corrupt;
// that fails fast rather than silently mapping wrong visibilities.
func reindexMWA(uv *UVData, cube *mwaStagingCube, meta *mwaMetadata) error {
	pfb := pfbInputsToOutputs()
	nants := len(meta.antNumbers)

	for a1 := 0; a1 < nants; a1++ {
		for a2 := a1; a2 < nants; a2++ {
			bls := TriangleIndex(nants, a1, a2)
			for p1 := 0; p1 < 2; p1++ {
				for p2 := 0; p2 < 2; p2++ {
					pol := 2*p1 + p2
					in1, in2 := 2*a1+p1, 2*a2+p2
					if in1 >= len(pfb) || in2 >= len(pfb) {
						return &InvariantError{Reason: fmt.Sprintf("PFB input %d/%d out of range", in1, in2)}
					}
					out1, out2 := pfb[in1], pfb[in2]
					outAnt1, outP1 := out1/2, out1%2
					outAnt2, outP2 := out2/2, out2%2
					var rawIdx int
					conj := false
					if outAnt1 < outAnt2 {
						// raw storage has the pair reversed
						rawIdx = 2*outAnt2*(outAnt2+1) + 4*outAnt1 + 2*outP2 + outP1
						conj = true
					} else {
						rawIdx = 2*outAnt1*(outAnt1+1) + 4*outAnt2 + 2*outP1 + outP2
					}
					if rawIdx < 0 || rawIdx >= corrRowWidth {
						return &InvariantError{
							Reason: fmt.Sprintf("raw index %d for tiles (%d,%d) outside row of %d", rawIdx, a1, a2, corrRowWidth),
						}
					}
					for t := 0; t < uv.Ntimes; t++ {
						blt := uv.BltIndex(t, bls)
						for f := 0; f < uv.Nfreqs; f++ {
							src := cube.index(t, f, rawIdx)
							v := cube.data[src]
							if conj {
								v = complex(real(v), -imag(v))
							}
							dst := uv.visIndex(blt, f, pol)
							uv.Data[dst] = v
							uv.Flags[dst] = !cube.found[src]
						}
					}
				}
			}
		}
	}

	// nsample marks where records supplied data; the flagged-antenna override
	// below flags baselines without zeroing their sample counts
	for i, flagged := range uv.Flags {
		if !flagged {
			uv.Nsamples[i] = 1
		}
	}

	// force-flag whole baselines touching a flagged antenna
	for a1 := 0; a1 < nants; a1++ {
		for a2 := a1; a2 < nants; a2++ {
			if !meta.flaggedAnts[meta.antNumbers[a1]] && !meta.flaggedAnts[meta.antNumbers[a2]] {
				continue
			}
			bls := TriangleIndex(nants, a1, a2)
			for t := 0; t < uv.Ntimes; t++ {
				blt := uv.BltIndex(t, bls)
				base := uv.visIndex(blt, 0, 0)
				for i := 0; i < uv.Nfreqs*uv.Npols; i++ {
					uv.Flags[base+i] = true
				}
			}
		}
	}
	return nil
}
