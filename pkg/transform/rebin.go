package transform

import "specconv/pkg/spectrum"

// ApplyChannelRebin implements §4.2 step 9: combine adjacent gamma channels
// by a power-of-two factor, derived from the CLI's f as 2^(f-1). factorExp
// <= 0 is a no-op. The combine is applied once per distinct channel-count
// class present among gamma records, since spectrum.CombineGammaChannels
// requires a single target channel count; a class whose channel count isn't
// evenly divisible by the factor warns and is left untouched.
func ApplyChannelRebin(f *spectrum.SpecFile, factorExp int) {
	if factorExp <= 0 {
		return
	}
	factor := 1 << uint(factorExp-1)
	if factor <= 1 {
		return
	}

	for _, numChannels := range f.GammaChannelCounts {
		if err := f.CombineGammaChannels(factor, numChannels); err != nil {
			f.Warnf("channel-rebin: channel class %d: %v", numChannels, err)
		}
	}
}
