package transform

import "specconv/pkg/spectrum"

// ApplyLinearization implements §4.2 step 10: rebin every gamma record onto
// a shared linear (FullRangeFraction) energy calibration spanning
// [lowerKeV, upperKeV]. pkg/cliopts validation does not check the range;
// equal bounds record a warning here and leave every record unchanged,
// since there is no sensible calibration to build.
func ApplyLinearization(f *spectrum.SpecFile, lowerKeV, upperKeV float64) {
	if lowerKeV == 0 && upperKeV == 0 {
		return
	}
	if upperKeV == lowerKeV {
		f.Warnf("linearize: lower and upper energy bounds are equal (%g keV), skipping", lowerKeV)
		return
	}

	// The FullRangeFraction model evaluates coefficients over ch/NumChannels,
	// so the same two coefficients describe a linear calibration for any
	// channel count; only NumChannels differs per class.
	for _, numChannels := range f.GammaChannelCounts {
		target := &spectrum.EnergyCalibration{
			Model:        spectrum.FullRangeFraction,
			Coefficients: []float64{lowerKeV, upperKeV - lowerKeV},
			NumChannels:  numChannels,
		}
		for _, r := range f.Records {
			if !r.HasValidGammaCalibration() || r.NumChannels() != numChannels {
				continue
			}
			resampled, err := spectrum.RebinMeasurement(target, r)
			if err != nil {
				f.Warnf("linearize: %s/%d: %v", r.DetectorName, r.SampleNumber, err)
				continue
			}
			r.GammaCounts = resampled
			r.EnergyCalibration = target
		}
	}
}
