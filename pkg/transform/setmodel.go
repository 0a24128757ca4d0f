package transform

import "specconv/pkg/spectrum"

// ApplySetModel forces every gamma record's energy calibration into model,
// replacing calibrations that already share a pointer (and therefore a
// structurally identical source) with a single converted handle so the
// dedup cleanup_after_load performs later finds them already collapsed.
// A record whose calibration has no closed-form conversion into model (a
// LowerChannelEdge source converting into Polynomial or FullRangeFraction)
// is left untouched and warned about instead of guessing a fit.
func ApplySetModel(f *spectrum.SpecFile, model spectrum.CalibrationModel) {
	if model == spectrum.Invalid {
		return
	}

	converted := map[*spectrum.EnergyCalibration]*spectrum.EnergyCalibration{}
	for _, r := range f.Records {
		if !r.HasGamma() || r.EnergyCalibration == nil {
			continue
		}
		if r.EnergyCalibration.Model == model {
			continue
		}
		if done, ok := converted[r.EnergyCalibration]; ok {
			r.EnergyCalibration = done
			continue
		}
		newCal, err := r.EnergyCalibration.ConvertModel(model)
		if err != nil {
			f.Warnf("set-model: detector %q sample %d: %v", r.DetectorName, r.SampleNumber, err)
			converted[r.EnergyCalibration] = r.EnergyCalibration
			continue
		}
		converted[r.EnergyCalibration] = newCal
		r.EnergyCalibration = newCal
	}
}
