package transform

import "specconv/pkg/spectrum"

// ApplyCALp implements §4.2 step 8: apply externally supplied CALp
// calibration blocks, overwriting the energy calibration of matching
// detectors. A no-op when no blocks were supplied.
func ApplyCALp(f *spectrum.SpecFile, blocks []spectrum.CALpBlock) {
	if len(blocks) == 0 {
		return
	}
	f.SetEnergyCalibrationFromCALp(blocks)
}
