package spectrum

import "errors"

// Sentinel errors returned by the spectrum model's mutating operations.
// Callers use errors.Is to distinguish recoverable conditions (logged as
// warnings by the pipeline driver) from fatal ones.
var (
	ErrIncompatibleCalibration = errors.New("spectrum: no contributor has a valid gamma calibration")
	ErrUnknownDetector         = errors.New("spectrum: detector not found")
	ErrNameConflict            = errors.New("spectrum: detector name already in use")
	ErrIndivisibleCount        = errors.New("spectrum: rebin factor does not divide channel count")
	ErrNoGammaData             = errors.New("spectrum: record has no gamma channel data")
	ErrEmptySelection          = errors.New("spectrum: sample/detector selection matched no records")
)
