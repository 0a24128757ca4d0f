// Package transform implements the ordered record-filtering and
// aggregation pipeline: pure operations over a spectrum.SpecFile, applied
// in a fixed order by the pipeline driver.
package transform

import "specconv/pkg/spectrum"

// Options collects every transform-step parameter the CLI orchestrator can
// set. Zero values mean "don't apply this step", except
// KeepAllCalibrationVariants, whose zero value lets step 1 select a variant.
type Options struct {
	// Step 1: energy-calibration variant selection.
	KeepAllCalibrationVariants bool

	// Step 2: detector inclusion/exclusion.
	ExcludeDetectors []string
	IncludeDetectors []string

	// Step 3: source-type filters.
	NoBackground bool
	NoForeground bool
	NoIntrinsic  bool
	NoCalibration bool
	NoUnknown    bool

	// Step 4: derived-data filter.
	OnlyDerived bool
	NoDerived   bool

	// Step 5: sum-all.
	SumAll bool

	// Step 5a: bucket per-sample sums into fixed time windows instead of
	// summing everything into one record.
	SumForTimeSeconds float64

	// Step 5b: subtract a background record's live-time-scaled counts
	// from every foreground record.
	BackgroundSubtract bool

	// Step 6: detector renaming, from => to.
	RenameDetectors map[string]string

	// Step 7: N42 name normalization.
	NormalizeDetectorNames bool

	// Step 8: CALp application.
	CALpBlocks []spectrum.CALpBlock

	// Step 8a: force every gamma calibration into one model. Invalid
	// (the zero value) means "leave calibration models as parsed".
	SetModel spectrum.CalibrationModel

	// Step 9: channel rebinning. RebinFactorExp is the CLI's f; the actual
	// channel-combine factor is 2^(f-1).
	RebinFactorExp int

	// Step 10: linearization.
	LinearizeLowerKeV float64
	LinearizeUpperKeV float64

	// Step 11: sum-det-per-sample / sum-samples-per-det (mutually
	// exclusive; validated by the CLI orchestrator, not here).
	SumDetPerSample  bool
	SumSamplesPerDet bool
}
