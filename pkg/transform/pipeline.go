package transform

import "specconv/pkg/spectrum"

// Run applies every enabled transform step to f in the fixed required
// order: calibration-variant selection, detector include/exclude,
// source-type filters, derived-data filter, sum-all (and its time-window/
// background-subtract variants), rename, N42 name normalization, CALp
// application, forced calibration-model conversion, channel rebinning,
// linearization, then sum-det-per-sample/sum-samples-per-det.
// Every step that can alter the record set is followed by
// CleanupAfterLoad(DontChangeOrReorderSamples) to keep derived views in
// sync, and by clearing the file's UUID, since the
// output no longer represents the file as originally loaded.
func Run(f *spectrum.SpecFile, o Options) {
	step := func(apply func()) {
		apply()
		f.CleanupAfterLoad(spectrum.DontChangeOrReorderSamples)
		f.UUID = ""
	}

	step(func() { SelectCalibrationVariant(f, o.KeepAllCalibrationVariants) })

	step(func() { FilterDetectors(f, o.ExcludeDetectors, o.IncludeDetectors) })

	step(func() {
		SourceTypeFilters{
			NoBackground:  o.NoBackground,
			NoForeground:  o.NoForeground,
			NoIntrinsic:   o.NoIntrinsic,
			NoCalibration: o.NoCalibration,
			NoUnknown:     o.NoUnknown,
		}.ApplyFilters(f)
	})

	step(func() { ApplyDerivedDataFilter(f, o.OnlyDerived, o.NoDerived) })

	step(func() {
		switch {
		case o.SumAll:
			ApplySumAll(f)
		case o.SumForTimeSeconds > 0:
			ApplySumForTimeWindow(f, o.SumForTimeSeconds)
		}
		if o.BackgroundSubtract {
			ApplyBackgroundSubtract(f)
		}
	})

	step(func() { ApplyRenames(f, o.RenameDetectors) })

	step(func() {
		if o.NormalizeDetectorNames {
			NormalizeN42Names(f)
		}
	})

	step(func() { ApplyCALp(f, o.CALpBlocks) })

	step(func() { ApplySetModel(f, o.SetModel) })

	step(func() { ApplyChannelRebin(f, o.RebinFactorExp) })

	step(func() { ApplyLinearization(f, o.LinearizeLowerKeV, o.LinearizeUpperKeV) })

	step(func() {
		switch {
		case o.SumDetPerSample:
			ApplySumDetPerSample(f)
		case o.SumSamplesPerDet:
			ApplySumSamplesPerDet(f)
		}
	})
}
