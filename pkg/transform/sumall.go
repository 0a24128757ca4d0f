package transform

import (
	"sort"

	"github.com/samber/lo"

	"specconv/pkg/spectrum"
)

// ApplySumAll implements §4.2 step 5: replace the entire record set with a
// single sum over all remaining records and detectors. IncompatibleCalibration
// is surfaced as a warning and the sum is skipped (§7).
func ApplySumAll(f *spectrum.SpecFile) {
	if len(f.Records) == 0 {
		return
	}
	samples := lo.SliceToMap(f.SampleNumbers, func(n int) (int, bool) { return n, true })
	detectors := lo.SliceToMap(f.DetectorNames, func(n string) (string, bool) { return n, true })

	sum, err := f.SumMeasurements(samples, detectors)
	if err != nil {
		f.Warnf("sum-all: %v", err)
		return
	}
	f.Records = []*spectrum.Record{sum}
}

// ApplySumForTimeWindow buckets records into fixed-width time windows
// (seconds) and sums each bucket's detectors into one record, instead of
// one sum-all record. Records without a known start time form their own
// single-record bucket in original order.
func ApplySumForTimeWindow(f *spectrum.SpecFile, windowSeconds float64) {
	if windowSeconds <= 0 || len(f.Records) == 0 {
		return
	}

	type bucket struct {
		samples   map[int]bool
		detectors map[string]bool
	}
	var buckets []*bucket
	var bucketStart float64
	var have bool

	ordered := append([]*spectrum.Record(nil), f.Records...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SampleNumber < ordered[j].SampleNumber })

	var cur *bucket
	for _, r := range ordered {
		t := float64(r.StartTime.Unix())
		if !r.HasTime {
			buckets = append(buckets, &bucket{samples: map[int]bool{r.SampleNumber: true}, detectors: map[string]bool{r.DetectorName: true}})
			continue
		}
		if !have || t-bucketStart >= windowSeconds {
			cur = &bucket{samples: map[int]bool{}, detectors: map[string]bool{}}
			buckets = append(buckets, cur)
			bucketStart = t
			have = true
		}
		cur.samples[r.SampleNumber] = true
		cur.detectors[r.DetectorName] = true
	}

	var out []*spectrum.Record
	for _, b := range buckets {
		sum, err := f.SumMeasurements(b.samples, b.detectors)
		if err != nil {
			f.Warnf("sum-for-time-seconds: %v", err)
			continue
		}
		out = append(out, sum)
	}
	if len(out) > 0 {
		f.Records = out
	}
}

// ApplyBackgroundSubtract subtracts a designated background record's
// per-channel counts, scaled by the ratio of live times, from every
// foreground record with a compatible calibration.
func ApplyBackgroundSubtract(f *spectrum.SpecFile) {
	var background *spectrum.Record
	for _, r := range f.Records {
		if r.SourceType == spectrum.SourceBackground && r.HasGamma() {
			background = r
			break
		}
	}
	if background == nil {
		f.Warnf("background-subtract: no background record with gamma data found")
		return
	}

	for _, r := range f.Records {
		if r == background || r.SourceType != spectrum.SourceForeground || !r.HasGamma() {
			continue
		}
		bgCounts := background.GammaCounts
		if len(bgCounts) != len(r.GammaCounts) {
			resampled, err := spectrum.RebinMeasurement(r.EnergyCalibration, background)
			if err != nil {
				f.Warnf("background-subtract: %v", err)
				continue
			}
			bgCounts = resampled
		}
		scale := 1.0
		if background.LiveTime > 0 {
			scale = r.LiveTime / background.LiveTime
		}
		adjusted := make([]float64, len(r.GammaCounts))
		for i, c := range r.GammaCounts {
			v := c - scale*bgCounts[i]
			if v < 0 {
				v = 0
			}
			adjusted[i] = v
		}
		r.GammaCounts = adjusted
		r.DerivedDataProperties |= spectrum.DerivedBackgroundSubtracted
	}
}
