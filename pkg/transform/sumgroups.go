package transform

import (
	"sort"

	"specconv/pkg/spectrum"
)

// ApplySumDetPerSample implements the first half of §4.2 step 11: for each
// sample number, sum across every detector present in that sample, leaving
// one record per original sample number.
func ApplySumDetPerSample(f *spectrum.SpecFile) {
	samples := append([]int(nil), f.SampleNumbers...)
	sort.Ints(samples)

	var out []*spectrum.Record
	for _, sample := range samples {
		detectors := map[string]bool{}
		for _, r := range f.Records {
			if r.SampleNumber == sample {
				detectors[r.DetectorName] = true
			}
		}
		sum, err := f.SumMeasurements(map[int]bool{sample: true}, detectors)
		if err != nil {
			f.Warnf("sum-det-per-sample: sample %d: %v", sample, err)
			continue
		}
		sum.SampleNumber = sample
		sum.Title = groupTitle(f, map[int]bool{sample: true}, detectors)
		out = append(out, sum)
	}
	if len(out) > 0 {
		f.Records = out
	}
}

// ApplySumSamplesPerDet implements the second half of §4.2 step 11: for
// each detector, sum across every sample it appears in, leaving one record
// per original detector name.
func ApplySumSamplesPerDet(f *spectrum.SpecFile) {
	detectors := append([]string(nil), f.DetectorNames...)
	sort.Strings(detectors)

	var out []*spectrum.Record
	for i, name := range detectors {
		samples := map[int]bool{}
		for _, r := range f.Records {
			if r.DetectorName == name {
				samples[r.SampleNumber] = true
			}
		}
		sum, err := f.SumMeasurements(samples, map[string]bool{name: true})
		if err != nil {
			f.Warnf("sum-samples-per-det: detector %q: %v", name, err)
			continue
		}
		sum.DetectorName = name
		sum.SampleNumber = i + 1
		sum.Title = groupTitle(f, samples, map[string]bool{name: true})
		out = append(out, sum)
	}
	if len(out) > 0 {
		f.Records = out
	}
}

// groupTitle resolves a summed record's title: the shared title if every
// contributor in the selection carries the same non-empty one, "Background"
// if every contributor is a background record, otherwise empty.
func groupTitle(f *spectrum.SpecFile, samples map[int]bool, detectors map[string]bool) string {
	var contributors []*spectrum.Record
	for _, r := range f.Records {
		if samples[r.SampleNumber] && detectors[r.DetectorName] {
			contributors = append(contributors, r)
		}
	}
	if len(contributors) == 0 {
		return ""
	}

	allBackground := true
	sharedTitle := contributors[0].Title
	titlesShared := true
	for _, c := range contributors {
		if c.SourceType != spectrum.SourceBackground {
			allBackground = false
		}
		if c.Title != sharedTitle {
			titlesShared = false
		}
	}
	if titlesShared && sharedTitle != "" {
		return sharedTitle
	}
	if allBackground {
		return "Background"
	}
	return ""
}
