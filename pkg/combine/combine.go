// Package combine implements the combine engine: merging several
// already-parsed SpecFiles into one, with an ordering and dedup contract
// distinct from a plain transform step.
package combine

import (
	"fmt"
	"sort"

	"specconv/pkg/spectrum"
)

// SortMode selects how the merged file's samples are ordered after combine.
type SortMode int

const (
	// PreserveOrder keeps argv order: seed's records first, then each
	// subsequent input's clones appended in turn (§4.5 default).
	PreserveOrder SortMode = iota
	// SortByTime reorders by start_time with a stable tie-break, the
	// only other sort mode the CLI accepts.
	SortByTime
)

// Options configures one combine run.
type Options struct {
	Sort   SortMode
	SumAll bool
}

// Combine merges inputs (≥2) into a single SpecFile per §4.5: the first
// input is the seed, every later input's records are deep-cloned and
// appended, remarks/parse_warnings are set-unioned preserving the seed's
// insertion order, then cleanup_after_load runs with the requested sample
// ordering. If opts.SumAll is set the merged file is summed to one record
// (§4.2 step 5) after merging, mirroring the transform pipeline's own
// sum-all step rather than duplicating its math.
func Combine(inputs []*spectrum.SpecFile, opts Options) (*spectrum.SpecFile, error) {
	if len(inputs) < 2 {
		return nil, fmt.Errorf("combine requires at least 2 input files, got %d", len(inputs))
	}

	seed := *inputs[0]
	seed.Records = append([]*spectrum.Record(nil), inputs[0].Records...)
	seed.Remarks = append([]string(nil), inputs[0].Remarks...)
	seed.ParseWarnings = append([]spectrum.ParseWarning(nil), inputs[0].ParseWarnings...)

	seenRemarks := make(map[string]bool, len(seed.Remarks))
	for _, r := range seed.Remarks {
		seenRemarks[r] = true
	}
	seenWarnings := make(map[string]bool, len(seed.ParseWarnings))
	for _, w := range seed.ParseWarnings {
		seenWarnings[w.Message] = true
	}

	for _, in := range inputs[1:] {
		for _, r := range in.Records {
			seed.Records = append(seed.Records, r.Clone())
		}
		for _, rem := range in.Remarks {
			if !seenRemarks[rem] {
				seenRemarks[rem] = true
				seed.Remarks = append(seed.Remarks, rem)
			}
		}
		for _, w := range in.ParseWarnings {
			if !seenWarnings[w.Message] {
				seenWarnings[w.Message] = true
				seed.ParseWarnings = append(seed.ParseWarnings, w)
			}
		}
	}

	switch opts.Sort {
	case SortByTime:
		sort.SliceStable(seed.Records, func(i, j int) bool {
			a, b := seed.Records[i], seed.Records[j]
			if !a.HasTime && !b.HasTime {
				return false
			}
			if !a.HasTime {
				return false
			}
			if !b.HasTime {
				return true
			}
			return a.StartTime.Before(b.StartTime)
		})
		seed.CleanupAfterLoad(spectrum.ReorderSamplesByTime)
	default:
		seed.CleanupAfterLoad(spectrum.DontChangeOrReorderSamples)
	}
	seed.UUID = ""

	if opts.SumAll {
		samples := make(map[int]bool, len(seed.SampleNumbers))
		for _, s := range seed.SampleNumbers {
			samples[s] = true
		}
		detectors := make(map[string]bool, len(seed.DetectorNames))
		for _, d := range seed.DetectorNames {
			detectors[d] = true
		}
		summed, err := seed.SumMeasurements(samples, detectors)
		if err != nil {
			return nil, fmt.Errorf("combine sum-all: %w", err)
		}
		seed.Records = []*spectrum.Record{summed}
		seed.CleanupAfterLoad(spectrum.DontChangeOrReorderSamples)
		seed.UUID = ""
	}

	return &seed, nil
}
