package transform

import "specconv/pkg/spectrum"

// SourceTypeFilters holds the five independent source-type removal flags of
// §4.2 step 3. The CLI orchestrator sets them from its --no-* flags only;
// it has no *-only source-type options.
type SourceTypeFilters struct {
	NoBackground  bool
	NoForeground  bool
	NoIntrinsic   bool
	NoCalibration bool
	NoUnknown     bool
}

// ApplyFilters removes every record whose (possibly reinterpreted)
// source type matches a requested removal. A record with SourceUnknown is
// treated as SourceForeground for this filter only when the file's
// remaining sample count is exactly one (§4.2 step 3, §9).
func (o SourceTypeFilters) ApplyFilters(f *spectrum.SpecFile) {
	singleSample := len(f.SampleNumbers) == 1

	var keep []*spectrum.Record
	for _, r := range f.Records {
		effective := r.SourceType
		if effective == spectrum.SourceUnknown && singleSample {
			effective = spectrum.SourceForeground
		}
		if o.removes(effective) {
			continue
		}
		keep = append(keep, r)
	}
	f.Records = keep
}

func (o SourceTypeFilters) removes(t spectrum.SourceType) bool {
	switch t {
	case spectrum.SourceBackground:
		return o.NoBackground
	case spectrum.SourceForeground:
		return o.NoForeground
	case spectrum.SourceIntrinsicActivity:
		return o.NoIntrinsic
	case spectrum.SourceCalibration:
		return o.NoCalibration
	case spectrum.SourceUnknown:
		return o.NoUnknown
	default:
		return false
	}
}
