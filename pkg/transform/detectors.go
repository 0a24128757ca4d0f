package transform

import (
	"github.com/samber/lo"

	"specconv/pkg/spectrum"
)

// FilterDetectors implements §4.2 step 2: the exclusion list is applied
// first, then the inclusion list restricts to what remains. Unknown names
// warn rather than error. Returns true if the resulting detector set is
// empty, signaling the caller to skip this file.
func FilterDetectors(f *spectrum.SpecFile, exclude, include []string) (skip bool) {
	for _, name := range exclude {
		if !lo.Contains(f.DetectorNames, name) {
			f.Warnf("exclude-detector: unknown detector %q", name)
		}
	}
	for _, name := range include {
		if !lo.Contains(f.DetectorNames, name) {
			f.Warnf("include-detector: unknown detector %q", name)
		}
	}

	kept := f.DetectorNames
	if len(exclude) > 0 {
		kept = lo.Without(kept, exclude...)
	}
	if len(include) > 0 {
		kept = lo.Intersect(kept, include)
	}

	keptSet := lo.SliceToMap(kept, func(n string) (string, bool) { return n, true })
	f.Records = lo.Filter(f.Records, func(r *spectrum.Record, _ int) bool { return keptSet[r.DetectorName] })

	if len(f.Records) == 0 {
		f.Warnf("detector inclusion/exclusion left no records")
		return true
	}
	return false
}
