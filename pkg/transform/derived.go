package transform

import "specconv/pkg/spectrum"

// ApplyDerivedDataFilter implements §4.2 step 4. Setting both onlyDerived
// and noDerived is a fatal CLI error (validated by pkg/cliopts, not here);
// this function assumes at most one is set.
func ApplyDerivedDataFilter(f *spectrum.SpecFile, onlyDerived, noDerived bool) {
	switch {
	case onlyDerived:
		var keep []*spectrum.Record
		for _, r := range f.Records {
			if r.DerivedDataProperties != 0 {
				keep = append(keep, r)
			}
		}
		f.Records = keep
	case noDerived:
		var keep []*spectrum.Record
		for _, r := range f.Records {
			if r.DerivedDataProperties == 0 {
				keep = append(keep, r)
			}
		}
		f.Records = keep
	}
}
