package transform

import "specconv/pkg/spectrum"

// ApplyRenames implements §4.2 step 6: user-supplied from=>to mappings,
// case-sensitive on from. Unknown names warn rather than error; a name
// conflict skips that one rename with a warning.
func ApplyRenames(f *spectrum.SpecFile, renames map[string]string) {
	for from, to := range renames {
		if err := f.ChangeDetectorName(from, to); err != nil {
			f.Warnf("rename %q to %q: %v", from, to, err)
		}
	}
}
