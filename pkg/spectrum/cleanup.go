package spectrum

import "sort"

// CleanupFlag selects how cleanup_after_load treats sample numbering.
type CleanupFlag int

const (
	// StandardCleanup recomputes derived views, renumbers samples 1..N in
	// start-time order, and deduplicates identical energy calibrations.
	StandardCleanup CleanupFlag = iota
	// DontChangeOrReorderSamples recomputes derived views only.
	DontChangeOrReorderSamples
	// ReorderSamplesByTime renumbers by start time ascending, ties broken
	// by original order.
	ReorderSamplesByTime
)

// CleanupAfterLoad is the single idempotent synchronization point every
// mutating operation either calls itself or documents the caller's
// obligation to call. After it returns, the invariants of spec §3 hold.
func (f *SpecFile) CleanupAfterLoad(flag CleanupFlag) {
	switch flag {
	case StandardCleanup, ReorderSamplesByTime:
		f.renumberSamplesByTime()
	case DontChangeOrReorderSamples:
		// leave SampleNumber values untouched
	}

	f.recomputeDerivedViews()

	if flag == StandardCleanup {
		f.dedupeCalibrations()
	}
}

// renumberSamplesByTime assigns SampleNumber = 1..N by ascending StartTime,
// stable on ties / missing time, preserving each sample-number group's
// relative order (records sharing a sample number move together).
func (f *SpecFile) renumberSamplesByTime() {
	if len(f.Records) == 0 {
		return
	}

	type group struct {
		old     int
		minTime int64
		hasTime bool
		order   int
	}

	seen := map[int]*group{}
	var order []int
	for i, r := range f.Records {
		g, ok := seen[r.SampleNumber]
		if !ok {
			g = &group{old: r.SampleNumber, order: i, hasTime: false}
			seen[r.SampleNumber] = g
			order = append(order, r.SampleNumber)
		}
		if r.HasTime {
			t := r.StartTime.UnixNano()
			if !g.hasTime || t < g.minTime {
				g.minTime = t
				g.hasTime = true
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		gi, gj := seen[order[i]], seen[order[j]]
		switch {
		case gi.hasTime && gj.hasTime:
			return gi.minTime < gj.minTime
		case gi.hasTime != gj.hasTime:
			return gi.hasTime
		default:
			return gi.order < gj.order
		}
	})

	remap := make(map[int]int, len(order))
	for newNum, old := range order {
		remap[old] = newNum + 1
	}
	for _, r := range f.Records {
		r.SampleNumber = remap[r.SampleNumber]
	}
}

// dedupeCalibrations collapses structurally-identical EnergyCalibration
// instances onto one shared handle, using a content fingerprint rather than
// an O(n^2) equality scan.
func (f *SpecFile) dedupeCalibrations() {
	byFingerprint := map[string]*EnergyCalibration{}
	for _, r := range f.Records {
		if r.EnergyCalibration == nil {
			continue
		}
		fp, err := calibrationFingerprint(r.EnergyCalibration)
		if err != nil {
			continue
		}
		if canonical, ok := byFingerprint[fp]; ok {
			r.EnergyCalibration = canonical
		} else {
			byFingerprint[fp] = r.EnergyCalibration
		}
	}
}
