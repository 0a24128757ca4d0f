package spectrum

import (
	"fmt"

	"github.com/samber/lo"
)

// SumMeasurements takes a set of sample numbers and a set of detector names
// and produces a single new Record summing their contributions, per spec
// §4.1. Contributors are every record whose (SampleNumber, DetectorName)
// matches the selection; real/live time, neutron counts, start time and
// source-type are aggregated over all of them, while the gamma histogram is
// aggregated only over the subset with a valid gamma calibration, rebinned
// onto the widest-range contributor's calibration first when calibrations
// differ.
func (f *SpecFile) SumMeasurements(samples map[int]bool, detectors map[string]bool) (*Record, error) {
	var contributors []*Record
	for _, r := range f.Records {
		if samples[r.SampleNumber] && detectors[r.DetectorName] {
			contributors = append(contributors, r)
		}
	}
	if len(contributors) == 0 {
		return nil, ErrEmptySelection
	}

	gammaContributors := lo.Filter(contributors, func(r *Record, _ int) bool {
		return r.HasValidGammaCalibration()
	})
	if len(gammaContributors) == 0 {
		return nil, ErrIncompatibleCalibration
	}

	target := widestRangeCalibration(gammaContributors)
	sum := make([]float64, target.EnergyCalibration.NumChannels)
	for _, gc := range gammaContributors {
		counts := gc.GammaCounts
		if !sameCalibration(gc.EnergyCalibration, target.EnergyCalibration) {
			resampled, err := RebinMeasurement(target.EnergyCalibration, gc)
			if err != nil {
				return nil, fmt.Errorf("sum measurements: %w", err)
			}
			counts = resampled
		}
		for i, c := range counts {
			if i < len(sum) {
				sum[i] += c
			}
		}
	}

	out := &Record{
		SampleNumber:      lo.Min(lo.Map(contributors, func(r *Record, _ int) int { return r.SampleNumber })),
		DetectorName:      "summed",
		GammaCounts:       sum,
		EnergyCalibration: target.EnergyCalibration,
	}

	var minTime int64
	hasTime := false
	var neutronTotal float64
	hasNeutron := false
	for _, c := range contributors {
		out.RealTime += c.RealTime
		out.LiveTime += c.LiveTime
		if c.NeutronCounts != nil {
			neutronTotal += *c.NeutronCounts
			hasNeutron = true
		}
		if c.HasTime {
			t := c.StartTime.UnixNano()
			if !hasTime || t < minTime {
				minTime = t
				hasTime = true
				out.StartTime = c.StartTime
			}
		}
	}
	out.HasTime = hasTime
	if hasNeutron {
		out.NeutronCounts = &neutronTotal
	}
	out.SourceType = aggregateSourceType(contributors)

	return out, nil
}

// widestRangeCalibration returns the contributor whose calibration spans the
// largest energy range, used as the common target for rebin-before-sum.
func widestRangeCalibration(records []*Record) *Record {
	var best *Record
	var bestSpan float64
	for _, r := range records {
		cal := r.EnergyCalibration
		span := cal.Energy(float64(cal.NumChannels)) - cal.Energy(0)
		if best == nil || span > bestSpan {
			best, bestSpan = r, span
		}
	}
	return best
}

func sameCalibration(a, b *EnergyCalibration) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	fa, err1 := calibrationFingerprint(a)
	fb, err2 := calibrationFingerprint(b)
	return err1 == nil && err2 == nil && fa == fb
}

// aggregateSourceType implements spec §4.1's sum_measurements source-type
// rule: Background iff every contributor is Background, or Unknown while
// not Occupied; otherwise Unknown unless every contributor agrees.
func aggregateSourceType(contributors []*Record) SourceType {
	allBackgroundish := true
	allSame := true
	first := contributors[0].SourceType
	for _, c := range contributors {
		if c.SourceType != SourceBackground && !(c.SourceType == SourceUnknown && c.Occupancy != OccupancyOccupied) {
			allBackgroundish = false
		}
		if c.SourceType != first {
			allSame = false
		}
	}
	if allBackgroundish {
		return SourceBackground
	}
	if allSame {
		return first
	}
	return SourceUnknown
}

// ChangeDetectorName renames a detector across every record and derived
// view. Fails with ErrUnknownDetector if from is absent, ErrNameConflict if
// to already names a different detector.
func (f *SpecFile) ChangeDetectorName(from, to string) error {
	if !lo.Contains(f.DetectorNames, from) {
		return fmt.Errorf("rename %q to %q: %w", from, to, ErrUnknownDetector)
	}
	if to != from && lo.Contains(f.DetectorNames, to) {
		return fmt.Errorf("rename %q to %q: %w", from, to, ErrNameConflict)
	}
	for _, r := range f.Records {
		if r.DetectorName == from {
			r.DetectorName = to
		}
	}
	f.recomputeDerivedViews()
	return nil
}

// RemoveMeasurement removes a single record by identity. The caller is
// responsible for a subsequent CleanupAfterLoad.
func (f *SpecFile) RemoveMeasurement(rec *Record) {
	f.Records = lo.Reject(f.Records, func(r *Record, _ int) bool { return r == rec })
}

// RemoveMeasurements removes a list of records by identity. The caller is
// responsible for a subsequent CleanupAfterLoad.
func (f *SpecFile) RemoveMeasurements(recs []*Record) {
	toRemove := make(map[*Record]bool, len(recs))
	for _, r := range recs {
		toRemove[r] = true
	}
	f.Records = lo.Reject(f.Records, func(r *Record, _ int) bool { return toRemove[r] })
}

// CombineGammaChannels implements §4.1's combine_gamma_channels: for every
// record whose channel count equals targetChannelCount, replaces the
// histogram with one of targetChannelCount/factor channels, summing factor
// adjacent input channels into each output channel, and rescales the energy
// calibration accordingly.
func (f *SpecFile) CombineGammaChannels(factor, targetChannelCount int) error {
	if factor <= 0 || targetChannelCount%factor != 0 {
		return fmt.Errorf("combine gamma channels factor=%d target=%d: %w", factor, targetChannelCount, ErrIndivisibleCount)
	}
	newCount := targetChannelCount / factor
	for _, r := range f.Records {
		if r.NumChannels() != targetChannelCount {
			continue
		}
		combined := make([]float64, newCount)
		for k := 0; k < newCount; k++ {
			var s float64
			for j := 0; j < factor; j++ {
				s += r.GammaCounts[factor*k+j]
			}
			combined[k] = s
		}
		r.GammaCounts = combined
		if r.EnergyCalibration != nil {
			r.EnergyCalibration = rescaleCalibration(r.EnergyCalibration, factor, newCount)
		}
	}
	return nil
}

// rescaleCalibration produces the calibration for a channel-combined
// histogram: Energy_new(c) == Energy_old(factor*c).
func rescaleCalibration(c *EnergyCalibration, factor, newCount int) *EnergyCalibration {
	switch c.Model {
	case Polynomial:
		coeffs := make([]float64, len(c.Coefficients))
		p := 1.0
		for i, co := range c.Coefficients {
			coeffs[i] = co * p
			p *= float64(factor)
		}
		return &EnergyCalibration{Model: Polynomial, Coefficients: coeffs, NumChannels: newCount, DeviationPairs: c.DeviationPairs}
	case FullRangeFraction:
		return &EnergyCalibration{Model: FullRangeFraction, Coefficients: append([]float64(nil), c.Coefficients...), NumChannels: newCount, DeviationPairs: c.DeviationPairs}
	case LowerChannelEdge:
		edges := make([]float64, newCount)
		for k := 0; k < newCount; k++ {
			idx := factor * k
			if idx < len(c.Coefficients) {
				edges[k] = c.Coefficients[idx]
			}
		}
		return &EnergyCalibration{Model: LowerChannelEdge, Coefficients: edges, NumChannels: newCount}
	default:
		return c
	}
}

// TruncateGammaChannels implements §4.1's truncate_gamma_channels: restricts
// every record whose channel count equals targetChannelCount to [first,
// last] inclusive, either preserving the original energy mapping for the
// retained channels or renumbering them from zero.
func (f *SpecFile) TruncateGammaChannels(first, last, targetChannelCount int, keepOriginalRangeInCal bool) {
	newCount := last - first + 1
	for _, r := range f.Records {
		if r.NumChannels() != targetChannelCount {
			continue
		}
		truncated := append([]float64(nil), r.GammaCounts[first:last+1]...)
		r.GammaCounts = truncated
		if r.EnergyCalibration == nil {
			continue
		}
		if keepOriginalRangeInCal {
			edges := make([]float64, newCount)
			for i := 0; i < newCount; i++ {
				edges[i] = r.EnergyCalibration.Energy(float64(i + first))
			}
			r.EnergyCalibration = &EnergyCalibration{Model: LowerChannelEdge, Coefficients: edges, NumChannels: newCount}
		} else {
			rescaled := *r.EnergyCalibration
			rescaled.NumChannels = newCount
			r.EnergyCalibration = &rescaled
		}
	}
}

// RebinMeasurement resamples record's histogram onto newCal using
// counts-preserving linear interpolation between channel edges (§4.1).
func RebinMeasurement(newCal *EnergyCalibration, record *Record) ([]float64, error) {
	if !record.HasGamma() || record.EnergyCalibration == nil {
		return nil, ErrNoGammaData
	}
	oldCal := record.EnergyCalibration
	n := record.NumChannels()
	m := newCal.NumChannels

	oldEdges := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		oldEdges[i] = oldCal.Energy(float64(i))
	}
	newEdges := make([]float64, m+1)
	for i := 0; i <= m; i++ {
		newEdges[i] = newCal.Energy(float64(i))
	}

	out := make([]float64, m)
	j := 0
	for i := 0; i < m; i++ {
		binLo, binHi := newEdges[i], newEdges[i+1]
		for j < n && oldEdges[j+1] <= binLo {
			j++
		}
		k := j
		for k < n && oldEdges[k] < binHi {
			overlapLo := maxF(binLo, oldEdges[k])
			overlapHi := minF(binHi, oldEdges[k+1])
			if overlapHi > overlapLo {
				width := oldEdges[k+1] - oldEdges[k]
				if width > 0 {
					density := record.GammaCounts[k] / width
					out[i] += density * (overlapHi - overlapLo)
				}
			}
			if oldEdges[k+1] >= binHi {
				break
			}
			k++
		}
	}
	return out, nil
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
