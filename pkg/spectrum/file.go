package spectrum

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// DetectorKind distinguishes the physical kind of detector a SpecFile's
// records were acquired from; orthogonal to the per-record gamma/neutron
// data actually present.
type DetectorKind int

const (
	DetectorUnknown DetectorKind = iota
	DetectorNaI
	DetectorHPGe
	DetectorCZT
	DetectorLaBr3
	DetectorHe3
	DetectorGM
)

// ParseWarningSeverity distinguishes informational notes from warnings.
type ParseWarningSeverity int

const (
	SeverityInfo ParseWarningSeverity = iota
	SeverityWarning
)

// ParseWarning is one note accumulated while parsing or transforming a file.
type ParseWarning struct {
	Severity ParseWarningSeverity
	Message  string
}

// DetectorAnalysis is carried through opaquely: its internal structure is a
// codec concern (N42 analysis-results blocks vary by vendor), not part of
// the core model.
type DetectorAnalysis struct {
	Present bool
	Raw     []byte
}

// SpecFile is the top-level container: a SpecFile's Records are the single
// source of truth; every other field below is either display metadata or a
// derived view that cleanup_after_load recomputes.
type SpecFile struct {
	Filename          string
	UUID              string
	Inspection        string
	LaneNumber        int
	LocationName      string
	InstrumentType    string
	Manufacturer      string
	InstrumentModel   string
	InstrumentID      string
	DetectorType      DetectorKind
	MeasurementOperator string
	Remarks           []string
	ParseWarnings     []ParseWarning
	DetectorAnalysis  DetectorAnalysis

	Records []*Record

	// Derived views, recomputed by cleanup_after_load.
	SampleNumbers        []int
	DetectorNames        []string
	DetectorNumbers      []int
	GammaDetectorNames   []string
	NeutronDetectorNames []string
	GammaChannelCounts   []int
	EnergyCalVariants    []string
}

// Infof appends an informational-severity note.
func (f *SpecFile) Infof(format string, args ...any) {
	f.ParseWarnings = append(f.ParseWarnings, ParseWarning{Severity: SeverityInfo, Message: fmt.Sprintf(format, args...)})
}

// Warnf appends a warning-severity note.
func (f *SpecFile) Warnf(format string, args ...any) {
	f.ParseWarnings = append(f.ParseWarnings, ParseWarning{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

// NewUUID assigns a fresh random (v4) identifier. The transform pipeline
// and the combine engine do not call it: after mutating a file they clear
// UUID to the empty string.
func (f *SpecFile) NewUUID() {
	f.UUID = uuid.NewString()
}

// recomputeDerivedViews rebuilds every derived view from Records. It does
// not touch SampleNumber values; callers that need renumbering do so first.
func (f *SpecFile) recomputeDerivedViews() {
	var sampleSet []int
	var detNames []string
	var gammaDet []string
	var neutronDet []string
	var channelCounts []int

	for _, r := range f.Records {
		sampleSet = append(sampleSet, r.SampleNumber)
		detNames = append(detNames, r.DetectorName)
		if r.HasGamma() {
			gammaDet = append(gammaDet, r.DetectorName)
			channelCounts = append(channelCounts, r.NumChannels())
		}
		if r.NeutronCounts != nil || r.NeutronPerTube != nil {
			neutronDet = append(neutronDet, r.DetectorName)
		}
	}

	f.SampleNumbers = lo.Uniq(sampleSet)
	f.DetectorNames = lo.Uniq(detNames)
	f.GammaDetectorNames = lo.Uniq(gammaDet)
	f.NeutronDetectorNames = lo.Uniq(neutronDet)
	f.GammaChannelCounts = lo.Uniq(channelCounts)

	f.DetectorNumbers = make([]int, len(f.DetectorNames))
	for i := range f.DetectorNames {
		f.DetectorNumbers[i] = i + 1
	}
	for _, r := range f.Records {
		r.DetectorNumber = f.DetectorNumberOf(r.DetectorName)
	}

	f.EnergyCalVariants = lo.Uniq(lo.FilterMap(f.Records, func(r *Record, _ int) (string, bool) {
		tag := calibrationVariantTag(r)
		return tag, tag != ""
	}))
}

// DetectorNumberOf returns the small integer assigned to name, or 0 if the
// name is not present. DetectorNumbers is a bijection with DetectorNames
// (invariant 2): renaming a detector preserves its number.
func (f *SpecFile) DetectorNumberOf(name string) int {
	idx := lo.IndexOf(f.DetectorNames, name)
	if idx < 0 {
		return 0
	}
	return f.DetectorNumbers[idx]
}

// calibrationVariantTag returns the named calibration variant the codec
// attached to a record (e.g. a vendor tagging one calibration "Lin" and
// another "3MeV"), carried in Record.CalibrationVariantTag.
// Transform step 1 reads this same tag to pick a variant.
func calibrationVariantTag(r *Record) string {
	return r.CalibrationVariantTag
}
