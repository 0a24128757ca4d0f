package spectrum

import (
	"testing"
	"time"
)

func linearCal(numChannels int, slope float64) *EnergyCalibration {
	return &EnergyCalibration{Model: Polynomial, Coefficients: []float64{0, slope}, NumChannels: numChannels}
}

func TestCalibrationValid(t *testing.T) {
	cal := linearCal(1024, 3.0)
	if !cal.Valid() {
		t.Fatal("expected valid calibration")
	}
	inv := &EnergyCalibration{Model: Invalid, NumChannels: 1024}
	if inv.Valid() {
		t.Fatal("expected invalid calibration to be invalid")
	}
	tooFew := linearCal(1, 3.0)
	if tooFew.Valid() {
		t.Fatal("expected sub-minimum channel count to be invalid")
	}
}

func TestCleanupAfterLoadBijection(t *testing.T) {
	f := &SpecFile{
		Records: []*Record{
			{SampleNumber: 2, DetectorName: "Aa1"},
			{SampleNumber: 1, DetectorName: "Ba1"},
			{SampleNumber: 1, DetectorName: "Aa1"},
		},
	}
	f.CleanupAfterLoad(DontChangeOrReorderSamples)

	if len(f.DetectorNames) != len(f.DetectorNumbers) {
		t.Fatalf("detector names/numbers length mismatch: %d vs %d", len(f.DetectorNames), len(f.DetectorNumbers))
	}
	seen := map[int]bool{}
	for _, n := range f.DetectorNumbers {
		if seen[n] {
			t.Fatalf("detector number %d not injective", n)
		}
		seen[n] = true
	}
}

func TestRenumberSamplesByTime(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &SpecFile{
		Records: []*Record{
			{SampleNumber: 5, DetectorName: "A", StartTime: base.Add(2 * time.Second), HasTime: true},
			{SampleNumber: 3, DetectorName: "A", StartTime: base, HasTime: true},
			{SampleNumber: 3, DetectorName: "B", StartTime: base, HasTime: true},
		},
	}
	f.CleanupAfterLoad(ReorderSamplesByTime)

	bySample := map[int][]string{}
	for _, r := range f.Records {
		bySample[r.SampleNumber] = append(bySample[r.SampleNumber], r.DetectorName)
	}
	if len(bySample[1]) != 2 {
		t.Fatalf("expected earliest group renumbered to sample 1 with 2 records, got %v", bySample)
	}
	if len(bySample[2]) != 1 {
		t.Fatalf("expected later group renumbered to sample 2, got %v", bySample)
	}
}

func TestSumMeasurementsTimeAndCounts(t *testing.T) {
	cal := linearCal(4, 10.0)
	contributors := []*Record{
		{SampleNumber: 1, DetectorName: "A", GammaCounts: []float64{1, 2, 3, 4}, EnergyCalibration: cal, RealTime: 10, LiveTime: 9, SourceType: SourceForeground},
		{SampleNumber: 1, DetectorName: "B", GammaCounts: []float64{10, 20, 30, 40}, EnergyCalibration: cal, RealTime: 5, LiveTime: 4, SourceType: SourceForeground},
	}
	f := &SpecFile{Records: contributors}
	f.CleanupAfterLoad(DontChangeOrReorderSamples)

	sum, err := f.SumMeasurements(map[int]bool{1: true}, map[string]bool{"A": true, "B": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.RealTime != 15 || sum.LiveTime != 13 {
		t.Fatalf("expected real/live time sums 15/13, got %v/%v", sum.RealTime, sum.LiveTime)
	}
	wantCounts := []float64{11, 22, 33, 44}
	for i, w := range wantCounts {
		if sum.GammaCounts[i] != w {
			t.Fatalf("channel %d: got %v want %v", i, sum.GammaCounts[i], w)
		}
	}
	if len(sum.GammaCounts) != len(contributors[0].GammaCounts) {
		t.Fatalf("summed channel count should match contributor channel count")
	}
}

func TestSumMeasurementsIncompatibleCalibration(t *testing.T) {
	f := &SpecFile{Records: []*Record{
		{SampleNumber: 1, DetectorName: "A", GammaCounts: []float64{1, 2}},
	}}
	_, err := f.SumMeasurements(map[int]bool{1: true}, map[string]bool{"A": true})
	if err == nil {
		t.Fatal("expected IncompatibleCalibration error")
	}
}

func TestChangeDetectorName(t *testing.T) {
	f := &SpecFile{Records: []*Record{{SampleNumber: 1, DetectorName: "A1"}}}
	f.CleanupAfterLoad(DontChangeOrReorderSamples)

	if err := f.ChangeDetectorName("A1", "Aa1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Records[0].DetectorName != "Aa1" {
		t.Fatalf("expected rename to take effect, got %q", f.Records[0].DetectorName)
	}
	if err := f.ChangeDetectorName("missing", "x"); err == nil {
		t.Fatal("expected UnknownDetector error")
	}

	f.Records = append(f.Records, &Record{SampleNumber: 2, DetectorName: "Ba1"})
	f.CleanupAfterLoad(DontChangeOrReorderSamples)
	if err := f.ChangeDetectorName("Aa1", "Ba1"); err == nil {
		t.Fatal("expected NameConflict error")
	}
}

func TestCombineGammaChannelsPreservesTotal(t *testing.T) {
	f := &SpecFile{Records: []*Record{
		{SampleNumber: 1, DetectorName: "A", GammaCounts: []float64{1, 2, 3, 4, 5, 6, 7, 8}, EnergyCalibration: linearCal(8, 1.0)},
	}}
	before := f.Records[0].SumGammaCounts()

	if err := f.CombineGammaChannels(2, 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := f.Records[0]
	if r.NumChannels() != 4 {
		t.Fatalf("expected 4 channels after combine, got %d", r.NumChannels())
	}
	if r.SumGammaCounts() != before {
		t.Fatalf("total counts not preserved: before %v after %v", before, r.SumGammaCounts())
	}
}

func TestCombineGammaChannelsIndivisible(t *testing.T) {
	f := &SpecFile{Records: []*Record{
		{SampleNumber: 1, DetectorName: "A", GammaCounts: []float64{1, 2, 3}, EnergyCalibration: linearCal(3, 1.0)},
	}}
	if err := f.CombineGammaChannels(2, 3); err == nil {
		t.Fatal("expected IndivisibleCount error")
	}
}

func TestTruncateGammaChannelsNoOp(t *testing.T) {
	f := &SpecFile{Records: []*Record{
		{SampleNumber: 1, DetectorName: "A", GammaCounts: []float64{1, 2, 3, 4}, EnergyCalibration: linearCal(4, 1.0)},
	}}
	f.TruncateGammaChannels(0, 3, 4, true)
	if f.Records[0].NumChannels() != 4 {
		t.Fatalf("truncate(0,N-1) should be a no-op, got %d channels", f.Records[0].NumChannels())
	}
}

func TestRebinMeasurementPreservesTotal(t *testing.T) {
	r := &Record{GammaCounts: []float64{10, 20, 30, 40}, EnergyCalibration: linearCal(4, 100.0)}
	newCal := linearCal(2, 200.0)
	out, err := RebinMeasurement(newCal, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var total float64
	for _, c := range out {
		total += c
	}
	if total < 99.9 || total > 100.1 {
		t.Fatalf("expected counts roughly preserved, got total %v", total)
	}
}

func TestConvertModelPolynomialFullRangeFractionRoundTrip(t *testing.T) {
	cal := &EnergyCalibration{Model: Polynomial, Coefficients: []float64{1, 2, 0.5}, NumChannels: 100}

	frf, err := cal.ConvertModel(FullRangeFraction)
	if err != nil {
		t.Fatalf("convert to FullRangeFraction: %v", err)
	}
	if frf.Model != FullRangeFraction {
		t.Fatalf("expected FullRangeFraction, got %v", frf.Model)
	}
	for _, ch := range []float64{0, 10, 50, 100} {
		if got, want := frf.Energy(ch), cal.Energy(ch); got < want-1e-6 || got > want+1e-6 {
			t.Fatalf("energy mismatch at channel %v: got %v want %v", ch, got, want)
		}
	}

	back, err := frf.ConvertModel(Polynomial)
	if err != nil {
		t.Fatalf("convert back to Polynomial: %v", err)
	}
	for i, c := range back.Coefficients {
		if c < cal.Coefficients[i]-1e-6 || c > cal.Coefficients[i]+1e-6 {
			t.Fatalf("round-tripped coefficient %d: got %v want %v", i, c, cal.Coefficients[i])
		}
	}
}

func TestConvertModelToLowerChannelEdgeExact(t *testing.T) {
	cal := linearCal(4, 10.0)
	edge, err := cal.ConvertModel(LowerChannelEdge)
	if err != nil {
		t.Fatalf("convert to LowerChannelEdge: %v", err)
	}
	for ch := 0; ch < 4; ch++ {
		if got, want := edge.Energy(float64(ch)), cal.Energy(float64(ch)); got != want {
			t.Fatalf("channel %d: got %v want %v", ch, got, want)
		}
	}
}

func TestConvertModelFromLowerChannelEdgeUnsupported(t *testing.T) {
	cal := &EnergyCalibration{Model: LowerChannelEdge, Coefficients: []float64{0, 10, 20, 30}, NumChannels: 4}
	if _, err := cal.ConvertModel(Polynomial); err == nil {
		t.Fatal("expected an error converting LowerChannelEdge into a parametric model")
	}
}
