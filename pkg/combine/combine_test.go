package combine

import (
	"testing"
	"time"

	"specconv/pkg/spectrum"
)

func cal() *spectrum.EnergyCalibration {
	return &spectrum.EnergyCalibration{Model: spectrum.Polynomial, Coefficients: []float64{0, 10}, NumChannels: 4}
}

func fileWith(sample int, det string, t time.Time, remark string) *spectrum.SpecFile {
	f := &spectrum.SpecFile{
		Remarks: []string{remark},
		Records: []*spectrum.Record{
			{SampleNumber: sample, DetectorName: det, GammaCounts: []float64{1, 2, 3, 4}, EnergyCalibration: cal(), SourceType: spectrum.SourceForeground, StartTime: t, HasTime: true},
		},
	}
	f.CleanupAfterLoad(spectrum.StandardCleanup)
	return f
}

func TestCombineRequiresAtLeastTwoInputs(t *testing.T) {
	f := fileWith(1, "Aa1", time.Unix(100, 0), "only one")
	if _, err := Combine([]*spectrum.SpecFile{f}, Options{}); err == nil {
		t.Fatal("expected an error combining a single input")
	}
}

func TestCombinePreservesArgvOrderByDefault(t *testing.T) {
	a := fileWith(1, "Aa1", time.Unix(200, 0), "from a")
	b := fileWith(1, "Ba1", time.Unix(100, 0), "from b")

	out, err := Combine([]*spectrum.SpecFile{a, b}, Options{Sort: PreserveOrder})
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if len(out.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out.Records))
	}
	if out.Records[0].DetectorName != "Aa1" || out.Records[1].DetectorName != "Ba1" {
		t.Fatalf("expected argv order preserved, got %s then %s", out.Records[0].DetectorName, out.Records[1].DetectorName)
	}
	if len(out.Remarks) != 2 {
		t.Fatalf("expected remarks union of size 2, got %v", out.Remarks)
	}
}

func TestCombineSortByTimeReordersRecords(t *testing.T) {
	a := fileWith(1, "Aa1", time.Unix(200, 0), "from a")
	b := fileWith(1, "Ba1", time.Unix(100, 0), "from b")

	out, err := Combine([]*spectrum.SpecFile{a, b}, Options{Sort: SortByTime})
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if out.Records[0].DetectorName != "Ba1" || out.Records[1].DetectorName != "Aa1" {
		t.Fatalf("expected time-sorted order Ba1 then Aa1, got %s then %s", out.Records[0].DetectorName, out.Records[1].DetectorName)
	}
}

func TestCombineDedupesDuplicateRemarks(t *testing.T) {
	a := fileWith(1, "Aa1", time.Unix(200, 0), "shared remark")
	b := fileWith(1, "Ba1", time.Unix(100, 0), "shared remark")

	out, err := Combine([]*spectrum.SpecFile{a, b}, Options{})
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if len(out.Remarks) != 1 {
		t.Fatalf("expected de-duplicated remark union, got %v", out.Remarks)
	}
}

func TestCombineSumAll(t *testing.T) {
	a := fileWith(1, "Aa1", time.Unix(200, 0), "from a")
	b := fileWith(2, "Aa1", time.Unix(100, 0), "from b")

	out, err := Combine([]*spectrum.SpecFile{a, b}, Options{SumAll: true})
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if len(out.Records) != 1 {
		t.Fatalf("expected sum-all to collapse to one record, got %d", len(out.Records))
	}
	if out.Records[0].SumGammaCounts() != 20 {
		t.Fatalf("expected summed total 20, got %v", out.Records[0].SumGammaCounts())
	}
}

func TestCombineClonesDoNotAliasOriginalInputs(t *testing.T) {
	a := fileWith(1, "Aa1", time.Unix(200, 0), "from a")
	b := fileWith(1, "Ba1", time.Unix(100, 0), "from b")

	out, err := Combine([]*spectrum.SpecFile{a, b}, Options{})
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	out.Records[1].GammaCounts[0] = 999
	if b.Records[0].GammaCounts[0] == 999 {
		t.Fatal("expected combine to clone records rather than alias the original input")
	}
}
