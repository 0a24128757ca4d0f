package output

import (
	"os"
	"testing"

	"specconv/pkg/codec"
	"specconv/pkg/spectrum"
)

func twoRecordFile() *spectrum.SpecFile {
	cal := &spectrum.EnergyCalibration{Model: spectrum.Polynomial, Coefficients: []float64{0, 10}, NumChannels: 4}
	f := &spectrum.SpecFile{Records: []*spectrum.Record{
		{SampleNumber: 1, DetectorName: "Aa1", GammaCounts: []float64{1, 2, 3, 4}, EnergyCalibration: cal, SourceType: spectrum.SourceForeground},
		{SampleNumber: 2, DetectorName: "Ba1", GammaCounts: []float64{4, 3, 2, 1}, EnergyCalibration: cal, SourceType: spectrum.SourceForeground},
	}}
	f.CleanupAfterLoad(spectrum.StandardCleanup)
	return f
}

func TestPlanEachSeparateToDirectory(t *testing.T) {
	f := twoRecordFile()
	tasks, err := Plan(f, PlanOptions{Format: codec.Chn, InputPath: "c.n42", OutputArg: "out_dir", OutputIsDir: true, Policy: EachSeparate})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Path != "out_dir/c_0000.chn" || tasks[1].Path != "out_dir/c_0001.chn" {
		t.Fatalf("unexpected paths: %q %q", tasks[0].Path, tasks[1].Path)
	}
	for _, task := range tasks {
		if len(task.Spec.Records) != 1 {
			t.Fatalf("expected exactly one record per each-separate task, got %d", len(task.Spec.Records))
		}
	}
}

func TestPlanSumToOneToDirectory(t *testing.T) {
	f := twoRecordFile()
	tasks, err := Plan(f, PlanOptions{Format: codec.Chn, InputPath: "c.n42", OutputArg: "out_dir", OutputIsDir: true, Policy: SumToOne})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Path != "out_dir/c.chn" {
		t.Fatalf("unexpected path: %q", tasks[0].Path)
	}
	if tasks[0].Spec.Records[0].SumGammaCounts() != 20 {
		t.Fatalf("expected summed total 20, got %v", tasks[0].Spec.Records[0].SumGammaCounts())
	}
}

func TestPlanMultiRecordFormatOneFile(t *testing.T) {
	f := twoRecordFile()
	tasks, err := Plan(f, PlanOptions{Format: codec.N42_2012, InputPath: "c.n42", OutputArg: "out_dir", OutputIsDir: true})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Path != "out_dir/c.n42" {
		t.Fatalf("expected a single combined output, got %+v", tasks)
	}
	if len(tasks[0].Spec.Records) != 2 {
		t.Fatalf("expected both records preserved in multi-record output, got %d", len(tasks[0].Spec.Records))
	}
}

func TestPlanEachSeparateRequiresDirectoryTarget(t *testing.T) {
	f := twoRecordFile()
	_, err := Plan(f, PlanOptions{Format: codec.Chn, InputPath: "c.n42", OutputArg: "out.chn", OutputIsDir: false, Policy: EachSeparate})
	if err == nil {
		t.Fatal("expected an error for each-separate with a file target and multiple records")
	}
}

func TestWritableCollision(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/exists.txt"
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	ok, err := Writable(path, false)
	if err != nil {
		t.Fatalf("writable: %v", err)
	}
	if ok {
		t.Fatal("expected collision to report not writable")
	}
	ok, err = Writable(path, true)
	if err != nil {
		t.Fatalf("writable: %v", err)
	}
	if !ok {
		t.Fatal("expected force overwrite to report writable")
	}
}
