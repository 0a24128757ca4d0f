package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"specconv/pkg/codec"
	"specconv/pkg/spectrum"
	"specconv/pkg/transform"
)

func sampleSpecFile() *spectrum.SpecFile {
	cal := &spectrum.EnergyCalibration{Model: spectrum.Polynomial, Coefficients: []float64{0, 10}, NumChannels: 4}
	f := &spectrum.SpecFile{Records: []*spectrum.Record{
		{SampleNumber: 1, DetectorName: "Aa1", GammaCounts: []float64{1, 2, 3, 4}, EnergyCalibration: cal, SourceType: spectrum.SourceForeground},
	}}
	f.CleanupAfterLoad(spectrum.StandardCleanup)
	return f
}

func sampleTxt() []byte {
	spec := sampleSpecFile()
	w, ok := codec.WriterFor(codec.Txt)
	if !ok {
		panic("no txt writer")
	}
	data, err := w(spec, codec.Selection{})
	if err != nil {
		panic(err)
	}
	return data
}

func TestDriverProcessOneParsesAndTransforms(t *testing.T) {
	d := &Driver{Log: Logger(false, &bytes.Buffer{}), Format: codec.Txt}
	result := d.ProcessOne("in.txt", sampleTxt(), transform.Options{})
	if result.Kind != Parsed {
		t.Fatalf("expected Parsed, got %v (%v)", result.Kind, result.Err)
	}
	if len(result.Spec.Records) == 0 {
		t.Fatal("expected at least one record after processing")
	}
}

func TestDriverProcessOneReportsParseFailure(t *testing.T) {
	d := &Driver{Log: Logger(false, &bytes.Buffer{}), Format: codec.Chn}
	result := d.ProcessOne("bad.chn", []byte("not a chn file"), transform.Options{})
	if result.Kind != ParseFailed {
		t.Fatalf("expected ParseFailed, got %v", result.Kind)
	}
	if result.Err == nil {
		t.Fatal("expected a non-nil error on the result")
	}
}

func TestSummarizeDetectsParseFailures(t *testing.T) {
	results := []FileResult{
		{Path: "a", Kind: Parsed},
		{Path: "b", Kind: ParseFailed},
	}
	parseFail, writeFail := Summarize(results)
	if !parseFail {
		t.Fatal("expected a parse failure to be detected")
	}
	if writeFail {
		t.Fatal("did not expect a write failure")
	}
}

func TestDiscoverSkipsOversizedFiles(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "small.txt")
	if err := os.WriteFile(small, []byte("hi"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "also.txt"), []byte("hi2"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	candidates, skipped, err := Discover(dir)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if len(skipped) != 0 {
		t.Fatalf("expected no skipped files, got %d", len(skipped))
	}
}

func TestMirrorPathPreservesRelativeDirectory(t *testing.T) {
	c := Candidate{AbsPath: "/in/nested/file.chn", RelPath: "nested/file.chn"}
	got := MirrorPath("/out", c, "txt")
	want := filepath.Join("/out", "nested", "file.txt")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
