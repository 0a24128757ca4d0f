package main

import (
	"os"
	"path/filepath"
	"testing"

	"specconv/pkg/codec"
	"specconv/pkg/spectrum"
)

func writeSampleTxt(t *testing.T, path string) {
	t.Helper()
	cal := &spectrum.EnergyCalibration{Model: spectrum.Polynomial, Coefficients: []float64{0, 10}, NumChannels: 4}
	spec := &spectrum.SpecFile{Records: []*spectrum.Record{
		{SampleNumber: 1, DetectorName: "Aa1", GammaCounts: []float64{1, 2, 3, 4}, EnergyCalibration: cal, SourceType: spectrum.SourceForeground},
	}}
	spec.CleanupAfterLoad(spectrum.StandardCleanup)
	w, ok := codec.WriterFor(codec.Txt)
	if !ok {
		t.Fatal("no txt writer")
	}
	data, err := w(spec, codec.Selection{})
	if err != nil {
		t.Fatalf("write sample: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestRunConvertSingleFileToTxt(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	writeSampleTxt(t, in)

	err := runConvert([]string{in}, out, cliFlags{formatName: "txt"})
	if err != nil {
		t.Fatalf("runConvert: %v", err)
	}
	if lastExitCode != 0 {
		t.Fatalf("expected exit code 0, got %v", lastExitCode)
	}
	if _, statErr := os.Stat(out); statErr != nil {
		t.Fatalf("expected output file to exist: %v", statErr)
	}
}

func TestRunConvertUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.bogus")
	writeSampleTxt(t, in)

	err := runConvert([]string{in}, out, cliFlags{formatName: "not-a-format"})
	if err == nil {
		t.Fatal("expected an error for an unrecognized format token")
	}
	ce, ok := asExitError(err)
	if !ok {
		t.Fatalf("expected an *exitError, got %T", err)
	}
	if ce.code.String() == "" {
		t.Fatal("expected a non-empty exit code description")
	}
}

func TestRunConvertMissingInput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")

	err := runConvert([]string{filepath.Join(dir, "nope.txt")}, out, cliFlags{formatName: "txt"})
	if err == nil {
		t.Fatal("expected an error for a missing input file")
	}
}

func TestRunConvertRecursiveMirrorsDirectoryTree(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "in", "nested")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	writeSampleTxt(t, filepath.Join(dir, "in", "top.txt"))
	writeSampleTxt(t, filepath.Join(nested, "top.txt"))

	outDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}

	err := runConvert([]string{filepath.Join(dir, "in")}, outDir, cliFlags{formatName: "txt", recursive: true, outputIsDir: true})
	if err != nil {
		t.Fatalf("runConvert: %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(outDir, "top.txt")); statErr != nil {
		t.Fatalf("expected top-level mirrored output: %v", statErr)
	}
	if _, statErr := os.Stat(filepath.Join(outDir, "nested", "top.txt")); statErr != nil {
		t.Fatalf("expected nested mirrored output, same basename as the top-level file: %v", statErr)
	}
}

func TestRunConvertCombineMultiSumsMultiRecordFileToOne(t *testing.T) {
	dir := t.TempDir()
	cal := &spectrum.EnergyCalibration{Model: spectrum.Polynomial, Coefficients: []float64{0, 10}, NumChannels: 4}
	spec := &spectrum.SpecFile{Records: []*spectrum.Record{
		{SampleNumber: 1, DetectorName: "Aa1", GammaCounts: []float64{1, 2, 3, 4}, EnergyCalibration: cal, SourceType: spectrum.SourceForeground},
		{SampleNumber: 2, DetectorName: "Ba1", GammaCounts: []float64{4, 3, 2, 1}, EnergyCalibration: cal, SourceType: spectrum.SourceForeground},
	}}
	spec.CleanupAfterLoad(spectrum.StandardCleanup)
	w, ok := codec.WriterFor(codec.N42_2012)
	if !ok {
		t.Fatal("no n42 writer")
	}
	data, err := w(spec, codec.Selection{})
	if err != nil {
		t.Fatalf("write sample n42: %v", err)
	}
	in := filepath.Join(dir, "c.n42")
	if err := os.WriteFile(in, data, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	outDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := runConvert([]string{in}, outDir, cliFlags{formatName: "chn", outputIsDir: true, combineMulti: true}); err != nil {
		t.Fatalf("runConvert: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(outDir, "c*.chn"))
	if len(matches) != 1 {
		t.Fatalf("expected exactly one summed .chn output, got %v", matches)
	}
}

func TestRunConvertCalpOutputWritesSidecar(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.calp")
	writeSampleTxt(t, in)

	if err := runConvert([]string{in}, out, cliFlags{calpOutput: true}); err != nil {
		t.Fatalf("runConvert: %v", err)
	}
	data, statErr := os.ReadFile(out)
	if statErr != nil {
		t.Fatalf("expected CALp sidecar to exist: %v", statErr)
	}
	if _, err := spectrum.ParseCALp(data); err != nil {
		t.Fatalf("expected a parseable CALp sidecar, got: %v", err)
	}
}

func TestRunConvertCollisionMarksExitCode(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	writeSampleTxt(t, in)
	if err := os.WriteFile(out, []byte("existing"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := runConvert([]string{in}, out, cliFlags{formatName: "txt"}); err != nil {
		t.Fatalf("runConvert: %v", err)
	}
	if lastExitCode == 0 {
		t.Fatal("expected a non-zero exit code when the output already exists")
	}
}
