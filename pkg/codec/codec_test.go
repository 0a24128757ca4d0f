package codec

import (
	"testing"

	"specconv/pkg/spectrum"
)

func sampleFile() *spectrum.SpecFile {
	cal := &spectrum.EnergyCalibration{Model: spectrum.Polynomial, Coefficients: []float64{0, 10}, NumChannels: 4}
	f := &spectrum.SpecFile{
		Filename: "sample",
		Records: []*spectrum.Record{
			{
				SampleNumber:      1,
				DetectorName:      "Aa1",
				Title:             "test spectrum",
				Remarks:           []string{"acquired in the lab"},
				RealTime:          10,
				LiveTime:          9,
				SourceType:        spectrum.SourceForeground,
				GammaCounts:       []float64{1, 2, 3, 4},
				EnergyCalibration: cal,
			},
		},
	}
	f.CleanupAfterLoad(spectrum.StandardCleanup)
	return f
}

func allSelection() Selection { return Selection{} }

func TestTxtRoundTrip(t *testing.T) {
	f := sampleFile()
	out, err := writeTxt(f, allSelection())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := parseTxt(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(back.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(back.Records))
	}
	if back.Records[0].DetectorName != "Aa1" || back.Records[0].SumGammaCounts() != 10 {
		t.Fatalf("round-trip mismatch: %+v", back.Records[0])
	}
}

func TestCsvRoundTrip(t *testing.T) {
	f := sampleFile()
	out, err := writeCsv(f, allSelection())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := parseCsv(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if back.Records[0].SumGammaCounts() != 10 {
		t.Fatalf("expected total counts 10, got %v", back.Records[0].SumGammaCounts())
	}
}

func TestPcfRoundTrip(t *testing.T) {
	f := sampleFile()
	out, err := writePcf(f, allSelection())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := parsePcf(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if back.Records[0].DetectorName != "Aa1" {
		t.Fatalf("detector name mismatch: %q", back.Records[0].DetectorName)
	}
	if back.Records[0].SumGammaCounts() != 10 {
		t.Fatalf("expected total 10, got %v", back.Records[0].SumGammaCounts())
	}
}

func TestChnRoundTripSingleRecordOnly(t *testing.T) {
	f := sampleFile()
	out, err := writeChn(f, allSelection())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := parseChn(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if back.Records[0].SumGammaCounts() != 10 {
		t.Fatalf("expected total 10, got %v", back.Records[0].SumGammaCounts())
	}

	f.Records = append(f.Records, &spectrum.Record{SampleNumber: 2, DetectorName: "Ba1", GammaCounts: []float64{1, 1}, EnergyCalibration: f.Records[0].EnergyCalibration})
	f.CleanupAfterLoad(spectrum.StandardCleanup)
	if _, err := writeChn(f, allSelection()); err == nil {
		t.Fatal("expected InvalidSelection error for multi-record input")
	}
}

func TestN42RoundTrip(t *testing.T) {
	f := sampleFile()
	out, err := writeN42_2012(f, allSelection())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := parseN42(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if back.Records[0].Title != "test spectrum" {
		t.Fatalf("expected title preserved, got %q", back.Records[0].Title)
	}
	if back.Records[0].SumGammaCounts() != 10 {
		t.Fatalf("expected total 10, got %v", back.Records[0].SumGammaCounts())
	}
}

func TestTkaRoundTrip(t *testing.T) {
	f := sampleFile()
	out, err := writeTka(f, allSelection())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := parseTka(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if back.Records[0].SumGammaCounts() != 10 {
		t.Fatalf("expected total 10, got %v", back.Records[0].SumGammaCounts())
	}
}

func TestSpeRoundTrip(t *testing.T) {
	f := sampleFile()
	out, err := writeSpe(f, allSelection())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := parseSpe(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if back.Records[0].Title != "test spectrum" {
		t.Fatalf("expected title preserved, got %q", back.Records[0].Title)
	}
}

func TestCalpSingleDetectorOmitsKey(t *testing.T) {
	f := sampleFile()
	out, err := WriteCALp(f, allSelection())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	blocks, err := spectrum.ParseCALp(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(blocks) != 1 || len(blocks[0].Coefficients) != 2 {
		t.Fatalf("expected one block with 2 coefficients, got %+v", blocks)
	}
}

func TestWriterForCalpIsRegistered(t *testing.T) {
	writer, ok := WriterFor(Calp)
	if !ok {
		t.Fatal("expected Calp to have a registered writer")
	}
	f := sampleFile()
	if _, err := writer(f, allSelection()); err != nil {
		t.Fatalf("write via registry: %v", err)
	}
}

func TestExploraniumRebinsToTargetChannels(t *testing.T) {
	f := sampleFile()
	out, err := writeExploraniumGr130(f, allSelection())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := parseExploranium(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if back.Records[0].NumChannels() != gr130Channels {
		t.Fatalf("expected %d channels, got %d", gr130Channels, back.Records[0].NumChannels())
	}
}

func TestUriChunking(t *testing.T) {
	f := sampleFile()
	out, err := WriteURIWithOptions(f, allSelection(), URIOptions{NumChunks: 3})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	chunkCount := 1
	for _, b := range out {
		if b == '\n' {
			chunkCount++
		}
	}
	if chunkCount != 3 {
		t.Fatalf("expected 3 chunks, got %d", chunkCount)
	}
}

func TestFormatFromName(t *testing.T) {
	f, ok := FormatFromName("chn")
	if !ok || f != Chn {
		t.Fatalf("expected chn to map to Chn, got %v/%v", f, ok)
	}
	if _, ok := FormatFromName("not-a-format"); ok {
		t.Fatal("expected unknown format token to fail")
	}
}

func TestSniffPrefersN42(t *testing.T) {
	f := sampleFile()
	out, err := writeN42_2012(f, allSelection())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	_, format, err := Sniff(out)
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if format != N42_2012 {
		t.Fatalf("expected N42_2012 sniffed, got %v", format)
	}
}
