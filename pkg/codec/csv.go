package codec

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"specconv/pkg/spectrum"
)

// writeCsv implements the Csv variant: channel lower-edge-energy/count
// pairs, one record per section, metadata beyond sample/detector lost
// (§4.6).
func writeCsv(spec *spectrum.SpecFile, sel Selection) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, r := range selectedRecords(spec, sel) {
		if err := w.Write([]string{"#record", strconv.Itoa(r.SampleNumber), r.DetectorName}); err != nil {
			return nil, newWriteError(Csv, err)
		}
		for ch, count := range r.GammaCounts {
			energy := 0.0
			if r.EnergyCalibration != nil {
				energy = r.EnergyCalibration.Energy(float64(ch))
			}
			if err := w.Write([]string{strconv.FormatFloat(energy, 'g', -1, 64), strconv.FormatFloat(count, 'g', -1, 64)}); err != nil {
				return nil, newWriteError(Csv, err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, newWriteError(Csv, err)
	}
	return buf.Bytes(), nil
}

// parseCsv reads the Csv variant back, reconstructing a crude
// LowerChannelEdge calibration from the stored energies since channel
// widths/model are not recoverable from edge/count pairs alone.
func parseCsv(data []byte) (*spectrum.SpecFile, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, newParseError(Csv, err)
	}

	var records []*spectrum.Record
	var cur *spectrum.Record
	var edges []float64
	flush := func() {
		if cur == nil {
			return
		}
		cur.EnergyCalibration = &spectrum.EnergyCalibration{
			Model:        spectrum.LowerChannelEdge,
			Coefficients: edges,
			NumChannels:  len(edges),
		}
		records = append(records, cur)
	}
	for _, row := range rows {
		if len(row) >= 2 && row[0] == "#record" {
			flush()
			sample, _ := strconv.Atoi(row[1])
			detector := ""
			if len(row) >= 3 {
				detector = row[2]
			}
			cur = &spectrum.Record{SampleNumber: sample, DetectorName: detector}
			edges = nil
			continue
		}
		if cur == nil || len(row) < 2 {
			continue
		}
		energy, err1 := strconv.ParseFloat(row[0], 64)
		count, err2 := strconv.ParseFloat(row[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		edges = append(edges, energy)
		cur.GammaCounts = append(cur.GammaCounts, count)
	}
	flush()

	if len(records) == 0 {
		return nil, newParseError(Csv, fmt.Errorf("no #record sections found"))
	}
	f := &spectrum.SpecFile{Records: records}
	f.CleanupAfterLoad(spectrum.StandardCleanup)
	return f, nil
}
