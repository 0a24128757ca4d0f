package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"specconv/pkg/spectrum"
)

// writeTxt implements the Txt variant: a human-readable, multi-record text
// format with one labeled line per field instead of fixed `$TAG:` keys,
// using the same section-scanning shape as the SPE writer. Per record it
// writes title, sample, detector, source type, start time, real/live time,
// remarks, GPS, calibration (model, channel count, coefficients), channel
// counts and the neutron total; file-level metadata, deviation pairs and
// per-tube neutron counts are not written.
func writeTxt(spec *spectrum.SpecFile, sel Selection) ([]byte, error) {
	var buf bytes.Buffer
	records := selectedRecords(spec, sel)
	for i, r := range records {
		if i > 0 {
			buf.WriteString("---\n")
		}
		fmt.Fprintf(&buf, "Title: %s\n", r.Title)
		fmt.Fprintf(&buf, "Sample: %d\n", r.SampleNumber)
		fmt.Fprintf(&buf, "Detector: %s\n", r.DetectorName)
		fmt.Fprintf(&buf, "SourceType: %d\n", r.SourceType)
		if r.HasTime {
			fmt.Fprintf(&buf, "StartTime: %s\n", r.StartTime.UTC().Format(time.RFC3339))
		}
		fmt.Fprintf(&buf, "RealTime: %g\n", r.RealTime)
		fmt.Fprintf(&buf, "LiveTime: %g\n", r.LiveTime)
		if len(r.Remarks) > 0 {
			fmt.Fprintf(&buf, "Remarks: %s\n", strings.Join(r.Remarks, "; "))
		}
		if r.HasGPS {
			fmt.Fprintf(&buf, "GPS: %g %g\n", r.Latitude, r.Longitude)
		}
		if r.EnergyCalibration != nil {
			fmt.Fprintf(&buf, "Calibration: %d %d", r.EnergyCalibration.Model, r.EnergyCalibration.NumChannels)
			for _, c := range r.EnergyCalibration.Coefficients {
				fmt.Fprintf(&buf, " %g", c)
			}
			buf.WriteString("\n")
		}
		if r.HasGamma() {
			buf.WriteString("Channels:")
			for _, c := range r.GammaCounts {
				fmt.Fprintf(&buf, " %g", c)
			}
			buf.WriteString("\n")
		}
		if r.NeutronCounts != nil {
			fmt.Fprintf(&buf, "Neutrons: %g\n", *r.NeutronCounts)
		}
	}
	return buf.Bytes(), nil
}

// parseTxt reads the Txt format back into a SpecFile.
func parseTxt(data []byte) (*spectrum.SpecFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var records []*spectrum.Record
	cur := &spectrum.Record{}
	flush := func() {
		if cur.DetectorName != "" || cur.HasGamma() {
			records = append(records, cur)
		}
	}
	seenAny := false
	for scanner.Scan() {
		line := scanner.Text()
		if line == "---" {
			flush()
			cur = &spectrum.Record{}
			continue
		}
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		seenAny = true
		switch key {
		case "Title":
			cur.Title = value
		case "Sample":
			cur.SampleNumber, _ = strconv.Atoi(value)
		case "Detector":
			cur.DetectorName = value
		case "SourceType":
			v, _ := strconv.Atoi(value)
			cur.SourceType = spectrum.SourceType(v)
		case "StartTime":
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				cur.StartTime = t
				cur.HasTime = true
			}
		case "RealTime":
			cur.RealTime, _ = strconv.ParseFloat(value, 64)
		case "LiveTime":
			cur.LiveTime, _ = strconv.ParseFloat(value, 64)
		case "Remarks":
			cur.Remarks = strings.Split(value, "; ")
		case "GPS":
			fields := strings.Fields(value)
			if len(fields) == 2 {
				cur.Latitude, _ = strconv.ParseFloat(fields[0], 64)
				cur.Longitude, _ = strconv.ParseFloat(fields[1], 64)
				cur.HasGPS = true
			}
		case "Calibration":
			fields := strings.Fields(value)
			if len(fields) < 2 {
				continue
			}
			model, _ := strconv.Atoi(fields[0])
			numChannels, _ := strconv.Atoi(fields[1])
			cal := &spectrum.EnergyCalibration{Model: spectrum.CalibrationModel(model), NumChannels: numChannels}
			for _, f := range fields[2:] {
				v, _ := strconv.ParseFloat(f, 64)
				cal.Coefficients = append(cal.Coefficients, v)
			}
			cur.EnergyCalibration = cal
		case "Channels":
			for _, f := range strings.Fields(value) {
				v, _ := strconv.ParseFloat(f, 64)
				cur.GammaCounts = append(cur.GammaCounts, v)
			}
		case "Neutrons":
			v, _ := strconv.ParseFloat(value, 64)
			cur.NeutronCounts = &v
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, newParseError(Txt, err)
	}
	flush()

	if !seenAny || len(records) == 0 {
		return nil, newParseError(Txt, fmt.Errorf("no recognizable Txt records found"))
	}

	f := &spectrum.SpecFile{Records: records}
	f.CleanupAfterLoad(spectrum.StandardCleanup)
	return f, nil
}
