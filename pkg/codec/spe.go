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

// writeSpe implements SpeIaea: IAEA-style `$TAG:` section text, single
// record, remarks and title preserved (§4.6). Section layout follows the
// teacher's parseSPEFile/$MCA_CAL scanning convention.
func writeSpe(spec *spectrum.SpecFile, sel Selection) ([]byte, error) {
	records := selectedRecords(spec, sel)
	if len(records) != 1 {
		return nil, newWriteError(SpeIaea, ErrInvalidSelection)
	}
	r := records[0]

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "$SPEC_ID:\n%s\n", r.Title)
	fmt.Fprintf(&buf, "$SPEC_REM:\n")
	for _, rem := range r.Remarks {
		fmt.Fprintf(&buf, "%s\n", rem)
	}
	if r.HasTime {
		fmt.Fprintf(&buf, "$DATE_MEA:\n%s\n", r.StartTime.UTC().Format("01/02/2006 15:04:05"))
	}
	fmt.Fprintf(&buf, "$MEAS_TIM:\n%g %g\n", r.LiveTime, r.RealTime)
	fmt.Fprintf(&buf, "$DATA:\n0 %d\n", len(r.GammaCounts)-1)
	for _, c := range r.GammaCounts {
		fmt.Fprintf(&buf, "%d\n", int64(c))
	}
	if r.EnergyCalibration != nil {
		fmt.Fprintf(&buf, "$MCA_CAL:\n%d\n", len(r.EnergyCalibration.Coefficients))
		for _, c := range r.EnergyCalibration.Coefficients {
			fmt.Fprintf(&buf, "%g\n", c)
		}
	}
	return buf.Bytes(), nil
}

// parseSpe reads IAEA SPE files back into a single-record SpecFile.
func parseSpe(data []byte) (*spectrum.SpecFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(decodeLegacyText(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	rec := &spectrum.Record{SourceType: spectrum.SourceForeground}
	var section string
	haveRange := false
	var numCoeffs = -1

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "$") {
			section = line
			haveRange = false
			continue
		}
		switch section {
		case "$SPEC_ID:":
			rec.Title = line
		case "$SPEC_REM:":
			rec.Remarks = append(rec.Remarks, line)
		case "$DATE_MEA:":
			for _, layout := range []string{"01/02/2006 15:04:05", "2006-01-02 15:04:05", time.RFC3339} {
				if t, err := time.Parse(layout, line); err == nil {
					rec.StartTime, rec.HasTime = t, true
					break
				}
			}
		case "$MEAS_TIM:":
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				rec.LiveTime, _ = strconv.ParseFloat(fields[0], 64)
				rec.RealTime, _ = strconv.ParseFloat(fields[1], 64)
			}
		case "$DATA:":
			if !haveRange {
				haveRange = true
				continue
			}
			v, err := strconv.ParseFloat(line, 64)
			if err == nil {
				rec.GammaCounts = append(rec.GammaCounts, v)
			}
		case "$MCA_CAL:":
			if numCoeffs < 0 {
				numCoeffs, _ = strconv.Atoi(line)
				if rec.EnergyCalibration == nil {
					rec.EnergyCalibration = &spectrum.EnergyCalibration{Model: spectrum.Polynomial}
				}
				continue
			}
			v, err := strconv.ParseFloat(line, 64)
			if err == nil {
				rec.EnergyCalibration.Coefficients = append(rec.EnergyCalibration.Coefficients, v)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, newParseError(SpeIaea, err)
	}
	if !rec.HasGamma() {
		return nil, newParseError(SpeIaea, fmt.Errorf("no $DATA section found"))
	}

	if rec.EnergyCalibration != nil {
		rec.EnergyCalibration.NumChannels = len(rec.GammaCounts)
	}

	f := &spectrum.SpecFile{Records: []*spectrum.Record{rec}}
	f.CleanupAfterLoad(spectrum.StandardCleanup)
	return f, nil
}
