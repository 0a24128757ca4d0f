package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"specconv/pkg/spectrum"
)

// writeTka implements Tka: the simplest single-record text format, just
// live time, real time, then one channel count per line (the classic
// Ortec/Maestro TKA layout), no calibration or metadata.
func writeTka(spec *spectrum.SpecFile, sel Selection) ([]byte, error) {
	records := selectedRecords(spec, sel)
	if len(records) != 1 {
		return nil, newWriteError(Tka, ErrInvalidSelection)
	}
	r := records[0]

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%g\n", r.LiveTime)
	fmt.Fprintf(&buf, "%g\n", r.RealTime)
	for _, c := range r.GammaCounts {
		fmt.Fprintf(&buf, "%d\n", int64(c))
	}
	return buf.Bytes(), nil
}

// parseTka reads the Tka variant back. There being no calibration in the
// format, the resulting record carries no EnergyCalibration.
func parseTka(data []byte) (*spectrum.SpecFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, newParseError(Tka, err)
	}
	if len(lines) < 3 {
		return nil, newParseError(Tka, fmt.Errorf("too few lines for TKA (need live time, real time, channels)"))
	}

	liveTime, err1 := strconv.ParseFloat(lines[0], 64)
	realTime, err2 := strconv.ParseFloat(lines[1], 64)
	if err1 != nil || err2 != nil {
		return nil, newParseError(Tka, fmt.Errorf("invalid live/real time header"))
	}

	rec := &spectrum.Record{SourceType: spectrum.SourceForeground, LiveTime: liveTime, RealTime: realTime}
	for _, line := range lines[2:] {
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, newParseError(Tka, fmt.Errorf("parse channel count %q: %w", line, err))
		}
		rec.GammaCounts = append(rec.GammaCounts, v)
	}
	if !rec.HasGamma() {
		return nil, newParseError(Tka, fmt.Errorf("no channel data"))
	}

	f := &spectrum.SpecFile{Records: []*spectrum.Record{rec}}
	f.CleanupAfterLoad(spectrum.StandardCleanup)
	return f, nil
}
