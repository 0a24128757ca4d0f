package spectrum

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// CALpBlock is one detector's calibration as parsed from a CALp sidecar.
// Detector is empty when the block applies to the sole gamma detector.
type CALpBlock struct {
	Detector     string
	Coefficients []float64
}

// ParseCALp parses a CALp sidecar: a simple keyed text form with one block
// per detector, each block a "Detector: <name>" line (optional) followed by
// a coefficient list, blocks separated by blank lines. Generalizes the
// teacher's $MCA_CAL section scanner to a standalone multi-block document.
func ParseCALp(data []byte) ([]CALpBlock, error) {
	var blocks []CALpBlock
	var current *CALpBlock

	flush := func() {
		if current != nil && len(current.Coefficients) > 0 {
			blocks = append(blocks, *current)
		}
		current = nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), "detector:") {
			flush()
			current = &CALpBlock{Detector: strings.TrimSpace(line[len("detector:"):])}
			continue
		}
		if current == nil {
			current = &CALpBlock{}
		}
		val, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("parse CALp coefficient %q: %w", line, err)
		}
		current.Coefficients = append(current.Coefficients, val)
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan CALp: %w", err)
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("CALp: no calibration blocks found")
	}
	return blocks, nil
}

// SetEnergyCalibrationFromCALp applies a parsed CALp document to every
// matching record (§4.1): a block naming a detector applies to that
// detector's gamma-bearing records; an unnamed block applies to the file's
// sole gamma detector, when there is exactly one.
func (f *SpecFile) SetEnergyCalibrationFromCALp(blocks []CALpBlock) {
	for _, b := range blocks {
		target := b.Detector
		if target == "" {
			if len(f.GammaDetectorNames) != 1 {
				f.Warnf("CALp block with no detector name is ambiguous (file has %d gamma detectors)", len(f.GammaDetectorNames))
				continue
			}
			target = f.GammaDetectorNames[0]
		}
		cal := &EnergyCalibration{Model: Polynomial, Coefficients: b.Coefficients}
		applied := false
		for _, r := range f.Records {
			if r.DetectorName != target || !r.HasGamma() {
				continue
			}
			newCal := *cal
			newCal.NumChannels = r.NumChannels()
			r.EnergyCalibration = &newCal
			applied = true
		}
		if !applied {
			f.Warnf("CALp block for detector %q matched no gamma records", target)
		}
	}
}
