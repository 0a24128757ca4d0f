package codec

import (
	"fmt"
	"strings"

	"specconv/pkg/spectrum"
)

// WriteCALp implements the CALp sidecar output (§6): plain text, one block
// per gamma detector with a valid calibration, keyed coefficients; the
// detector key is omitted when exactly one gamma detector is present.
func WriteCALp(spec *spectrum.SpecFile, sel Selection) ([]byte, error) {
	seen := map[string]*spectrum.EnergyCalibration{}
	var order []string
	for _, r := range selectedRecords(spec, sel) {
		if !r.HasValidGammaCalibration() {
			continue
		}
		if _, ok := seen[r.DetectorName]; !ok {
			order = append(order, r.DetectorName)
		}
		seen[r.DetectorName] = r.EnergyCalibration
	}
	if len(order) == 0 {
		return nil, newWriteError(Calp, fmt.Errorf("no gamma-calibrated records selected"))
	}

	omitKey := len(order) == 1

	var buf strings.Builder
	for i, name := range order {
		if i > 0 {
			buf.WriteString("\n")
		}
		if !omitKey {
			fmt.Fprintf(&buf, "Detector: %s\n", name)
		}
		for _, c := range seen[name].Coefficients {
			fmt.Fprintf(&buf, "%g\n", c)
		}
	}
	return []byte(buf.String()), nil
}
