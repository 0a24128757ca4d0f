package transform

import (
	"regexp"
	"strconv"
	"strings"

	"specconv/pkg/spectrum"
)

var meVSuffixPattern = regexp.MustCompile(`(?i)^([0-9.]+)\s*MeV$`)

// SelectCalibrationVariant implements §4.2 step 1: when a file exposes more
// than one named energy-calibration variant and the caller didn't ask to
// keep them all, pick one tag to keep, preferring a "Lin"-containing tag,
// then the largest embedded MeV value, otherwise keep all with a warning.
func SelectCalibrationVariant(f *spectrum.SpecFile, keepAll bool) {
	if keepAll || len(f.EnergyCalVariants) <= 1 {
		return
	}

	chosen := ""
	for _, tag := range f.EnergyCalVariants {
		if strings.Contains(strings.ToLower(tag), "lin") {
			chosen = tag
			break
		}
	}
	if chosen == "" {
		bestMeV := -1.0
		for _, tag := range f.EnergyCalVariants {
			if m := meVSuffixPattern.FindStringSubmatch(tag); m != nil {
				if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > bestMeV {
					bestMeV = v
					chosen = tag
				}
			}
		}
	}

	if chosen == "" {
		f.Warnf("file exposes %d energy-calibration variants with no Lin/MeV tag to prefer; keeping all", len(f.EnergyCalVariants))
		return
	}

	var keep []*spectrum.Record
	for _, r := range f.Records {
		if r.CalibrationVariantTag == "" || r.CalibrationVariantTag == chosen {
			keep = append(keep, r)
		}
	}
	f.Records = keep
}
