package codec

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"specconv/pkg/spectrum"
)

// n42Document is the shared XML shape for both N42_2006 and N42_2012
// writers, generalized to carry any of the three calibration models
// instead of a single fixed 2-coefficient polynomial.
type n42Document struct {
	XMLName      xml.Name         `xml:"N42InstrumentData"`
	Inspection   string           `xml:"Inspection,omitempty"`
	Measurements []n42Measurement `xml:"Measurement"`
}

type n42Measurement struct {
	SampleNumber   int                `xml:"SampleNumber"`
	DetectorName   string             `xml:"DetectorName"`
	SourceType     string             `xml:"SourceType,omitempty"`
	StartTime      string             `xml:"StartTime,omitempty"`
	RealTime       float64            `xml:"RealTime"`
	LiveTime       float64            `xml:"LiveTime"`
	Title          string             `xml:"Title,omitempty"`
	Remarks        []string           `xml:"Remark,omitempty"`
	Calibration    *n42Calibration    `xml:"Calibration,omitempty"`
	SpectrumValues string             `xml:"ChannelData,omitempty"`
	NeutronCounts  *float64           `xml:"NeutronCounts,omitempty"`
	Latitude       float64            `xml:"Latitude,omitempty"`
	Longitude      float64            `xml:"Longitude,omitempty"`
}

type n42Calibration struct {
	Model          string             `xml:"Model,attr"`
	NumChannels    int                `xml:"NumChannels,attr"`
	VariantTag     string             `xml:"VariantTag,attr,omitempty"`
	Coefficients   []float64          `xml:"Coefficient"`
	DeviationPairs []n42DeviationPair `xml:"Deviation,omitempty"`
}

type n42DeviationPair struct {
	Energy float64 `xml:"Energy,attr"`
	Offset float64 `xml:"Offset,attr"`
}

var n42ModelNames = map[spectrum.CalibrationModel]string{
	spectrum.Invalid:            "Invalid",
	spectrum.Polynomial:         "Polynomial",
	spectrum.FullRangeFraction:  "FullRangeFraction",
	spectrum.LowerChannelEdge:   "LowerChannelEdge",
}

var n42ModelsByName = map[string]spectrum.CalibrationModel{
	"Invalid":            spectrum.Invalid,
	"Polynomial":         spectrum.Polynomial,
	"FullRangeFraction":  spectrum.FullRangeFraction,
	"LowerChannelEdge":   spectrum.LowerChannelEdge,
}

var sourceTypeNames = map[spectrum.SourceType]string{
	spectrum.SourceUnknown:           "Unknown",
	spectrum.SourceIntrinsicActivity: "IntrinsicActivity",
	spectrum.SourceCalibration:       "Calibration",
	spectrum.SourceBackground:        "Background",
	spectrum.SourceForeground:        "Foreground",
}

var sourceTypesByName = func() map[string]spectrum.SourceType {
	m := map[string]spectrum.SourceType{}
	for k, v := range sourceTypeNames {
		m[v] = k
	}
	return m
}()

func writeN42_2012(spec *spectrum.SpecFile, sel Selection) ([]byte, error) {
	return writeN42(spec, sel, N42_2012)
}

// writeN42_2006 implements the lossier 2006 variant: deviation pairs and
// GPS are dropped, matching §4.6's "lossy for some newer fields" note.
func writeN42_2006(spec *spectrum.SpecFile, sel Selection) ([]byte, error) {
	return writeN42(spec, sel, N42_2006)
}

func writeN42(spec *spectrum.SpecFile, sel Selection, variant Format) ([]byte, error) {
	doc := n42Document{Inspection: spec.Inspection}
	for _, r := range selectedRecords(spec, sel) {
		m := n42Measurement{
			SampleNumber: r.SampleNumber,
			DetectorName: r.DetectorName,
			SourceType:   sourceTypeNames[r.SourceType],
			RealTime:     r.RealTime,
			LiveTime:     r.LiveTime,
			Title:        r.Title,
			Remarks:      r.Remarks,
			NeutronCounts: r.NeutronCounts,
		}
		if r.HasTime {
			m.StartTime = r.StartTime.UTC().Format(time.RFC3339)
		}
		if variant == N42_2012 && r.HasGPS {
			m.Latitude, m.Longitude = r.Latitude, r.Longitude
		}
		if r.EnergyCalibration != nil {
			cal := &n42Calibration{
				Model:        n42ModelNames[r.EnergyCalibration.Model],
				NumChannels:  r.EnergyCalibration.NumChannels,
				VariantTag:   r.CalibrationVariantTag,
				Coefficients: r.EnergyCalibration.Coefficients,
			}
			if variant == N42_2012 {
				for _, d := range r.EnergyCalibration.DeviationPairs {
					cal.DeviationPairs = append(cal.DeviationPairs, n42DeviationPair{Energy: d.Energy, Offset: d.Offset})
				}
			}
			m.Calibration = cal
		}
		m.SpectrumValues = encodeChannelData(r.GammaCounts)
		doc.Measurements = append(doc.Measurements, m)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, newWriteError(variant, err)
	}
	return append([]byte(xml.Header), out...), nil
}

// parseN42 parses either N42 variant; the writer-variant distinction only
// affects what gets emitted, not what can be read back.
func parseN42(data []byte) (*spectrum.SpecFile, error) {
	var doc n42Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, newParseError(N42_2012, err)
	}
	if len(doc.Measurements) == 0 {
		return nil, newParseError(N42_2012, fmt.Errorf("no Measurement elements found"))
	}

	var records []*spectrum.Record
	for _, m := range doc.Measurements {
		r := &spectrum.Record{
			SampleNumber: m.SampleNumber,
			DetectorName: m.DetectorName,
			RealTime:     m.RealTime,
			LiveTime:     m.LiveTime,
			Title:        m.Title,
			Remarks:      m.Remarks,
			NeutronCounts: m.NeutronCounts,
		}
		if st, ok := sourceTypesByName[m.SourceType]; ok {
			r.SourceType = st
		}
		if m.StartTime != "" {
			if t, err := time.Parse(time.RFC3339, m.StartTime); err == nil {
				r.StartTime = t
				r.HasTime = true
			}
		}
		if m.Latitude != 0 || m.Longitude != 0 {
			r.Latitude, r.Longitude, r.HasGPS = m.Latitude, m.Longitude, true
		}
		if m.Calibration != nil {
			cal := &spectrum.EnergyCalibration{
				Model:        n42ModelsByName[m.Calibration.Model],
				NumChannels:  m.Calibration.NumChannels,
				Coefficients: m.Calibration.Coefficients,
			}
			for _, d := range m.Calibration.DeviationPairs {
				cal.DeviationPairs = append(cal.DeviationPairs, spectrum.DeviationPair{Energy: d.Energy, Offset: d.Offset})
			}
			r.EnergyCalibration = cal
			r.CalibrationVariantTag = m.Calibration.VariantTag
		}
		r.GammaCounts = decodeChannelData(m.SpectrumValues)
		records = append(records, r)
	}

	f := &spectrum.SpecFile{Inspection: doc.Inspection, Records: records}
	f.CleanupAfterLoad(spectrum.StandardCleanup)
	return f, nil
}

func encodeChannelData(counts []float64) string {
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = strconv.FormatFloat(c, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

func decodeChannelData(s string) []float64 {
	fields := strings.Fields(s)
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
