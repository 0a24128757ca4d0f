package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"specconv/pkg/spectrum"
)

var spcMagic = [4]byte{'S', 'P', 'C', '1'}

// writeSpcBinaryInt implements SpcBinaryInt: single-record binary, counts
// stored as 32-bit integers, calibration and GPS preserved (§4.6).
func writeSpcBinaryInt(spec *spectrum.SpecFile, sel Selection) ([]byte, error) {
	return writeSpcBinary(spec, sel, SpcBinaryInt, true)
}

// writeSpcBinaryFloat implements SpcBinaryFloat: same layout, counts stored
// as float64.
func writeSpcBinaryFloat(spec *spectrum.SpecFile, sel Selection) ([]byte, error) {
	return writeSpcBinary(spec, sel, SpcBinaryFloat, false)
}

func writeSpcBinary(spec *spectrum.SpecFile, sel Selection, variant Format, asInt bool) ([]byte, error) {
	records := selectedRecords(spec, sel)
	if len(records) != 1 {
		return nil, newWriteError(variant, ErrInvalidSelection)
	}
	r := records[0]

	var buf bytes.Buffer
	buf.Write(spcMagic[:])
	if asInt {
		buf.WriteByte(0)
	} else {
		buf.WriteByte(1)
	}
	writeSpcHeader(&buf, r)

	binary.Write(&buf, binary.LittleEndian, uint32(len(r.GammaCounts)))
	for _, c := range r.GammaCounts {
		if asInt {
			binary.Write(&buf, binary.LittleEndian, int32(c))
		} else {
			binary.Write(&buf, binary.LittleEndian, c)
		}
	}
	return buf.Bytes(), nil
}

// writeSpcAscii implements SpcAscii: same record shape, text-encoded.
func writeSpcAscii(spec *spectrum.SpecFile, sel Selection) ([]byte, error) {
	records := selectedRecords(spec, sel)
	if len(records) != 1 {
		return nil, newWriteError(SpcAscii, ErrInvalidSelection)
	}
	r := records[0]

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "SPCASCII1\n")
	fmt.Fprintf(&buf, "Title: %s\n", r.Title)
	fmt.Fprintf(&buf, "Sample: %d\n", r.SampleNumber)
	fmt.Fprintf(&buf, "Detector: %s\n", r.DetectorName)
	fmt.Fprintf(&buf, "RealTime: %g\n", r.RealTime)
	fmt.Fprintf(&buf, "LiveTime: %g\n", r.LiveTime)
	if r.HasTime {
		fmt.Fprintf(&buf, "StartTime: %s\n", r.StartTime.UTC().Format(time.RFC3339))
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
	fmt.Fprintf(&buf, "Channels: %d\n", len(r.GammaCounts))
	for _, c := range r.GammaCounts {
		fmt.Fprintf(&buf, "%g\n", c)
	}
	return buf.Bytes(), nil
}

func writeSpcHeader(buf *bytes.Buffer, r *spectrum.Record) {
	writePString(buf, r.Title)
	binary.Write(buf, binary.LittleEndian, int32(r.SampleNumber))
	writePString(buf, r.DetectorName)
	binary.Write(buf, binary.LittleEndian, r.RealTime)
	binary.Write(buf, binary.LittleEndian, r.LiveTime)
	if r.HasTime {
		buf.WriteByte(1)
		binary.Write(buf, binary.LittleEndian, r.StartTime.Unix())
	} else {
		buf.WriteByte(0)
		binary.Write(buf, binary.LittleEndian, int64(0))
	}
	if r.HasGPS {
		buf.WriteByte(1)
		binary.Write(buf, binary.LittleEndian, r.Latitude)
		binary.Write(buf, binary.LittleEndian, r.Longitude)
	} else {
		buf.WriteByte(0)
		binary.Write(buf, binary.LittleEndian, 0.0)
		binary.Write(buf, binary.LittleEndian, 0.0)
	}

	var model, numChannels int32
	var coeffs []float64
	if r.EnergyCalibration != nil {
		model = int32(r.EnergyCalibration.Model)
		numChannels = int32(r.EnergyCalibration.NumChannels)
		coeffs = r.EnergyCalibration.Coefficients
	}
	binary.Write(buf, binary.LittleEndian, model)
	binary.Write(buf, binary.LittleEndian, numChannels)
	binary.Write(buf, binary.LittleEndian, int32(len(coeffs)))
	for _, c := range coeffs {
		binary.Write(buf, binary.LittleEndian, c)
	}
}

func readSpcHeader(r *bytes.Reader) (*spectrum.Record, error) {
	rec := &spectrum.Record{SourceType: spectrum.SourceForeground}
	var err error
	if rec.Title, err = readPString(r); err != nil {
		return nil, err
	}
	var sample int32
	binary.Read(r, binary.LittleEndian, &sample)
	rec.SampleNumber = int(sample)
	if rec.DetectorName, err = readPString(r); err != nil {
		return nil, err
	}
	binary.Read(r, binary.LittleEndian, &rec.RealTime)
	binary.Read(r, binary.LittleEndian, &rec.LiveTime)

	hasTime, _ := r.ReadByte()
	var unixTime int64
	binary.Read(r, binary.LittleEndian, &unixTime)
	if hasTime == 1 {
		rec.StartTime = time.Unix(unixTime, 0).UTC()
		rec.HasTime = true
	}

	hasGPS, _ := r.ReadByte()
	var lat, lon float64
	binary.Read(r, binary.LittleEndian, &lat)
	binary.Read(r, binary.LittleEndian, &lon)
	if hasGPS == 1 {
		rec.Latitude, rec.Longitude, rec.HasGPS = lat, lon, true
	}

	var model, numChannels, numCoeffs int32
	binary.Read(r, binary.LittleEndian, &model)
	binary.Read(r, binary.LittleEndian, &numChannels)
	binary.Read(r, binary.LittleEndian, &numCoeffs)
	cal := &spectrum.EnergyCalibration{Model: spectrum.CalibrationModel(model), NumChannels: int(numChannels)}
	for i := int32(0); i < numCoeffs; i++ {
		var c float64
		binary.Read(r, binary.LittleEndian, &c)
		cal.Coefficients = append(cal.Coefficients, c)
	}
	rec.EnergyCalibration = cal
	return rec, nil
}

// parseSpcBinary reads back either binary SPC variant, detected from the
// int/float flag byte following the magic.
func parseSpcBinary(data []byte) (*spectrum.SpecFile, error) {
	r := bytes.NewReader(data)
	var magic [4]byte
	if _, err := r.Read(magic[:]); err != nil || magic != spcMagic {
		return nil, newParseError(SpcBinaryInt, fmt.Errorf("bad magic"))
	}
	flag, err := r.ReadByte()
	if err != nil {
		return nil, newParseError(SpcBinaryInt, err)
	}
	asInt := flag == 0

	rec, err := readSpcHeader(r)
	if err != nil {
		return nil, newParseError(SpcBinaryInt, err)
	}

	var count uint32
	binary.Read(r, binary.LittleEndian, &count)
	rec.GammaCounts = make([]float64, count)
	for i := range rec.GammaCounts {
		if asInt {
			var v int32
			binary.Read(r, binary.LittleEndian, &v)
			rec.GammaCounts[i] = float64(v)
		} else {
			var v float64
			binary.Read(r, binary.LittleEndian, &v)
			rec.GammaCounts[i] = v
		}
	}

	f := &spectrum.SpecFile{Records: []*spectrum.Record{rec}}
	f.CleanupAfterLoad(spectrum.StandardCleanup)
	return f, nil
}

// parseSpcAscii reads back the SpcAscii variant.
func parseSpcAscii(data []byte) (*spectrum.SpecFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(decodeLegacyText(data)))
	if !scanner.Scan() || scanner.Text() != "SPCASCII1" {
		return nil, newParseError(SpcAscii, fmt.Errorf("missing SPCASCII1 header"))
	}

	rec := &spectrum.Record{SourceType: spectrum.SourceForeground}
	expectedChannels := -1
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ": ")
		if !ok {
			if expectedChannels >= 0 && len(rec.GammaCounts) < expectedChannels {
				if v, err := strconv.ParseFloat(strings.TrimSpace(scanner.Text()), 64); err == nil {
					rec.GammaCounts = append(rec.GammaCounts, v)
				}
			}
			continue
		}
		switch key {
		case "Title":
			rec.Title = value
		case "Sample":
			rec.SampleNumber, _ = strconv.Atoi(value)
		case "Detector":
			rec.DetectorName = value
		case "RealTime":
			rec.RealTime, _ = strconv.ParseFloat(value, 64)
		case "LiveTime":
			rec.LiveTime, _ = strconv.ParseFloat(value, 64)
		case "StartTime":
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				rec.StartTime, rec.HasTime = t, true
			}
		case "GPS":
			fields := strings.Fields(value)
			if len(fields) == 2 {
				rec.Latitude, _ = strconv.ParseFloat(fields[0], 64)
				rec.Longitude, _ = strconv.ParseFloat(fields[1], 64)
				rec.HasGPS = true
			}
		case "Calibration":
			fields := strings.Fields(value)
			if len(fields) >= 2 {
				model, _ := strconv.Atoi(fields[0])
				numChannels, _ := strconv.Atoi(fields[1])
				cal := &spectrum.EnergyCalibration{Model: spectrum.CalibrationModel(model), NumChannels: numChannels}
				for _, f := range fields[2:] {
					v, _ := strconv.ParseFloat(f, 64)
					cal.Coefficients = append(cal.Coefficients, v)
				}
				rec.EnergyCalibration = cal
			}
		case "Channels":
			expectedChannels, _ = strconv.Atoi(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, newParseError(SpcAscii, err)
	}
	if !rec.HasGamma() {
		return nil, newParseError(SpcAscii, fmt.Errorf("no channel data found"))
	}

	f := &spectrum.SpecFile{Records: []*spectrum.Record{rec}}
	f.CleanupAfterLoad(spectrum.StandardCleanup)
	return f, nil
}
