package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"specconv/pkg/spectrum"
)

var chnMagic = [4]byte{'C', 'H', 'N', '1'}

const chnTitleMaxLen = 63

// writeChn implements the Chn variant: binary, single-record, title capped
// at 63 characters, no deviation-pair support (§4.6, §6).
func writeChn(spec *spectrum.SpecFile, sel Selection) ([]byte, error) {
	records := selectedRecords(spec, sel)
	if len(records) != 1 {
		return nil, newWriteError(Chn, ErrInvalidSelection)
	}
	r := records[0]

	title := r.Title
	if len(title) > chnTitleMaxLen {
		title = title[:chnTitleMaxLen]
	}

	var buf bytes.Buffer
	buf.Write(chnMagic[:])
	writePString(&buf, title)
	binary.Write(&buf, binary.LittleEndian, int32(r.SampleNumber))
	binary.Write(&buf, binary.LittleEndian, r.RealTime)
	binary.Write(&buf, binary.LittleEndian, r.LiveTime)
	if r.HasTime {
		buf.WriteByte(1)
		binary.Write(&buf, binary.LittleEndian, r.StartTime.Unix())
	} else {
		buf.WriteByte(0)
		binary.Write(&buf, binary.LittleEndian, int64(0))
	}

	var model, numChannels int32
	var coeffs []float64
	if r.EnergyCalibration != nil {
		model = int32(r.EnergyCalibration.Model)
		numChannels = int32(r.EnergyCalibration.NumChannels)
		coeffs = r.EnergyCalibration.Coefficients
	}
	binary.Write(&buf, binary.LittleEndian, model)
	binary.Write(&buf, binary.LittleEndian, numChannels)
	binary.Write(&buf, binary.LittleEndian, int32(len(coeffs)))
	for _, c := range coeffs {
		binary.Write(&buf, binary.LittleEndian, c)
	}

	binary.Write(&buf, binary.LittleEndian, uint32(len(r.GammaCounts)))
	for _, c := range r.GammaCounts {
		binary.Write(&buf, binary.LittleEndian, uint32(c))
	}
	return buf.Bytes(), nil
}

// parseChn reads the Chn variant back.
func parseChn(data []byte) (*spectrum.SpecFile, error) {
	r := bytes.NewReader(data)
	var magic [4]byte
	if _, err := r.Read(magic[:]); err != nil || magic != chnMagic {
		return nil, newParseError(Chn, fmt.Errorf("bad magic"))
	}

	rec := &spectrum.Record{SourceType: spectrum.SourceForeground}
	var err error
	if rec.Title, err = readPString(r); err != nil {
		return nil, newParseError(Chn, err)
	}
	var sample int32
	binary.Read(r, binary.LittleEndian, &sample)
	rec.SampleNumber = int(sample)
	binary.Read(r, binary.LittleEndian, &rec.RealTime)
	binary.Read(r, binary.LittleEndian, &rec.LiveTime)

	hasTime, _ := r.ReadByte()
	var unixTime int64
	binary.Read(r, binary.LittleEndian, &unixTime)
	if hasTime == 1 {
		rec.StartTime = time.Unix(unixTime, 0).UTC()
		rec.HasTime = true
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

	var count uint32
	binary.Read(r, binary.LittleEndian, &count)
	rec.GammaCounts = make([]float64, count)
	for i := range rec.GammaCounts {
		var v uint32
		binary.Read(r, binary.LittleEndian, &v)
		rec.GammaCounts[i] = float64(v)
	}

	f := &spectrum.SpecFile{Records: []*spectrum.Record{rec}}
	f.CleanupAfterLoad(spectrum.StandardCleanup)
	return f, nil
}
