package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"

	"specconv/pkg/spectrum"
)

// pcfMagic identifies this package's binary multi-record container. Large
// channel payloads (over pcfZstdThreshold bytes) are zstd-compressed
// in-line, since GADRAS-style PCF files in the wild carry uncompressed
// histograms that can run to megabytes per record.
var pcfMagic = [4]byte{'P', 'C', 'F', '1'}

const pcfTitleMaxLen = 60
const pcfZstdThreshold = 4096

// writePcf implements the Pcf variant: binary, multi-record, titles
// truncated to 60 characters (§4.6, §6).
func writePcf(spec *spectrum.SpecFile, sel Selection) ([]byte, error) {
	records := selectedRecords(spec, sel)

	var buf bytes.Buffer
	buf.Write(pcfMagic[:])
	binary.Write(&buf, binary.LittleEndian, uint32(len(records)))

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, newWriteError(Pcf, err)
	}
	defer enc.Close()

	for _, r := range records {
		title := r.Title
		if len(title) > pcfTitleMaxLen {
			title = title[:pcfTitleMaxLen]
		}
		writePString(&buf, title)
		writePString(&buf, r.DetectorName)
		binary.Write(&buf, binary.LittleEndian, int32(r.SampleNumber))
		binary.Write(&buf, binary.LittleEndian, int32(r.SourceType))
		binary.Write(&buf, binary.LittleEndian, r.RealTime)
		binary.Write(&buf, binary.LittleEndian, r.LiveTime)

		if err := writePcfCalibration(&buf, r.EnergyCalibration); err != nil {
			return nil, newWriteError(Pcf, err)
		}

		payload := make([]byte, len(r.GammaCounts)*8)
		for i, c := range r.GammaCounts {
			binary.LittleEndian.PutUint64(payload[i*8:], math.Float64bits(c))
		}
		if len(payload) > pcfZstdThreshold {
			compressed := enc.EncodeAll(payload, nil)
			buf.WriteByte(1)
			binary.Write(&buf, binary.LittleEndian, uint32(len(r.GammaCounts)))
			binary.Write(&buf, binary.LittleEndian, uint32(len(compressed)))
			buf.Write(compressed)
		} else {
			buf.WriteByte(0)
			binary.Write(&buf, binary.LittleEndian, uint32(len(r.GammaCounts)))
			buf.Write(payload)
		}
	}
	return buf.Bytes(), nil
}

// parsePcf reads the Pcf variant back.
func parsePcf(data []byte) (*spectrum.SpecFile, error) {
	r := bytes.NewReader(data)
	var magic [4]byte
	if _, err := r.Read(magic[:]); err != nil || magic != pcfMagic {
		return nil, newParseError(Pcf, fmt.Errorf("bad magic"))
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, newParseError(Pcf, err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, newParseError(Pcf, err)
	}
	defer dec.Close()

	var records []*spectrum.Record
	for i := uint32(0); i < count; i++ {
		rec := &spectrum.Record{}
		var err error
		if rec.Title, err = readPString(r); err != nil {
			return nil, newParseError(Pcf, err)
		}
		if rec.DetectorName, err = readPString(r); err != nil {
			return nil, newParseError(Pcf, err)
		}
		var sample, sourceType int32
		binary.Read(r, binary.LittleEndian, &sample)
		binary.Read(r, binary.LittleEndian, &sourceType)
		rec.SampleNumber = int(sample)
		rec.SourceType = spectrum.SourceType(sourceType)
		binary.Read(r, binary.LittleEndian, &rec.RealTime)
		binary.Read(r, binary.LittleEndian, &rec.LiveTime)

		cal, err := readPcfCalibration(r)
		if err != nil {
			return nil, newParseError(Pcf, err)
		}
		rec.EnergyCalibration = cal

		var compressedFlag byte
		if compressedFlag, err = r.ReadByte(); err != nil {
			return nil, newParseError(Pcf, err)
		}
		var numChannels uint32
		binary.Read(r, binary.LittleEndian, &numChannels)
		var payload []byte
		if compressedFlag == 1 {
			var clen uint32
			binary.Read(r, binary.LittleEndian, &clen)
			compressed := make([]byte, clen)
			if _, err := r.Read(compressed); err != nil {
				return nil, newParseError(Pcf, err)
			}
			payload, err = dec.DecodeAll(compressed, nil)
			if err != nil {
				return nil, newParseError(Pcf, err)
			}
		} else {
			payload = make([]byte, numChannels*8)
			if _, err := r.Read(payload); err != nil {
				return nil, newParseError(Pcf, err)
			}
		}
		rec.GammaCounts = make([]float64, numChannels)
		for i := range rec.GammaCounts {
			rec.GammaCounts[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[i*8:]))
		}
		records = append(records, rec)
	}

	f := &spectrum.SpecFile{Records: records}
	f.CleanupAfterLoad(spectrum.StandardCleanup)
	return f, nil
}

func writePcfCalibration(buf *bytes.Buffer, cal *spectrum.EnergyCalibration) error {
	if cal == nil {
		binary.Write(buf, binary.LittleEndian, int32(spectrum.Invalid))
		binary.Write(buf, binary.LittleEndian, int32(0))
		binary.Write(buf, binary.LittleEndian, int32(0))
		return nil
	}
	binary.Write(buf, binary.LittleEndian, int32(cal.Model))
	binary.Write(buf, binary.LittleEndian, int32(cal.NumChannels))
	binary.Write(buf, binary.LittleEndian, int32(len(cal.Coefficients)))
	for _, c := range cal.Coefficients {
		binary.Write(buf, binary.LittleEndian, c)
	}
	return nil
}

func readPcfCalibration(r *bytes.Reader) (*spectrum.EnergyCalibration, error) {
	var model, numChannels, numCoeffs int32
	if err := binary.Read(r, binary.LittleEndian, &model); err != nil {
		return nil, err
	}
	binary.Read(r, binary.LittleEndian, &numChannels)
	binary.Read(r, binary.LittleEndian, &numCoeffs)
	cal := &spectrum.EnergyCalibration{Model: spectrum.CalibrationModel(model), NumChannels: int(numChannels)}
	for i := int32(0); i < numCoeffs; i++ {
		var c float64
		binary.Read(r, binary.LittleEndian, &c)
		cal.Coefficients = append(cal.Coefficients, c)
	}
	return cal, nil
}

func writePString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint32(len(s)))
	buf.WriteString(s)
}

func readPString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return "", err
	}
	return string(b), nil
}
