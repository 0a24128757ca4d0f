package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"specconv/pkg/spectrum"
)

var cnfMagic = [4]byte{'C', 'N', 'F', '1'}

// writeCnf implements Cnf: single-record binary container, calibration and
// timing preserved (§4.6).
func writeCnf(spec *spectrum.SpecFile, sel Selection) ([]byte, error) {
	records := selectedRecords(spec, sel)
	if len(records) != 1 {
		return nil, newWriteError(Cnf, ErrInvalidSelection)
	}
	r := records[0]

	var buf bytes.Buffer
	buf.Write(cnfMagic[:])
	writeSpcHeader(&buf, r)
	binary.Write(&buf, binary.LittleEndian, uint32(len(r.GammaCounts)))
	for _, c := range r.GammaCounts {
		binary.Write(&buf, binary.LittleEndian, c)
	}
	return buf.Bytes(), nil
}

// parseCnf reads the Cnf variant back.
func parseCnf(data []byte) (*spectrum.SpecFile, error) {
	r := bytes.NewReader(data)
	var magic [4]byte
	if _, err := r.Read(magic[:]); err != nil || magic != cnfMagic {
		return nil, newParseError(Cnf, fmt.Errorf("bad magic"))
	}
	rec, err := readSpcHeader(r)
	if err != nil {
		return nil, newParseError(Cnf, err)
	}
	var count uint32
	binary.Read(r, binary.LittleEndian, &count)
	rec.GammaCounts = make([]float64, count)
	for i := range rec.GammaCounts {
		binary.Read(r, binary.LittleEndian, &rec.GammaCounts[i])
	}

	f := &spectrum.SpecFile{Records: []*spectrum.Record{rec}}
	f.CleanupAfterLoad(spectrum.StandardCleanup)
	return f, nil
}
