// Package codec implements per-format parsing and writing for spectrum
// files: a closed set of format variants, a canonical extension for each,
// and a registry used for both explicit-format and content-sniffed
// parsing.
package codec

import (
	"errors"
	"fmt"
	"strings"

	"specconv/pkg/spectrum"
)

// Format is the closed set of writer variants. NumTypes is a sentinel past
// the last variant with no associated SpecFile writer; pipeline.Driver uses
// it to mean "sniff the input format". CALp sidecar output is Calp.
type Format int

const (
	Txt Format = iota
	Csv
	Pcf
	N42_2006
	N42_2012
	Chn
	SpcBinaryInt
	SpcBinaryFloat
	SpcAscii
	ExploraniumGr130v0
	ExploraniumGr135v2
	SpeIaea
	Cnf
	Tka
	HtmlD3
	Uri
	Calp
	NumTypes
)

func (f Format) String() string {
	switch f {
	case Txt:
		return "Txt"
	case Csv:
		return "Csv"
	case Pcf:
		return "Pcf"
	case N42_2006:
		return "N42_2006"
	case N42_2012:
		return "N42_2012"
	case Chn:
		return "Chn"
	case SpcBinaryInt:
		return "SpcBinaryInt"
	case SpcBinaryFloat:
		return "SpcBinaryFloat"
	case SpcAscii:
		return "SpcAscii"
	case ExploraniumGr130v0:
		return "ExploraniumGr130v0"
	case ExploraniumGr135v2:
		return "ExploraniumGr135v2"
	case SpeIaea:
		return "SpeIaea"
	case Cnf:
		return "Cnf"
	case Tka:
		return "Tka"
	case HtmlD3:
		return "HtmlD3"
	case Uri:
		return "Uri"
	case Calp:
		return "Calp"
	default:
		return "NumTypes"
	}
}

// Extension returns the canonical file extension (without leading dot) for
// a writer variant.
func Extension(f Format) string {
	switch f {
	case Txt:
		return "txt"
	case Csv:
		return "csv"
	case Pcf:
		return "pcf"
	case N42_2006, N42_2012:
		return "n42"
	case Chn:
		return "chn"
	case SpcBinaryInt:
		return "spc"
	case SpcBinaryFloat:
		return "spc"
	case SpcAscii:
		return "spc"
	case ExploraniumGr130v0:
		return "gr1"
	case ExploraniumGr135v2:
		return "gr1"
	case SpeIaea:
		return "spe"
	case Cnf:
		return "cnf"
	case Tka:
		return "tka"
	case HtmlD3:
		return "html"
	case Uri:
		return "uri"
	case Calp:
		return "calp"
	default:
		return "dat"
	}
}

// SingleRecord reports whether a writer variant accepts exactly one record
// (CHN, single-record SPC variants, SPE, CNF, TKA — §6).
func SingleRecord(f Format) bool {
	switch f {
	case Chn, SpcBinaryInt, SpcBinaryFloat, SpcAscii, SpeIaea, Cnf, Tka:
		return true
	default:
		return false
	}
}

// FormatFromName maps a recognized CLI format token (case-insensitive, see
// §6) to a writer variant.
func FormatFromName(name string) (Format, bool) {
	switch strings.ToLower(name) {
	case "txt":
		return Txt, true
	case "csv":
		return Csv, true
	case "pcf":
		return Pcf, true
	case "xml", "n42", "2012n42":
		return N42_2012, true
	case "2006n42":
		return N42_2006, true
	case "chn":
		return Chn, true
	case "spc", "intspc":
		return SpcBinaryInt, true
	case "fltspc":
		return SpcBinaryFloat, true
	case "asciispc":
		return SpcAscii, true
	case "gr130":
		return ExploraniumGr130v0, true
	case "gr135":
		return ExploraniumGr135v2, true
	case "dat", "spe":
		return SpeIaea, true
	case "cnf":
		return Cnf, true
	case "tka":
		return Tka, true
	case "html", "json", "js", "css":
		return HtmlD3, true
	case "uri":
		return Uri, true
	case "calp":
		return Calp, true
	default:
		return 0, false
	}
}

var (
	// ErrParse is wrapped by every format-specific parse failure.
	ErrParse = errors.New("parse error")
	// ErrWrite is wrapped by every format-specific write failure.
	ErrWrite = errors.New("write error")
	// ErrInvalidSelection is returned by single-record writers when the
	// (samples, detectors) selection resolves to more than one record.
	ErrInvalidSelection = errors.New("selection resolves to more than one record")
)

// ParseError wraps a format-specific decode failure with the format that
// was attempted, per §7's ParseError taxonomy entry.
type ParseError struct {
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return ErrParse }

func newParseError(f Format, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: f, Err: err}
}

// WriteError wraps a format-specific encode failure, per §7's WriteError
// taxonomy entry.
type WriteError struct {
	Format Format
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Format, e.Err)
}

func (e *WriteError) Unwrap() error { return ErrWrite }

func newWriteError(f Format, err error) error {
	if err == nil {
		return nil
	}
	return &WriteError{Format: f, Err: err}
}

// Selection restricts a write to a subset of samples/detectors; nil maps
// mean "everything" (unlike spectrum.SpecFile.SumMeasurements, where a nil
// map selects no records).
type Selection struct {
	Samples   map[int]bool
	Detectors map[string]bool
}

func (s Selection) includes(r *spectrum.Record) bool {
	if s.Samples != nil && !s.Samples[r.SampleNumber] {
		return false
	}
	if s.Detectors != nil && !s.Detectors[r.DetectorName] {
		return false
	}
	return true
}

func selectedRecords(f *spectrum.SpecFile, sel Selection) []*spectrum.Record {
	var out []*spectrum.Record
	for _, r := range f.Records {
		if sel.includes(r) {
			out = append(out, r)
		}
	}
	return out
}

// Writer encodes the selected records of a SpecFile. Writers must not
// mutate spec.
type Writer func(spec *spectrum.SpecFile, sel Selection) ([]byte, error)

// Parser decodes a byte stream into a SpecFile.
type Parser func(data []byte) (*spectrum.SpecFile, error)

type registryEntry struct {
	format Format
	parser Parser
	writer Writer
}

// registry lists every format in the fixed sniff-preference order of §4.6:
// structured/self-describing formats first (XML, binary magic-number
// formats), free-form text formats last.
var registry = []registryEntry{
	{N42_2012, parseN42, writeN42_2012},
	{Pcf, parsePcf, writePcf},
	{Chn, parseChn, writeChn},
	{Cnf, parseCnf, writeCnf},
	{ExploraniumGr135v2, parseExploranium, writeExploraniumGr135},
	{ExploraniumGr130v0, nil, writeExploraniumGr130},
	{SpcBinaryInt, parseSpcBinary, writeSpcBinaryInt},
	{SpcBinaryFloat, nil, writeSpcBinaryFloat},
	{SpcAscii, parseSpcAscii, writeSpcAscii},
	{SpeIaea, parseSpe, writeSpe},
	{Csv, parseCsv, writeCsv},
	{Tka, parseTka, writeTka},
	{Txt, parseTxt, writeTxt},
	{N42_2006, nil, writeN42_2006},
	{HtmlD3, nil, writeHtmlD3},
	{Uri, nil, writeURI},
	{Calp, nil, WriteCALp},
}

// WriterFor returns the Writer for a format, or false if the format has no
// associated SpecFile writer (NumTypes only).
func WriterFor(f Format) (Writer, bool) {
	for _, e := range registry {
		if e.format == f && e.writer != nil {
			return e.writer, true
		}
	}
	return nil, false
}

// ParserFor returns the explicit-format Parser for f, or false if the
// format cannot be parsed (write-only formats like HtmlD3 and Uri).
func ParserFor(f Format) (Parser, bool) {
	for _, e := range registry {
		if e.format == f && e.parser != nil {
			return e.parser, true
		}
	}
	return nil, false
}

// Sniff tries every registered parser in preference order and returns the
// first success.
func Sniff(data []byte) (*spectrum.SpecFile, Format, error) {
	var firstErr error
	for _, e := range registry {
		if e.parser == nil {
			continue
		}
		spec, err := e.parser(data)
		if err == nil {
			return spec, e.format, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = errors.New("no parser recognized the input")
	}
	return nil, 0, firstErr
}
