// Package pipeline implements the per-file driver: parse, transform, and
// hand off to either the combine engine or the output planner,
// accumulating per-file failures instead of aborting the run.
package pipeline

import (
	"fmt"
	"io"
	"log/slog"

	"specconv/pkg/codec"
	"specconv/pkg/spectrum"
	"specconv/pkg/transform"
)

// ResultKind classifies what happened to one input file.
type ResultKind int

const (
	Parsed ResultKind = iota
	ParseFailed
	WriteFailed
)

// FileResult is one entry in the driver's ordered, per-file accounting,
// logged at the level matching its severity rather than aborting the run.
type FileResult struct {
	Path string
	Kind ResultKind
	Err  error
	Spec *spectrum.SpecFile
}

// Logger builds the driver's structured logger, level bound to verbose so
// callers can raise it the same way birdnet-go's internal/conf ties a
// leveler to Settings.Debug.
func Logger(verbose bool, w io.Writer) *slog.Logger {
	level := new(slog.LevelVar)
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Driver owns the logger and format used across a batch run.
type Driver struct {
	Log    *slog.Logger
	Format codec.Format // explicit format, or NumTypes to sniff
}

// ProcessOne parses one input file's bytes, applies the transform pipeline,
// and returns the resulting FileResult. It never returns a Go error itself;
// failures are carried in the FileResult so the caller can keep going (§4.3
// step 1: "record input path and continue with next file").
func (d *Driver) ProcessOne(path string, data []byte, opts transform.Options) FileResult {
	spec, err := d.parse(data)
	if err != nil {
		d.Log.Warn("parse failed", "path", path, "err", err)
		return FileResult{Path: path, Kind: ParseFailed, Err: err}
	}

	transform.Run(spec, opts)

	d.Log.Debug("processed", "path", path, "records", len(spec.Records))
	return FileResult{Path: path, Kind: Parsed, Spec: spec}
}

func (d *Driver) parse(data []byte) (*spectrum.SpecFile, error) {
	if d.Format == codec.NumTypes {
		spec, _, err := codec.Sniff(data)
		return spec, err
	}
	parser, ok := codec.ParserFor(d.Format)
	if !ok {
		return nil, fmt.Errorf("format %s has no parser", d.Format)
	}
	return parser(data)
}

// Summarize reports the exit-relevant outcome of a batch of results: whether
// any parse failures occurred (drives exit code 7) and whether any write
// failures occurred.
func Summarize(results []FileResult) (anyParseFailed bool, anyWriteFailed bool) {
	for _, r := range results {
		switch r.Kind {
		case ParseFailed:
			anyParseFailed = true
		case WriteFailed:
			anyWriteFailed = true
		}
	}
	return
}

// Error renders a FileResult's failure, if any, for top-level reporting.
func (r FileResult) Error() string {
	if r.Err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", r.Path, r.Err)
}
