// Package output implements the output planner: given a post-pipeline
// SpecFile and the user's output target, it decides how many files to
// produce and what each is named, then returns ready-to-write Tasks for
// the caller to hand to pkg/codec.
package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"specconv/pkg/codec"
	"specconv/pkg/spectrum"
)

// Policy is the multi-record policy of §4.4, meaningful only for
// single-record writer formats (CHN, SPC variants, SPE, CNF, TKA).
type Policy int

const (
	// CurrentOnly emits the single currently-selected record; the CLI
	// path never selects this (§4.4 notes it as undefined in batch mode),
	// it exists for API completeness.
	CurrentOnly Policy = iota
	SumToOne
	EachSeparate
)

// Task is one file to write: a ready-to-serialize SpecFile and its
// destination path.
type Task struct {
	Path string
	Spec *spectrum.SpecFile
}

// PlanOptions collects everything the planner needs about the run's output
// target and the file currently being processed.
type PlanOptions struct {
	Format      codec.Format
	InputPath   string
	OutputArg   string
	OutputIsDir bool
	Policy      Policy
}

// Plan decides the output file(s) for one post-pipeline SpecFile.
func Plan(spec *spectrum.SpecFile, opts PlanOptions) ([]Task, error) {
	if opts.OutputIsDir {
		return planToDirectory(spec, opts)
	}
	return planToFile(spec, opts)
}

func planToDirectory(spec *spectrum.SpecFile, opts PlanOptions) ([]Task, error) {
	base := strings.TrimSuffix(filepath.Base(opts.InputPath), filepath.Ext(opts.InputPath))
	ext := codec.Extension(opts.Format)

	if !codec.SingleRecord(opts.Format) {
		return []Task{{Path: filepath.Join(opts.OutputArg, fmt.Sprintf("%s.%s", base, ext)), Spec: spec}}, nil
	}

	switch opts.Policy {
	case SumToOne:
		summed, err := sumToOneFile(spec)
		if err != nil {
			return nil, err
		}
		return []Task{{Path: filepath.Join(opts.OutputArg, fmt.Sprintf("%s.%s", base, ext)), Spec: summed}}, nil

	case EachSeparate:
		if len(spec.Records) <= 1 {
			return []Task{{Path: filepath.Join(opts.OutputArg, fmt.Sprintf("%s.%s", base, ext)), Spec: spec}}, nil
		}
		tasks := make([]Task, len(spec.Records))
		for i, r := range spec.Records {
			path := filepath.Join(opts.OutputArg, fmt.Sprintf("%s_%04d.%s", base, i, ext))
			tasks[i] = Task{Path: path, Spec: singleRecordFile(spec, r)}
		}
		return tasks, nil

	default: // CurrentOnly
		if len(spec.Records) == 0 {
			return nil, fmt.Errorf("no records to write")
		}
		return []Task{{Path: filepath.Join(opts.OutputArg, fmt.Sprintf("%s.%s", base, ext)), Spec: singleRecordFile(spec, spec.Records[0])}}, nil
	}
}

func planToFile(spec *spectrum.SpecFile, opts PlanOptions) ([]Task, error) {
	if !codec.SingleRecord(opts.Format) {
		return []Task{{Path: opts.OutputArg, Spec: spec}}, nil
	}

	switch opts.Policy {
	case EachSeparate:
		if len(spec.Records) > 1 {
			return nil, fmt.Errorf("each-separate output policy requires a directory target, got file %q", opts.OutputArg)
		}
		if len(spec.Records) == 1 {
			return []Task{{Path: opts.OutputArg, Spec: singleRecordFile(spec, spec.Records[0])}}, nil
		}
		return nil, fmt.Errorf("no records to write")

	default: // SumToOne or CurrentOnly: both resolve to a single file
		summed, err := sumToOneFile(spec)
		if err != nil {
			return nil, err
		}
		return []Task{{Path: opts.OutputArg, Spec: summed}}, nil
	}
}

func sumToOneFile(spec *spectrum.SpecFile) (*spectrum.SpecFile, error) {
	if len(spec.Records) <= 1 {
		return spec, nil
	}
	samples := map[int]bool{}
	detectors := map[string]bool{}
	for _, r := range spec.Records {
		samples[r.SampleNumber] = true
		detectors[r.DetectorName] = true
	}
	sum, err := spec.SumMeasurements(samples, detectors)
	if err != nil {
		return nil, fmt.Errorf("sum-to-one output policy: %w", err)
	}
	return singleRecordFile(spec, sum), nil
}

// singleRecordFile wraps one record in a shallow copy of spec's metadata,
// for writers that accept exactly one record.
func singleRecordFile(spec *spectrum.SpecFile, r *spectrum.Record) *spectrum.SpecFile {
	clone := *spec
	clone.Records = []*spectrum.Record{r}
	return &clone
}
