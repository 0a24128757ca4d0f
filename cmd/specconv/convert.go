package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"specconv/pkg/cliopts"
	"specconv/pkg/codec"
	"specconv/pkg/combine"
	"specconv/pkg/output"
	"specconv/pkg/pipeline"
	"specconv/pkg/spectrum"
	"specconv/pkg/transform"
)

func runConvert(inputArgs []string, outputArg string, f cliFlags) error {
	if err := loadConfig(f.config); err != nil {
		return &exitError{code: cliopts.InvalidArgumentSyntax, err: fmt.Errorf("loading config: %w", err)}
	}

	var format codec.Format
	if f.calpOutput {
		format = codec.Calp
	} else {
		resolved, ferr := resolveFormat(f.formatName)
		if ferr != nil {
			return ferr
		}
		format = resolved
	}

	candidates, err := expandInputs(inputArgs, f.recursive)
	if err != nil {
		return &exitError{code: cliopts.InputFileMissing, err: err}
	}
	inputs := make([]string, len(candidates))
	for i, c := range candidates {
		inputs[i] = c.AbsPath
	}

	outInfo, statErr := os.Stat(outputArg)
	outputIsDir := f.outputIsDir || (statErr == nil && outInfo.IsDir())

	opts := cliopts.Options{
		Inputs:            inputs,
		Output:            outputArg,
		OutputIsDir:       outputIsDir,
		Recursive:         f.recursive,
		ForceOverwrite:    f.force,
		Combine:           f.combine,
		CombineSort:       f.combineSort,
		SumDetPerSample:   f.sumDetPerSample,
		SumSamplesPerDet:  f.sumSamplesPerDet,
		NumURIChunks:      f.numURIChunks,
		OutputRecordCount: 1,
		UseURLSafeBase64:  f.urlSafeBase64,
		NoBaseXEncoding:   f.noBaseXEncoding,
		CALpOutput:        f.calpOutput,
		CALpInput:         f.calpInput != "",
		OnlyDerived:       f.onlyDerived,
		NoDerived:         f.noDerived,
		SetModel:          f.setModel,
	}
	if code, verr := opts.Validate(); verr != nil {
		return &exitError{code: code, err: verr}
	}

	var calpBlocks []spectrum.CALpBlock
	if f.calpInput != "" {
		data, err := os.ReadFile(f.calpInput)
		if err != nil {
			return &exitError{code: cliopts.InputFileMissing, err: err}
		}
		calpBlocks, err = spectrum.ParseCALp(data)
		if err != nil {
			return &exitError{code: cliopts.DecodeFailed, err: err}
		}
	}

	transformOpts := transform.Options{
		ExcludeDetectors:       f.excludeDetectors,
		IncludeDetectors:       f.includeDetectors,
		NoBackground:           f.noBackground,
		NoForeground:           f.noForeground,
		NoIntrinsic:            f.noIntrinsic,
		NoCalibration:          f.noCalibration,
		NoUnknown:              f.noUnknown,
		OnlyDerived:            f.onlyDerived,
		NoDerived:              f.noDerived,
		SumAll:                 f.sumAll,
		SumForTimeSeconds:      f.sumForTimeSeconds,
		BackgroundSubtract:     f.backgroundSubtract,
		NormalizeDetectorNames: f.normalizeNames,
		CALpBlocks:             calpBlocks,
		SetModel:               calibrationModelFromName(f.setModel),
		RebinFactorExp:         f.rebinFactorExp,
		LinearizeLowerKeV:      f.linearizeLower,
		LinearizeUpperKeV:      f.linearizeUpper,
		SumDetPerSample:        f.sumDetPerSample,
		SumSamplesPerDet:       f.sumSamplesPerDet,
	}

	driver := &pipeline.Driver{Log: pipeline.Logger(f.verbose, os.Stderr), Format: codec.NumTypes}

	type parsedInput struct {
		candidate pipeline.Candidate
		spec      *spectrum.SpecFile
	}

	var errs cliopts.ErrorAccumulator
	var parsed []parsedInput
	var results []pipeline.FileResult

	for _, c := range candidates {
		data, err := os.ReadFile(c.AbsPath)
		if err != nil {
			errs.MarkInputMissing()
			results = append(results, pipeline.FileResult{Path: c.AbsPath, Kind: pipeline.ParseFailed, Err: err})
			continue
		}
		result := driver.ProcessOne(c.AbsPath, data, transformOpts)
		results = append(results, result)
		if result.Kind == pipeline.ParseFailed {
			errs.MarkDecodeFailed()
			continue
		}
		parsed = append(parsed, parsedInput{candidate: c, spec: result.Spec})
	}

	var summary output.Summary

	if f.combine {
		specs := make([]*spectrum.SpecFile, len(parsed))
		for i, p := range parsed {
			specs[i] = p.spec
		}
		sortMode := combine.PreserveOrder
		if opts.CombineSort == "time" {
			sortMode = combine.SortByTime
		}
		merged, err := combine.Combine(specs, combine.Options{Sort: sortMode, SumAll: f.sumAll})
		if err != nil {
			return &exitError{code: cliopts.InvalidArgumentSyntax, err: err}
		}
		if err := writeSpec(merged, format, outputArg, false, output.SumToOne, pipeline.Candidate{AbsPath: "combined", RelPath: "combined"}, f.force, &summary, &errs); err != nil {
			return &exitError{code: cliopts.SaveFailed, err: err}
		}
	} else {
		for _, p := range parsed {
			policy := output.SumToOne
			if len(p.spec.Records) > 1 && !f.combineMulti {
				policy = output.EachSeparate
			}
			if err := writeSpec(p.spec, format, outputArg, outputIsDir, policy, p.candidate, f.force, &summary, &errs); err != nil {
				errs.MarkSaveFailed()
			}
		}
	}

	printSummary(summary, errs)

	lastExitCode = errs.Priority()
	return nil
}

// writeSpec plans and writes one parsed input's output. For a recursive
// run, c.RelPath carries the input's path relative to its scan root, and
// the destination directory is widened with pipeline.MirrorPath so nested
// inputs mirror their directory structure under outputArg instead of
// collapsing into one flat directory.
func writeSpec(spec *spectrum.SpecFile, format codec.Format, outputArg string, outputIsDir bool, policy output.Policy, c pipeline.Candidate, force bool, summary *output.Summary, errs *cliopts.ErrorAccumulator) error {
	targetDir := outputArg
	if outputIsDir {
		targetDir = filepath.Dir(pipeline.MirrorPath(outputArg, c, codec.Extension(format)))
	}

	tasks, err := output.Plan(spec, output.PlanOptions{Format: format, InputPath: c.AbsPath, OutputArg: targetDir, OutputIsDir: outputIsDir, Policy: policy})
	if err != nil {
		return err
	}

	writer, ok := codec.WriterFor(format)
	if !ok {
		return fmt.Errorf("format %s has no writer", format)
	}

	for _, task := range tasks {
		writable, err := output.Writable(task.Path, force)
		if err != nil {
			return err
		}
		if !writable {
			errs.MarkOutputExists()
			summary.RecordSkipped(task.Path)
			continue
		}
		data, err := writer(task.Spec, codec.Selection{})
		if err != nil {
			errs.MarkSaveFailed()
			continue
		}
		if err := os.MkdirAll(filepath.Dir(task.Path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(task.Path, data, 0o644); err != nil {
			errs.MarkSaveFailed()
			continue
		}
		summary.RecordWritten(task.Path, len(data))
	}
	return nil
}

// calibrationModelFromName maps the validated --set-model token to the
// calibration model it forces; "" (unset) maps to spectrum.Invalid, which
// transform.ApplySetModel treats as a no-op.
func calibrationModelFromName(name string) spectrum.CalibrationModel {
	switch name {
	case "polynomial":
		return spectrum.Polynomial
	case "fullrangefraction":
		return spectrum.FullRangeFraction
	case "lowerchanneledge":
		return spectrum.LowerChannelEdge
	default:
		return spectrum.Invalid
	}
}

// expandInputs resolves the input argument list into a flat candidate list,
// recursing into directories when recursive is set (§4.3, §4.4's recursive
// input-dir mode), filtering oversized candidates per §5. A directly-named
// file (not discovered by recursion) carries its own basename as RelPath,
// so it mirrors to outputArg's top level rather than a subdirectory.
func expandInputs(args []string, recursive bool) ([]pipeline.Candidate, error) {
	var out []pipeline.Candidate
	for _, a := range args {
		info, err := os.Stat(a)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", a, err)
		}
		if !info.IsDir() {
			out = append(out, pipeline.Candidate{AbsPath: a, RelPath: filepath.Base(a)})
			continue
		}
		if !recursive {
			return nil, fmt.Errorf("input %q is a directory; pass --recursive", a)
		}
		candidates, skipped, err := pipeline.Discover(a)
		if err != nil {
			return nil, err
		}
		for _, c := range skipped {
			fmt.Fprintln(os.Stderr, pipeline.SkipWarning(c))
		}
		out = append(out, candidates...)
	}
	return out, nil
}

// printSummary renders the end-of-run report, colored when stdout is a
// terminal (mattn/go-isatty), plain otherwise.
func printSummary(summary output.Summary, errs cliopts.ErrorAccumulator) {
	colored := isatty.IsTerminal(os.Stdout.Fd())
	line := summary.Report()
	if errs.HasFailures() {
		if colored {
			fmt.Fprintf(os.Stdout, "\x1b[31m%s\x1b[0m\n", line)
			return
		}
	} else if colored {
		fmt.Fprintf(os.Stdout, "\x1b[32m%s\x1b[0m\n", line)
		return
	}
	fmt.Fprintln(os.Stdout, line)
}
