package cliopts

import "fmt"

// Options collects every CLI-level setting that needs cross-option
// validation before the run starts. Transform-step settings themselves
// live in transform.Options; this struct only carries what validation
// needs to see them together.
type Options struct {
	Inputs         []string
	Output         string
	OutputIsDir    bool
	Recursive      bool
	ForceOverwrite bool

	Combine     bool
	CombineSort string // "" or "time"

	SumDetPerSample  bool
	SumSamplesPerDet bool

	NumURIChunks      int
	OutputRecordCount int // number of records the chosen writer would emit

	UseURLSafeBase64 bool
	NoBaseXEncoding  bool

	CALpOutput bool
	CALpInput  bool

	OnlyDerived bool
	NoDerived   bool

	SetModel string // "" means unset
}

var validSetModels = map[string]bool{
	"":                   true,
	"polynomial":         true,
	"fullrangefraction":  true,
	"lowerchanneledge":   true,
}

// Validate runs every cross-option rule cataloged in §4.7, in the order
// the table lists them, and returns the first violation found.
func (o Options) Validate() (ExitCode, error) {
	if len(o.Inputs) == 0 {
		return NoInputFile, fmt.Errorf("no input file specified")
	}
	if o.Output == "" {
		return NoOutputFile, fmt.Errorf("no output file or directory specified")
	}

	if o.Combine && o.Recursive {
		return CombineWithRecursive, fmt.Errorf("combine-input-files cannot be used with recursive")
	}
	if o.Combine && len(o.Inputs) < 2 {
		return CombineTooFewInputs, fmt.Errorf("combine-input-files requires at least 2 input files, got %d", len(o.Inputs))
	}
	if o.Combine && o.OutputIsDir {
		return InvalidArgumentSyntax, fmt.Errorf("combine-input-files requires an output filename, not a directory")
	}
	if o.CombineSort != "" {
		if !o.Combine {
			return CombineSortWithoutCombine, fmt.Errorf("combine-input-files-sort requires combine-input-files")
		}
		if o.CombineSort != "time" {
			return CombineSortInvalidValue, fmt.Errorf("combine-input-files-sort accepts only \"time\", got %q", o.CombineSort)
		}
	}

	if o.SumDetPerSample && o.SumSamplesPerDet {
		return SumGroupsMutuallyExclusive, fmt.Errorf("sum-det-per-sample and sum-samples-per-det are mutually exclusive")
	}

	if o.NumURIChunks > 1 && o.OutputRecordCount > 1 {
		return InvalidArgumentSyntax, fmt.Errorf("num-uri > 1 requires a single output record, got %d", o.OutputRecordCount)
	}
	if o.UseURLSafeBase64 && o.NoBaseXEncoding {
		return InvalidArgumentSyntax, fmt.Errorf("UseUrlSafeBase64 and NoBaseXEncoding are mutually exclusive")
	}

	if o.CALpOutput && o.CALpInput {
		return CALpOutputForbidsCALpInput, fmt.Errorf("calp output forbids calp input")
	}
	if o.CALpOutput && o.Combine {
		return CALpOutputForbidsCombine, fmt.Errorf("calp output forbids combine mode")
	}

	if o.OnlyDerived && o.NoDerived {
		return DerivedOnlyWithNoDerived, fmt.Errorf("derived-only and no-derived are mutually exclusive")
	}

	if !validSetModels[o.SetModel] {
		return InvalidSetModel, fmt.Errorf("invalid --set-model value %q", o.SetModel)
	}

	return Success, nil
}
