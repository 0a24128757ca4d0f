package cliopts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseOptions() Options {
	return Options{Inputs: []string{"a.n42"}, Output: "out.chn"}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts func() Options
		want ExitCode
	}{
		{name: "no inputs", opts: func() Options { o := baseOptions(); o.Inputs = nil; return o }, want: NoInputFile},
		{name: "no output", opts: func() Options { o := baseOptions(); o.Output = ""; return o }, want: NoOutputFile},
		{name: "combine with recursive", opts: func() Options {
			o := baseOptions()
			o.Inputs = []string{"a.n42", "b.n42"}
			o.Combine, o.Recursive = true, true
			return o
		}, want: CombineWithRecursive},
		{name: "combine requires two inputs", opts: func() Options {
			o := baseOptions()
			o.Combine = true
			return o
		}, want: CombineTooFewInputs},
		{name: "combine forbids directory output", opts: func() Options {
			o := baseOptions()
			o.Inputs = []string{"a.n42", "b.n42"}
			o.Combine, o.OutputIsDir = true, true
			return o
		}, want: InvalidArgumentSyntax},
		{name: "combine sort requires combine", opts: func() Options {
			o := baseOptions()
			o.CombineSort = "time"
			return o
		}, want: CombineSortWithoutCombine},
		{name: "combine sort rejects non-time values", opts: func() Options {
			o := baseOptions()
			o.Inputs = []string{"a.n42", "b.n42"}
			o.Combine, o.CombineSort = true, "detector"
			return o
		}, want: CombineSortInvalidValue},
		{name: "sum groups mutually exclusive", opts: func() Options {
			o := baseOptions()
			o.SumDetPerSample, o.SumSamplesPerDet = true, true
			return o
		}, want: SumGroupsMutuallyExclusive},
		{name: "calp output forbids calp input", opts: func() Options {
			o := baseOptions()
			o.CALpOutput, o.CALpInput = true, true
			return o
		}, want: CALpOutputForbidsCALpInput},
		{name: "calp output forbids combine", opts: func() Options {
			o := baseOptions()
			o.Inputs = []string{"a.n42", "b.n42"}
			o.CALpOutput, o.Combine = true, true
			return o
		}, want: CALpOutputForbidsCombine},
		{name: "derived-only with no-derived", opts: func() Options {
			o := baseOptions()
			o.OnlyDerived, o.NoDerived = true, true
			return o
		}, want: DerivedOnlyWithNoDerived},
		{name: "invalid set-model", opts: func() Options {
			o := baseOptions()
			o.SetModel = "nonsense"
			return o
		}, want: InvalidSetModel},
		{name: "clean options succeed", opts: baseOptions, want: Success},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, err := tt.opts().Validate()
			assert.Equal(t, tt.want, code)
			if tt.want == Success {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestErrorAccumulatorPriorityOrder(t *testing.T) {
	var e ErrorAccumulator
	e.MarkSaveFailed()
	e.MarkDecodeFailed()
	assert.Equal(t, DecodeFailed, e.Priority(), "decode failure should outrank save failure")

	e.MarkInputMissing()
	assert.Equal(t, InputFileMissing, e.Priority(), "input-missing should outrank decode failure")

	e.MarkOutputExists()
	assert.Equal(t, OutputExists, e.Priority(), "output-exists should outrank everything else")
}

func TestErrorAccumulatorNoFailures(t *testing.T) {
	var e ErrorAccumulator
	assert.False(t, e.HasFailures())
	assert.Equal(t, Success, e.Priority())
}
