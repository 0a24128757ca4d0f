package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"specconv/pkg/cliopts"
	"specconv/pkg/codec"
)

// exitError carries a specific taxonomy exit code out of a cobra RunE,
// using SilenceUsage/SilenceErrors to keep cobra's own error printing out
// of the way of the full exit-code table this command returns instead of
// a flat success/failure split.
type exitError struct {
	code cliopts.ExitCode
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func asExitError(err error) (*exitError, bool) {
	ce, ok := err.(*exitError)
	return ce, ok
}

// lastExitCode is set by runConvert on success paths that still need a
// non-zero code (e.g. a partial-failure run that still returns nil so
// cobra doesn't print usage).
var lastExitCode cliopts.ExitCode

// cliFlags mirrors cliopts.Options/transform.Options, bound directly to
// cobra flags and layered under viper config.
type cliFlags struct {
	output             string
	outputIsDir        bool
	formatName         string
	recursive          bool
	force              bool
	combine            bool
	combineSort        string
	combineMulti       bool
	sumDetPerSample    bool
	sumSamplesPerDet   bool
	sumAll             bool
	sumForTimeSeconds  float64
	backgroundSubtract bool
	onlyDerived        bool
	noDerived          bool
	noBackground       bool
	noForeground       bool
	noIntrinsic        bool
	noCalibration      bool
	noUnknown          bool
	excludeDetectors   []string
	includeDetectors   []string
	normalizeNames     bool
	rebinFactorExp     int
	linearizeLower     float64
	linearizeUpper     float64
	calpInput          string
	calpOutput         bool
	numURIChunks       int
	urlSafeBase64      bool
	noBaseXEncoding    bool
	setModel           string
	verbose            bool
	config             string
}

// NewRootCommand builds the specconv CLI surface.
func NewRootCommand() *cobra.Command {
	var flags cliFlags

	cmd := &cobra.Command{
		Use:   "specconv <input...> <output>",
		Short: "Batch-convert gamma-spectrometry files between vendor formats",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := args[:len(args)-1]
			output := args[len(args)-1]
			return runConvert(inputs, output, flags)
		},
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	setupFlags(cmd, &flags)
	return cmd
}

func setupFlags(cmd *cobra.Command, f *cliFlags) {
	cmd.Flags().StringVar(&f.formatName, "type", viper.GetString("output.type"), "output format token (txt,csv,pcf,n42,...)")
	cmd.Flags().BoolVar(&f.outputIsDir, "output-dir", viper.GetBool("output.is_dir"), "treat the output argument as a directory")
	cmd.Flags().BoolVarP(&f.recursive, "recursive", "r", viper.GetBool("input.recursive"), "recurse into input directories")
	cmd.Flags().BoolVar(&f.force, "force", viper.GetBool("output.force"), "overwrite existing output files")

	cmd.Flags().BoolVar(&f.combine, "combine-input-files", false, "merge all inputs into one file before writing")
	cmd.Flags().StringVar(&f.combineSort, "combine-input-files-sort", "", "combine record order: \"\" (argv order) or \"time\"")
	cmd.Flags().BoolVar(&f.combineMulti, "combine-multi", false, "for single-record writer formats, sum a file's own multiple records into one instead of writing each separately")

	cmd.Flags().BoolVar(&f.sumDetPerSample, "sum-det-per-sample", false, "sum all detectors within each sample")
	cmd.Flags().BoolVar(&f.sumSamplesPerDet, "sum-samples-per-det", false, "sum all samples within each detector")
	cmd.Flags().BoolVar(&f.sumAll, "sum-all", false, "sum every remaining record into one")
	cmd.Flags().Float64Var(&f.sumForTimeSeconds, "sum-for-time-seconds", 0, "bucket per-sample sums into fixed time windows")
	cmd.Flags().BoolVar(&f.backgroundSubtract, "background-subtract", false, "subtract the background record from foreground records")

	cmd.Flags().BoolVar(&f.onlyDerived, "derived-only", false, "keep only derived-data records")
	cmd.Flags().BoolVar(&f.noDerived, "no-derived", false, "drop derived-data records")
	cmd.Flags().BoolVar(&f.noBackground, "no-background", false, "drop background-source records")
	cmd.Flags().BoolVar(&f.noForeground, "no-foreground", false, "drop foreground-source records")
	cmd.Flags().BoolVar(&f.noIntrinsic, "no-intrinsic", false, "drop intrinsic-source records")
	cmd.Flags().BoolVar(&f.noCalibration, "no-calibration", false, "drop calibration-source records")
	cmd.Flags().BoolVar(&f.noUnknown, "no-unknown", false, "drop unknown-source records")

	cmd.Flags().StringSliceVar(&f.excludeDetectors, "exclude-detector", nil, "detector names to drop")
	cmd.Flags().StringSliceVar(&f.includeDetectors, "include-detector", nil, "detector names to keep (all others dropped)")
	cmd.Flags().BoolVar(&f.normalizeNames, "normalize-n42-names", false, "rename detectors into the N42 naming convention")

	cmd.Flags().IntVar(&f.rebinFactorExp, "rebin-factor-exp", 0, "channel-combine factor exponent (factor = 2^(n-1))")
	cmd.Flags().Float64Var(&f.linearizeLower, "linearize-lower-kev", 0, "linearization lower bound, keV")
	cmd.Flags().Float64Var(&f.linearizeUpper, "linearize-upper-kev", 0, "linearization upper bound, keV")

	cmd.Flags().StringVar(&f.calpInput, "calp-input", "", "CALp sidecar file to apply before writing")
	cmd.Flags().BoolVar(&f.calpOutput, "calp-output", false, "write a CALp sidecar instead of a spectrum file")

	cmd.Flags().IntVar(&f.numURIChunks, "num-uri", 1, "number of URI chunks (1-9); checked by validation only, Uri output is always one base32 chunk")
	cmd.Flags().BoolVar(&f.urlSafeBase64, "url-safe-base64", false, "URL-safe base64 for Uri output; checked by validation only, Uri output always uses base32")
	cmd.Flags().BoolVar(&f.noBaseXEncoding, "no-basex-encoding", false, "raw bytes for Uri output; checked by validation only, Uri output always uses base32")

	cmd.Flags().StringVar(&f.setModel, "set-model", "", "force an energy-calibration model (polynomial, fullrangefraction, lowerchanneledge)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "enable debug-level logging")
	cmd.Flags().StringVar(&f.config, "config", "", "optional INI config file; it is loaded, but its values do not change any option")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "error binding flags: %v\n", err)
	}
}

// loadConfig reads an optional INI config file into viper. It runs after
// the flags are parsed, and runConvert takes every setting from the
// cliFlags struct, so values from the file do not change any option.
func loadConfig(path string) error {
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("ini")
	return viper.ReadInConfig()
}

// resolveFormat maps the CLI's format token to a codec.Format, returning
// UnknownOutputFormat (§6 code 4) when the token isn't recognized.
func resolveFormat(name string) (codec.Format, error) {
	f, ok := codec.FormatFromName(name)
	if !ok {
		return 0, &exitError{code: cliopts.UnknownOutputFormat, err: fmt.Errorf("output format could not be determined from %q", name)}
	}
	return f, nil
}
