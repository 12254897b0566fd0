package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mrichange/internal/logging"
	"mrichange/pkg/config"
	"mrichange/pkg/pipeline"
)

type compareFlags struct {
	prior, current string
	outputDir      string
	configPath     string
	cores          int
	prefix         string
	intermediary   bool
	slices         bool
	sliceAxis      string
	sliceFormat    string
	logLevel       string
}

func newCompareCmd() *cobra.Command {
	f := &compareFlags{}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a prior and a current volume",
		Example: `  mrichange compare --prior prior.npy --current current.npy --out results
  mrichange compare --prior prior.npy --current current.npy --save-slices --slice-axis z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, f)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.prior, "prior", "", "Preprocessed prior volume (.npy)")
	fs.StringVar(&f.current, "current", "", "Preprocessed current volume (.npy)")
	fs.StringVarP(&f.outputDir, "out", "o", ".", "Output directory")
	fs.StringVarP(&f.configPath, "config", "c", "mrichange.yaml", "Configuration file (defaults are used when missing)")
	fs.IntVar(&f.cores, "cores", 0, "Number of CPU cores to use (default: from config)")
	fs.StringVar(&f.prefix, "prefix", "", "Output file name prefix (default: from config)")
	fs.BoolVar(&f.intermediary, "save-intermediary", false, "Save the normalized prior and the change field")
	fs.BoolVar(&f.slices, "save-slices", false, "Export 2D slices of both renderings")
	fs.StringVar(&f.sliceAxis, "slice-axis", "", "Axis to cut slices along: x, y or z")
	fs.StringVar(&f.sliceFormat, "slice-format", "", "Slice image format: png, jpeg or tiff")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	_ = cmd.MarkFlagRequired("prior")
	_ = cmd.MarkFlagRequired("current")

	return cmd
}

// applyFlags overrides configuration values with flags the user set explicitly
func applyFlags(cmd *cobra.Command, f *compareFlags, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("cores") {
		cfg.Processing.NumCores = f.cores
	}
	if fs.Changed("prefix") {
		cfg.Output.Prefix = f.prefix
	}
	if fs.Changed("save-intermediary") {
		cfg.Output.SaveIntermediaryResults = f.intermediary
	}
	if fs.Changed("save-slices") {
		cfg.Output.SaveSlices = f.slices
	}
	if fs.Changed("slice-axis") {
		cfg.Output.SliceAxis = f.sliceAxis
	}
	if fs.Changed("slice-format") {
		cfg.Output.SliceFormat = f.sliceFormat
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
}

func runCompare(cmd *cobra.Command, f *compareFlags) error {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, f, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	params := pipeline.ParamsFromConfig(cfg, f.prior, f.current, f.outputDir)
	logger.Info("starting comparison",
		"prior", params.PriorFile,
		"current", params.CurrentFile,
		"cores", params.NumCores,
		"minVal", params.Thresholds.MinVal,
		"maxVal", params.Thresholds.MaxVal,
		"minChange", params.Thresholds.MinChange,
		"maxChange", params.Thresholds.MaxChange)

	res, err := pipeline.NewComparator(params, logger).Process(cmd.Context())
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Increased voxels: %d\n", res.Stats.Increased)
	fmt.Fprintf(out, "Decreased voxels: %d\n", res.Stats.Decreased)
	fmt.Fprintf(out, "Changed fraction: %.4f%%\n", res.Stats.ChangedFraction*100)
	return nil
}
