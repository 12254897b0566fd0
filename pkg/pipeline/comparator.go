// Package pipeline runs one prior/current comparison end to end.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mrichange/internal/logging"
	"mrichange/internal/models"
	"mrichange/pkg/change"
	"mrichange/pkg/colormap"
	"mrichange/pkg/config"
	"mrichange/pkg/normalize"
	"mrichange/pkg/parallel"
	"mrichange/pkg/render"
	"mrichange/pkg/visualization"
	"mrichange/pkg/volumeio"
)

// Params holds the comparison parameters
type Params struct {
	// PriorFile and CurrentFile are the preprocessed, co-registered input volumes
	PriorFile   string
	CurrentFile string

	// OutputDir receives the increase and decrease renderings
	OutputDir string

	// Prefix is prepended to every output file name
	Prefix string

	// NumCores specifies how many CPU cores to use for elementwise passes
	NumCores int

	// Thresholds select which differences count as significant
	Thresholds change.Thresholds

	// SaveIntermediaryResults writes the normalized prior and the change field
	SaveIntermediaryResults bool

	// SaveSlices exports 2D slices of both renderings along SliceAxis
	SaveSlices  bool
	SliceAxis   string
	SliceFormat string
}

// ParamsFromConfig fills comparison parameters from the loaded configuration
func ParamsFromConfig(cfg *config.Config, priorFile, currentFile, outputDir string) *Params {
	return &Params{
		PriorFile:               priorFile,
		CurrentFile:             currentFile,
		OutputDir:               outputDir,
		Prefix:                  cfg.Output.Prefix,
		NumCores:                cfg.Processing.NumCores,
		Thresholds:              cfg.Thresholds,
		SaveIntermediaryResults: cfg.Output.SaveIntermediaryResults,
		SaveSlices:              cfg.Output.SaveSlices,
		SliceAxis:               cfg.Output.SliceAxis,
		SliceFormat:             cfg.Output.SliceFormat,
	}
}

// Result holds every product of one comparison
type Result struct {
	NormalizedPrior *models.Volume
	Change          *models.ChangeField
	Increase        *models.RGBVolume
	Decrease        *models.RGBVolume
	Stats           ChangeStats
}

// Comparator runs the change visualization pipeline:
// 1. Validating the input pair
// 2. Aligning the prior intensity distribution onto the current scan
// 3. Extracting the thresholded change field
// 4. Rendering the increase and decrease views
// 5. Summarizing the change
type Comparator struct {
	params    *Params
	logger    *slog.Logger
	normalize *normalize.Normalizer
	extract   *change.Extractor
	render    *render.Renderer
}

// NewComparator creates a comparator. A nil logger discards output.
func NewComparator(params *Params, logger *slog.Logger) *Comparator {
	if logger == nil {
		logger = logging.Discard()
	}
	exec := parallel.NewExecutor(params.NumCores)
	return &Comparator{
		params:    params,
		logger:    logger,
		normalize: normalize.NewNormalizer(exec),
		extract:   change.NewExtractor(params.Thresholds, exec),
		render:    render.NewRenderer(colormap.Default(), exec),
	}
}

// Compare runs every stage on an in-memory pair. The context is checked
// between stages; a stage in progress always runs to completion.
func (c *Comparator) Compare(ctx context.Context, prior, current *models.Volume) (*Result, error) {
	if err := c.params.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}

	// Step 1: Validate the input pair
	c.logger.Debug("validating inputs", "shape", current.Shape.String())
	if err := current.Check(); err != nil {
		return nil, fmt.Errorf("current volume: %w", err)
	}
	if err := prior.Check(); err != nil {
		return nil, fmt.Errorf("prior volume: %w", err)
	}
	if err := models.CheckSameShape("validate", current.Shape, prior.Shape); err != nil {
		return nil, err
	}

	// Step 2: Align the prior onto the current intensity scale
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.logger.Info("aligning prior intensity distribution")
	aligned, err := c.normalize.Align(prior, current)
	if err != nil {
		return nil, fmt.Errorf("failed to align prior: %w", err)
	}

	// Step 3: Extract the thresholded change field
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.logger.Info("extracting change field")
	field, err := c.extract.Compare(current, aligned)
	if err != nil {
		return nil, fmt.Errorf("failed to extract change: %w", err)
	}

	// Step 4: Render the increase and decrease views
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.logger.Info("applying colormaps")
	inc, dec, err := c.render.Render(current, field)
	if err != nil {
		return nil, fmt.Errorf("failed to render change: %w", err)
	}

	// Step 5: Summarize
	stats := ComputeStats(current, field)
	c.logger.Info("comparison complete",
		"increased", stats.Increased,
		"decreased", stats.Decreased,
		"changedFraction", stats.ChangedFraction,
		"maxIncrease", stats.MaxIncrease,
		"maxDecrease", stats.MaxDecrease)

	return &Result{
		NormalizedPrior: aligned,
		Change:          field,
		Increase:        inc,
		Decrease:        dec,
		Stats:           stats,
	}, nil
}

// Process loads the input files, runs Compare and writes the outputs
func (c *Comparator) Process(ctx context.Context) (*Result, error) {
	start := time.Now()

	c.logger.Info("loading volumes", "prior", c.params.PriorFile, "current", c.params.CurrentFile)
	prior, err := volumeio.LoadVolume(c.params.PriorFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load prior: %w", err)
	}
	current, err := volumeio.LoadVolume(c.params.CurrentFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load current: %w", err)
	}

	res, err := c.Compare(ctx, prior, current)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(c.params.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, rgb := range []*models.RGBVolume{res.Increase, res.Decrease} {
		path := c.OutputPath(string(rgb.Series) + ".npy")
		if err := volumeio.SaveRGB(path, rgb); err != nil {
			return nil, err
		}
		c.logger.Info("saved rendering", "series", rgb.Series, "path", path)
	}

	if c.params.SaveIntermediaryResults {
		if err := volumeio.SaveVolume(c.OutputPath("normalized-prior.npy"), res.NormalizedPrior); err != nil {
			return nil, err
		}
		if err := volumeio.SaveChangeField(c.OutputPath("change.npy"), res.Change, current.Transform); err != nil {
			return nil, err
		}
		c.logger.Info("saved intermediary results", "dir", c.params.OutputDir)
	}

	if c.params.SaveSlices {
		for _, rgb := range []*models.RGBVolume{res.Increase, res.Decrease} {
			dir := c.OutputPath(string(rgb.Series) + "-slices")
			viewer := visualization.NewViewer(rgb)
			if err := viewer.SaveSliceSequence(c.params.SliceAxis, c.params.SliceFormat, dir); err != nil {
				return nil, fmt.Errorf("failed to save %s slices: %w", rgb.Series, err)
			}
			c.logger.Info("saved slices", "series", rgb.Series, "axis", c.params.SliceAxis, "dir", dir)
		}
	}

	c.logger.Info("all done", "elapsed", time.Since(start).Round(time.Millisecond))
	return res, nil
}

// OutputPath joins the output directory, prefix and name
func (c *Comparator) OutputPath(name string) string {
	return filepath.Join(c.params.OutputDir, c.params.Prefix+name)
}
