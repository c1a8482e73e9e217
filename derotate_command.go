package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yargevad/filepathx"

	"github.com/rickbassham/fitsderotate/common"
	"github.com/rickbassham/fitsderotate/config"
	"github.com/rickbassham/fitsderotate/grid"
	"github.com/rickbassham/fitsderotate/naming"
	"github.com/rickbassham/fitsderotate/pipeline"
	"github.com/rickbassham/fitsderotate/reproject"
)

type derotateFlags struct {
	outputDir    string
	momentOut    string
	cubeOut      string
	footprintOut string
	previewOut   string
	telescope    string
	interp       string
}

func newDerotateCommand(ctx *commandContext) *cobra.Command {
	var flags derotateFlags

	cmd := &cobra.Command{
		Use:   "derotate <glob>...",
		Short: "Write a north-up moment-0 map and cube for each input",
		Long: "Integrates each input cube along its spectral axis, derives an axis-aligned\n" +
			"grid that contains the rotated frame, and reprojects the moment map and the\n" +
			"cube onto it. Globs accept ** to match directories recursively.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			flags.apply(cfg)
			if err := cfg.Normalize(); err != nil {
				return common.ConfigurationError("config", err)
			}
			if err := cfg.Validate(); err != nil {
				return common.ConfigurationError("config", err)
			}

			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}

			opts, err := pipelineOptions(cfg)
			if err != nil {
				return err
			}

			var files []string
			for _, pattern := range args {
				matches, err := filepathx.Glob(pattern)
				if err != nil {
					return common.ConfigurationError("glob "+pattern, err)
				}
				files = append(files, matches...)
			}
			if len(files) == 0 {
				return common.IOError("glob", fmt.Sprint(args), fmt.Errorf("no files matched"))
			}
			logger.Info("found matching files", "count", len(files))

			corrector := pipeline.New(opts, logger)
			for _, file := range files {
				res, err := corrector.Run(file)
				if err != nil {
					logger.Error("derotation failed", "input", file, "error", err)
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s, %s\n", file, res.Moment, res.Cube)
			}

			logger.Info("done", "files", len(files))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.outputDir, "output-dir", "o", "", "Directory for output files")
	f.StringVar(&flags.momentOut, "moment-out", "", "Template for the moment-0 map file name")
	f.StringVar(&flags.cubeOut, "cube-out", "", "Template for the reprojected cube file name")
	f.StringVar(&flags.footprintOut, "footprint-out", "", "Template for the optional coverage mask file name")
	f.StringVar(&flags.previewOut, "preview-out", "", "Template for the optional PNG preview file name")
	f.StringVar(&flags.telescope, "telescope", "", "TELESCOP value written to the outputs")
	f.StringVar(&flags.interp, "interp", "", "Interpolation: bilinear or nearest")

	return cmd
}

func (f derotateFlags) apply(cfg *config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Output.Dir, f.outputDir)
	set(&cfg.Output.Moment, f.momentOut)
	set(&cfg.Output.Cube, f.cubeOut)
	set(&cfg.Output.Footprint, f.footprintOut)
	set(&cfg.Output.Preview, f.previewOut)
	set(&cfg.Header.Telescope, f.telescope)
	set(&cfg.Reproject.Interpolation, f.interp)
}

// pipelineOptions translates a validated configuration into run options.
func pipelineOptions(cfg *config.Config) (pipeline.Options, error) {
	kernel, err := reproject.ParseKernel(cfg.Reproject.Interpolation)
	if err != nil {
		return pipeline.Options{}, common.ConfigurationError("interpolation", err)
	}

	g := grid.Options{
		RadeSys:       cfg.Header.RadeSys,
		Equinox:       cfg.Header.Equinox,
		Telescope:     cfg.Header.Telescope,
		BUnit:         cfg.Header.MomentBUnit,
		Center:        cfg.Header.Center,
		SpectralCType: cfg.Header.SpectralCType,
	}
	copy(g.CType[:], cfg.Header.CType)

	template := func(s string) *naming.Template {
		if s == "" {
			return nil
		}
		t := naming.Parse(s)
		t.NoSpace = cfg.Output.NoSpace
		return t
	}

	return pipeline.Options{
		Grid:      g,
		Kernel:    kernel,
		OutputDir: cfg.Output.Dir,
		Moment:    template(cfg.Output.Moment),
		Cube:      template(cfg.Output.Cube),
		Footprint: template(cfg.Output.Footprint),
		Preview:   template(cfg.Output.Preview),
	}, nil
}
