package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/yargevad/filepathx"

	"github.com/rickbassham/fitsderotate/common"
	"github.com/rickbassham/fitsderotate/grid"
	"github.com/rickbassham/fitsderotate/pipeline"
	"github.com/rickbassham/fitsderotate/wcs"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <glob>...",
		Short: "Show the rotation and derived output grid of each input",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			opts, err := pipelineOptions(cfg)
			if err != nil {
				return err
			}

			var rows [][]string
			for _, pattern := range args {
				matches, err := filepathx.Glob(pattern)
				if err != nil {
					return common.ConfigurationError("glob "+pattern, err)
				}
				for _, file := range matches {
					rows = append(rows, inspectRow(file, opts.Grid))
				}
			}
			if len(rows) == 0 {
				return common.IOError("glob", fmt.Sprint(args), fmt.Errorf("no files matched"))
			}

			headers := []string{"File", "NAXIS", "CTYPE", "Rotation", "Scale (\")", "Side", "CRPIX", "CRVAL1", "CRVAL2", "Status"}
			aligns := []columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}
}

// inspectRow never fails; problems are reported in the Status column so one
// bad file does not hide the rest.
func inspectRow(file string, opts grid.Options) []string {
	row := []string{file, "", "", "", "", "", "", "", "", "ok"}

	hdr, err := pipeline.ReadHeader(file)
	if err != nil {
		row[9] = err.Error()
		return row
	}

	if n, err := hdr.Int("NAXIS"); err == nil {
		dims := ""
		for i := 1; i <= n; i++ {
			v, _ := hdr.Int(fmt.Sprintf("NAXIS%d", i))
			if i > 1 {
				dims += "x"
			}
			dims += strconv.Itoa(v)
		}
		row[1] = dims
	}

	in, err := wcs.FromHeader(hdr)
	if err != nil {
		row[9] = err.Error()
		return row
	}
	row[2] = in.CTYPE[0] + " " + in.CTYPE[1]
	row[3] = strconv.FormatFloat(in.Rotation(), 'f', 3, 64)

	out, err := grid.Derive(in, opts)
	if err != nil {
		row[9] = err.Error()
		return row
	}
	row[4] = strconv.FormatFloat(out.PixelScale*3600, 'f', 3, 64)
	row[5] = strconv.Itoa(out.Side)
	row[6] = strconv.FormatFloat(out.WCS.CRPIX[0], 'f', 1, 64)
	row[7] = strconv.FormatFloat(out.WCS.CRVAL[0], 'f', 6, 64)
	row[8] = strconv.FormatFloat(out.WCS.CRVAL[1], 'f', 6, 64)

	spec, err := wcs.SpectralFromHeader(hdr)
	if err != nil {
		row[9] = err.Error()
		return row
	}
	if _, err := spec.ChannelWidthKms(); err != nil {
		row[9] = err.Error()
	}

	return row
}
