package cmd

import (
	"image"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	grokj2k "github.com/mrjoshuak/grokj2k"
	"github.com/mrjoshuak/grokj2k/internal/fetch"
)

func newRegionCmd() *cobra.Command {
	var out string
	var x0, y0, x1, y1 int
	var reduce int

	cmd := &cobra.Command{
		Use:   "region <path-or-uri>",
		Short: "decode only a rectangular window of a codestream (ROI decode)",
		Long:  "decode only a rectangular window of a codestream (ROI decode). Accepts a local path, an http(s):// URL, or an s3://bucket/key URI.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := runtimeFrom(cmd)
			src, err := grokj2k.OpenSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer src.Close()
			buffered := fetch.NewBufferedSource(src, 1<<20)

			area := image.Rect(x0, y0, x1, y1)
			cfg := &grokj2k.Config{
				DecodeArea:       &area,
				ReduceResolution: reduce,
			}

			rt.Logger.Debug().Interface("area", area).Msg("windowed decode")
			img, err := grokj2k.DecodeConfig(buffered, cfg)
			if err != nil {
				rt.Logger.Error().Err(err).Str("file", args[0]).Msg("region decode failed")
				return err
			}

			outFile, err := os.Create(out)
			if err != nil {
				return err
			}
			defer outFile.Close()
			return png.Encode(outFile, img)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "region.png", "output PNG path")
	cmd.Flags().IntVar(&x0, "x0", 0, "window left edge")
	cmd.Flags().IntVar(&y0, "y0", 0, "window top edge")
	cmd.Flags().IntVar(&x1, "x1", 0, "window right edge (exclusive)")
	cmd.Flags().IntVar(&y1, "y1", 0, "window bottom edge (exclusive)")
	cmd.Flags().IntVar(&reduce, "reduce", 0, "number of resolution levels to skip")
	return cmd
}
