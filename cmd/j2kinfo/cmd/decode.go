package cmd

import (
	"image/png"
	"os"

	"github.com/spf13/cobra"

	grokj2k "github.com/mrjoshuak/grokj2k"
	"github.com/mrjoshuak/grokj2k/internal/fetch"
)

func newDecodeCmd() *cobra.Command {
	var out string
	var reduce int
	var layers int

	cmd := &cobra.Command{
		Use:   "decode <path-or-uri>",
		Short: "decode a JPEG 2000 codestream to PNG",
		Long:  "decode a JPEG 2000 codestream to PNG. Accepts a local path, an http(s):// URL, or an s3://bucket/key URI.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := runtimeFrom(cmd)
			src, err := grokj2k.OpenSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer src.Close()
			buffered := fetch.NewBufferedSource(src, 1<<20)

			cfg := &grokj2k.Config{
				ReduceResolution: reduce,
				QualityLayers:    layers,
			}
			img, err := grokj2k.DecodeConfig(buffered, cfg)
			if err != nil {
				rt.Logger.Error().Err(err).Str("file", args[0]).Msg("decode failed")
				return err
			}

			outFile, err := os.Create(out)
			if err != nil {
				return err
			}
			defer outFile.Close()

			rt.Logger.Debug().Str("out", out).Msg("encoding PNG")
			return png.Encode(outFile, img)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "out.png", "output PNG path")
	cmd.Flags().IntVar(&reduce, "reduce", 0, "number of resolution levels to skip")
	cmd.Flags().IntVar(&layers, "layers", 0, "number of quality layers to decode (0 = all)")
	return cmd
}
