package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	grokj2k "github.com/mrjoshuak/grokj2k"
)

func newHeaderCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "header <path-or-uri>",
		Short: "print a codestream's metadata without decoding pixel data",
		Long:  "print a codestream's metadata without decoding pixel data. Accepts a local path, an http(s):// URL, or an s3://bucket/key URI.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := runtimeFrom(cmd)
			src, err := grokj2k.OpenSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer src.Close()

			meta, err := grokj2k.DecodeMetadata(src)
			if err != nil {
				rt.Logger.Error().Err(err).Str("file", args[0]).Msg("header parse failed")
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(meta)
			}

			fmt.Printf("format:            %s\n", meta.Format)
			fmt.Printf("size:              %dx%d\n", meta.Width, meta.Height)
			fmt.Printf("components:        %d\n", meta.NumComponents)
			fmt.Printf("bits/component:    %v\n", meta.BitsPerComponent)
			fmt.Printf("resolutions:       %d\n", meta.NumResolutions)
			fmt.Printf("quality layers:    %d\n", meta.NumQualityLayers)
			fmt.Printf("tile size:         %dx%d\n", meta.TileWidth, meta.TileHeight)
			fmt.Printf("tiles:             %dx%d\n", meta.NumTilesX, meta.NumTilesY)
			fmt.Printf("color space:       %v\n", meta.ColorSpace)
			if meta.Comment != "" {
				fmt.Printf("comment:           %s\n", meta.Comment)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print metadata as JSON")
	return cmd
}
