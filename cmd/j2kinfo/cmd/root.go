// Package cmd wires j2kinfo's cobra command tree.
package cmd

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrjoshuak/grokj2k/internal/grkruntime"
)

// NewRoot builds the j2kinfo command tree.
func NewRoot(ctx context.Context) *cobra.Command {
	var logFile string
	var verbose bool

	root := &cobra.Command{
		Use:   "j2kinfo",
		Short: "inspect and decode JPEG 2000 codestreams",
	}

	pf := root.PersistentFlags()
	pf.StringVar(&logFile, "log-file", "", "write logs to this file (rotated via lumberjack) instead of stderr")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		rt := newRuntime(logFile, verbose)
		cmd.SetContext(withRuntime(ctx, rt))
		return nil
	}

	root.AddCommand(
		newHeaderCmd(),
		newDecodeCmd(),
		newRegionCmd(),
	)
	return root
}

// newRuntime builds a grkruntime.Runtime whose logger writes to stderr, or
// to a lumberjack-rotated file when --log-file is set.
func newRuntime(logFile string, verbose bool) *grkruntime.Runtime {
	rt := grkruntime.New()

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	var w zerolog.ConsoleWriter
	if logFile != "" {
		lj := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		w = zerolog.ConsoleWriter{Out: lj, NoColor: true}
	} else {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return rt.WithLogger(logger)
}

type runtimeKey struct{}

func withRuntime(ctx context.Context, rt *grkruntime.Runtime) context.Context {
	return context.WithValue(ctx, runtimeKey{}, rt)
}

func runtimeFrom(cmd *cobra.Command) *grkruntime.Runtime {
	if rt, ok := cmd.Context().Value(runtimeKey{}).(*grkruntime.Runtime); ok {
		return rt
	}
	return grkruntime.Default()
}
