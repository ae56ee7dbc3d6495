package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

const version = "0.1.0-dev"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath   string
	declarations string
	verbose      bool
	strict       bool

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:   "tsoa",
		Short: "tsoa - resolve API declarations into models, routes and JSON Schema",
		Long: `tsoa reads a declaration set (models, controllers and their annotations),
resolves every referenced type into a named model and writes the result
as metadata, a routes document with flattened parameters, or JSON Schema.`,
		Version:      version,
		SilenceUsage: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to tsoa config file (YAML or JSON)")
	flags.StringVarP(&opts.declarations, "declarations", "d", "", "Path to the declaration set, overrides entryFile")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log every resolved reference")
	flags.BoolVar(&opts.strict, "strict", false, "Treat warnings as errors")

	cmd.AddCommand(
		newMetadataCmd(opts),
		newRoutesCmd(opts),
		newJSONSchemaCmd(opts),
		newGenerateCmd(opts),
	)
	return cmd
}

func (o *rootOptions) logger() *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(o.stderr, &slog.HandlerOptions{Level: level}))
}
