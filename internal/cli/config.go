package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/sizeprobe/internal/config"
)

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [file]",
		Short: "Validate a config file and print the effective settings",
		Long: `Load a YAML config file (or the defaults), validate it against the
built-in schema and print the effective configuration.

The file may also be given with the global --config flag.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Config
			if len(args) == 1 {
				path = args[0]
			}
			return runConfig(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runConfig(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidConfig, err, configDetails(err))
	}

	if formatter.Format == "json" {
		return formatter.Success(cfg)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fail(formatter, ExitFailure, ErrCodeGeneric, fmt.Errorf("encoding config: %w", err), nil)
	}
	_, err = formatter.Writer.Write(data)
	return err
}
