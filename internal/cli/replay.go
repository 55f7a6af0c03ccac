package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sizeprobe/internal/harness"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Trace bool // print the full transcript instead of just the reports
}

// ScenarioResult holds the result of a single scenario replay.
type ScenarioResult struct {
	Name    string   `json:"name"`
	Pass    bool     `json:"pass"`
	Reports int      `json:"reports"`
	Pending int      `json:"pending"`
	Codes   []string `json:"codes"`
	Errors  []string `json:"errors,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>...",
		Short: "Replay scripted hook sequences",
		Long: `Replay YAML scenarios of pre/post hook calls and print the reports
they produce.

Exit codes:
  0 - All scenarios met their expectations
  1 - One or more scenarios failed
  2 - Command error (unreadable or invalid scenario)

Examples:
  sizeprobe replay testdata/scenarios/interleaved.yaml
  sizeprobe replay --trace scenarios/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print trace transcript")

	return cmd
}

func runReplay(opts *ReplayOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	scenarios := make([]*harness.Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := harness.LoadScenario(path)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeInvalidScen, fmt.Errorf("%s: %w", path, err), nil)
		}
		scenarios = append(scenarios, s)
	}

	var results []ScenarioResult
	failed := 0
	for _, s := range scenarios {
		formatter.VerboseLog("Replaying scenario: %s", s.Name)
		res, err := harness.Run(s)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeInvalidScen, fmt.Errorf("%s: %w", s.Name, err), nil)
		}
		if !res.Pass {
			failed++
		}

		sr := ScenarioResult{
			Name:    s.Name,
			Pass:    res.Pass,
			Reports: res.Reports,
			Pending: res.Pending,
			Codes:   res.Codes(),
			Errors:  res.Errors,
		}
		results = append(results, sr)

		if formatter.Format == "json" {
			continue
		}
		if opts.Trace {
			fmt.Fprint(formatter.Writer, res.Transcript(s.Name))
		} else {
			fmt.Fprint(formatter.Writer, res.Output)
		}
		if !res.Pass {
			_ = formatter.Error(ErrCodeGeneric,
				fmt.Sprintf("scenario %s failed: %s", s.Name, strings.Join(res.Errors, "; ")), nil)
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(results); err != nil {
			return err
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", failed, len(scenarios)))
	}
	return nil
}
