package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ggonzalez94/onchain-agent/internal/cache"
	"github.com/ggonzalez94/onchain-agent/internal/config"
	clierr "github.com/ggonzalez94/onchain-agent/internal/errors"
	"github.com/ggonzalez94/onchain-agent/internal/version"
)

type Runner struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func NewRunner() *Runner {
	return NewRunnerWithStreams(os.Stdin, os.Stdout, os.Stderr)
}

func NewRunnerWithStreams(stdin io.Reader, stdout, stderr io.Writer) *Runner {
	return &Runner{stdin: stdin, stdout: stdout, stderr: stderr}
}

type runtimeState struct {
	runner   *Runner
	flags    config.GlobalFlags
	settings config.Settings
	cache    *cache.Store
	scanner  *bufio.Scanner
}

// inputScanner returns the single line scanner shared by the mode chooser and
// the chat loop, so buffered input is never lost between them.
func (s *runtimeState) inputScanner() *bufio.Scanner {
	if s.scanner == nil {
		s.scanner = bufio.NewScanner(s.runner.stdin)
	}
	return s.scanner
}

func (r *Runner) Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := &runtimeState{runner: r}
	root := state.newRootCommand()
	root.SetArgs(args)
	root.SetIn(r.stdin)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := root.ExecuteContext(ctx)
	if state.cache != nil {
		_ = state.cache.Close()
	}
	if err == nil {
		return 0
	}
	state.renderError(err)
	return clierr.ExitCode(err)
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   version.CLIName,
		Short: "LLM chat agent with an onchain wallet toolkit",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			settings, err := config.Load(s.flags)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "load configuration", err)
			}
			s.settings = settings
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand: ask which mode to run.
			return s.runModeChooser(cmd.Context())
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierr.Wrap(clierr.CodeUsage, "parse flags", err)
	})

	s.flags.Register(cmd.PersistentFlags())

	cmd.AddCommand(s.newChatCommand())
	cmd.AddCommand(s.newAutoCommand())
	cmd.AddCommand(s.newWalletCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			if long {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Long())
				return
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.CLIVersion)
		},
	}
	cmd.Flags().BoolVar(&long, "long", false, "Include commit and build date")
	return cmd
}

func (s *runtimeState) renderError(err error) {
	if missing, ok := asMissingEnv(err); ok {
		_, _ = fmt.Fprintln(s.runner.stderr, "Error: required environment variables are not set")
		for _, line := range missing.ExportLines() {
			_, _ = fmt.Fprintln(s.runner.stderr, line)
		}
		return
	}
	_, _ = fmt.Fprintf(s.runner.stderr, "Error: %v\n", err)
}
