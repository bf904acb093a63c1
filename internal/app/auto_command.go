package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	clierr "github.com/ggonzalez94/onchain-agent/internal/errors"
)

// Fixed prompt driving each autonomous iteration.
const autoPrompt = "Be creative and do something interesting on the blockchain. " +
	"Choose an action or set of actions and execute it in a way that highlights your abilities."

func (s *runtimeState) newAutoCommand() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "auto",
		Short: "Run the agent autonomously at a fixed interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.initSession()
			if err != nil {
				return err
			}
			return s.runAutoLoop(cmd.Context(), sess, interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 10*time.Second, "Delay between autonomous actions")
	return cmd
}

// runAutoLoop repeatedly submits the fixed creative prompt until the context
// is cancelled (SIGINT/SIGTERM).
func (s *runtimeState) runAutoLoop(ctx context.Context, sess *session, interval time.Duration) error {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	_, _ = fmt.Fprintln(s.runner.stdout, "Starting autonomous mode, press Ctrl+C to stop...")

	for {
		if err := s.drainStream(sess.agent.Run(ctx, threadID, autoPrompt)); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return clierr.Wrap(clierr.CodeFatal, "agent stream", err)
		}
		select {
		case <-ctx.Done():
			_, _ = fmt.Fprintln(s.runner.stdout, "Autonomous mode stopped.")
			return nil
		case <-time.After(interval):
		}
	}
}
