package app

import (
	"context"
	"fmt"
	"strings"

	clierr "github.com/ggonzalez94/onchain-agent/internal/errors"
)

// runModeChooser asks which mode to run when no subcommand is given, then
// dispatches to it with a shared session.
func (s *runtimeState) runModeChooser(ctx context.Context) error {
	scanner := s.inputScanner()

	for {
		_, _ = fmt.Fprintln(s.runner.stdout, "\nAvailable modes:")
		_, _ = fmt.Fprintln(s.runner.stdout, "1. chat - Interactive chat mode")
		_, _ = fmt.Fprintln(s.runner.stdout, "2. auto - Autonomous action mode")
		_, _ = fmt.Fprint(s.runner.stdout, "\nChoose a mode (enter number or name): ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return clierr.Wrap(clierr.CodeFatal, "read input", err)
			}
			return nil
		}
		choice := strings.ToLower(strings.TrimSpace(scanner.Text()))
		switch choice {
		case "1", "chat":
			sess, err := s.initSession()
			if err != nil {
				return err
			}
			return s.runChatLoop(ctx, sess)
		case "2", "auto":
			sess, err := s.initSession()
			if err != nil {
				return err
			}
			return s.runAutoLoop(ctx, sess, 0)
		default:
			_, _ = fmt.Fprintln(s.runner.stdout, "Invalid choice. Please try again.")
		}
	}
}
