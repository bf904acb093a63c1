package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ggonzalez94/onchain-agent/internal/agent"
	clierr "github.com/ggonzalez94/onchain-agent/internal/errors"
)

const (
	chunkSeparator = "-------------------"
	// The agent introduces itself before the first user prompt.
	openingPrompt = "Say hello and briefly tell the user what you can do onchain."
)

func (s *runtimeState) newChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat with the onchain agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.initSession()
			if err != nil {
				return err
			}
			return s.runChatLoop(cmd.Context(), sess)
		},
	}
}

// runChatLoop implements the interactive session: one scripted opening turn,
// then read a line, forward it, and drain the chunk stream until the user
// types exit. Every non-exit line is forwarded as exactly one message, blank
// lines included. The input reader is released on every exit path.
func (s *runtimeState) runChatLoop(ctx context.Context, sess *session) error {
	defer closeReader(s.runner.stdin)

	scanner := s.inputScanner()

	if err := s.drainStream(sess.agent.Run(ctx, threadID, openingPrompt)); err != nil {
		return clierr.Wrap(clierr.CodeFatal, "agent stream", err)
	}

	for {
		_, _ = fmt.Fprint(s.runner.stdout, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "exit") {
			break
		}
		if err := s.drainStream(sess.agent.Run(ctx, threadID, line)); err != nil {
			return clierr.Wrap(clierr.CodeFatal, "agent stream", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return clierr.Wrap(clierr.CodeFatal, "read input", err)
	}
	return nil
}

// drainStream prints every chunk followed by a separator line, consuming the
// full response before returning.
func (s *runtimeState) drainStream(stream *agent.Stream) error {
	for stream.Next() {
		chunk := stream.Chunk()
		_, _ = fmt.Fprintln(s.runner.stdout, chunk.Content)
		_, _ = fmt.Fprintln(s.runner.stdout, chunkSeparator)
	}
	return stream.Err()
}

func closeReader(in io.Reader) {
	if closer, ok := in.(io.Closer); ok {
		_ = closer.Close()
	}
}
