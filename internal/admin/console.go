// Package admin implements the interactive operator console.
package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"udp-trivia-service/internal/game"
)

// CommandRunner is the slice of the engine the console needs.
type CommandRunner interface {
	Command(ctx context.Context, cmd game.Command) ([]string, error)
	Done() <-chan struct{}
}

// Console reads line commands and relays them through the engine's event
// queue, so even a status read is serialized with game traffic and never
// races a live question.
type Console struct {
	runner CommandRunner
	in     io.Reader
	out    io.Writer
}

func New(runner CommandRunner, in io.Reader, out io.Writer) *Console {
	return &Console{runner: runner, in: in, out: out}
}

// Run processes commands until EOF, engine shutdown, or cancellation.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "server command (start/status/reset/exit, ? for help):")

	lines := make(chan string)
	go func() {
		// Reading the input is not interruptible; if the engine stops
		// first this goroutine ends with the process.
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			case <-c.runner.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.runner.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			fields := strings.Fields(strings.ToLower(line))
			out, err := c.runner.Command(ctx, game.Command{Name: fields[0], Args: fields[1:]})
			if err != nil {
				if errors.Is(err, game.ErrStopped) || errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			for _, l := range out {
				fmt.Fprintln(c.out, l)
			}
		}
	}
}
