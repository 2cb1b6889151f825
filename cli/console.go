package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

const Prompt = "golight:~$ "

// Runner executes one line, typically by handing it to the dispatch loop.
type Runner func(ctx context.Context, w io.Writer, line string) error

// Console reads lines from in until EOF or ctx is done and runs each of
// them. Command errors are already reported to out and do not end the
// console.
func Console(ctx context.Context, in io.Reader, out io.Writer, prompt string, run Runner) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		fmt.Fprint(out, prompt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				select {
				case err := <-errc:
					if err != nil {
						return fmt.Errorf("failed to read console input: %w", err)
					}
				default:
				}
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "exit" || line == "quit" {
				return nil
			}
			if err := run(ctx, out, line); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}
