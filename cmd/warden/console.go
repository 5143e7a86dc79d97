package main

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/shse/warden/actor"
)

type lineDispatcher interface {
	Dispatch(sender actor.Sender, line string) bool
}

// runConsole dispatches lines typed on in as the console until ctx is
// cancelled. End of input stops the console, not the server.
func runConsole(ctx context.Context, in io.Reader, console actor.Sender, dispatcher lineDispatcher) error {
	lines := make(chan string)

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
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				return nil
			}

			if strings.TrimSpace(line) == "" {
				continue
			}

			dispatcher.Dispatch(console, line)
		}
	}
}
