package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/davidbz/cthai/internal/streamclient"
)

func main() {
	cmd := &cli.Command{
		Name:  "chat",
		Usage: "talk to the chat relay from a terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Value:   "http://localhost:8080/api/chat",
				Usage:   "relay endpoint",
				Sources: cli.EnvVars("CTHAI_CHAT_URL"),
			},
			&cli.StringFlag{
				Name:  "model",
				Value: "grok-4",
				Usage: "model to request",
			},
			&cli.StringFlag{
				Name:  "system",
				Value: "You are a helpful AI assistant.",
				Usage: "system prompt",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	out := cmd.Root().Writer
	if out == nil {
		out = os.Stdout
	}

	shown := ""
	session := streamclient.NewSession(
		streamclient.NewClient(cmd.String("url"), nil),
		cmd.String("model"),
		cmd.String("system"),
		func(t streamclient.Transcript) {
			shown = render(out, t, shown)
		},
	)

	// Ctrl-C cancels the reply in flight; with none in flight it exits.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	quit := make(chan struct{})
	go func() {
		for range interrupts {
			if !session.Cancel() {
				close(quit)
				return
			}
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		_, _ = fmt.Fprint(out, "> ")

		var line string
		select {
		case <-quit:
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		content := strings.TrimSpace(line)
		if content == "" {
			continue
		}

		shown = ""
		if _, err := session.Send(ctx, content); err != nil {
			if errors.Is(err, streamclient.ErrRequestInFlight) {
				continue
			}
			return err
		}
	}
}

// render prints the part of the transcript not yet shown and returns what is
// on screen. A settled reply that replaced the streamed text gets its own line.
func render(w io.Writer, t streamclient.Transcript, shown string) string {
	if !strings.HasPrefix(t.Text, shown) {
		_, _ = fmt.Fprintln(w)
		shown = ""
	}
	_, _ = fmt.Fprint(w, t.Text[len(shown):])

	if t.Complete {
		_, _ = fmt.Fprintln(w)
		return ""
	}
	return t.Text
}
