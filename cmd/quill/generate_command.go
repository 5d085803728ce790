package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/api"
	"quill/internal/ipc"
	"quill/internal/stage"
)

type generateOptions struct {
	tone        string
	style       string
	description string
	output      string
	keep        bool
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate <username>",
		Short: "Generate a profile README for a GitHub user",
		Long: "Start a session, follow its progress, answer the style prompt, and print or save the README.\n\n" +
			"Tones: " + strings.Join(stage.Tones(), ", ") + "\n" +
			"Styles: " + strings.Join(stage.Styles(), ", "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				return runGenerate(cmd, client, strings.TrimSpace(args[0]), opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.tone, "tone", "", "Writing tone ("+strings.Join(stage.Tones(), "|")+")")
	cmd.Flags().StringVar(&opts.style, "style", "", "Layout style; skips the interactive prompt ("+strings.Join(stage.Styles(), "|")+")")
	cmd.Flags().StringVar(&opts.description, "description", "", "Special requirements for the README")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the README to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.keep, "keep", false, "Keep the session on the daemon after fetching the result")
	return cmd
}

func runGenerate(cmd *cobra.Command, client *ipc.Client, username string, opts generateOptions) error {
	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}
	stderr := cmd.ErrOrStderr()
	printer := newStreamPrinter(stderr, shouldColorize(stderr))

	started, err := client.Generate(runCtx, api.GenerateRequest{
		Username:    username,
		Tone:        opts.tone,
		Style:       opts.style,
		Description: opts.description,
	})
	if err != nil {
		return err
	}
	printer.session(started.SessionID, username)

	interactive := opts.style == "" && isTerminal(cmd.InOrStdin())
	var reader *bufio.Reader
	if interactive {
		reader = bufio.NewReader(cmd.InOrStdin())
	}

	var failure error
	err = client.Stream(runCtx, started.SessionID, func(evt api.Event) error {
		printer.event(evt)
		switch evt.Kind {
		case "awaiting-input":
			if opts.style != "" {
				return nil
			}
			if !interactive {
				printer.note(fmt.Sprintf("waiting for a style: run `quill style %s <style>`", started.SessionID))
				return nil
			}
			var options stage.StyleOptions
			if len(evt.Payload) > 0 {
				_ = json.Unmarshal(evt.Payload, &options)
			}
			style, description, err := promptStyle(reader, stderr, options)
			if err != nil {
				return err
			}
			_, err = client.SelectStyle(runCtx, started.SessionID, style, description)
			return err
		case "error", "timeout":
			failure = decodeFailure(evt)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if failure != nil {
		return failure
	}

	result, err := client.Result(runCtx, started.SessionID)
	if err != nil {
		return err
	}
	if !opts.keep {
		_ = client.Cleanup(runCtx, started.SessionID)
	}
	if result.Document == nil {
		return errors.New("daemon returned no document")
	}

	markdown := result.Document.Markdown
	if opts.output == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), strings.TrimRight(markdown, "\n")+"\n")
		return err
	}
	if err := os.WriteFile(opts.output, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("write readme: %w", err)
	}
	printer.note(fmt.Sprintf("README written to %s", opts.output))
	return nil
}

func decodeFailure(evt api.Event) error {
	var failure api.Failure
	if len(evt.Payload) > 0 && json.Unmarshal(evt.Payload, &failure) == nil && failure.Message != "" {
		msg := failure.Message
		if failure.Stage != "" {
			msg = fmt.Sprintf("%s failed: %s", failure.Stage, msg)
		}
		if failure.Hint != "" {
			msg = fmt.Sprintf("%s (%s)", msg, failure.Hint)
		}
		return errors.New(msg)
	}
	return fmt.Errorf("session ended with %s: %s", evt.Kind, evt.Message)
}

// promptStyle asks for a style by number or name, then optional requirements.
func promptStyle(reader *bufio.Reader, out io.Writer, options stage.StyleOptions) (string, string, error) {
	styles := options.Styles
	if len(styles) == 0 {
		styles = stage.Styles()
	}
	fmt.Fprintln(out, "Choose a README style:")
	for i, style := range styles {
		fmt.Fprintf(out, "  %d) %s\n", i+1, style)
	}

	var style string
	for style == "" {
		fmt.Fprintf(out, "Style [1-%d]: ", len(styles))
		line, err := reader.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			return "", "", fmt.Errorf("read style: %w", err)
		}
		style = matchStyle(strings.TrimSpace(line), styles)
		if style == "" {
			fmt.Fprintln(out, "Unrecognised style, try again.")
			if errors.Is(err, io.EOF) {
				return "", "", errors.New("no style chosen")
			}
		}
	}

	fmt.Fprint(out, "Special requirements (optional): ")
	description, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", "", fmt.Errorf("read description: %w", err)
	}
	return style, strings.TrimSpace(description), nil
}

func matchStyle(input string, styles []string) string {
	if input == "" {
		return ""
	}
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(styles) {
			return styles[n-1]
		}
		return ""
	}
	for _, style := range styles {
		if strings.EqualFold(style, input) {
			return style
		}
	}
	return ""
}
