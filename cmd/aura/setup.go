package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/auracli/aura/internal/api"
	"github.com/auracli/aura/internal/config"
	"github.com/auracli/aura/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	"golang.org/x/term"
)

const clearLine = "\r\033[K"

// runSetup prompts for the server connection, verifies it and saves it
func runSetup(ctx context.Context, in io.Reader, out io.Writer, logger *slog.Logger) error {
	dir := resolveConfigDir()
	cfg, err := config.LoadConfigFrom(dir)
	if err != nil {
		return exitError(exitInvalidConfig, err)
	}
	cfg.EnsureClientID()

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Welcome to aura!")
	fmt.Fprintln(out)

	reader := bufio.NewReader(in)
	for {
		serverURL, err := promptLine(reader, out, "Enter your aura server URL (e.g., http://192.168.1.100:8000): ")
		if err != nil {
			return err
		}
		if serverURL == "" {
			fmt.Fprintln(out, "Server URL cannot be empty. Please try again.")
			continue
		}

		token, err := promptToken(reader, out)
		if err != nil {
			return err
		}

		cfg.Server.URL = strings.TrimRight(serverURL, "/")
		cfg.Server.Token = token
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(out, "✗ %v\n\n", err)
			continue
		}

		n, err := verifyServer(ctx, out, cfg, logger)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "✗ Could not reach the server: %v\n", err)
			fmt.Fprintln(out, "Please check the URL and token and try again.")
			fmt.Fprintln(out)
			continue
		}
		fmt.Fprintf(out, "✓ Connected, %d libraries found\n", n)
		break
	}

	if err := config.SaveConfigTo(dir, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	logger.Info("setup complete", "server", cfg.Server.URL)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "✓ Configuration saved!")
	fmt.Fprintln(out)
	return nil
}

func promptLine(reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	input, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

// promptToken reads the token without echo when stdin is a terminal
func promptToken(reader *bufio.Reader, out io.Writer) (string, error) {
	const prompt = "API token (leave empty if the server has none): "
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine(reader, out, prompt)
	}
	fmt.Fprint(out, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// verifyServer lists the sections while animating a spinner
func verifyServer(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client := api.NewClient(cfg.Server.URL, cfg.Server.Token, cfg.Server.ClientID, api.Options{
		Timeout: cfg.Fetch.Timeout,
	}, logger)

	type result struct {
		sections []domain.LibrarySection
		err      error
	}
	resultCh := make(chan result, 1)
	go func() {
		sections, err := client.GetSections(ctx)
		resultCh <- result{sections, err}
	}()

	frames := spinner.Dot.Frames
	frame := 0
	fmt.Fprintf(out, "\r%s Connecting...", frames[frame])

	ticker := time.NewTicker(spinner.Dot.FPS)
	defer ticker.Stop()

	for {
		select {
		case res := <-resultCh:
			fmt.Fprint(out, clearLine)
			return len(res.sections), res.err
		case <-ticker.C:
			frame++
			fmt.Fprintf(out, "\r%s Connecting...", frames[frame%len(frames)])
		case <-ctx.Done():
			fmt.Fprint(out, clearLine)
			return 0, fmt.Errorf("connection timed out")
		}
	}
}
