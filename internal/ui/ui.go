// Package ui provides interactive selection for the CLI. fzf is used when it
// is installed; otherwise a bubbletea list runs in the terminal. All items
// are passed as plain text, never as shell-interpreted preview strings.
package ui

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// ErrCancelled is returned when the user dismisses a prompt.
var ErrCancelled = errors.New("selection cancelled")

// Interactive reports whether stdin is a terminal a prompt can run on.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Select presents items and returns the selected item's index.
func Select(prompt string, items []string) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("no items to select from")
	}

	if fzfPath, err := exec.LookPath("fzf"); err == nil {
		return selectFzf(fzfPath, prompt, items)
	}
	if !Interactive() {
		return -1, fmt.Errorf("no terminal for %q and fzf not found in PATH", prompt)
	}
	return selectList(prompt, items)
}

// Choose is Select with cancellation reported as a negative index, the
// contract expected by torrent.Chooser.
func Choose(prompt string, items []string) (int, error) {
	idx, err := Select(prompt, items)
	if errors.Is(err, ErrCancelled) {
		return -1, nil
	}
	return idx, err
}

func selectFzf(fzfPath, prompt string, items []string) (int, error) {
	// Numbered items for reliable index extraction
	var input strings.Builder
	for i, item := range items {
		fmt.Fprintf(&input, "%d\t%s\n", i, item)
	}

	cmd := exec.Command(fzfPath,
		"--prompt", prompt+" > ",
		"--height", "40%",
		"--reverse",
		"--ansi",
		"--with-nth", "2..", // Hide the index field
		"--delimiter", "\t",
		"--no-multi",
		"--cycle",
	)

	cmd.Stdin = strings.NewReader(input.String())
	cmd.Stderr = os.Stderr

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && (exitErr.ExitCode() == 130 || exitErr.ExitCode() == 1) {
			return -1, ErrCancelled
		}
		return -1, fmt.Errorf("fzf failed: %w", err)
	}

	return parseSelection(stdout.String(), len(items))
}

// parseSelection extracts the index from fzf's "index\titem" output line.
func parseSelection(out string, n int) (int, error) {
	selected := strings.TrimSpace(out)
	if selected == "" {
		return -1, ErrCancelled
	}

	parts := strings.SplitN(selected, "\t", 2)

	var idx int
	if _, err := fmt.Sscanf(parts[0], "%d", &idx); err != nil {
		return -1, fmt.Errorf("parsing selection index: %w", err)
	}
	if idx < 0 || idx >= n {
		return -1, fmt.Errorf("selection index %d out of range", idx)
	}
	return idx, nil
}

// Input prompts the user for free-text input.
func Input(prompt string) (string, error) {
	fzfPath, err := exec.LookPath("fzf")
	if err != nil {
		if !Interactive() {
			return "", fmt.Errorf("no terminal for %q and fzf not found in PATH", prompt)
		}
		return inputText(prompt)
	}

	cmd := exec.Command(fzfPath,
		"--prompt", prompt+" > ",
		"--height", "10%",
		"--reverse",
		"--print-query",
		"--no-info",
	)

	cmd.Stdin = strings.NewReader("")
	cmd.Stderr = os.Stderr

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	// fzf exits 1 when using --print-query with no match, which is expected
	_ = cmd.Run()

	query := strings.TrimSpace(strings.Split(stdout.String(), "\n")[0])
	if query == "" {
		return "", fmt.Errorf("no input provided")
	}
	return query, nil
}
