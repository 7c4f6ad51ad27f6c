package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ErrNoInput is returned when no description could be read from any source
var ErrNoInput = errors.New("no system description provided")

// readDescription resolves the description from --text, a file argument
// ("-" means stdin), piped stdin, or an interactive prompt, in that order
func readDescription(cmd *cobra.Command, args []string) (string, error) {
	if strings.TrimSpace(flagText) != "" {
		return flagText, nil
	}

	if len(args) > 0 && args[0] != "-" {
		return readFile(args[0])
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) && len(args) == 0 {
		return promptDescription()
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", ErrNoInput
	}
	return string(data), nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read description file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrNoInput, path)
	}
	return string(data), nil
}

func promptDescription() (string, error) {
	var description string

	err := huh.NewText().
		Title("Describe your system architecture:").
		Placeholder("e.g., The client calls the API endpoint /login which queries the database.").
		CharLimit(10000).
		Value(&description).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("description is required")
			}
			return nil
		}).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrNoInput
		}
		return "", fmt.Errorf("failed to read description: %w", err)
	}

	return description, nil
}
