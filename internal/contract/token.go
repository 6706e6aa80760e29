package contract

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// tokenEnvVars are checked in order when no token file is given.
var tokenEnvVars = []string{"SIZEUP_TOKEN", "GITHUB_TOKEN", "GH_TOKEN"}

// TokenPrompter asks the user for a token interactively.
type TokenPrompter func() (string, error)

// LoadToken returns the API token from tokenPath, the environment, or prompt,
// in that order. prompt may be nil to disable interactive input.
func LoadToken(tokenPath string, prompt TokenPrompter) (string, error) {
	if tokenPath != "" {
		data, err := os.ReadFile(tokenPath)
		if err != nil {
			return "", fmt.Errorf("failed to read token file %q: %w", tokenPath, err)
		}
		token := strings.TrimSpace(string(data))
		if token == "" {
			return "", fmt.Errorf("token file %q is empty", tokenPath)
		}
		return token, nil
	}

	for _, name := range tokenEnvVars {
		if token := strings.TrimSpace(os.Getenv(name)); token != "" {
			return token, nil
		}
	}

	if prompt == nil {
		return "", errors.New("no token found: pass --token-path or set SIZEUP_TOKEN")
	}
	token, err := prompt()
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("token must not be empty")
	}
	return token, nil
}

// TerminalTokenPrompter returns a masked prompt when stdin is a terminal, else nil.
func TerminalTokenPrompter() TokenPrompter {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	return func() (string, error) {
		prompt := promptui.Prompt{
			Label: "GitHub API token",
			Mask:  '*',
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("token must not be empty")
				}
				return nil
			},
		}
		return prompt.Run()
	}
}
