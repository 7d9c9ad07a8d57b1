package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// sanitizeInput removes null bytes and other invisible control characters
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 || (r < 32 && r != '\t') {
			return -1
		}
		return r
	}, s)
}

// Credentials are registry login details entered by the user
type Credentials struct {
	Username string
	Password string
}

// PromptForCredentials asks for a registry login. An empty username means
// the user chose to continue anonymously.
func PromptForCredentials(registry, username string) (Credentials, error) {
	creds := Credentials{Username: username}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username for "+registry).
				Description("Leave empty to browse public images only").
				Value(&creds.Username),
			huh.NewInput().
				Title("Password").
				Description("Not stored").
				EchoMode(huh.EchoModePassword).
				Value(&creds.Password),
		),
	).WithTheme(NewAppTheme())

	if err := form.Run(); err != nil {
		return Credentials{}, fmt.Errorf("prompt cancelled: %w", err)
	}

	creds.Username = strings.TrimSpace(sanitizeInput(creds.Username))
	creds.Password = sanitizeInput(creds.Password)
	if creds.Username == "" {
		return Credentials{}, nil
	}
	return creds, nil
}
