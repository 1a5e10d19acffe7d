package tui

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/roster/internal/employee"
)

// PromptCredentials asks for whichever of email and password is missing.
func PromptCredentials(email, password string) (string, string, error) {
	var fields []huh.Field
	if email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(&email))
	}
	if password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&password))
	}
	if len(fields) == 0 {
		return email, password, nil
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return "", "", fmt.Errorf("prompt failed: %w", err)
	}
	return email, password, nil
}

// PromptEmployee edits a draft, offering the departments as a select.
func PromptEmployee(title string, draft employee.Draft, departments []employee.Department) (employee.Draft, error) {
	if len(departments) == 0 {
		return draft, errors.New("no departments available")
	}

	options := make([]huh.Option[string], 0, len(departments))
	for _, d := range departments {
		options = append(options, huh.NewOption(d.Name, strconv.FormatInt(d.ID, 10)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&draft.Name),
			huh.NewInput().Title("Email").Value(&draft.Email),
			huh.NewSelect[string]().Title("Department").Options(options...).Value(&draft.DepartmentID),
		).Title(title),
	)

	if err := form.Run(); err != nil {
		return draft, fmt.Errorf("prompt failed: %w", err)
	}
	return draft, nil
}

// PromptForConfirmation displays a yes/no confirmation prompt
func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue

	confirm := huh.NewConfirm().
		Title(message).
		Value(&confirmed)

	if err := huh.NewForm(huh.NewGroup(confirm)).Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}

	return confirmed, nil
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt returns true if prompts should be shown based on environment
// Prompts are disabled in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	ciEnvVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"BUILDKITE",
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return false
		}
	}

	return IsInteractive()
}
