package cmd

import (
	"github.com/spf13/cobra"
)

// CommandContext holds the persistent flags of one invocation.
type CommandContext struct {
	// Output control
	Verbose bool
	Format  string
	NoColor bool
	NoInput bool

	// Configuration
	Home      string
	APIURL    string
	LogLevel  string
	Ephemeral bool

	apiURLSet   bool
	logLevelSet bool
}

// NewCommandContext extracts command context from cobra.Command flags.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	flags := cmd.Flags()

	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return nil, err
	}

	format, err := flags.GetString("format")
	if err != nil {
		return nil, err
	}

	noColor, err := flags.GetBool("no-color")
	if err != nil {
		return nil, err
	}

	noInput, err := flags.GetBool("no-input")
	if err != nil {
		return nil, err
	}

	home, err := flags.GetString("home")
	if err != nil {
		return nil, err
	}

	apiURL, err := flags.GetString("api-url")
	if err != nil {
		return nil, err
	}

	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return nil, err
	}

	ephemeral, err := flags.GetBool("ephemeral")
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Verbose:     verbose,
		Format:      format,
		NoColor:     noColor,
		NoInput:     noInput,
		Home:        home,
		APIURL:      apiURL,
		LogLevel:    logLevel,
		Ephemeral:   ephemeral,
		apiURLSet:   flags.Changed("api-url"),
		logLevelSet: flags.Changed("log-level"),
	}, nil
}
