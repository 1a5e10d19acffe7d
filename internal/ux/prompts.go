package ux

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// LinePrompter asks questions over plain line-based input. It is used when
// stdin is not a terminal and the huh forms cannot run.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter reads answers from in and writes prompts to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

func (p *LinePrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm prompts the user for yes/no confirmation
func (p *LinePrompter) Confirm(message string, defaultYes bool) bool {
	prompt := message
	if defaultYes {
		prompt += " (Y/n): "
	} else {
		prompt += " (y/N): "
	}
	fmt.Fprint(p.out, prompt)

	response, err := p.readLine()
	if err != nil || response == "" {
		return defaultYes
	}

	response = strings.ToLower(response)
	return response == "y" || response == "yes"
}

// String prompts for a value, returning defaultValue on empty input
func (p *LinePrompter) String(message, defaultValue string) string {
	if defaultValue != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", message, defaultValue)
	} else {
		fmt.Fprintf(p.out, "%s: ", message)
	}

	response, err := p.readLine()
	if err != nil || response == "" {
		return defaultValue
	}
	return response
}
