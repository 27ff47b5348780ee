// File: internal/credentials/prompt.go
package credentials

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

const promptTitle = "Enter your Ostrich API key"

// NewPrompter picks a masked interactive prompt when in is a terminal and a
// plain line reader otherwise, so the key can be piped in.
func NewPrompter(in io.Reader, out io.Writer) Prompter {
	if f, ok := in.(*os.File); ok && isTerminal(f) {
		return &terminalPrompter{}
	}
	return &linePrompter{in: bufio.NewReader(in), out: out}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// terminalPrompter renders a masked input field.
type terminalPrompter struct{}

func (p *terminalPrompter) PromptAPIKey(ctx context.Context) (string, error) {
	var key string
	input := huh.NewInput().
		Title(promptTitle).
		EchoMode(huh.EchoModePassword).
		Validate(func(s string) error {
			if s == "" {
				return errors.New("api key must not be empty")
			}
			return nil
		}).
		Value(&key)

	if err := huh.NewForm(huh.NewGroup(input)).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", fmt.Errorf("prompt aborted: %w", err)
		}
		return "", err
	}
	return key, nil
}

// linePrompter reads one line from a non-interactive input.
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *linePrompter) PromptAPIKey(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.out != nil {
		fmt.Fprint(p.out, promptTitle+": ")
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading api key: %w", err)
	}
	return line, nil
}
