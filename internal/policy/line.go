package policy

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// LinePrompter asks questions on a plain line-oriented stream.
//
// It is used when stdin is not a terminal; the TUI prompter covers the
// interactive case. End of input is reported as an error, which the Policy
// turns into Abort.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter creates a LinePrompter reading answers from in.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Choose implements Prompter.
func (l *LinePrompter) Choose(ctx context.Context, p Prompt) (Decision, error) {
	fmt.Fprintf(l.out, "\n  ERROR: %v\n", p.Err)
	fmt.Fprintf(l.out, "  Context: %s\n\n", p.Context)
	fmt.Fprintln(l.out, "  What would you like to do?")
	for _, c := range p.Choices {
		fmt.Fprintf(l.out, "  [%s] %s\n", c.Key, c.Label)
	}
	fmt.Fprintln(l.out)

	for {
		line, err := l.readLine(ctx, "  Enter choice (1-5): ")
		if err != nil {
			fmt.Fprintln(l.out, "\n  Aborting...")
			return Abort, err
		}
		if c, ok := ChoiceByKey(line); ok {
			return c.Decision, nil
		}
		fmt.Fprintln(l.out, "  Please enter 1, 2, 3, 4, or 5")
	}
}

// Confirm implements Prompter. An empty answer means yes.
func (l *LinePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	line, err := l.readLine(ctx, question+" [Y/n]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "", "y", "yes":
		return true, nil
	}
	return false, nil
}

func (l *LinePrompter) readLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.WithStack(err)
	}
	fmt.Fprint(l.out, prompt)

	line, err := l.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", errors.WithStack(err)
	}
	return strings.TrimSpace(line), nil
}
