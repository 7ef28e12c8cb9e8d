// Package prompt asks the user to confirm actions before they touch the network or disk.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Confirmer answers yes/no questions.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// Always is a Confirmer that gives the same answer without asking.
type Always bool

// Confirm returns the fixed answer.
func (a Always) Confirm(_ context.Context, _ string) (bool, error) {
	return bool(a), nil
}

// Terminal asks questions on out and reads answers line by line from in.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates a Terminal confirmer.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// Confirm prints the question and accepts "yes" or "y" in any case.
// Any other answer, including end of input, is a refusal.
func (t *Terminal) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if _, err := fmt.Fprintf(t.out, "%s (yes/no)?: ", question); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	answer, err := t.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		return true, nil
	default:
		return false, nil
	}
}
