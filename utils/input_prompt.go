package utils

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/meysamhadeli/codebro/constants/lipgloss"
)

// ErrInputClosed is returned when the input stream ends before the user answers.
var ErrInputClosed = errors.New("input closed")

// InputPrompt prints the label and reads one trimmed line from the reader.
func InputPrompt(label string, reader *bufio.Reader) (string, error) {
	if label != "" {
		fmt.Println(lipgloss.BlueSky.Render(label))
	}
	fmt.Print(lipgloss.BlueSky.Render("> "))

	userInput, err := reader.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			if strings.TrimSpace(userInput) == "" {
				return "", ErrInputClosed
			}
			return strings.TrimSpace(userInput), nil
		}
		return "", fmt.Errorf("error reading input: %w", err)
	}

	return strings.TrimSpace(userInput), nil
}

// InputPromptWithContext prompts the user with context cancellation support
func InputPromptWithContext(ctx context.Context, label string, reader *bufio.Reader) (string, error) {
	type result struct {
		input string
		err   error
	}
	resultChan := make(chan result, 1)

	go func() {
		input, err := InputPrompt(label, reader)
		resultChan <- result{input: input, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Println()
		return "", ctx.Err()
	case r := <-resultChan:
		return r.input, r.err
	}
}

// ConfirmPrompt asks a yes/no question. Anything other than "y" or "yes" declines.
func ConfirmPrompt(label string, reader *bufio.Reader) (bool, error) {
	fmt.Print(lipgloss.Yellow.Render(label + " (y/N): "))

	answer, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("error reading input: %w", err)
	}
	if err == io.EOF && answer == "" {
		return false, ErrInputClosed
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
