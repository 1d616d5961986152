package cmd

import (
	"fmt"

	"github.com/meysamhadeli/codebro/constants/lipgloss"
	"github.com/pterm/pterm"
)

// spinnerStep wraps a pterm spinner and reports its outcome with a styled line.
type spinnerStep struct {
	printer *pterm.SpinnerPrinter
}

func startSpinner(text string) *spinnerStep {
	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)

	printer, _ := spinner.Start(text)
	return &spinnerStep{printer: printer}
}

func (s *spinnerStep) stop() {
	if s.printer != nil {
		_ = s.printer.Stop()
	}
	fmt.Print("\r")
}

func (s *spinnerStep) succeed(message string) {
	s.stop()
	fmt.Println(lipgloss.Green.Render("✔ " + message))
}

func (s *spinnerStep) fail(message string) {
	s.stop()
	fmt.Println(lipgloss.Red.Render("✖ " + message))
}
