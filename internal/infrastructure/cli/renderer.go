package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/doeshing/cmdguard/internal/domain"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiGreen  = "\x1b[32m"
	ansiBold   = "\x1b[1m"
)

var colorEnabled = isatty.IsTerminal(os.Stdout.Fd()) && os.Getenv("NO_COLOR") == ""

// RenderResult prints a validation decision in a friendly, ASCII-only format.
func RenderResult(command string, result domain.ValidationResult) {
	fmt.Printf("Command: %s\n", command)
	fmt.Printf("Risk: %s  Confidence: %.2f\n", severityLabel(result.RiskLevel), result.Confidence)

	if len(result.Matched) > 0 {
		fmt.Println("Matched rules:")
		for _, part := range strings.Split(result.Explanation, "; ") {
			fmt.Printf(" - %s\n", part)
		}
	}

	if result.Allowed {
		fmt.Println(colorize("Decision: ALLOWED", ansiGreen))
	} else {
		fmt.Println(colorize("Decision: BLOCKED", ansiBold+ansiRed))
	}
}

func severityLabel(s domain.Severity) string {
	label := strings.ToUpper(string(s))
	switch s {
	case domain.SeverityCritical, domain.SeverityHigh:
		return colorize(label, ansiRed)
	case domain.SeverityModerate, domain.SeverityLow:
		return colorize(label, ansiYellow)
	default:
		return label
	}
}

func colorize(text, color string) string {
	if !colorEnabled {
		return text
	}
	return color + text + ansiReset
}
