// Package presenter provides consistent CLI output for user-facing messages,
// including success, error, warning and informational output with color
// support and quiet mode.
package presenter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Count is one row of a run summary.
type Count struct {
	Name  string
	Count int
}

// Presenter defines the interface for consistent CLI output
type Presenter interface {
	Error(err error, context string)
	Success(message string)
	Warning(message string)
	Info(message string)
	Section(title string)
	Prompt(question string, options ...string) string
	Summary(title string, counts []Count)
	Diff(path, unified string)
	Separator()
	SetQuiet(quiet bool)
	IsQuiet() bool
}

// TerminalPresenter implements Presenter for terminal output
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	input       io.Reader
	colorMode   ColorMode
	quiet       bool
}

// ColorMode represents different color output modes
type ColorMode int

const (
	// ColorAuto automatically detects whether to use colored output based on terminal capabilities
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output regardless of terminal capabilities
	ColorAlways
	// ColorNever disables colored output regardless of terminal capabilities
	ColorNever
)

var titleCaser = cases.Title(language.English)

// New creates a new TerminalPresenter with default settings
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions creates a TerminalPresenter with custom settings
func NewWithOptions(output, errorOutput io.Writer, colorMode ColorMode) *TerminalPresenter {
	presenter := &TerminalPresenter{
		output:      output,
		errorOutput: errorOutput,
		input:       os.Stdin,
		colorMode:   colorMode,
	}

	switch colorMode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	case ColorAuto:
	}

	return presenter
}

// detectColorMode determines the color mode from NO_COLOR and RULESYNC_COLOR
func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}

	switch os.Getenv("RULESYNC_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// Error displays an error message to stderr
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}

	errorColor := color.New(color.FgRed, color.Bold)
	if context != "" {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %s: %v\n", context, err)
	} else {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %v\n", err)
	}
}

// Success displays a success message
func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}

	successColor := color.New(color.FgGreen, color.Bold)
	successColor.Fprintf(p.output, "✓ %s\n", message)
}

// Warning displays a warning message. Warnings go to stderr so they survive
// piping generated output.
func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}

	warningColor := color.New(color.FgYellow, color.Bold)
	warningColor.Fprintf(p.errorOutput, "⚠ %s\n", message)
}

// Info displays an informational message
func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}

	fmt.Fprintf(p.output, "%s\n", message)
}

// Section displays a section header with consistent formatting
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}

	headerColor := color.New(color.Bold)
	headerColor.Fprintf(p.output, "%s\n", title)
	headerColor.Fprintf(p.output, "%s\n", strings.Repeat("-", len(title)))
}

// Prompt displays a prompt and reads one line of input
func (p *TerminalPresenter) Prompt(question string, options ...string) string {
	promptColor := color.New(color.FgCyan)

	if len(options) > 0 {
		promptColor.Fprintf(p.output, "%s [%s]: ", question, strings.Join(options, "/"))
	} else {
		promptColor.Fprintf(p.output, "%s: ", question)
	}

	response, err := bufio.NewReader(p.input).ReadString('\n')
	if err != nil && response == "" {
		return ""
	}
	return strings.TrimSpace(response)
}

// Summary prints one line per non-empty count followed by the total, e.g.
// "Rules: 4".
func (p *TerminalPresenter) Summary(title string, counts []Count) {
	if p.quiet {
		return
	}

	statsColor := color.New(color.FgCyan, color.Bold)
	statsColor.Fprintf(p.output, "[%s]", title)
	total := 0
	for _, c := range counts {
		if c.Count == 0 {
			continue
		}
		total += c.Count
		fmt.Fprintf(p.output, " %s: %d |", titleCaser.String(strings.ReplaceAll(c.Name, "-", " ")), c.Count)
	}
	fmt.Fprintf(p.output, " Total: %d\n", total)
}

// Diff prints a unified diff, coloring added and removed lines.
func (p *TerminalPresenter) Diff(path, unified string) {
	if p.quiet {
		return
	}
	if unified == "" {
		fmt.Fprintf(p.output, "%s: unchanged\n", path)
		return
	}

	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	header := color.New(color.Bold)
	for _, line := range strings.SplitAfter(unified, "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			header.Fprint(p.output, line)
		case strings.HasPrefix(line, "+"):
			added.Fprint(p.output, line)
		case strings.HasPrefix(line, "-"):
			removed.Fprint(p.output, line)
		default:
			fmt.Fprint(p.output, line)
		}
	}
	if !strings.HasSuffix(unified, "\n") {
		fmt.Fprintln(p.output)
	}
}

// Separator displays a visual separator
func (p *TerminalPresenter) Separator() {
	if p.quiet {
		return
	}

	separatorColor := color.New(color.Faint)
	separatorColor.Fprintf(p.output, "%s\n", strings.Repeat("-", 60))
}

// SetQuiet enables or disables quiet mode
func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// IsQuiet returns whether quiet mode is enabled
func (p *TerminalPresenter) IsQuiet() bool {
	return p.quiet
}

var defaultPresenter = New()

// Error displays an error message using the default presenter instance.
func Error(err error, context string) {
	defaultPresenter.Error(err, context)
}

// Success displays a success message using the default presenter instance.
func Success(message string) {
	defaultPresenter.Success(message)
}

// Warning displays a warning message using the default presenter instance.
func Warning(message string) {
	defaultPresenter.Warning(message)
}

// Info displays an informational message using the default presenter instance.
func Info(message string) {
	defaultPresenter.Info(message)
}

// Section displays a section header using the default presenter instance.
func Section(title string) {
	defaultPresenter.Section(title)
}

// Prompt displays a prompt and reads user input using the default presenter instance.
func Prompt(question string, options ...string) string {
	return defaultPresenter.Prompt(question, options...)
}

// Summary prints per-feature counts using the default presenter instance.
func Summary(title string, counts []Count) {
	defaultPresenter.Summary(title, counts)
}

// Diff prints a unified diff using the default presenter instance.
func Diff(path, unified string) {
	defaultPresenter.Diff(path, unified)
}

// Separator displays a visual separator using the default presenter instance.
func Separator() {
	defaultPresenter.Separator()
}

// SetQuiet enables or disables quiet mode for the default presenter instance.
func SetQuiet(quiet bool) {
	defaultPresenter.SetQuiet(quiet)
}

// IsQuiet returns whether quiet mode is enabled for the default presenter instance.
func IsQuiet() bool {
	return defaultPresenter.IsQuiet()
}
