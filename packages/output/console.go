package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// formatValue truncates long bodies for display
func formatValue(v string, maxLen int) string {
	if maxLen > 0 && len(v) > maxLen {
		return v[:maxLen] + "..."
	}
	return v
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
	maxBody int
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer:  os.Stdout,
		maxBody: 2000,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		if w != nil {
			f.writer = w
		}
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// WithMaxBody truncates printed bodies to n bytes; 0 prints them whole.
func WithMaxBody(n int) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.maxBody = n
	}
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("formreq"), version)
}

func (f *ConsoleFormatter) FormatStart(method, url string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "\n%s\n\n", bold(method+" "+url))
}

// progressBar renders loaded/total as a 20 cell bar
func progressBar(loaded, total float64) string {
	const width = 20
	filled := 0
	if total > 0 {
		filled = int(loaded / total * width)
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func (f *ConsoleFormatter) FormatEvent(ev Event) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	switch ev.Type {
	case EventProgress:
		fmt.Fprintf(f.writer, "  %s %s %3.0f%%\n", cyan("↑"), progressBar(ev.Loaded, ev.Total), ev.Loaded/ev.Total*100)
	case EventSuccess:
		fmt.Fprintf(f.writer, "  %s success\n", green("✓"))
	case EventError:
		fmt.Fprintf(f.writer, "  %s error\n", red("✗"))
	case EventDone:
		if f.verbose {
			fmt.Fprintf(f.writer, "  %s done %s\n", cyan("•"), cyan(fmt.Sprintf("(%dms)", ev.At.Milliseconds())))
		}
	}
}

func (f *ConsoleFormatter) FormatResult(res *Result) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(f.writer, "\n")
	switch res.Outcome {
	case OutcomeSuccess:
		fmt.Fprintf(f.writer, "Result: %s %s\n", green("success"), cyan(fmt.Sprintf("(%dms)", res.Duration.Milliseconds())))
	case OutcomeError:
		fmt.Fprintf(f.writer, "Result: %s %s\n", red("error"), cyan(fmt.Sprintf("(%dms)", res.Duration.Milliseconds())))
	case OutcomeStopped:
		fmt.Fprintf(f.writer, "Result: %s\n", yellow("stopped"))
	default:
		fmt.Fprintf(f.writer, "Result: %s\n", yellow(string(res.Outcome)))
	}

	if f.verbose {
		fmt.Fprintf(f.writer, "Request: %s\n", res.ID)
	}

	if res.Outcome != OutcomeSuccess {
		fmt.Fprintf(f.writer, "\n")
		return
	}

	if res.SelectPath != "" {
		fmt.Fprintf(f.writer, "%s = %s\n", res.SelectPath, res.Selected)
	} else if res.Body != "" {
		kind := "text"
		if res.IsJSON {
			kind = "json"
		}
		fmt.Fprintf(f.writer, "Body (%s):\n%s\n", kind, formatValue(res.Body, f.maxBody))
	}

	if res.SchemaError != nil {
		fmt.Fprintf(f.writer, "%s %v\n", red("Schema:"), res.SchemaError)
	}
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}
