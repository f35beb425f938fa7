package batch

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const reportTimeLayout = "2006-01-02 15:04:05"

// Report renders a run as a Markdown document.
func Report(r *OperationResult) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# Batch %s\n\n", r.Operation.Type)
	fmt.Fprintf(&b, "- ID: `%s`\n", r.ID)
	fmt.Fprintf(&b, "- Started: %s\n", r.Start.Format(reportTimeLayout))
	fmt.Fprintf(&b, "- Duration: %s\n", r.Duration().Round(time.Millisecond))
	fmt.Fprintf(&b, "- Succeeded: %d of %d (%.1f%%)\n", r.SuccessCount(), r.TotalCount(), r.SuccessRate())
	if r.Operation.DryRun {
		b.WriteString("- Dry run: no directories were created\n")
	}

	if len(r.Results) > 0 {
		b.WriteString("\n| Source | Status | Output |\n|---|---|---|\n")
		for _, res := range r.Results {
			out := ""
			if res.OutputPath != "" {
				out = "`" + cell(res.OutputPath) + "`"
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", cell(res.SourceName), status(res, "ok"), out)
		}
	}

	section(&b, "Errors", r.Errors())
	section(&b, "Warnings", r.Warnings())
	return b.Bytes()
}

// ReportHTML renders Report as HTML.
func ReportHTML(r *OperationResult) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var out bytes.Buffer
	if err := md.Convert(Report(r), &out); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return out.Bytes(), nil
}

// ReportTerminal renders Report for a terminal with the named glamour style
// ("dark", "light", "notty", ...). width wraps text; zero keeps the default.
func ReportTerminal(r *OperationResult, style string, width int) (string, error) {
	if style == "" {
		style = "notty"
	}
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(style)}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("terminal renderer: %w", err)
	}
	out, err := tr.Render(string(Report(r)))
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return out, nil
}

func section(b *bytes.Buffer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", title)
	for _, l := range lines {
		fmt.Fprintf(b, "- %s\n", l)
	}
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
