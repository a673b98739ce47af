package surface

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/seoauditor/seoauditor/pkg/audit"
	"github.com/seoauditor/seoauditor/pkg/regression"
)

// TerminalRenderer renders results as colored terminal output.
type TerminalRenderer struct{}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func scoreColor(score int) string {
	switch {
	case score >= 80:
		return colorGreen
	case score >= 50:
		return colorYellow
	default:
		return colorRed
	}
}

func severityColor(s audit.Severity) string {
	switch s {
	case audit.SeverityCritical:
		return colorRed
	case audit.SeverityWarning:
		return colorYellow
	default:
		return colorBlue
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

func (r *TerminalRenderer) RenderReport(w io.Writer, rep *Report) error {
	// Header
	fmt.Fprintf(w, "%s\n\n",
		bold(fmt.Sprintf("SEO audit: %s  Score %s",
			rep.Target, colored(fmt.Sprintf("%d/100", rep.Overall), scoreColor(rep.Overall)))))

	// Scores
	for _, c := range rep.Categories {
		fmt.Fprintf(w, "  %-12s %s\n", c.Name, colored(fmt.Sprintf("%3d", c.Score), scoreColor(c.Score)))
	}
	fmt.Fprintln(w)

	if len(rep.Measurements) > 0 {
		for _, m := range rep.Measurements {
			fmt.Fprintf(w, "  %-12s %s\n", m.Name, dim(m.Value))
		}
		fmt.Fprintln(w)
	}

	// Issues
	if len(rep.Issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		fmt.Fprintln(w)
	} else {
		fmt.Fprintln(w, "Issues:")
		for _, is := range rep.Issues {
			fmt.Fprintf(w, "  %s %s\n",
				colored(fmt.Sprintf("[%s]", is.Severity), severityColor(is.Severity)), bold(is.Title))
			for _, line := range wrapText(is.Description, 70) {
				fmt.Fprintf(w, "    %s\n", dim(line))
			}
		}
		fmt.Fprintln(w)
	}

	// Recommendations
	if len(rep.Recommendations) > 0 {
		fmt.Fprintln(w, "Recommendations:")
		for _, rec := range rep.Recommendations {
			fmt.Fprintf(w, "  %d. %s\n", rec.Priority, bold(rec.Title))
			for _, item := range rec.ActionItems {
				fmt.Fprintf(w, "     • %s\n", item)
			}
		}
		fmt.Fprintln(w)
	}

	if len(rep.Checklist) > 0 {
		done := 0
		for _, item := range rep.Checklist {
			if item.Completed {
				done++
			}
		}
		fmt.Fprintf(w, "%s\n", dim(fmt.Sprintf("Checklist: %d/%d complete", done, len(rep.Checklist))))
	}

	return nil
}

func (r *TerminalRenderer) RenderRegressions(w io.Writer, regs []regression.Regression) error {
	if len(regs) == 0 {
		fmt.Fprintln(w, "No notable changes.")
		return nil
	}

	fmt.Fprintln(w, bold("Changes:"))
	for _, reg := range regs {
		arrow := colored("▲", colorGreen)
		if reg.Type == regression.TypeRegression {
			arrow = colored("▼", colorRed)
		}
		fmt.Fprintf(w, "  %s %s %s\n", arrow,
			colored(fmt.Sprintf("[%s]", reg.Severity), severityColor(reg.Severity)), reg.Message)
	}
	return nil
}

// wrapText wraps a string at the given width, returning lines.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)
	return lines
}
