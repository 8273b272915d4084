// Package observability provides the process logger and formatted terminal output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gurmeharsomal/media-screening-tool/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 12
)

// Printer handles formatted output for the screen and variants commands
type Printer struct {
	out    io.Writer
	colors map[string]*color.Color
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out: out,
		colors: map[string]*color.Color{
			types.DecisionMatch:   color.New(color.FgRed, color.Bold),
			types.DecisionNoMatch: color.New(color.FgGreen, color.Bold),
			types.DecisionReview:  color.New(color.FgYellow, color.Bold),
			"label":               color.New(color.FgCyan),
			"warning":             color.New(color.FgYellow),
		},
	}
}

// printBox prints a formatted box with a title and content. Long lines are wrapped on word boundaries.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		for _, wrapped := range wrap(line, boxWidth-4) {
			fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, wrapped)
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintVerdict outputs the final decision banner followed by the per-stage details.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintVerdict(profile types.CandidateProfile, verdict types.FinalVerdict) {
	label := strings.ToUpper(strings.ReplaceAll(verdict.Decision, "_", " "))
	decided := p.color(verdict.Decision).Sprintf("%s", label)
	fmt.Fprintf(p.out, "%s %s (stage %d, score %d", p.colors["label"].Sprint("Verdict:"), decided, verdict.Stage, verdict.Score)
	if verdict.Confidence != nil {
		fmt.Fprintf(p.out, ", confidence %.2f", *verdict.Confidence)
	}
	fmt.Fprintln(p.out, ")")

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:        %s\n", profile.Name))
	sb.WriteString(fmt.Sprintf("DOB:         %s\n", orDash(profile.DOB)))
	sb.WriteString(fmt.Sprintf("Occupation:  %s\n", orDash(profile.Occupation)))
	sb.WriteString("\n")
	sb.WriteString(verdict.Explanation)
	p.printBox("SCREENING VERDICT", sb.String())

	p.PrintStage1(verdict.Details.Stage1)
	if verdict.Details.Stage2 != nil {
		p.PrintStage2(*verdict.Details.Stage2)
	}
}

// PrintStage1 outputs the deterministic pass.
func (p *Printer) PrintStage1(r types.Stage1Result) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Decision:    %s\n", r.Decision))
	sb.WriteString(fmt.Sprintf("Score:       %d\n", r.Score))
	sb.WriteString(fmt.Sprintf("Penalty:     %d\n", r.Penalty))
	sb.WriteString(fmt.Sprintf("Best person: %s\n", orDash(r.BestPerson)))
	sb.WriteString(fmt.Sprintf("Variant:     %s\n", orDash(r.CandidateVariant)))
	sb.WriteString(fmt.Sprintf("Extraction:  %s\n", r.ExtractionSource))
	sb.WriteString("\n")
	sb.WriteString(r.Reasons)
	p.printBox("STAGE 1", sb.String())
}

// PrintStage2 outputs the validator result, flagging fail-closed defaults.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintStage2(r types.Stage2Result) {
	if r.Failed() {
		fmt.Fprintln(p.out, p.colors["warning"].Sprintf("⚠ Stage 2 failed closed: %s", r.Error))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Decision:    %s\n", r.Decision))
	sb.WriteString(fmt.Sprintf("Confidence:  %.2f\n", r.Confidence))
	if r.EvidenceSentence != "" {
		sb.WriteString(fmt.Sprintf("Evidence:    %s\n", r.EvidenceSentence))
	}
	sb.WriteString("\n")
	sb.WriteString(r.Reasons)
	p.printBox("STAGE 2", sb.String())
}

// PrintVariants outputs the generated name variants for name.
func (p *Printer) PrintVariants(name string, variants []string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name: %s\n", name))
	sb.WriteString(fmt.Sprintf("Total variants: %d\n\n", len(variants)))

	count := min(len(variants), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", variants[i]))
	}
	if len(variants) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(variants)-maxItemsToShow))
	}

	p.printBox("NAME VARIANTS", strings.TrimSuffix(sb.String(), "\n"))
}

func (p *Printer) color(decision string) *color.Color {
	if c, ok := p.colors[decision]; ok {
		return c
	}
	return p.colors["label"]
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// wrap splits line into chunks of at most width runes, breaking on spaces where possible.
func wrap(line string, width int) []string {
	if len([]rune(line)) <= width {
		return []string{line}
	}
	var out []string
	var cur []rune
	for _, word := range strings.Fields(line) {
		w := []rune(word)
		for len(w) > width {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = nil
			}
			out = append(out, string(w[:width]))
			w = w[width:]
		}
		switch {
		case len(cur) == 0:
			cur = w
		case len(cur)+1+len(w) <= width:
			cur = append(append(cur, ' '), w...)
		default:
			out = append(out, string(cur))
			cur = w
		}
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}
