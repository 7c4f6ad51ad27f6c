package reporter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/ethanolivertroy/threat-modeler/internal/models"
)

const defaultWidth = 100

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#005f87", Dark: "#5fafd7"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#767676", Dark: "#8a8a8a"}

	severityColors = map[models.SeverityLevel]lipgloss.AdaptiveColor{
		models.SeverityCritical: {Light: "#af0000", Dark: "#ff5f5f"},
		models.SeverityHigh:     {Light: "#d75f00", Dark: "#ff8700"},
		models.SeverityMedium:   {Light: "#af8700", Dark: "#ffd75f"},
		models.SeverityLow:      {Light: "#008700", Dark: "#87d787"},
		models.SeverityNone:     {Light: "#767676", Dark: "#8a8a8a"},
	}
)

// TerminalReporter outputs results in a human-readable terminal format
type TerminalReporter struct {
	renderer *lipgloss.Renderer
	color    bool
	width    int
}

// NewTerminalReporter creates a reporter for out. Colour is used only when out
// is a terminal and NO_COLOR is unset.
func NewTerminalReporter(out io.Writer) *TerminalReporter {
	r := &TerminalReporter{
		renderer: lipgloss.NewRenderer(out),
		width:    defaultWidth,
	}

	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.color = os.Getenv("NO_COLOR") == ""
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			r.width = w
		}
	}

	if !r.color {
		r.renderer.SetColorProfile(termenv.Ascii)
	}

	return r
}

// Report generates terminal output for the given result
func (r *TerminalReporter) Report(result *models.Result) ([]byte, error) {
	var sb strings.Builder

	title := r.renderer.NewStyle().Bold(true).Foreground(colorAccent)
	heading := r.renderer.NewStyle().Bold(true)
	hint := r.renderer.NewStyle().Foreground(colorMuted)

	sb.WriteString("\n" + title.Render("STRIDE THREAT MODEL") + "\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	if result.ID != "" {
		sb.WriteString(hint.Render(fmt.Sprintf("Run %s", result.ID)) + "\n")
	}
	sb.WriteString("\n")

	tm := result.ThreatModel
	if tm == nil {
		tm = models.NewThreatModel()
	}

	if len(result.Components) == 0 {
		sb.WriteString("No components found in the description.\n")
	} else {
		sb.WriteString(heading.Render(fmt.Sprintf("Components (%d)", len(result.Components))) + "\n")
		rows := make([][]string, 0, len(result.Components))
		for _, name := range result.Components {
			rows = append(rows, r.row(name, tm.Components[name]))
		}
		sb.WriteString(r.table("Component", rows) + "\n\n")
	}

	if len(tm.Flows) > 0 {
		sb.WriteString(heading.Render(fmt.Sprintf("Data Flows (%d)", len(tm.Flows))) + "\n")
		rows := make([][]string, 0, len(tm.Flows))
		for _, f := range tm.Flows {
			rows = append(rows, r.row(f.Flow().String(), f.Assignment))
		}
		sb.WriteString(r.table("Flow", rows) + "\n\n")
	}

	// Summary
	highest := result.HighestSeverity()
	level := models.SeverityFor(highest)
	sb.WriteString(heading.Render("Summary") + "\n")
	sb.WriteString(fmt.Sprintf("  Highest severity: %s (%.1f)\n", r.severity(level), highest))
	counts := tm.CategoryCounts()
	for _, c := range models.AllCategories() {
		if counts[c] > 0 {
			sb.WriteString(fmt.Sprintf("  %-24s %d\n", c.Title()+":", counts[c]))
		}
	}

	if ref := result.Refinement; ref != nil {
		label := fmt.Sprintf("AI-Refined Threat Model (%s)", ref.Model)
		if ref.Cached {
			label += " [cached]"
		}
		sb.WriteString("\n" + heading.Render(label) + "\n")
		sb.WriteString(r.markdown(ref.Content))
	}

	if result.DiagramPath != "" {
		sb.WriteString("\n" + hint.Render("Diagram: "+result.DiagramPath) + "\n")
	}

	return []byte(sb.String()), nil
}

func (r *TerminalReporter) row(name string, a models.Assignment) []string {
	stride := make([]string, 0, len(a.Stride))
	for _, c := range a.Stride {
		stride = append(stride, c.Title())
	}
	max := a.MaxScore()
	return []string{
		name,
		strings.Join(stride, ", "),
		fmt.Sprintf("%.1f", max),
		string(models.SeverityFor(max)),
	}
}

func (r *TerminalReporter) table(first string, rows [][]string) string {
	headerStyle := r.renderer.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	cellStyle := r.renderer.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.renderer.NewStyle().Foreground(colorMuted)).
		Headers(first, "STRIDE", "Max", "Severity").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 3 && row >= 0 && row < len(rows) {
				level := models.SeverityLevel(rows[row][3])
				return cellStyle.Foreground(severityColors[level])
			}
			return cellStyle
		}).
		String()
}

func (r *TerminalReporter) severity(level models.SeverityLevel) string {
	return r.renderer.NewStyle().Bold(true).Foreground(severityColors[level]).Render(level.String())
}

// markdown renders refinement text, falling back to the raw text
func (r *TerminalReporter) markdown(content string) string {
	style, profile := "notty", termenv.Ascii
	if r.color {
		style, profile = "dark", r.renderer.ColorProfile()
		if !r.renderer.HasDarkBackground() {
			style = "light"
		}
	}

	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithColorProfile(profile),
		glamour.WithWordWrap(r.width-4),
	)
	if err != nil {
		return content + "\n"
	}

	out, err := md.Render(content)
	if err != nil {
		return content + "\n"
	}
	return out
}
