package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/ethanolivertroy/threat-modeler/internal/models"
	"github.com/ethanolivertroy/threat-modeler/internal/parsers"
	"github.com/ethanolivertroy/threat-modeler/internal/threats"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the component vocabulary and STRIDE rule tables",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Component keywords: %s\n\n", strings.Join(parsers.Keywords(), ", "))

		rules := table.New().Border(lipgloss.NormalBorder()).Headers("Keyword", "STRIDE")
		for _, r := range threats.ComponentRules() {
			cats := make([]string, len(r.Categories))
			for i, c := range r.Categories {
				cats[i] = string(c)
			}
			rules.Row(r.Keyword, strings.Join(cats, ", "))
		}
		fmt.Fprintln(out, rules.String())

		severities := table.New().Border(lipgloss.NormalBorder()).Headers("Category", "Base score")
		for _, c := range models.AllCategories() {
			severities.Row(c.Title(), fmt.Sprintf("%.0f", threats.BaseSeverity(c)))
		}
		fmt.Fprintln(out, severities.String())
	},
}
