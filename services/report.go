package services

import (
	"fmt"
	"io"
	"strings"

	"rent-dashboard/models"
)

var metricTitles = map[models.MetricKind]string{
	models.MetricDistribution:  "Rent Distribution",
	models.MetricRankedBar:     "Average Rent Ranking",
	models.MetricTrend:         "Rent Trends Over Time",
	models.MetricCorrelation:   "Correlation Matrix",
	models.MetricFeatureImpact: "Impact of Features on Rent",
	models.MetricGroupedBar:    "Average Rent by Property Type",
	models.MetricSummary:       "Key Figures",
}

// Printer renders query results as a colored terminal report.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Print writes every table of result in metric order.
func (p *Printer) Print(sel models.Selection, result map[models.MetricKind]*models.Table) {
	sep := strings.Repeat("═", 64)

	label := sel.Value
	if sel.IsAll() {
		label = "all"
	}
	fmt.Fprintf(p.out, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(p.out, "\033[1;35m  RENT DASHBOARD: %s = %s\033[0m\n", sel.Scope, label)
	fmt.Fprintf(p.out, "\033[1;35m%s\033[0m\n\n", sep)

	for _, m := range models.MetricKinds {
		t, ok := result[m]
		if !ok {
			continue
		}
		p.PrintTable(t)
	}

	fmt.Fprintf(p.out, "\033[1;35m%s\033[0m\n\n", sep)
}

// PrintTable writes a single table. Highlighted rows are marked with "▶".
func (p *Printer) PrintTable(t *models.Table) {
	thin := strings.Repeat("─", 64)

	title := metricTitles[t.Metric]
	if title == "" {
		title = string(t.Metric)
	}
	fmt.Fprintf(p.out, "\033[1;33m  %s\033[0m\n", title)
	fmt.Fprintf(p.out, "  %s\n", thin)

	if t.NoData {
		fmt.Fprintf(p.out, "  No data available\n\n")
		return
	}

	keyWidth := 24
	if len(t.KeyColumns) > 1 {
		keyWidth = 14
	}

	var header strings.Builder
	for _, k := range t.KeyColumns {
		fmt.Fprintf(&header, "%-*s ", keyWidth, truncate(k, keyWidth))
	}
	for _, c := range t.Columns {
		fmt.Fprintf(&header, "%12s ", truncate(c, 12))
	}
	fmt.Fprintf(p.out, "   \033[1m%s\033[0m\n", strings.TrimRight(header.String(), " "))

	for _, r := range t.Rows {
		var line strings.Builder
		for _, k := range r.Keys {
			fmt.Fprintf(&line, "%-*s ", keyWidth, truncate(k, keyWidth))
		}
		for _, v := range r.Values {
			fmt.Fprintf(&line, "%12s ", v.String())
		}
		marker := " "
		if r.Highlight {
			marker = "\033[1;32m▶\033[0m"
		}
		fmt.Fprintf(p.out, " %s %s\n", marker, strings.TrimRight(line.String(), " "))
	}
	fmt.Fprintln(p.out)
}

func truncate(s string, max int) string {
	if len([]rune(s)) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
