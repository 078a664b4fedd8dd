// Package reporting renders the result of an extraction run for the terminal.
package reporting

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"zvtdump/internal/analysis"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#D9534F")).Bold(true)
)

// RenderSummary formats a run summary as a title, a counters box and a table
// of the busiest flows.
func RenderSummary(s analysis.Summary, outputDir string) string {
	title := titleStyle.Render(fmt.Sprintf("ZVT payload extraction - %s", outputDir))

	counters := []string{
		fmt.Sprintf("Records:     %d", s.Records),
		fmt.Sprintf("Blobs:       %d (%s)", s.Blobs, formatBytes(s.Bytes)),
		fmt.Sprintf("No payload:  %d", s.SkippedNoPayload),
	}
	if s.SkippedEmpty > 0 {
		counters = append(counters, fmt.Sprintf("Empty:       %d", s.SkippedEmpty))
	}
	if s.DecodeErrors > 0 {
		counters = append(counters, alertStyle.Render(fmt.Sprintf("Undecodable: %d", s.DecodeErrors)))
	}
	if s.WriteErrors > 0 {
		counters = append(counters, alertStyle.Render(fmt.Sprintf("Not written: %d", s.WriteErrors)))
	}
	countersBox := infoStyle.Render(strings.Join(counters, "\n"))

	if len(s.TopFlows) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, countersBox, infoStyle.Render("No payloads extracted."))
	}

	rows := make([][]string, 0, len(s.TopFlows))
	for _, flow := range s.TopFlows {
		rows = append(rows, []string{
			flow.Src,
			flow.Dst,
			flow.Service,
			strconv.Itoa(flow.Blobs),
			formatBytes(flow.Bytes),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("Source", "Destination", "Service", "Blobs", "Bytes").
		Rows(rows...)

	return lipgloss.JoinVertical(lipgloss.Left, title, countersBox, "Top flows", t.String())
}

// WriteSummary writes RenderSummary to w followed by a newline.
func WriteSummary(w io.Writer, s analysis.Summary, outputDir string) error {
	_, err := fmt.Fprintln(w, RenderSummary(s, outputDir))
	return err
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
