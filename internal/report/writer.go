package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/dm/indexsweep/internal/format"
)

// Palette shared with the table renderer.
var (
	colorGreen  = lipgloss.Color("#10b981")
	colorYellow = lipgloss.Color("#f59e0b")
	colorRed    = lipgloss.Color("#ef4444")
	colorGray   = lipgloss.Color("#6b7280")
	colorCyan   = lipgloss.Color("#06b6d4")
	colorPurple = lipgloss.Color("#8b5cf6")
	colorWhite  = lipgloss.Color("#f8fafc")
)

// Write renders rep to w in the requested format.
func Write(w io.Writer, f Format, rep Report) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(rep)
	case FormatTable, "":
		return writeTable(w, rep)
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

func writeTable(w io.Writer, rep Report) error {
	r := lipgloss.NewRenderer(w)
	bold := r.NewStyle().Bold(true)
	dim := r.NewStyle().Foreground(colorGray)

	var b strings.Builder
	for i, rule := range rep.Rules {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(bold.Render(rule.Pattern))
		b.WriteString(dim.Render(fmt.Sprintf("  retention %dd", rule.DurationDays)))
		if rule.Deadline != "" {
			b.WriteString(dim.Render("  deadline " + rule.Deadline))
		}
		b.WriteString("  ")
		b.WriteString(statusStyle(r, rule.Status).Render(rule.Status))
		b.WriteString("\n")

		if rule.Error != "" {
			b.WriteString(r.NewStyle().Foreground(colorRed).Render("  " + rule.Error))
			b.WriteString("\n")
			continue
		}

		b.WriteString(dim.Render(fmt.Sprintf("  listed %d, retained %d, skipped %d",
			rule.Listed, rule.Retained, len(rule.Skipped))))
		b.WriteString("\n")

		if len(rule.Eligible) == 0 {
			b.WriteString(dim.Render("  (nothing past retention)"))
			b.WriteString("\n")
			continue
		}
		b.WriteString(indexTable(r, rep.Mode, rule).Render())
		b.WriteString("\n")
	}

	s := rep.Summary
	b.WriteString("\n")
	b.WriteString(bold.Render(fmt.Sprintf("%d rules", s.Rules)))
	b.WriteString(dim.Render(fmt.Sprintf("  eligible %d, deleted %d, skipped %d, delete failures %d, failed rules %d",
		s.Eligible, s.Deleted, s.Skipped, s.DeleteFailures, s.Failed)))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func indexTable(r *lipgloss.Renderer, mode string, rule RuleReport) *ltable.Table {
	deleted := make(map[string]bool, len(rule.Deleted))
	for _, n := range rule.Deleted {
		deleted[n] = true
	}
	failed := make(map[string]bool, len(rule.Failed))
	for _, f := range rule.Failed {
		failed[f.Name] = true
	}

	rows := make([][]string, 0, len(rule.Eligible))
	for _, idx := range rule.Eligible {
		action := "would delete"
		if mode != "plan" {
			switch {
			case deleted[idx.Name]:
				action = "deleted"
			case failed[idx.Name]:
				action = "failed"
			default:
				action = "pending"
			}
		}
		rows = append(rows, []string{
			idx.Name,
			idx.Date,
			idx.Age,
			orUnknown(idx.Health),
			format.FormatCount(idx.DocsCount),
			format.FormatSize(idx.StoreSize),
			action,
		})
	}

	return ltable.New().
		Headers("INDEX", "DATE", "AGE", "HEALTH", "DOCS", "SIZE", "ACTION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := r.NewStyle().Padding(0, 1)
			if row == ltable.HeaderRow {
				return base.Bold(true).Foreground(colorGray)
			}
			if row < 0 || row >= len(rows) {
				return base
			}
			switch col {
			case 3:
				return base.Inherit(healthStyle(r, rows[row][3]))
			case 4:
				return base.Foreground(colorCyan)
			case 5:
				return base.Foreground(colorPurple)
			case 6:
				if rows[row][6] == "failed" {
					return base.Foreground(colorRed)
				}
				return base.Foreground(colorYellow)
			default:
				return base.Foreground(colorWhite)
			}
		}).
		BorderStyle(r.NewStyle().Foreground(colorGray)).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(true).
		BorderColumn(false)
}

func statusStyle(r *lipgloss.Renderer, status string) lipgloss.Style {
	s := r.NewStyle().Bold(true)
	switch status {
	case StatusOK:
		return s.Foreground(colorGreen)
	case StatusPartial:
		return s.Foreground(colorYellow)
	default:
		return s.Foreground(colorRed)
	}
}

func healthStyle(r *lipgloss.Renderer, health string) lipgloss.Style {
	switch health {
	case "green":
		return r.NewStyle().Foreground(colorGreen)
	case "yellow":
		return r.NewStyle().Foreground(colorYellow)
	case "red":
		return r.NewStyle().Foreground(colorRed)
	default:
		return r.NewStyle().Foreground(colorGray)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return format.Unknown
	}
	return s
}
