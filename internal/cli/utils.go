// Package cli renders statuses, visualizations and history for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/semsim/internal/models"
	"github.com/hyperjump/semsim/internal/samples"
	"github.com/hyperjump/semsim/internal/visualize"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is styled human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one plain line per record.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a --output flag value to a format.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteStatus writes a status line. label names the action ("POST", "GET") in text output.
func WriteStatus(w io.Writer, label string, st models.Status, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, st)
	case OutputCompact:
		_, err := fmt.Fprintf(w, "%s\t%s\n", severityOrInfo(st.Severity), st.Display())
		return err
	default:
		_, err := fmt.Fprintln(w, newTheme(w).status(label, st))
		return err
	}
}

func severityOrInfo(s models.Severity) models.Severity {
	if s == "" {
		return models.SeverityInfo
	}
	return s
}

type visualizationOutput struct {
	Layout  *visualize.Layout  `json:"layout"`
	Details []visualize.Detail `json:"details"`
}

// WriteVisualization writes v as a bar chart of the given height in rows
// followed by the detail of every group. A nil v is the cleared state.
func WriteVisualization(w io.Writer, v *visualize.Visualization, rows int, format OutputFormat) error {
	switch format {
	case OutputJSON:
		out := visualizationOutput{Details: []visualize.Detail{}}
		if v != nil {
			layout := v.Layout
			out.Layout = &layout
			out.Details = details(v)
		}
		return writeJSON(w, out)
	case OutputCompact:
		return writeVisualizationCompact(w, v)
	default:
		if v == nil {
			_, err := fmt.Fprintln(w, visualize.ClearedPlaceholder)
			return err
		}
		chart := newChart(newTheme(w), rows)
		if err := v.Render(chart); err != nil {
			return err
		}
		_, err := io.WriteString(w, chart.String())
		return err
	}
}

type resultsOutput struct {
	Status        models.Status        `json:"status"`
	Visualization *visualizationOutput `json:"visualization"`
}

// WriteResults writes the status of a results fetch followed by its
// visualization. JSON output is a single object with both.
func WriteResults(w io.Writer, st models.Status, v *visualize.Visualization, rows int, format OutputFormat) error {
	if format != OutputJSON {
		if err := WriteStatus(w, "GET", st, format); err != nil {
			return err
		}
		return WriteVisualization(w, v, rows, format)
	}
	out := resultsOutput{Status: st}
	if v != nil {
		layout := v.Layout
		out.Visualization = &visualizationOutput{Layout: &layout, Details: details(v)}
	}
	return writeJSON(w, out)
}

func details(v *visualize.Visualization) []visualize.Detail {
	out := make([]visualize.Detail, 0, len(v.Groups()))
	for i := range v.Groups() {
		d, _ := v.Detail(i)
		out = append(out, d)
	}
	return out
}

func writeVisualizationCompact(w io.Writer, v *visualize.Visualization) error {
	if v == nil {
		_, err := fmt.Fprintln(w, visualize.ClearedPlaceholder)
		return err
	}
	if v.Layout.Empty {
		_, err := fmt.Fprintln(w, visualize.EmptyPlaceholder)
		return err
	}
	for _, c := range v.Layout.Columns {
		texts := v.Groups()[c.Index].Texts()
		for i, t := range texts {
			texts[i] = Truncate(t, 60)
		}
		if _, err := fmt.Fprintf(w, "group=%d\tcount=%d\theight=%.1f\t%s\n",
			c.Index+1, c.Count, c.Height, strings.Join(texts, " | ")); err != nil {
			return err
		}
	}
	return nil
}

// WriteSamples writes the loaded samples.
func WriteSamples(w io.Writer, list []samples.Sample, format OutputFormat) error {
	switch format {
	case OutputJSON:
		if list == nil {
			list = []samples.Sample{}
		}
		return writeJSON(w, list)
	case OutputCompact:
		for _, s := range list {
			if _, err := fmt.Fprintf(w, "%s\t%d\t%s\n", s.Name, s.Size, s.Source); err != nil {
				return err
			}
		}
		return nil
	default:
		th := newTheme(w)
		for _, s := range list {
			fmt.Fprintf(w, "%-8s %8d bytes  %s\n", s.Name, s.Size, th.muted.Render(s.Source))
		}
		return nil
	}
}

// WriteHistory writes recorded runs, newest first.
func WriteHistory(w io.Writer, runs []*models.Run, format OutputFormat) error {
	switch format {
	case OutputJSON:
		if runs == nil {
			runs = []*models.Run{}
		}
		return writeJSON(w, runs)
	case OutputCompact:
		for _, r := range runs {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				r.CreatedAt.Format(time.RFC3339), r.Action, r.HTTPStatus, r.Outcome, r.Message); err != nil {
				return err
			}
		}
		return nil
	default:
		if len(runs) == 0 {
			_, err := fmt.Fprintln(w, "No runs recorded.")
			return err
		}
		th := newTheme(w)
		for _, r := range runs {
			st := models.Status{Message: r.Message, Severity: r.Severity}
			fmt.Fprintf(w, "%s  %-7s %3d  %-12s %s\n",
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Action, r.HTTPStatus, r.Outcome,
				th.severity(r.Severity).Render(Truncate(st.Display(), 100)))
		}
		return nil
	}
}

// Truncate truncates s to maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
