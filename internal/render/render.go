// Package render turns an assembled report into a document. Renderers are
// pure consumers: every value they print was formatted by domain.Assemble.
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/couchcryptid/weather-verify-service/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Format constants matching --format flag and query values.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrFullAccessRequired is returned when a preview report is asked for a
// format that only exists as a full document.
var ErrFullAccessRequired = errors.New("full access required for this format")

// Renderer writes a report in one output format.
type Renderer interface {
	Render(w io.Writer, r domain.Report) error
	ContentType() string
	Extension() string
}

// For returns the renderer for format. An empty format selects text.
func For(format string) (Renderer, error) {
	switch format {
	case FormatText, "":
		return Text{}, nil
	case FormatJSON:
		return JSON{}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q (want %s or %s)", format, FormatText, FormatJSON)
	}
}

// RenderTo writes to stdout when path is empty. When path names a directory
// the report's suggested file name is used inside it. It returns the path
// written, or "" for stdout.
func RenderTo(stdout io.Writer, path string, r domain.Report, rr Renderer) (string, error) {
	if path == "" {
		return "", rr.Render(stdout, r)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, r.Display.FileName+rr.Extension())
	}

	var buf bytes.Buffer
	if err := rr.Render(&buf, r); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// ─── JSON ─────────────────────────────────────────────────────────────────────

// JSON renders the full report, or only its preview for preview access.
type JSON struct{}

func (JSON) ContentType() string { return "application/json" }
func (JSON) Extension() string   { return ".json" }

func (JSON) Render(w io.Writer, r domain.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if !r.Full() {
		return enc.Encode(r.Preview())
	}
	return enc.Encode(r)
}

// ─── Text ─────────────────────────────────────────────────────────────────────

// Text renders the printable verification document. It requires full access.
type Text struct{}

func (Text) ContentType() string { return "text/plain; charset=utf-8" }
func (Text) Extension() string   { return ".txt" }

func (Text) Render(w io.Writer, r domain.Report) error {
	if !r.Full() {
		return ErrFullAccessRequired
	}
	d := r.Display

	var buf bytes.Buffer
	fmt.Fprintln(&buf, d.Title)
	fmt.Fprintf(&buf, "Report Generated: %s\n", d.GeneratedAt)
	fmt.Fprintf(&buf, "Report ID: %s\n\n", r.ID)

	fmt.Fprintln(&buf, "INCIDENT DETAILS")
	renderFieldTable(&buf, [][]string{
		{"Location", d.Location},
		{"Coordinates", d.Coordinates},
		{"Timezone", d.Timezone},
		{"Incident Date", d.IncidentDate},
		{"Purpose", d.Purpose},
	})

	fmt.Fprintln(&buf, "\nWEATHER CONDITIONS")
	renderMetricTable(&buf, d.Metrics)

	fmt.Fprintf(&buf, "\nVERDICT: %s\n", d.VerdictHeadline)
	fmt.Fprintln(&buf, d.VerdictText)

	fmt.Fprintf(&buf, "\nData Source: %s\n", d.DataSource)
	fmt.Fprintf(&buf, "Disclaimer: %s\n", d.Disclaimer)

	_, err := w.Write(buf.Bytes())
	return err
}

func renderFieldTable(w io.Writer, rows [][]string) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"FIELD", "VALUE"})
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetColWidth(80)
	tw.SetAutoWrapText(false)
	for _, r := range rows {
		tw.Append(r)
	}
	tw.Render()
}

func renderMetricTable(w io.Writer, rows []domain.MetricRow) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"METRIC", "VALUE", "UNIT"})
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
	})
	tw.SetAutoWrapText(false)
	for _, m := range rows {
		tw.Append([]string{m.Label, m.Value, m.Unit})
	}
	tw.Render()
}
