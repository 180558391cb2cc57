// Package export renders a checklist for use outside the app.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/jung-kurt/gofpdf"

	"github.com/agalitsyn/checklist-bot/internal/model"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
)

var Formats = []string{FormatJSON, FormatCSV, FormatPDF}

func Export(c model.TaskCollection, format, title string) ([]byte, error) {
	if c == nil {
		c = model.TaskCollection{}
	}

	switch strings.ToLower(format) {
	case FormatJSON:
		return json.Marshal(c, jsontext.WithIndent("  "))
	case FormatCSV:
		var b bytes.Buffer
		w := csv.NewWriter(&b)
		_ = w.Write([]string{"id", "title", "status"})
		for _, t := range c {
			_ = w.Write([]string{strconv.FormatInt(t.ID, 10), t.Title, string(t.Status)})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	case FormatPDF:
		return renderPDF(c, title)
	default:
		return nil, fmt.Errorf("unknown format %s", format)
	}
}

func renderPDF(c model.TaskCollection, title string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, tr(title))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	if len(c) == 0 {
		pdf.MultiCell(0, 6, "No tasks.", "0", "L", false)
	}
	for _, t := range c {
		line := fmt.Sprintf("[%s] %s", statusMark(t.Status), t.Title)
		pdf.MultiCell(0, 6, tr(line), "0", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("could not render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func statusMark(s model.TaskStatus) string {
	switch s {
	case model.TaskStatusActive:
		return "~"
	case model.TaskStatusDone:
		return "x"
	default:
		return " "
	}
}
