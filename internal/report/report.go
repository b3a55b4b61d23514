// Package report renders the decision history of a session.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/aretw0/arbor/pkg/domain"
)

// Item is one answered question.
type Item struct {
	Number     int    `json:"number"`
	Subheading string `json:"subheading,omitempty"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

// Report is the printable form of a session history.
type Report struct {
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// Build pairs every history entry with the subheading the node carries in
// fc today. Entries whose node was deleted keep an empty subheading.
func Build(fc *domain.Flowchart, history []domain.HistoryEntry) *Report {
	r := &Report{Items: make([]Item, 0, len(history))}
	if fc != nil {
		r.Title = fc.Title()
	} else {
		r.Title = domain.DefaultFlowchartName
	}
	for i, h := range history {
		item := Item{Number: i + 1, Question: h.Question, Answer: strings.ToUpper(h.Answer)}
		if fc != nil {
			if n, err := fc.FindByID(h.ID); err == nil {
				item.Subheading = n.Subheading
			}
		}
		r.Items = append(r.Items, item)
	}
	return r
}

var unsafeFilename = strings.NewReplacer("/", "-", "\\", "-", ":", "-", "\x00", "")

// Filename is the suggested download name of the PDF. Path separators in the
// title are replaced so the name never leaves the current directory.
func (r *Report) Filename() string {
	title := strings.Trim(strings.TrimSpace(unsafeFilename.Replace(r.Title)), ".")
	if title == "" {
		title = domain.DefaultFlowchartName
	}
	return filepath.Base(title + " Report.pdf")
}

// Text renders the report as plain text, one block per answer.
func (r *Report) Text() string {
	if len(r.Items) == 0 {
		return "No history yet.\n"
	}
	blocks := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Q%d:\n", it.Number)
		if it.Subheading != "" {
			fmt.Fprintf(&sb, "Subheading: %s\n", it.Subheading)
		}
		fmt.Fprintf(&sb, "%s\nAnswer: %s", it.Question, it.Answer)
		blocks = append(blocks, sb.String())
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

// WritePDF renders the report as an A4 PDF.
func (r *Report) WritePDF(w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(r.Title, true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, tr(r.Title), "", "L", false)
	pdf.Ln(4)

	if len(r.Items) == 0 {
		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(0, 6, "No history yet.", "", "L", false)
	}
	for _, it := range r.Items {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 6, fmt.Sprintf("Q%d:", it.Number), "", "L", false)
		if it.Subheading != "" {
			pdf.SetFont("Helvetica", "I", 11)
			pdf.MultiCell(0, 6, tr("Subheading: "+it.Subheading), "", "L", false)
		}
		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(0, 6, tr(it.Question), "", "L", false)
		pdf.MultiCell(0, 6, tr("Answer: "+it.Answer), "", "L", false)
		pdf.Ln(4)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	return pdf.Output(w)
}
