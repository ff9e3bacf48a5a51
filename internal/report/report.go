// Package report writes the RED LIGHT customer list in the supported output formats.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/churnguard-cli/internal/pipeline"
	"github.com/KaramelBytes/churnguard-cli/internal/utils"
)

// Format is an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// Formats lists the supported output formats.
func Formats() []Format { return []Format{FormatCSV, FormatJSON, FormatHTML, FormatPDF} }

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, ok := range Formats() {
		if f == ok {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format %q (supported: csv, json, html, pdf)", s)
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string { return "." + string(f) }

// CSVHeader is the column header of the CSV output.
var CSVHeader = []string{"Customer_ID", "Churn_Probability", "Churn_Risk_Status"}

// Summary is everything a report renders about one run.
type Summary struct {
	RunID          string                `json:"run_id"`
	GeneratedAt    time.Time             `json:"generated_at"`
	Files          []string              `json:"files"`
	TotalCustomers int                   `json:"total_customers"`
	RedLightCount  int                   `json:"red_light_count"`
	Threshold      float64               `json:"risk_threshold"`
	LabelSource    string                `json:"label_source"`
	Positives      int                   `json:"positive_labels"`
	Features       []string              `json:"features"`
	Warnings       []string              `json:"warnings,omitempty"`
	Customers      []pipeline.Prediction `json:"customers"`
}

// NewSummary builds the report body for res.
func NewSummary(res *pipeline.Result, files []string, threshold float64) Summary {
	customers := res.RedLight
	if customers == nil {
		customers = []pipeline.Prediction{}
	}
	return Summary{
		RunID:          res.RunID,
		GeneratedAt:    time.Now().UTC(),
		Files:          files,
		TotalCustomers: len(res.Predictions),
		RedLightCount:  len(res.RedLight),
		Threshold:      threshold,
		LabelSource:    string(res.LabelSource),
		Positives:      res.Positives,
		Features:       res.Features,
		Warnings:       res.Warnings,
		Customers:      customers,
	}
}

// FormatProbability renders p with three decimals.
func FormatProbability(p float64) string {
	return strconv.FormatFloat(p, 'f', 3, 64)
}

// WriteCSV writes one row per prediction under CSVHeader.
func WriteCSV(w io.Writer, preds []pipeline.Prediction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range preds {
		if err := cw.Write([]string{p.CustomerID, FormatProbability(p.Probability), string(p.Status)}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the whole summary as indented JSON.
func WriteJSON(w io.Writer, s Summary) error {
	b, err := utils.PrettyJSON(s)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// Write renders s in format f.
func Write(w io.Writer, f Format, s Summary) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, s.Customers)
	case FormatJSON:
		return WriteJSON(w, s)
	case FormatHTML:
		return WriteHTML(w, s)
	case FormatPDF:
		return WritePDF(w, s)
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}

// SaveFile renders s and writes it atomically to path.
func SaveFile(path string, f Format, s Summary) error {
	var buf bytes.Buffer
	if err := Write(&buf, f, s); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("save %s report: %w", f, err)
	}
	return nil
}
