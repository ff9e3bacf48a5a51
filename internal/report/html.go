package report

import (
	"fmt"
	"io"
	"strings"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"
)

const stylesheet = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2328}
table{border-collapse:collapse;min-width:32rem}
th,td{border:1px solid #d0d7de;padding:.35rem .75rem;text-align:left}
th{background:#f6f8fa}
td.num{text-align:right;font-variant-numeric:tabular-nums}
.red{color:#cf222e;font-weight:600}
.warnings li{color:#9a6700}`

// WriteHTML renders s as a standalone HTML page.
func WriteHTML(w io.Writer, s Summary) error {
	if err := page(s).Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func page(s Summary) gomponents.Node {
	return html.Doctype(
		html.HTML(
			html.Lang("en"),
			html.Head(
				html.Meta(html.Charset("utf-8")),
				html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
				html.TitleEl(gomponents.Text("Churn Risk Report")),
				html.StyleEl(gomponents.Raw(stylesheet)),
			),
			html.Body(
				html.H1(gomponents.Text("Churn Risk Report")),
				html.P(gomponents.Textf("Run %s, generated %s", s.RunID, s.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))),
				summaryList(s),
				warningList(s.Warnings),
				customerTable(s),
			),
		),
	)
}

func summaryList(s Summary) gomponents.Node {
	return html.Ul(
		html.Li(gomponents.Textf("Input files: %s", strings.Join(s.Files, ", "))),
		html.Li(gomponents.Textf("Customers scored: %d", s.TotalCustomers)),
		html.Li(gomponents.Textf("RED LIGHT customers: %d (probability above %s)", s.RedLightCount, FormatProbability(s.Threshold))),
		html.Li(gomponents.Textf("Labels: %s (%d positive)", s.LabelSource, s.Positives)),
		html.Li(gomponents.Textf("Features: %s", strings.Join(s.Features, ", "))),
	)
}

func warningList(warnings []string) gomponents.Node {
	if len(warnings) == 0 {
		return nil
	}
	items := make([]gomponents.Node, 0, len(warnings))
	for _, w := range warnings {
		items = append(items, html.Li(gomponents.Text(w)))
	}
	return html.Div(
		html.Class("warnings"),
		html.H2(gomponents.Text("Warnings")),
		html.Ul(gomponents.Group(items)),
	)
}

func customerTable(s Summary) gomponents.Node {
	if len(s.Customers) == 0 {
		return html.P(gomponents.Text("No customers above the risk threshold."))
	}
	header := make([]gomponents.Node, 0, len(CSVHeader))
	for _, h := range CSVHeader {
		header = append(header, html.Th(gomponents.Text(h)))
	}
	rows := make([]gomponents.Node, 0, len(s.Customers))
	for _, p := range s.Customers {
		rows = append(rows,
			html.Tr(
				html.Td(gomponents.Text(p.CustomerID)),
				html.Td(html.Class("num"), gomponents.Text(FormatProbability(p.Probability))),
				html.Td(html.Class("red"), gomponents.Text(string(p.Status))),
			),
		)
	}
	return html.Table(
		html.THead(html.Tr(gomponents.Group(header))),
		html.TBody(gomponents.Group(rows)),
	)
}
