package export

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-crm/internal/deals"
	"github.com/odyssey-erp/odyssey-crm/report"
)

// CardPayload is the deals card content destined for PDF rendering.
type CardPayload struct {
	Title  string
	Range  string
	Chart  template.HTML
	Points []deals.ChartPoint
}

// HTMLRenderer converts an HTML document to PDF.
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, html string, opts report.Options) ([]byte, error)
}

// PDFExporter renders the deals card through Gotenberg.
type PDFExporter struct {
	Renderer HTMLRenderer
}

// RenderCard sends the card HTML to the renderer and returns the PDF bytes.
func (p *PDFExporter) RenderCard(ctx context.Context, payload CardPayload) ([]byte, error) {
	if p == nil || p.Renderer == nil {
		return nil, errors.New("pdf exporter not initialised")
	}
	pdf, err := p.Renderer.RenderHTML(ctx, buildHTML(payload), report.Options{
		Filename:  "deals-chart.html",
		Landscape: true,
		WaitDelay: 500 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("render deals chart pdf: %w", err)
	}
	return pdf, nil
}

func buildHTML(payload CardPayload) string {
	title := payload.Title
	if title == "" {
		title = "Deals"
	}
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}p.range{color:#8c8c8c;}table{width:100%;border-collapse:collapse;margin-top:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{background:#f5f5f5;}td.label{text-align:left;}")
	b.WriteString("</style></head><body>")
	b.WriteString("<h1>" + template.HTMLEscapeString(title) + "</h1>")
	if payload.Range != "" {
		b.WriteString("<p class=\"range\">" + template.HTMLEscapeString(payload.Range) + "</p>")
	}
	b.WriteString("<section>")
	b.WriteString(string(payload.Chart))
	b.WriteString("</section>")
	if len(payload.Points) > 0 {
		b.WriteString("<table><thead><tr><th>Month</th><th>State</th><th>Value</th></tr></thead><tbody>")
		for _, point := range payload.Points {
			b.WriteString("<tr><td class=\"label\">")
			b.WriteString(template.HTMLEscapeString(point.TimeText))
			b.WriteString("</td><td class=\"label\">")
			b.WriteString(template.HTMLEscapeString(point.State))
			b.WriteString("</td><td>")
			b.WriteString(template.HTMLEscapeString(deals.FormatThousands(point.Value)))
			b.WriteString("</td></tr>")
		}
		b.WriteString("</tbody></table>")
	}
	b.WriteString("</body></html>")
	return b.String()
}
