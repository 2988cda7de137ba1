package reports

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Section adds report-type specific Markdown to a document.
type Section func(ctx context.Context, params map[string]any) (string, error)

// Renderer turns a job into a standalone HTML document.
type Renderer struct {
	md       goldmark.Markdown
	sections map[Type]Section
	now      func() time.Time
}

func NewRenderer(sections map[Type]Section) *Renderer {
	return &Renderer{
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
		sections: sections,
		now:      time.Now,
	}
}

// Markdown builds the report source: title, generation time, parameters, then
// the section registered for the report type.
func (r *Renderer) Markdown(ctx context.Context, j Job) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Relatório %s\n\n", strings.ToUpper(string(j.ReportType)))
	fmt.Fprintf(&b, "Gerado em: %s\n\n", r.now().UTC().Format("2006-01-02T15:04:05Z"))
	if len(j.Params) > 0 {
		keys := make([]string, 0, len(j.Params))
		for k := range j.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("| Parâmetro | Valor |\n|---|---|\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "| %s | %v |\n", cell(k), cell(fmt.Sprint(j.Params[k])))
		}
		b.WriteString("\n")
	}
	if sec, ok := r.sections[j.ReportType]; ok {
		body, err := sec(ctx, j.Params)
		if err != nil {
			return "", fmt.Errorf("%s section: %w", j.ReportType, err)
		}
		b.WriteString(body)
	}
	return b.String(), nil
}

func (r *Renderer) Render(ctx context.Context, j Job) ([]byte, error) {
	src, err := r.Markdown(ctx, j)
	if err != nil {
		return nil, err
	}
	var body bytes.Buffer
	if err := r.md.Convert([]byte(src), &body); err != nil {
		return nil, err
	}
	var doc bytes.Buffer
	fmt.Fprintf(&doc, "<!doctype html>\n<html lang=\"pt-BR\"><head><meta charset=\"utf-8\"><title>%s</title></head><body>\n",
		html.EscapeString("Relatório "+strings.ToUpper(string(j.ReportType))))
	doc.Write(body.Bytes())
	doc.WriteString("</body></html>\n")
	return doc.Bytes(), nil
}

func cell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
