// Package export renders the resume page to a downloadable PDF.
package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"folio/api/internal/store"
)

var resumeTemplate = template.Must(template.New("resume").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Georgia, serif; color: #1a1a1a; line-height: 1.5; }
  h1 { font-size: 22pt; margin-bottom: 0.1em; border-bottom: 2px solid #1a1a1a; }
  p { margin: 0.5em 0; font-size: 11pt; }
  @page { size: A4; }
</style>
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}
</body>
</html>`))

type resumeData struct {
	Title      string
	Paragraphs []string
}

// Resume renders the resume page record as a PDF.
func Resume(pg store.Page) (*Result, error) {
	data := resumeData{Title: pg.Title}
	for _, para := range strings.Split(pg.Body, "\n\n") {
		para = strings.TrimSpace(para)
		if para != "" {
			data.Paragraphs = append(data.Paragraphs, para)
		}
	}

	var buf bytes.Buffer
	if err := resumeTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render resume template: %w", err)
	}

	return renderPDF(buf.String(), pg.Title)
}
