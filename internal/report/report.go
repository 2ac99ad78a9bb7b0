package report

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/russross/blackfriday/v2"

	"github.com/roach88/hpl/internal/ast"
	"github.com/roach88/hpl/internal/ir"
	"github.com/roach88/hpl/internal/rewrite"
)

// shortID is the number of hex digits of a content ID shown in reports.
const shortID = 12

// Markdown renders a specification as a Markdown document: one section
// per property with its text, classification, content ID and, when the
// property splits, its canonical forms.
func Markdown(s *ast.Specification) ([]byte, error) {
	var buf bytes.Buffer
	f := func(format string, args ...any) {
		fmt.Fprintf(&buf, format+"\n", args...)
	}

	specID, err := ir.SpecificationID(s)
	if err != nil {
		return nil, err
	}
	f("# HPL specification")
	f("")
	f("Specification `%s`, %s.", specID[:shortID], plural(len(s.Properties), "property", "properties"))

	for i, p := range s.Properties {
		id, err := ir.PropertyID(p)
		if err != nil {
			return nil, fmt.Errorf("property %d: %w", i+1, err)
		}
		forms, err := rewrite.CanonicalForm(p)
		if err != nil {
			return nil, fmt.Errorf("property %d: %w", i+1, err)
		}

		f("")
		f("## %s", heading(i, p.Metadata))
		if d := p.Metadata.Description; d != "" {
			f("")
			f("%s", d)
		}
		f("")
		f("```")
		f("%s", p)
		f("```")
		f("")
		f("- Class: %s", class(p))
		f("- Scope: %s", p.Scope.Kind)
		f("- Pattern: %s", p.Pattern.Kind)
		f("- ID: `%s`", id[:shortID])
		if len(forms) > 1 {
			f("")
			f("Canonical forms:")
			f("")
			f("```")
			for _, c := range forms {
				f("%s", c)
			}
			f("```")
		}
	}
	return buf.Bytes(), nil
}

// HTML renders the Markdown report as an HTML fragment.
func HTML(s *ast.Specification) ([]byte, error) {
	md, err := Markdown(s)
	if err != nil {
		return nil, err
	}
	return blackfriday.Run(md), nil
}

// WritePage writes a standalone HTML page holding the report.
func WritePage(w io.Writer, s *ast.Specification, title string, cssFiles []string) error {
	body, err := HTML(s)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, html.EscapeString(title))
	for _, css := range cssFiles {
		fmt.Fprintf(w, "  <link href=\"%s\" rel=\"stylesheet\">\n", html.EscapeString(css))
	}
	fmt.Fprintf(w, "  </head>\n  <body>\n<div class=\"hplDoc\">\n%s</div>\n  </body>\n</html>\n", body)
	return nil
}

func heading(i int, m ast.Metadata) string {
	switch {
	case m.ID != "" && m.Title != "":
		return fmt.Sprintf("%s: %s", m.ID, m.Title)
	case m.Title != "":
		return m.Title
	case m.ID != "":
		return m.ID
	}
	return fmt.Sprintf("Property %d", i+1)
}

func class(p *ast.Property) string {
	if p.IsSafety() {
		return "safety"
	}
	return "liveness"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
