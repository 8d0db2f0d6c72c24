package gate

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/boycepro/folio/internal/session"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Content is the markup a gate chooses between. Body and Preview must be
// trusted HTML.
type Content struct {
	Body     template.HTML
	Preview  template.HTML
	Fallback template.HTML
}

// View is a gate decision bound to its content and prompt.
type View struct {
	Decision Decision
	Prompt   Prompt
	Content  Content
}

func (v View) Loading() bool  { return v.Decision == DecisionLoading }
func (v View) Granted() bool  { return v.Decision == DecisionGranted }
func (v View) Fallback() bool { return v.Decision == DecisionFallback }

// Evaluate decides g for s. Content the session may not see is dropped from
// the view so it can never reach a template.
func Evaluate(g Gate, s session.Snapshot, c Content) View {
	d := g.Decide(s)
	v := View{Decision: d, Prompt: g.Prompt(d)}
	switch d {
	case DecisionGranted:
		v.Content.Body = c.Body
	case DecisionFallback:
		v.Content.Fallback = c.Fallback
	case DecisionSignUp, DecisionUpgrade:
		v.Content.Preview = c.Preview
	}
	return v
}

// Renderer turns views into HTML.
type Renderer struct {
	t *template.Template
}

// NewRenderer parses the embedded gate templates.
func NewRenderer() (*Renderer, error) {
	t, err := template.New("gate-root").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	return &Renderer{t: t}, nil
}

// Render writes v to w.
func (r *Renderer) Render(w io.Writer, v View) error {
	return r.t.ExecuteTemplate(w, "gate", v)
}

// HTML renders v for embedding in a page template.
func (r *Renderer) HTML(v View) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, v); err != nil {
		return "", err
	}
	// #nosec G203 - produced by html/template from trusted content
	return template.HTML(buf.String()), nil
}
