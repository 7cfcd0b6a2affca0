package zonesummary

import (
	"context"
	"fmt"
	"strings"

	"github.com/a-h/templ"
)

// TemplateName is the template the widget renders its content with.
const TemplateName = "ZoneSummary"

// TemplateContext is what a template sees: the widget itself.
type TemplateContext struct {
	Widget *Widget
}

// Renderer produces markup for a named template.
type Renderer func(name string, tc TemplateContext) (string, error)

// Templates maps template names to components. DefaultRenderer looks
// names up here.
var Templates = map[string]func(TemplateContext) templ.Component{
	TemplateName: ZoneSummary,
}

// DefaultRenderer renders name from Templates.
func DefaultRenderer(name string, tc TemplateContext) (string, error) {
	tmpl, ok := Templates[name]
	if !ok {
		return "", fmt.Errorf("template %q not found", name)
	}
	var b strings.Builder
	if err := tmpl(tc).Render(context.Background(), &b); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return b.String(), nil
}
