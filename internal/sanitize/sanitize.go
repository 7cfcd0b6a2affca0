// Package sanitize cleans staff- and visitor-supplied text before it is
// stored. Zone descriptions may carry light formatting; names and e-mail
// addresses are reduced to plain text.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	htmlPolicy *bluemonday.Policy
	textPolicy *bluemonday.Policy
	once       sync.Once
)

func policies() (*bluemonday.Policy, *bluemonday.Policy) {
	once.Do(func() {
		htmlPolicy = bluemonday.UGCPolicy()
		// Field descriptions often include small tables of rules and prices.
		htmlPolicy.AllowElements("table", "thead", "tbody", "tr", "td", "th", "caption")
		htmlPolicy.AllowAttrs("colspan", "rowspan").OnElements("td", "th")

		textPolicy = bluemonday.StrictPolicy()
	})
	return htmlPolicy, textPolicy
}

// HTML strips scripts, event handlers and javascript: URLs from input while
// keeping safe formatting. Call it on every description before storing it.
func HTML(input string) string {
	if input == "" {
		return ""
	}
	p, _ := policies()
	return p.Sanitize(input)
}

// Text removes all markup from input and trims surrounding whitespace.
// Entities produced by the policy are left escaped; templ escapes on output
// so callers must not double-escape.
func Text(input string) string {
	if input == "" {
		return ""
	}
	_, p := policies()
	return strings.TrimSpace(p.Sanitize(input))
}
