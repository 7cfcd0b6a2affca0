package layouts

import "strings"

// navLinks are the top-level pages shown in the header.
var navLinks = []struct{ Href, Label string }{
	{"/zones", "Zones"},
	{"/summaries/new", "Zone Summary"},
}

// navActive reports whether href is the section active covers.
// "/summaries/new" highlights for every /summaries page.
func navActive(active, href string) bool {
	return strings.HasPrefix(active, strings.TrimSuffix(href, "/new"))
}
