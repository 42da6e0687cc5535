package goview

import (
	"embed"
	"io/fs"
)

//go:embed assets/templates
var embeddedTemplates embed.FS

// EmbeddedTemplates exposes the built-in templates: the "document" layout,
// an HTML5 page reading lang and title, and the "container" wrapper. They
// follow the usual layouts/ and wrappers/ conventions, so the FS can be used
// directly or as an extra lookup root.
func EmbeddedTemplates() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "assets/templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}
