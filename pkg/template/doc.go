// Package template holds the vocabulary shared by views and engines: template
// kinds, ordered variable maps and the locators that turn a template name into
// a path inside an fs.FS.
package template
