// Package view renders named templates through a pluggable engine.
//
// A render runs as a fixed pipeline of stages. The primary template (Open or
// Closed) renders first, then every wrapper the engine reports in order, then
// the engine layout when it has one. Each stage output becomes the engine
// content the next stage wraps. Around the pipeline and each stage the view
// emits lifecycle events:
//
//	view.rendering
//	  view.rendering.template   view.rendered.template
//	  view.rendering.wrapper    view.rendered.wrapper    (per wrapper)
//	  view.rendering.layout     view.rendered.layout
//	view.rendered
//
// Listeners return a copy of the event; the view continues with the returned
// template name or content.
//
// A template rendered with a truthy "cache" variable is stored in the view
// storage keyed by its path and served from there until it expires.
package view
