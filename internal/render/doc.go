// Package render ties document parsing and template expansion together for
// the worker and the CLI.
//
// A Request carries either inline template text or the name of a template
// to fetch through a Loader, plus the document to render against:
//
//	renderer := render.NewRenderer(template.NewEngine(), logger,
//	    render.WithLoader(render.NewDirLoader("templates")),
//	    render.WithFormatter(format.New()),
//	)
//
//	result, err := renderer.Render(ctx, &render.Request{
//	    TemplateName: "beers.jxtl",
//	    Document:     `{"beers": [{"name": "ale"}]}`,
//	})
//
// The document type is taken from the request when set and sniffed from the
// first non-blank byte otherwise. Compiled templates are cached by the
// engine, so repeated jobs for the same template compile it once.
//
// WriteFile is the only way output reaches disk; it never leaves a
// partially written file behind.
package render
