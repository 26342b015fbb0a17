package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rinehimer/jxtl/internal/document"
	"github.com/rinehimer/jxtl/internal/eval/template"
	"github.com/rinehimer/jxtl/internal/format"
	"github.com/rinehimer/jxtl/internal/render"
	"github.com/spf13/cobra"
)

type renderOptions struct {
	template     string
	jsonFile     string
	xmlFile      string
	yamlFile     string
	output       string
	expect       string
	skipRoot     bool
	trimNewlines bool
	left, right  string
}

// data returns the data file flag that was given and its document kind
func (o *renderOptions) data() (string, document.Kind) {
	switch {
	case o.xmlFile != "":
		return o.xmlFile, document.XML
	case o.yamlFile != "":
		return o.yamlFile, document.YAML
	default:
		return o.jsonFile, document.JSON
	}
}

func (a *app) render(cmd *cobra.Command, opts *renderOptions) error {
	path, kind := opts.data()
	doc, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return fmt.Errorf("reading data: %w", err)
	}

	engineOpts := []template.Option{template.WithDelims(opts.left, opts.right)}
	if opts.trimNewlines {
		engineOpts = append(engineOpts, template.WithTrimBlockNewlines())
	}

	// Loading through a DirLoader names the template after its file, so
	// syntax errors point at file:line:column.
	renderer := render.NewRenderer(template.NewEngine(engineOpts...), a.logger,
		render.WithLoader(render.NewDirLoader(filepath.Dir(opts.template))),
		render.WithFormatter(format.New()),
	)

	result, err := renderer.Render(context.Background(), &render.Request{
		JobID:        "cli",
		TemplateName: filepath.Base(opts.template),
		Document:     string(doc),
		DocumentType: kind,
		SkipRoot:     opts.skipRoot,
	})
	if err != nil {
		return err
	}

	if opts.output != "" {
		if err := render.WriteFile(opts.output, result.Output); err != nil {
			return err
		}
	} else if _, err := io.WriteString(cmd.OutOrStdout(), result.Output); err != nil {
		return err
	}

	if opts.expect != "" {
		want, err := os.ReadFile(opts.expect)
		if err != nil {
			return fmt.Errorf("reading expected output: %w", err)
		}
		return compareOutput(cmd.ErrOrStderr(), string(want), result.Output)
	}
	return nil
}

// readInput reads path, or all of stdin when path is "-"
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: no such file", path)
	}
	return data, err
}
