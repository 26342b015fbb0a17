package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rinehimer/jxtl/internal/document"
	"github.com/rinehimer/jxtl/internal/eval/template"
	"go.uber.org/zap"
)

// Source says where a request's template comes from
type Source string

const (
	// SourceInline uses the template text carried by the request
	SourceInline Source = "inline"

	// SourceNamed loads the template by name through the Loader
	SourceNamed Source = "named"
)

// ErrNoLoader is returned for named templates when no Loader is configured.
var ErrNoLoader = errors.New("no template loader configured")

// Request is one render job
type Request struct {
	JobID        string        `json:"job_id"`
	Template     string        `json:"template,omitempty"`
	TemplateName string        `json:"template_name,omitempty"`
	Document     string        `json:"document"`
	DocumentType document.Kind `json:"document_type,omitempty"`
	SkipRoot     bool          `json:"skip_root,omitempty"`
}

// Result is the outcome of a successful render
type Result struct {
	JobID        string        `json:"job_id"`
	Output       string        `json:"output"`
	Bytes        int           `json:"bytes"`
	Source       Source        `json:"source"`
	DocumentType document.Kind `json:"document_type"`
	Duration     time.Duration `json:"-"`
}

// Loader fetches template source by name
type Loader interface {
	Load(ctx context.Context, name string) (string, error)
}

// Renderer parses documents and expands templates against them
type Renderer struct {
	engine          *template.Engine
	loader          Loader
	formatter       template.Formatter
	skipRoot        bool
	maxDocumentSize int
	maxTemplateSize int
	logger          *zap.Logger
}

// Option configures a Renderer
type Option func(*Renderer)

// WithLoader sets the loader used for named templates.
func WithLoader(l Loader) Option {
	return func(r *Renderer) { r.loader = l }
}

// WithFormatter sets the formatter passed to every expansion.
func WithFormatter(f template.Formatter) Option {
	return func(r *Renderer) { r.formatter = f }
}

// WithSkipRoot makes XML documents drop their root element for every
// request, not only those asking for it.
func WithSkipRoot() Option {
	return func(r *Renderer) { r.skipRoot = true }
}

// WithMaxDocumentSize rejects documents larger than n bytes.
func WithMaxDocumentSize(n int) Option {
	return func(r *Renderer) { r.maxDocumentSize = n }
}

// WithMaxTemplateSize rejects inline templates larger than n bytes.
func WithMaxTemplateSize(n int) Option {
	return func(r *Renderer) { r.maxTemplateSize = n }
}

// NewRenderer creates a new renderer
func NewRenderer(engine *template.Engine, logger *zap.Logger, opts ...Option) *Renderer {
	r := &Renderer{
		engine: engine,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render performs one render job
func (r *Renderer) Render(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	if err := r.validateRequest(req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	source := r.detectSource(req)
	kind := r.detectKind(req)

	r.logger.Debug("render request",
		zap.String("job_id", req.JobID),
		zap.String("source", string(source)),
		zap.String("document_type", string(kind)),
		zap.Int("document_bytes", len(req.Document)),
	)

	tmpl, err := r.template(ctx, req, source)
	if err != nil {
		r.logFailure(req, source, err)
		return nil, err
	}

	var opts []document.Option
	if r.skipRoot || req.SkipRoot {
		opts = append(opts, document.WithXMLOptions(document.SkipRoot()))
	}
	root, err := document.Parse([]byte(req.Document), kind, opts...)
	if err != nil {
		err = fmt.Errorf("failed to parse document: %w", err)
		r.logFailure(req, source, err)
		return nil, err
	}

	output, err := tmpl.Expand(root, r.formatter)
	if err != nil {
		err = fmt.Errorf("failed to expand template: %w", err)
		r.logFailure(req, source, err)
		return nil, err
	}

	result := &Result{
		JobID:        req.JobID,
		Output:       output,
		Bytes:        len(output),
		Source:       source,
		DocumentType: kind,
		Duration:     time.Since(start),
	}

	r.logger.Info("render complete",
		zap.String("job_id", req.JobID),
		zap.String("source", string(source)),
		zap.String("document_type", string(kind)),
		zap.Int("bytes", result.Bytes),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

// template compiles (or fetches from the engine cache) the request template
func (r *Renderer) template(ctx context.Context, req *Request, source Source) (*template.Template, error) {
	src := req.Template
	name := "inline"
	if source == SourceNamed {
		if r.loader == nil {
			return nil, ErrNoLoader
		}
		var err error
		if src, err = r.loader.Load(ctx, req.TemplateName); err != nil {
			return nil, fmt.Errorf("failed to load template %s: %w", req.TemplateName, err)
		}
		name = req.TemplateName
	}

	tmpl, err := r.engine.Compile(src, template.WithName(name))
	if err != nil {
		return nil, fmt.Errorf("failed to compile template: %w", err)
	}
	return tmpl, nil
}

func (r *Renderer) logFailure(req *Request, source Source, err error) {
	r.logger.Error("render failed",
		zap.String("job_id", req.JobID),
		zap.String("source", string(source)),
		zap.Error(err),
	)
}

// detectSource picks the template source for a request
func (r *Renderer) detectSource(req *Request) Source {
	if req.Template == "" && req.TemplateName != "" {
		return SourceNamed
	}
	return SourceInline
}

// detectKind uses the declared document type or sniffs the document
func (r *Renderer) detectKind(req *Request) document.Kind {
	if k, err := document.ParseKind(string(req.DocumentType)); err == nil {
		return k
	}
	return document.Detect([]byte(req.Document))
}

// validateRequest validates a render request
func (r *Renderer) validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("request is nil")
	}

	if req.Template == "" && req.TemplateName == "" {
		return fmt.Errorf("template or template_name is required")
	}

	if req.Template != "" && req.TemplateName != "" {
		return fmt.Errorf("template and template_name are mutually exclusive")
	}

	if req.DocumentType != "" {
		if _, err := document.ParseKind(string(req.DocumentType)); err != nil {
			return err
		}
	}

	if r.maxTemplateSize > 0 && len(req.Template) > r.maxTemplateSize {
		return fmt.Errorf("template is %d bytes, limit is %d", len(req.Template), r.maxTemplateSize)
	}

	if r.maxDocumentSize > 0 && len(req.Document) > r.maxDocumentSize {
		return fmt.Errorf("document is %d bytes, limit is %d", len(req.Document), r.maxDocumentSize)
	}

	return nil
}
