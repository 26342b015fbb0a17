package format

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rinehimer/jxtl/internal/eval/template"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Func formats one interpolated value.
type Func func(value string, scope template.Scope) (string, error)

// Simple adapts an infallible string function that ignores the scope.
func Simple(fn func(string) string) Func {
	return func(value string, _ template.Scope) (string, error) {
		return fn(value), nil
	}
}

// Registry is a template.Formatter dispatching on the format name. Names
// without a registered function leave the value unchanged.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

var _ template.Formatter = (*Registry)(nil)

// New returns a registry holding the built-in formats.
func New() *Registry {
	r := &Registry{funcs: make(map[string]Func)}
	r.Register("upper", Simple(strings.ToUpper))
	r.Register("lower", Simple(strings.ToLower))
	r.Register("title", Simple(title))
	r.Register("trim", Simple(strings.TrimSpace))
	r.Register("sanitize", Simple(sanitize))
	r.Register("xml", escapeXML)
	r.Register("json", escapeJSON)
	return r
}

// Register adds or replaces the function for name.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Names lists the registered format names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Format implements template.Formatter.
func (r *Registry) Format(value, name string, scope template.Scope) (string, error) {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()
	if !ok {
		return value, nil
	}
	out, err := fn(value, scope)
	if err != nil {
		return "", fmt.Errorf("format %s: %w", name, err)
	}
	return out, nil
}

// title upper-cases the first letter of each word. A Caser keeps state, so
// one is built per call.
func title(s string) string {
	return cases.Title(language.Und).String(s)
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// sanitize strips all markup.
func sanitize(s string) string {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy.Sanitize(s)
}

func escapeXML(s string, _ template.Scope) (string, error) {
	var b bytes.Buffer
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return "", err
	}
	return b.String(), nil
}

// escapeJSON escapes s for use inside a JSON string literal.
func escapeJSON(s string, _ template.Scope) (string, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return "", err
	}
	quoted := strings.TrimSuffix(b.String(), "\n")
	return quoted[1 : len(quoted)-1], nil
}
