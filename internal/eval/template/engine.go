package template

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rinehimer/jxtl/internal/value"
)

// DefaultCacheSize is the number of compiled templates an Engine keeps
// before evicting the least recently used.
const DefaultCacheSize = 1024

// cacheKey identifies a compiled template. The name is part of the key so
// the same text compiled under two names reports errors under each.
type cacheKey struct {
	name string
	src  string
}

// Engine compiles templates once and caches them by name and source text
type Engine struct {
	opts      []Option
	formatter Formatter
	cache     *lru.Cache[cacheKey, *Template]
	mu        sync.Mutex
}

// NewEngine creates a new template engine holding at most
// DefaultCacheSize compiled templates. opts apply to every template it
// compiles.
func NewEngine(opts ...Option) *Engine {
	cache, err := lru.New[cacheKey, *Template](DefaultCacheSize)
	if err != nil {
		panic(fmt.Sprintf("failed to create template cache: %v", err))
	}
	return &Engine{
		opts:  opts,
		cache: cache,
	}
}

// Resize changes how many compiled templates the engine keeps, evicting
// the least recently used ones when shrinking. n must be positive.
func (e *Engine) Resize(n int) error {
	if n <= 0 {
		return fmt.Errorf("cache size must be positive, got %d", n)
	}
	e.cache.Resize(n)
	return nil
}

// SetFormatter sets the formatter Render uses when the caller passes nil.
// It must not be called concurrently with Render.
func (e *Engine) SetFormatter(f Formatter) {
	e.formatter = f
}

// Render compiles (or reuses) templateStr and expands it against data.
// A nil formatter falls back to the engine's formatter.
func (e *Engine) Render(templateStr string, data value.Value, f Formatter) (string, error) {
	tmpl, err := e.Compile(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to compile template: %w", err)
	}

	if f == nil {
		f = e.formatter
	}
	result, err := tmpl.Expand(data, f)
	if err != nil {
		return "", fmt.Errorf("template expansion failed: %w", err)
	}

	return result, nil
}

// Compile gets a compiled template from cache or compiles it. Templates are
// cached under the WithName given in opts together with their source.
func (e *Engine) Compile(templateStr string, opts ...Option) (*Template, error) {
	all := append(e.opts[:len(e.opts):len(e.opts)], opts...)
	key := cacheKey{name: newConfig(all).name, src: templateStr}

	if tmpl, ok := e.cache.Get(key); ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Check again in case another goroutine compiled it
	if tmpl, ok := e.cache.Get(key); ok {
		return tmpl, nil
	}

	tmpl, err := Compile(templateStr, all...)
	if err != nil {
		return nil, err
	}

	e.cache.Add(key, tmpl)

	return tmpl, nil
}

// ValidateTemplate compiles a template without caching it
func (e *Engine) ValidateTemplate(templateStr string) error {
	_, err := Compile(templateStr, e.opts...)
	return err
}

// Len returns the number of cached templates.
func (e *Engine) Len() int {
	return e.cache.Len()
}

// ClearCache clears the compiled template cache
func (e *Engine) ClearCache() {
	e.cache.Purge()
}
