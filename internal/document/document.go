package document

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rinehimer/jxtl/internal/value"
)

// Kind is an input document syntax.
type Kind string

const (
	// JSON documents are parsed by ParseJSON
	JSON Kind = "json"

	// XML documents are parsed by ParseXML
	XML Kind = "xml"

	// YAML documents are parsed by ParseYAML
	YAML Kind = "yaml"
)

func (k Kind) String() string { return string(k) }

// ParseKind maps a user supplied name ("json", "xml", "yaml", "yml") to a
// Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return JSON, nil
	case "xml":
		return XML, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unknown document type %q", name)
	}
}

// KindFromPath guesses the document kind from a file extension.
func KindFromPath(path string) (Kind, bool) {
	k, err := ParseKind(strings.TrimPrefix(filepath.Ext(path), "."))
	return k, err == nil
}

// Detect sniffs the document kind from its first non-space byte: '<' is
// XML, '{' or '[' is JSON and anything else is treated as YAML.
func Detect(data []byte) Kind {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) == 0 {
		return YAML
	}
	switch trimmed[0] {
	case '<':
		return XML
	case '{', '[':
		return JSON
	default:
		return YAML
	}
}

type options struct {
	xml []XMLOption
}

// Option configures Parse.
type Option func(*options)

// WithXMLOptions forwards options to ParseXML.
func WithXMLOptions(opts ...XMLOption) Option {
	return func(o *options) { o.xml = append(o.xml, opts...) }
}

// Parse converts data of the given kind into a value tree. An empty kind is
// resolved with Detect.
func Parse(data []byte, kind Kind, opts ...Option) (value.Value, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if kind == "" {
		kind = Detect(data)
	}

	switch kind {
	case JSON:
		return ParseJSON(data)
	case XML:
		return ParseXML(data, o.xml...)
	case YAML:
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("unknown document type %q", kind)
	}
}
