package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/rinehimer/jxtl/internal/value"
	"gopkg.in/yaml.v3"
)

// ParseYAML converts a single YAML document into a value tree. Scalars use
// the same canonical text as ParseJSON: null becomes "", booleans "true" or
// "false" and numbers their canonical decimal form.
func ParseYAML(data []byte) (value.Value, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, &ParseError{Format: YAML, Err: io.ErrUnexpectedEOF}
		}
		return nil, &ParseError{Format: YAML, Line: yamlErrorLine(err), Err: err}
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); err != io.EOF {
		if err == nil {
			err = errors.New("multiple documents in stream")
		}
		return nil, &ParseError{Format: YAML, Line: extra.Line, Column: extra.Column, Err: err}
	}

	c := &yamlConverter{open: make(map[*yaml.Node]bool)}
	v, err := c.convert(&doc, 0)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Alias expansion may add this many nodes before the ratio check applies.
const minAliasBudget = 100000

// yamlConverter walks a node tree, resolving aliases. Anchored nodes on the
// current path are kept in open so an alias back to one of them is reported
// instead of followed. Nodes produced under an alias count as expanded; a
// document may expand to at most ten times its own size, or minAliasBudget,
// whichever is larger.
type yamlConverter struct {
	open     map[*yaml.Node]bool
	aliased  int
	nodes    int
	expanded int
}

func (c *yamlConverter) fail(n *yaml.Node, err error) error {
	return &ParseError{Format: YAML, Line: n.Line, Column: n.Column, Err: err}
}

func (c *yamlConverter) convert(n *yaml.Node, depth int) (value.Value, error) {
	if depth > MaxDepth {
		return nil, c.fail(n, fmt.Errorf("%w: more than %d levels", ErrTooDeep, MaxDepth))
	}

	if c.aliased > 0 {
		c.expanded++
		if c.expanded > minAliasBudget && c.expanded > 10*c.nodes {
			return nil, c.fail(n, fmt.Errorf("%w: %d nodes from a %d node document", ErrAliasExpansion, c.expanded, c.nodes))
		}
	} else {
		c.nodes++
	}

	if n.Anchor != "" {
		c.open[n] = true
		defer delete(c.open, n)
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return value.Scalar(""), nil
		}
		return c.convert(n.Content[0], depth+1)
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, c.fail(n, fmt.Errorf("unknown anchor %q", n.Value))
		}
		if c.open[n.Alias] {
			return nil, c.fail(n, fmt.Errorf("%w: *%s refers to an enclosing anchor", ErrRecursiveAlias, n.Value))
		}
		c.aliased++
		defer func() { c.aliased-- }()
		return c.convert(n.Alias, depth+1)
	case yaml.SequenceNode:
		seq := make(value.Sequence, 0, len(n.Content))
		for _, e := range n.Content {
			v, err := c.convert(e, depth+1)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return seq, nil
	case yaml.MappingNode:
		m := value.NewMapping()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			// Merge keys (<<) are flattened into the enclosing mapping.
			if k.Tag == "!!merge" {
				merged, err := c.convert(v, depth+1)
				if err != nil {
					return nil, err
				}
				if mm, ok := merged.(*value.Mapping); ok {
					for mk, mv := range mm.All() {
						if _, exists := m.Get(mk); !exists {
							m.Set(mk, mv)
						}
					}
				}
				continue
			}
			if k.Kind != yaml.ScalarNode {
				return nil, c.fail(k, fmt.Errorf("mapping key must be a scalar, got %s", kindName(k.Kind)))
			}
			cv, err := c.convert(v, depth+1)
			if err != nil {
				return nil, err
			}
			m.Set(yamlScalar(k), cv)
		}
		return m, nil
	case yaml.ScalarNode:
		return value.Scalar(yamlScalar(n)), nil
	default:
		return nil, c.fail(n, fmt.Errorf("unsupported node kind %d", n.Kind))
	}
}

func yamlScalar(n *yaml.Node) string {
	switch n.ShortTag() {
	case "!!null":
		return ""
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return strconv.FormatBool(b)
		}
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return strconv.FormatInt(i, 10)
		}
	case "!!float":
		var f float64
		if err := n.Decode(&f); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return CanonicalNumber(strconv.FormatFloat(f, 'g', -1, 64))
		}
	}
	return n.Value
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	default:
		return "node"
	}
}

// yamlErrorLine extracts the line number from "yaml: line N: ..." messages.
func yamlErrorLine(err error) int {
	var line int
	if _, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line); scanErr != nil {
		return 0
	}
	return line
}
