// Package template compiles and expands jxtl templates.
//
// A template is plain text with directive markers. It is compiled once and
// then expanded any number of times, concurrently if needed, against value
// trees produced by the document package.
//
// Example usage:
//
//	tmpl, err := template.Compile("{{#each beers}}{{name|upper}} {{/each}}")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := tmpl.Expand(root, template.FormatterFunc(
//	    func(v, name string, _ template.Scope) (string, error) {
//	        if name == "upper" {
//	            return strings.ToUpper(v), nil
//	        }
//	        return v, nil
//	    }))
//	// Output: ALE STOUT
//
// Directives:
//
//	{{path}}                               interpolate a scalar
//	{{path|upper}}                         interpolate through the formatter
//	{{path; format="upper", separator=", "}}
//	{{#each path}}...{{/each}}             loop over a sequence (#section works too)
//	{{#each path; separator=", "}}         text between iterations
//	{{#if path}}...{{#elseif p}}...{{else}}...{{/if}}
//	{{#if !path}}                          negated condition
//	{{! comment }}
//
// Paths are dot separated keys. The first key is searched from the
// innermost loop element outwards to the root; later keys descend through
// mappings, and through sequences element by element, so beers.name is the
// flat list of every beer's name. "*" selects all values of a mapping.
// "this" (or ".") is the current element, "../" starts the search one level
// further out and a leading "/" looks only at the root. A key may carry a
// CEL predicate, for example beer[it.name == "stout"], which keeps the
// matching elements of a sequence.
//
// Expansion never fails on data: a missing path, a mapping or sequence
// where a scalar was expected, or a loop over a non-sequence simply
// produces nothing. Only formatter errors are returned.
package template
