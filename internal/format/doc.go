// Package format provides the stock formatter for template expansion.
//
// Built-in formats:
//   - upper, lower - change case
//   - title - capitalise each word
//   - trim - strip surrounding whitespace
//   - sanitize - remove all HTML markup
//   - xml - escape for XML character data
//   - json - escape for the inside of a JSON string
//
// Example:
//
//	reg := format.New()
//	reg.Register("default", func(v string, s template.Scope) (string, error) {
//	    if v == "" {
//	        return "n/a", nil
//	    }
//	    return v, nil
//	})
//	out, err := tmpl.Expand(root, reg)
package format
