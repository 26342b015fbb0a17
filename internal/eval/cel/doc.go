// Package cel compiles the predicates that filter path segments in
// templates.
//
// A predicate is a CEL (Common Expression Language) expression evaluated
// once per candidate element, with the element bound to "it". Scalars are
// strings, mappings are string-keyed maps and sequences are lists, so a
// numeric comparison needs an explicit conversion.
//
// Example usage:
//
//	evaluator := cel.NewEvaluator()
//
//	pred, err := evaluator.Compile(`it.name.startsWith("s")`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	pred.Match(beer) // true for {name: "stout"}
//
// In a template:
//
//	{{#each beers.beer[double(it.abv) > 5.0]}}{{name}} {{/each}}
//
// Evaluation errors are not fatal: an element whose predicate fails to
// evaluate simply does not match.
package cel
