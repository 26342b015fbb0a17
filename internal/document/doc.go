// Package document converts XML, JSON and YAML documents into value trees.
//
// The adapters are pure functions: identical input bytes always give an
// identical tree, and a malformed document returns a *ParseError carrying
// the byte offset (and line/column where known) without any partial tree.
//
// Example usage:
//
//	beers, err := document.ParseXML(xmlBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	same, err := document.ParseJSON(jsonBytes)
//
// XML conversion rules:
//   - the root element is returned under its tag (SkipRoot returns it bare)
//   - a text-only element becomes a Scalar
//   - attributes become "@name" entries
//   - mixed character data becomes a "#text" entry
//   - repeated siblings become a Sequence of mappings in document order
//
// JSON scalars become canonical strings:
//
//	1.50  -> "1.5"
//	true  -> "true"
//	null  -> ""
package document
