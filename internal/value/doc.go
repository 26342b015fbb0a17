// Package value defines the data tree that templates are expanded against.
//
// Every input document (XML, JSON or YAML) is converted into the same three
// shapes:
//
//   - Scalar: leaf text
//   - *Mapping: ordered key/value pairs with unique keys
//   - Sequence: ordered list of values, usually mappings
//
// Mapping keeps its keys in insertion order because templates may rely on
// first-seen ordering. Values are built once by a document adapter and are
// read-only afterwards, so a tree can be shared between any number of
// concurrent expansions.
//
// Example usage:
//
//	beers := value.NewMapping()
//	beers.Set("name", value.Scalar("stout"))
//	root := value.NewMapping()
//	root.Set("beers", value.Sequence{beers})
//
//	data, _ := json.Marshal(root) // {"beers":[{"name":"stout"}]}
package value
