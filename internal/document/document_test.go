package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rinehimer/jxtl/internal/value"
)

// tree renders a value as plain Go data for readable diffs.
func tree(v value.Value) any {
	switch t := v.(type) {
	case value.Scalar:
		return string(t)
	case value.Sequence:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = tree(e)
		}
		return out
	case *value.Mapping:
		out := make([][2]any, 0, t.Len())
		for k, e := range t.All() {
			out = append(out, [2]any{k, tree(e)})
		}
		return out
	}
	return nil
}

func TestParseJSONKeepsOrderAndCanonicalises(t *testing.T) {
	v, err := ParseJSON([]byte(`{"z": 1.50, "a": [true, null, 3], "m": {"k": "v", "e": 1e3}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := [][2]any{
		{"z", "1.5"},
		{"a", []any{"true", "", "3"}},
		{"m", [][2]any{{"k", "v"}, {"e", "1000"}}},
	}
	if diff := cmp.Diff(want, tree(v)); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJSONDuplicateKeyKeepsFirstPosition(t *testing.T) {
	v, err := ParseJSON([]byte(`{"a": "1", "b": "2", "a": "3"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := [][2]any{{"a", "3"}, {"b", "2"}}
	if diff := cmp.Diff(want, tree(v)); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJSONErrors(t *testing.T) {
	for _, src := range []string{
		``,
		`{"a": `,
		`{"a" 1}`,
		`[1, 2`,
		`{} trailing`,
		`{} {}`,
	} {
		v, err := ParseJSON([]byte(src))
		if err == nil {
			t.Fatalf("%q: expected error, got %v", src, v)
		}
		if v != nil {
			t.Fatalf("%q: partial tree returned", src)
		}
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("%q: error %T is not a ParseError", src, err)
		}
		if !errors.Is(err, ErrParse) {
			t.Fatalf("%q: error does not wrap ErrParse", src)
		}
		if perr.Line < 1 {
			t.Fatalf("%q: missing line in %v", src, perr)
		}
	}
}

func TestParseJSONSyntaxErrorOffset(t *testing.T) {
	_, err := ParseJSON([]byte("{\n  \"a\": x\n}"))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("want ParseError, got %v", err)
	}
	if perr.Line != 2 {
		t.Fatalf("want line 2, got %d (%v)", perr.Line, perr)
	}
}

func TestParseJSONCanonicalIdempotent(t *testing.T) {
	docs := []string{
		`{"beers": [{"name": "ale", "abv": 4.50}, {"name": "stout", "abv": 6}]}`,
		`[1, 2.0, -0, 1e-7, 12345678901234567890, "xé"]`,
		`{"nested": {"deep": {"list": [[], {}, null, false]}}}`,
		`"just a string"`,
	}
	for _, doc := range docs {
		first, err := ParseJSON([]byte(doc))
		if err != nil {
			t.Fatalf("%s: %v", doc, err)
		}
		canonical, err := json.Marshal(first)
		if err != nil {
			t.Fatalf("%s: marshal: %v", doc, err)
		}
		second, err := ParseJSON(canonical)
		if err != nil {
			t.Fatalf("%s: reparse %s: %v", doc, canonical, err)
		}
		if !value.Equal(first, second) {
			t.Fatalf("%s: canonical form %s is not a fixed point", doc, canonical)
		}
	}
}

func TestCanonicalNumber(t *testing.T) {
	cases := map[string]string{
		"10":     "10",
		"-0":     "0",
		"1.500":  "1.5",
		"2.0":    "2",
		"1e3":    "1000",
		"0.0":    "0",
		"1.5e-7": "1.5e-07",
		"1e21":   "1e+21",
	}
	for in, want := range cases {
		if got := CanonicalNumber(in); got != want {
			t.Errorf("CanonicalNumber(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseXMLRepeatedSiblings(t *testing.T) {
	v, err := ParseXML([]byte(`<list><item>a</item><item>b</item></list>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root := v.(*value.Mapping)
	list, _ := root.Get("list")
	items, ok := list.(*value.Mapping).Get("item")
	if !ok {
		t.Fatal("item key missing")
	}
	seq, ok := items.(value.Sequence)
	if !ok || len(seq) != 2 {
		t.Fatalf("want a sequence of two, got %#v", items)
	}
	for i, want := range []string{"a", "b"} {
		m, ok := seq[i].(*value.Mapping)
		if !ok {
			t.Fatalf("element %d is %T, not a mapping", i, seq[i])
		}
		text, _ := m.Get(TextKey)
		if text != value.Scalar(want) {
			t.Fatalf("element %d text = %v, want %q", i, text, want)
		}
	}
}

func TestParseXMLShapes(t *testing.T) {
	src := `<?xml version="1.0"?>
<beers xmlns:x="urn:x">
  <beer id="1" x:kind="ale">
    <name>Pale</name>
    <empty/>
  </beer>
  <note lang="en">cheers</note>
  <beer id="2"><name>Stout</name></beer>
</beers>`
	v, err := ParseXML([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := [][2]any{
		{"beers", [][2]any{
			{"beer", []any{
				[][2]any{{"@id", "1"}, {"@kind", "ale"}, {"name", "Pale"}, {"empty", ""}},
				[][2]any{{"@id", "2"}, {"name", "Stout"}},
			}},
			{"note", [][2]any{{"@lang", "en"}, {"#text", "cheers"}}},
		}},
	}
	if diff := cmp.Diff(want, tree(v)); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParseXMLAttributeLocalNameClash(t *testing.T) {
	v, err := ParseXML([]byte(`<beer xmlns:a="urn:a" xmlns:b="urn:b" a:id="first" b:id="second" name="ale"/>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := [][2]any{{"beer", [][2]any{{"@id", "first"}, {"@name", "ale"}}}}
	if diff := cmp.Diff(want, tree(v)); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParseXMLSkipRoot(t *testing.T) {
	v, err := ParseXML([]byte(`<root><a>1</a></root>`), SkipRoot())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := [][2]any{{"a", "1"}}
	if diff := cmp.Diff(want, tree(v)); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParseXMLErrors(t *testing.T) {
	for _, src := range []string{
		`<a><b></a>`,
		`<a><b>`,
		``,
		`<a/><b/>`,
		`<a/>junk`,
	} {
		v, err := ParseXML([]byte(src))
		if err == nil {
			t.Fatalf("%q: expected error, got %v", src, v)
		}
		if v != nil {
			t.Fatalf("%q: partial tree returned", src)
		}
		var perr *ParseError
		if !errors.As(err, &perr) || perr.Format != XML {
			t.Fatalf("%q: want XML ParseError, got %v", src, err)
		}
	}
}

func TestParseYAML(t *testing.T) {
	src := `
base: &base
  brewery: acme
beers:
  - name: ale
    abv: 4.50
    hoppy: true
    <<: *base
  - name: stout
    abv: ~
`
	v, err := ParseYAML([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := [][2]any{
		{"base", [][2]any{{"brewery", "acme"}}},
		{"beers", []any{
			[][2]any{{"name", "ale"}, {"abv", "4.5"}, {"hoppy", "true"}, {"brewery", "acme"}},
			[][2]any{{"name", "stout"}, {"abv", ""}},
		}},
	}
	if diff := cmp.Diff(want, tree(v)); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParseYAMLErrors(t *testing.T) {
	for _, src := range []string{
		"a: [1, 2",
		"a: 1\n---\nb: 2\n",
	} {
		if _, err := ParseYAML([]byte(src)); !errors.Is(err, ErrParse) {
			t.Fatalf("%q: want ErrParse, got %v", src, err)
		}
	}
}

func TestParseJSONNestingLimit(t *testing.T) {
	nested := func(n int) []byte {
		return []byte(strings.Repeat("[", n) + strings.Repeat("]", n))
	}

	if _, err := ParseJSON(nested(MaxDepth)); err != nil {
		t.Fatalf("%d levels rejected: %v", MaxDepth, err)
	}

	for _, n := range []int{MaxDepth + 1, 1000000} {
		v, err := ParseJSON(nested(n))
		if v != nil {
			t.Fatalf("%d levels: partial tree returned", n)
		}
		var perr *ParseError
		if !errors.As(err, &perr) || !errors.Is(err, ErrParse) || !errors.Is(err, ErrTooDeep) {
			t.Fatalf("%d levels: want a ParseError wrapping ErrTooDeep, got %v", n, err)
		}
	}

	deepObject := []byte(strings.Repeat(`{"a":`, MaxDepth+1) + "1" + strings.Repeat("}", MaxDepth+1))
	if _, err := ParseJSON(deepObject); !errors.Is(err, ErrTooDeep) {
		t.Fatalf("deep object: want ErrTooDeep, got %v", err)
	}
}

func TestParseXMLNestingLimit(t *testing.T) {
	nested := func(n int) []byte {
		return []byte(strings.Repeat("<a>", n) + strings.Repeat("</a>", n))
	}
	if _, err := ParseXML(nested(MaxDepth)); err != nil {
		t.Fatalf("%d levels rejected: %v", MaxDepth, err)
	}
	v, err := ParseXML(nested(MaxDepth + 1))
	if v != nil || !errors.Is(err, ErrParse) || !errors.Is(err, ErrTooDeep) {
		t.Fatalf("want ErrTooDeep and no tree, got %v, %v", v, err)
	}
}

func TestParseYAMLRecursiveAlias(t *testing.T) {
	for _, src := range []string{
		"a: &x\n  b: *x\n",
		"a: &x [1, *x]\n",
		"a: &x\n  b:\n    c: [1, *x]\n",
	} {
		v, err := ParseYAML([]byte(src))
		if v != nil {
			t.Fatalf("%q: partial tree returned", src)
		}
		var perr *ParseError
		if !errors.As(err, &perr) || !errors.Is(err, ErrParse) || !errors.Is(err, ErrRecursiveAlias) {
			t.Fatalf("%q: want a ParseError wrapping ErrRecursiveAlias, got %v", src, err)
		}
		if perr.Line == 0 {
			t.Fatalf("%q: alias position missing: %v", src, perr)
		}
	}
}

func TestParseYAMLAliasBomb(t *testing.T) {
	var b strings.Builder
	b.WriteString("l0: &l0 [lol, lol, lol, lol, lol, lol, lol, lol, lol]\n")
	for i := 1; i <= 9; i++ {
		refs := strings.TrimSuffix(strings.Repeat(fmt.Sprintf("*l%d, ", i-1), 9), ", ")
		fmt.Fprintf(&b, "l%d: &l%d [%s]\n", i, i, refs)
	}

	v, err := ParseYAML([]byte(b.String()))
	if v != nil {
		t.Fatal("partial tree returned")
	}
	if !errors.Is(err, ErrParse) || !errors.Is(err, ErrAliasExpansion) {
		t.Fatalf("want ErrAliasExpansion, got %v", err)
	}
}

func TestParseYAMLSharedAnchors(t *testing.T) {
	var b strings.Builder
	b.WriteString("base: &base {brewery: acme, city: ghent}\nbeers:\n")
	for i := 0; i < 200; i++ {
		b.WriteString("  - *base\n")
	}

	v, err := ParseYAML([]byte(b.String()))
	if err != nil {
		t.Fatal(err)
	}
	beers, _ := v.(*value.Mapping).Get("beers")
	seq := beers.(value.Sequence)
	if len(seq) != 200 {
		t.Fatalf("got %d beers", len(seq))
	}
	want := [][2]any{{"brewery", "acme"}, {"city", "ghent"}}
	if diff := cmp.Diff(want, tree(seq[199])); diff != "" {
		t.Fatalf("alias mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectAndParse(t *testing.T) {
	cases := []struct {
		src  string
		kind Kind
	}{
		{`  <a>1</a>`, XML},
		{`{"a": "1"}`, JSON},
		{`[1]`, JSON},
		{`a: 1`, YAML},
	}
	for _, c := range cases {
		if got := Detect([]byte(c.src)); got != c.kind {
			t.Errorf("Detect(%q) = %s, want %s", c.src, got, c.kind)
		}
		if _, err := Parse([]byte(c.src), ""); err != nil {
			t.Errorf("Parse(%q): %v", c.src, err)
		}
	}

	if k, ok := KindFromPath("data/t.yml"); !ok || k != YAML {
		t.Errorf("KindFromPath: got %s, %v", k, ok)
	}
	if _, err := ParseKind("csv"); err == nil {
		t.Error("ParseKind accepted csv")
	}
}
