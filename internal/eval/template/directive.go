package template

import (
	"strconv"
	"strings"

	"github.com/rinehimer/jxtl/internal/eval/cel"
)

type directiveKind int

const (
	dirInterpolate directiveKind = iota
	dirComment
	dirOpen
	dirElseIf
	dirElse
	dirClose
)

// directive is one parsed marker body.
type directive struct {
	kind    directiveKind
	keyword string // each, section or if for dirOpen and dirClose
	target  target
	negate  bool
}

// target is a path plus the options a directive may carry.
type target struct {
	path      *Path
	format    string
	separator string
	hasSep    bool
}

func isLoopKeyword(kw string) bool { return kw == "each" || kw == "section" }

func isBlockKeyword(kw string) bool { return isLoopKeyword(kw) || kw == "if" }

func parseDirective(body string, eval *cel.Evaluator) (directive, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return directive{}, malformed("empty directive")
	}

	switch body[0] {
	case '!':
		return directive{kind: dirComment}, nil
	case '#':
		kw, args := splitKeyword(body[1:])
		switch kw {
		case "each", "section":
			t, err := parseTarget(args, eval)
			if err != nil {
				return directive{}, err
			}
			return directive{kind: dirOpen, keyword: kw, target: t}, nil
		case "if", "elseif":
			d, err := parseCondition(args, eval)
			if err != nil {
				return directive{}, err
			}
			d.keyword = kw
			if kw == "if" {
				d.kind = dirOpen
			} else {
				d.kind = dirElseIf
			}
			return d, nil
		case "else":
			if args != "" {
				return directive{}, malformed("else takes no arguments, got %q", args)
			}
			return directive{kind: dirElse}, nil
		case "":
			return directive{}, malformed("missing keyword after #")
		default:
			return directive{}, &directiveError{err: ErrUnknownDirective, msg: "unknown directive #" + kw}
		}
	case '/':
		kw, args := splitKeyword(body[1:])
		if isBlockKeyword(kw) {
			if args != "" {
				return directive{}, malformed("/%s takes no arguments, got %q", kw, args)
			}
			return directive{kind: dirClose, keyword: kw}, nil
		}
	}

	if body == "else" {
		return directive{kind: dirElse}, nil
	}

	t, err := parseTarget(body, eval)
	if err != nil {
		return directive{}, err
	}
	return directive{kind: dirInterpolate, target: t}, nil
}

// splitKeyword splits a leading run of letters from the rest of s.
func splitKeyword(s string) (string, string) {
	i := 0
	for i < len(s) && ('a' <= s[i] && s[i] <= 'z' || 'A' <= s[i] && s[i] <= 'Z') {
		i++
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func parseCondition(args string, eval *cel.Evaluator) (directive, error) {
	var d directive
	if strings.HasPrefix(args, "!") {
		d.negate = true
		args = strings.TrimSpace(args[1:])
	}
	if args == "" {
		return directive{}, malformed("condition needs a path")
	}
	p, rest, err := parsePath(args, eval)
	if err != nil {
		return directive{}, err
	}
	if rest = strings.TrimSpace(rest); rest != "" {
		return directive{}, malformed("unexpected %q after condition path", rest)
	}
	d.target.path = p
	return d, nil
}

// parseTarget parses "path", "path|format" or
// `path; format="name", separator=", "`.
func parseTarget(s string, eval *cel.Evaluator) (target, error) {
	var t target
	if s == "" {
		return t, malformed("missing path")
	}
	p, rest, err := parsePath(s, eval)
	if err != nil {
		return t, err
	}
	t.path = p

	rest = strings.TrimSpace(rest)
	switch {
	case rest == "":
	case rest[0] == '|':
		name := strings.TrimSpace(rest[1:])
		if name == "" || strings.ContainsAny(name, " \t\r\n|;") {
			return t, malformed("bad format name %q", name)
		}
		t.format = name
	case rest[0] == ';':
		if err := parseOptions(rest[1:], &t); err != nil {
			return t, err
		}
	default:
		return t, malformed("unexpected %q after path %s", rest, p)
	}
	return t, nil
}

// parseOptions reads comma separated key="value" pairs.
func parseOptions(s string, t *target) error {
	seen := make(map[string]bool)
	s = strings.TrimSpace(s)
	if s == "" {
		return malformed("missing options after ;")
	}
	for s != "" {
		key, rest := splitKeyword(s)
		if key == "" {
			return malformed("bad option %q", s)
		}
		if !strings.HasPrefix(rest, "=") {
			return malformed("option %s: missing =", key)
		}
		rest = strings.TrimSpace(rest[1:])
		quoted, err := strconv.QuotedPrefix(rest)
		if err != nil || quoted[0] != '"' {
			return malformed("option %s: value must be a double quoted string", key)
		}
		val, err := strconv.Unquote(quoted)
		if err != nil {
			return malformed("option %s: %v", key, err)
		}
		if seen[key] {
			return malformed("option %s given twice", key)
		}
		seen[key] = true

		switch key {
		case "format":
			if val == "" {
				return malformed("option format: empty name")
			}
			t.format = val
		case "separator":
			t.separator, t.hasSep = val, true
		default:
			return malformed("unknown option %s", key)
		}

		s = strings.TrimSpace(rest[len(quoted):])
		if s == "" {
			break
		}
		if s[0] != ',' {
			return malformed("expected , between options, got %q", s)
		}
		s = strings.TrimSpace(s[1:])
		if s == "" {
			return malformed("trailing , in options")
		}
	}
	return nil
}
