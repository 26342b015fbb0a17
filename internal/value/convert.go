package value

import (
	"bytes"
	"encoding/json"
)

// Equal reports whether a and b are structurally equal. Mapping order is
// significant.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Scalar:
		return av == b.(Scalar)
	case Sequence:
		bv := b.(Sequence)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Mapping:
		bv := b.(*Mapping)
		if av.Len() != bv.Len() {
			return false
		}
		if av.Len() == 0 {
			return true
		}
		for i, k := range av.keys {
			if bv.keys[i] != k || !Equal(av.values[i], bv.values[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Native converts v into plain Go values: string, []any and
// map[string]any. Key order is lost.
func Native(v Value) any {
	switch t := v.(type) {
	case Scalar:
		return string(t)
	case Sequence:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Native(e)
		}
		return out
	case *Mapping:
		out := make(map[string]any, t.Len())
		for k, e := range t.All() {
			out[k] = Native(e)
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON writes the canonical JSON form: objects keep insertion order
// and every scalar is a JSON string.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON writes the canonical JSON form of the sequence.
func (s Sequence) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch t := v.(type) {
	case Scalar:
		b, err := json.Marshal(string(t))
		if err != nil {
			return err
		}
		buf.Write(b)
	case Sequence:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *Mapping:
		buf.WriteByte('{')
		for i, k := range t.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(b)
			buf.WriteByte(':')
			if err := writeJSON(buf, t.values[i]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		buf.WriteString("null")
	}
	return nil
}
