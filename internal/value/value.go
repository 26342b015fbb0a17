package value

import (
	"iter"
	"slices"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	// ScalarKind is a leaf text value
	ScalarKind Kind = iota + 1

	// MappingKind is an ordered set of key/value pairs
	MappingKind

	// SequenceKind is an ordered list of values
	SequenceKind
)

func (k Kind) String() string {
	switch k {
	case ScalarKind:
		return "scalar"
	case MappingKind:
		return "mapping"
	case SequenceKind:
		return "sequence"
	default:
		return "invalid"
	}
}

// Value is a node of the data tree. It is implemented only by Scalar,
// *Mapping and Sequence.
type Value interface {
	Kind() Kind
	value()
}

// Scalar is leaf text.
type Scalar string

func (Scalar) Kind() Kind { return ScalarKind }
func (Scalar) value()     {}

// Sequence is an ordered list of values.
type Sequence []Value

func (Sequence) Kind() Kind { return SequenceKind }
func (Sequence) value()     {}

// Mapping is an ordered set of key/value pairs. Keys and values live in
// parallel slices; index maps a key to its position.
type Mapping struct {
	keys   []string
	values []Value
	index  map[string]int
}

func (*Mapping) Kind() Kind { return MappingKind }
func (*Mapping) value()     {}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{index: make(map[string]int)}
}

// Set stores v under key. A new key is appended; an existing key keeps its
// position and has its value replaced. Set is meant for builders only: once
// a tree is handed to a template it must not change.
func (m *Mapping) Set(key string, v Value) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.values[i] = v
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.values = append(m.values, v)
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.values[i], true
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// All iterates over the entries in insertion order.
func (m *Mapping) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if m == nil {
			return
		}
		for i, k := range m.keys {
			if !yield(k, m.values[i]) {
				return
			}
		}
	}
}

// Pair is a key/value entry used by MappingOf.
type Pair struct {
	Key   string
	Value Value
}

// MappingOf builds a mapping from pairs, in order.
func MappingOf(pairs ...Pair) *Mapping {
	m := NewMapping()
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return m
}

// P is shorthand for a Pair.
func P(key string, v Value) Pair {
	return Pair{Key: key, Value: v}
}
