package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rinehimer/jxtl/internal/value"
)

// ParseJSON converts a JSON document into a value tree. Object keys keep
// document order, numbers are canonicalised, booleans become "true" or
// "false" and null becomes the empty string.
func ParseJSON(data []byte) (value.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSON(dec, 0)
	if err != nil {
		return nil, jsonError(data, dec, err)
	}

	// Anything but whitespace after the top-level value is malformed.
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return nil, jsonError(data, dec, err)
	}
	return v, nil
}

func decodeJSON(dec *json.Decoder, depth int) (value.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		if depth >= MaxDepth {
			return nil, fmt.Errorf("%w: more than %d levels", ErrTooDeep, MaxDepth)
		}
		switch t {
		case '{':
			m := value.NewMapping()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, not a string", keyTok)
				}
				v, err := decodeJSON(dec, depth+1)
				if err != nil {
					return nil, err
				}
				m.Set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, eofAsUnexpected(err)
			}
			return m, nil
		case '[':
			seq := value.Sequence{}
			for dec.More() {
				v, err := decodeJSON(dec, depth+1)
				if err != nil {
					return nil, err
				}
				seq = append(seq, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, eofAsUnexpected(err)
			}
			return seq, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", rune(t))
		}
	case string:
		return value.Scalar(t), nil
	case json.Number:
		return value.Scalar(CanonicalNumber(t.String())), nil
	case bool:
		return value.Scalar(strconv.FormatBool(t)), nil
	case nil:
		return value.Scalar(""), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func eofAsUnexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func jsonError(data []byte, dec *json.Decoder, err error) error {
	offset := dec.InputOffset()
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		offset = syn.Offset
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		offset = int64(len(data))
	}
	line, col := lineCol(data, offset)
	return &ParseError{Format: JSON, Offset: offset, Line: line, Column: col, Err: err}
}

// CanonicalNumber renders a JSON number literal in canonical form. Integer
// literals are kept as written; anything with a fraction or exponent is
// rendered as the shortest decimal that round-trips, without trailing
// zeros. Exponent notation is only used for very large or very small
// magnitudes.
func CanonicalNumber(lit string) string {
	if !strings.ContainsAny(lit, ".eE") {
		if lit == "-0" {
			return "0"
		}
		return lit
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return lit
	}
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
