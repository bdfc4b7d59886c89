package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Extraction error kinds. Stage code matches on these with errors.Is.
var (
	ErrEmptyResponse = errors.New("generation service returned an empty response")
	ErrNoJSONFound   = errors.New("no JSON object found in response")
	ErrMalformedJSON = errors.New("malformed JSON in response")
	ErrShapeMismatch = errors.New("response JSON does not match the expected shape")
)

// JSONSpan returns the first balanced {...} span in raw. The scanner tracks
// brace depth and string-literal escaping, so prose before or after the
// object is ignored and stray braces in trailing text do not extend the
// span. Returns ErrNoJSONFound when raw contains no opening brace and
// ErrMalformedJSON when the first object never closes.
func JSONSpan(raw string) (string, error) {
	start := -1
	for i := 0; i < len(raw); i++ {
		if raw[i] == '{' {
			start = i
			break
		}
	}
	if start < 0 {
		return "", ErrNoJSONFound
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unterminated object", ErrMalformedJSON)
}

// ExtractInto locates the embedded JSON object in raw and decodes it into v.
// Decode failures on a well-spanned object are shape mismatches, not
// malformed JSON: the service produced an object, just not the one asked for.
func ExtractInto(raw string, v any) error {
	span, err := JSONSpan(raw)
	if err != nil {
		return err
	}
	if !json.Valid([]byte(span)) {
		return ErrMalformedJSON
	}
	if err := json.Unmarshal([]byte(span), v); err != nil {
		return fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}
	return nil
}

// Object is a decoded JSON object that remembers document key order. The
// habit normalizer depends on encounter order, which map[string]any loses.
type Object struct {
	keys   []string
	values map[string]any
}

// Keys returns the object's keys in document order.
func (o *Object) Keys() []string { return o.keys }

// Get returns the value for key, with presence.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// ExtractObject locates the embedded JSON object in raw and parses it into
// an order-preserving Object. Nested objects are parsed as *Object, arrays
// as []any.
func ExtractObject(raw string) (*Object, error) {
	span, err := JSONSpan(raw)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(span)))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrMalformedJSON)
	}
	obj, err := parseObject(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return obj, nil
}

func parseObject(dec *json.Decoder) (*Object, error) {
	obj := &Object{values: make(map[string]any)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key token %v", keyTok)
		}
		val, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		obj.keys = append(obj.keys, key)
		obj.values[key] = val
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return nil, err
	}
	return obj, nil
}

func parseValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return parseObject(dec)
		case '[':
			arr := []any{}
			for dec.More() {
				v, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil { // closing bracket
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	default:
		return tok, nil
	}
}

// Plain converts a parsed value back to plain map/slice form for storage.
func Plain(v any) any {
	switch t := v.(type) {
	case *Object:
		m := make(map[string]any, len(t.keys))
		for _, k := range t.keys {
			m[k] = Plain(t.values[k])
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Plain(e)
		}
		return out
	default:
		return v
	}
}
