package common

import (
	"fmt"
	"strings"
)

// Card is a single keyword to be written, in order, to an output header.
type Card struct {
	Name    string
	Value   interface{}
	Comment string
}

// Header holds FITS keywords and their decoded values. Values are int, int64,
// float64, string or bool depending on the source card.
type Header map[string]interface{}

func (h Header) Has(key string) bool {
	v, ok := h[key]
	return ok && v != nil
}

// Float returns the numeric value of key. Integer cards are widened.
func (h Header) Float(key string) (float64, error) {
	v, ok := h[key]
	if !ok || v == nil {
		return 0, MissingKeyword(key)
	}

	f, ok := toFloat(v)
	if !ok {
		return 0, InvalidKeyword(key, fmt.Sprintf("%T is not numeric", v))
	}

	return f, nil
}

// FloatOr returns the numeric value of key, or def when the keyword is absent.
func (h Header) FloatOr(key string, def float64) (float64, error) {
	if !h.Has(key) {
		return def, nil
	}
	return h.Float(key)
}

func (h Header) Int(key string) (int, error) {
	v, ok := h[key]
	if !ok || v == nil {
		return 0, MissingKeyword(key)
	}

	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}

	return 0, InvalidKeyword(key, fmt.Sprintf("%T is not an integer", v))
}

// String returns the trimmed string value of key.
func (h Header) String(key string) (string, error) {
	v, ok := h[key]
	if !ok || v == nil {
		return "", MissingKeyword(key)
	}

	s, ok := v.(string)
	if !ok {
		return "", InvalidKeyword(key, fmt.Sprintf("%T is not a string", v))
	}

	return strings.TrimSpace(s), nil
}

func (h Header) StringOr(key, def string) string {
	s, err := h.String(key)
	if err != nil || s == "" {
		return def
	}
	return s
}

// Clone returns a shallow copy of h.
func (h Header) Clone() Header {
	out := make(Header, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
