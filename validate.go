package botsy

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"
)

// Validate checks value against schema and returns one human-readable message
// per violation, ordered by a depth-first traversal that visits required names
// and then properties in declaration order. An empty result means the value
// satisfies the schema. Validate performs no coercion and never panics on
// caller data; a nil schema accepts everything.
//
// A type mismatch short-circuits the remaining constraint checks for that node
// only; validation of siblings and other branches continues.
func Validate(schema *Schema, value any) []string {
	if schema == nil {
		return nil
	}
	var out []string
	validateNode(schema, value, "", &out)
	return out
}

func validateNode(s *Schema, v any, path string, out *[]string) {
	switch s.Type {
	case TypeObject:
		m, ok := v.(map[string]any)
		if !ok {
			*out = append(*out, violation(path, "should be object"))
			return
		}
		for _, name := range s.Required {
			if _, present := m[name]; !present {
				*out = append(*out, "missing required "+joinPath(path, name))
			}
		}
		if s.Properties == nil {
			return
		}
		// Keys present in m but not declared in the schema are ignored.
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			child, present := m[pair.Key]
			if !present {
				continue
			}
			validateNode(pair.Value, child, joinPath(path, pair.Key), out)
		}
	case TypeString:
		str, ok := v.(string)
		if !ok {
			*out = append(*out, violation(path, "should be string"))
			return
		}
		if s.MinLength != nil && utf8.RuneCountInString(str) < *s.MinLength {
			*out = append(*out, violation(path, fmt.Sprintf("must be at least %d chars", *s.MinLength)))
			return
		}
		if len(s.Enum) > 0 && !slices.Contains(s.Enum, str) {
			*out = append(*out, violation(path, "must be one of {"+strings.Join(s.Enum, ", ")+"}"))
		}
	case TypeInteger:
		n, ok := asInt(v)
		if !ok {
			*out = append(*out, violation(path, "should be integer"))
			return
		}
		if s.Minimum != nil && n < *s.Minimum {
			*out = append(*out, violation(path, fmt.Sprintf("must be >= %d", *s.Minimum)))
		}
		if s.Maximum != nil && n > *s.Maximum {
			*out = append(*out, violation(path, fmt.Sprintf("must be <= %d", *s.Maximum)))
		}
	case TypeArray:
		items, ok := v.([]any)
		if !ok {
			*out = append(*out, violation(path, "should be array"))
			return
		}
		if s.Items == nil {
			return
		}
		for i, item := range items {
			validateNode(s.Items, item, fmt.Sprintf("%s[%d]", path, i), out)
		}
	}
}

// asInt reports whether v is an integer-typed number. JSON decoding produces
// float64 for every number, so integral floats are accepted; fractional floats,
// numeric strings, and bools are not.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if math.Trunc(n) == n && !math.IsInf(n, 0) {
			return int(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
}

func joinPath(parent, field string) string {
	if parent == "" {
		return field
	}
	return parent + "." + field
}

func violation(path, msg string) string {
	if path == "" {
		return msg
	}
	return path + " " + msg
}

// Validatable is implemented by argument structs that need business validation
// beyond the schema. NewTool runs it after decoding, before the handler.
type Validatable interface {
	Validate() error
}
