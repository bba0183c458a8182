package botsy

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Node types understood by the schema subset.
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeInteger = "integer"
)

// Schema declares the shape an argument mapping must satisfy. It is the subset
// of JSON Schema this runtime actually consumes: object/array/string/integer
// nodes with required, enum, minimum/maximum, minLength, and items. Constraint
// fields that do not apply to a node's Type are ignored by Validate, and so are
// unknown keys when parsing (forward compatibility).
//
// Properties is an ordered map so that violations are reported in declaration
// order and the schema marshals the way it was written.
type Schema struct {
	Type       string                                  `json:"type,omitempty"`
	Properties *orderedmap.OrderedMap[string, *Schema] `json:"properties,omitempty"`
	Required   []string                                `json:"required,omitempty"`
	Enum       []string                                `json:"enum,omitempty"`
	Minimum    *int                                    `json:"minimum,omitempty"`
	Maximum    *int                                    `json:"maximum,omitempty"`
	MinLength  *int                                    `json:"minLength,omitempty"`
	Items      *Schema                                 `json:"items,omitempty"`
}

// SchemaOption configures a schema node (e.g. MinLength, Enum, Prop).
type SchemaOption func(*Schema)

// Object returns an object node. Declare fields with Prop (order is preserved)
// and mandatory ones with Required.
func Object(opts ...SchemaOption) *Schema {
	s := &Schema{Type: TypeObject}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// String returns a string node.
func String(opts ...SchemaOption) *Schema {
	s := &Schema{Type: TypeString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Integer returns an integer node.
func Integer(opts ...SchemaOption) *Schema {
	s := &Schema{Type: TypeInteger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Array returns an array node whose elements are validated against items.
// A nil items leaves elements unchecked.
func Array(items *Schema, opts ...SchemaOption) *Schema {
	s := &Schema{Type: TypeArray, Items: items}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prop declares a named property on an object node. Declaration order is the
// order Prop options are passed.
func Prop(name string, child *Schema) SchemaOption {
	return func(s *Schema) {
		if s.Properties == nil {
			s.Properties = orderedmap.New[string, *Schema]()
		}
		s.Properties.Set(name, child)
	}
}

// Required marks object fields as mandatory, in the given order.
func Required(names ...string) SchemaOption {
	return func(s *Schema) {
		s.Required = append(s.Required, names...)
	}
}

// Enum restricts a string node to the given members.
func Enum(values ...string) SchemaOption {
	return func(s *Schema) {
		s.Enum = append(s.Enum, values...)
	}
}

// Minimum sets the lower bound of an integer node (inclusive).
func Minimum(n int) SchemaOption {
	return func(s *Schema) {
		s.Minimum = &n
	}
}

// Maximum sets the upper bound of an integer node (inclusive).
func Maximum(n int) SchemaOption {
	return func(s *Schema) {
		s.Maximum = &n
	}
}

// MinLength sets the minimum length of a string node, counted in runes.
func MinLength(n int) SchemaOption {
	return func(s *Schema) {
		s.MinLength = &n
	}
}

// ParseSchema parses a JSON Schema fragment limited to the supported subset.
// Property order in the source document is preserved; keys outside the subset
// are ignored.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return &s, nil
}
