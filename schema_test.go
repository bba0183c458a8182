package botsy

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_Constructors(t *testing.T) {
	s := Object(
		Prop("query", String(MinLength(2))),
		Prop("count", Integer(Minimum(1), Maximum(10))),
		Prop("mode", String(Enum("fast", "full"))),
		Prop("flags", Array(String())),
		Required("query", "count"),
	)
	assert.Equal(t, TypeObject, s.Type)
	assert.Equal(t, []string{"query", "count"}, s.Required)

	query, ok := s.Properties.Get("query")
	require.True(t, ok)
	assert.Equal(t, TypeString, query.Type)
	require.NotNil(t, query.MinLength)
	assert.Equal(t, 2, *query.MinLength)

	count, ok := s.Properties.Get("count")
	require.True(t, ok)
	assert.Equal(t, TypeInteger, count.Type)
	require.NotNil(t, count.Minimum)
	assert.Equal(t, 1, *count.Minimum)
	require.NotNil(t, count.Maximum)
	assert.Equal(t, 10, *count.Maximum)

	mode, ok := s.Properties.Get("mode")
	require.True(t, ok)
	assert.Equal(t, []string{"fast", "full"}, mode.Enum)

	flags, ok := s.Properties.Get("flags")
	require.True(t, ok)
	assert.Equal(t, TypeArray, flags.Type)
	require.NotNil(t, flags.Items)
	assert.Equal(t, TypeString, flags.Items.Type)
}

func TestSchema_MarshalDeclarationOrder(t *testing.T) {
	s := Object(
		Prop("zeta", String()),
		Prop("alpha", Integer()),
		Prop("mid", String()),
	)
	data, err := json.Marshal(s)
	require.NoError(t, err)
	doc := string(data)
	// Property order in the wire form follows Prop call order, not key order.
	zeta := strings.Index(doc, `"zeta"`)
	alpha := strings.Index(doc, `"alpha"`)
	mid := strings.Index(doc, `"mid"`)
	require.NotEqual(t, -1, zeta)
	require.NotEqual(t, -1, alpha)
	require.NotEqual(t, -1, mid)
	assert.Less(t, zeta, alpha)
	assert.Less(t, alpha, mid)
}

func TestSchema_MarshalOmitsUnsetConstraints(t *testing.T) {
	data, err := json.Marshal(String())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"string"}`, string(data))

	data, err = json.Marshal(Integer(Minimum(0)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"integer","minimum":0}`, string(data))
}

func TestParseSchema(t *testing.T) {
	doc := `{
		"type": "object",
		"properties": {
			"query": {"type": "string", "minLength": 2},
			"count": {"type": "integer", "minimum": 1, "maximum": 10},
			"mode": {"type": "string", "enum": ["fast", "full"]}
		},
		"required": ["query", "count"]
	}`
	s, err := ParseSchema([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, TypeObject, s.Type)
	assert.Equal(t, []string{"query", "count"}, s.Required)

	var order []string
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		order = append(order, pair.Key)
	}
	assert.Equal(t, []string{"query", "count", "mode"}, order, "document order survives parsing")

	count, ok := s.Properties.Get("count")
	require.True(t, ok)
	require.NotNil(t, count.Minimum)
	assert.Equal(t, 1, *count.Minimum)

	// Parsed and hand-built schemas validate identically.
	assert.Equal(t,
		Validate(sampleSchema(), map[string]any{"query": "h", "count": 0}),
		Validate(s, map[string]any{"query": "h", "count": 0}),
	)
}

func TestParseSchema_Invalid(t *testing.T) {
	_, err := ParseSchema([]byte(`{not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse schema")
}

func TestParseSchema_IgnoresUnknownKeys(t *testing.T) {
	doc := `{
		"type": "object",
		"description": "extra keys outside the subset",
		"additionalProperties": false,
		"properties": {"q": {"type": "string", "format": "uri"}}
	}`
	s, err := ParseSchema([]byte(doc))
	require.NoError(t, err)
	q, ok := s.Properties.Get("q")
	require.True(t, ok)
	assert.Equal(t, TypeString, q.Type)
}
