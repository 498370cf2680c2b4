package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"int64", int64(-100), "-100"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"array", []any{1, "a", false}, `[1,"a",false]`},
		{"string slice", []string{"x", "y"}, `["x","y"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalSortsNestedKeys(t *testing.T) {
	record := map[string]any{
		"uuid":     "0190f3a2-0000-7000-8000-000000000001",
		"name":     "Root",
		"isFolder": true,
		"children": []map[string]any{
			{"name": "b", "isFolder": false, "uuid": "u2"},
		},
	}

	result, err := Marshal(record)
	require.NoError(t, err)
	assert.Equal(t,
		`{"children":[{"isFolder":false,"name":"b","uuid":"u2"}],"isFolder":true,"name":"Root","uuid":"0190f3a2-0000-7000-8000-000000000001"}`,
		string(result))
}

func TestMarshalUTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D 0xDE00, which sort before U+FF61
	// in UTF-16 but after it in UTF-8.
	obj := map[string]any{"\uFF61": 1, "\U0001F600": 2}

	result, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uFF61\":1}", string(result))
}

func TestMarshalNoHTMLEscape(t *testing.T) {
	result, err := Marshal("<Take 1 & 2>")
	require.NoError(t, err)
	assert.Equal(t, `"<Take 1 & 2>"`, string(result))
}

func TestMarshalEscapes(t *testing.T) {
	result, err := Marshal("a\"b\\c\nd\x01")
	require.NoError(t, err)
	assert.Equal(t, `"a\"b\\c\nd\u0001"`, string(result))
}

func TestMarshalNFC(t *testing.T) {
	decomposed := "Cafe\u0301"
	composed := "Caf\u00e9"

	a, err := Marshal(map[string]any{"name": decomposed})
	require.NoError(t, err)
	b, err := Marshal(map[string]any{"name": composed})
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshalRejects(t *testing.T) {
	_, err := Marshal(nil)
	assert.Error(t, err)

	_, err = Marshal(map[string]any{"size": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `object["size"]`)

	_, err = Marshal(struct{}{})
	assert.Error(t, err)
}

func TestDigestDomainSeparation(t *testing.T) {
	record := map[string]any{"name": "x"}

	doc, err := Digest(DomainDocument, record)
	require.NoError(t, err)
	change, err := Digest(DomainChange, record)
	require.NoError(t, err)

	assert.Len(t, doc, 64)
	assert.NotEqual(t, doc, change)

	again, err := Digest(DomainDocument, map[string]any{"name": "x"})
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}
