package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalScalars(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative", -100, "-100"},
		{"float", 1.5, "1.5"},
		{"bool", true, "true"},
		{"null", nil, "null"},
		{"empty array", []int{}, "[]"},
		{"empty object", map[string]int{}, "{}"},
		{"html not escaped", "<a href=\"x\">&</a>", `"<a href=\"x\">&</a>"`},
		{"control chars", "a\nb\t\u0001", `"a\nb\t\u0001"`},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected+"\n", string(got))
		})
	}
}

func TestMarshalSortsAndIndents(t *testing.T) {
	type profile struct {
		Name  string   `json:"name"`
		Tags  []string `json:"tags"`
		Admin bool     `json:"admin"`
	}

	got, err := Marshal(profile{Name: "ada", Tags: []string{"x", "y"}, Admin: true})
	require.NoError(t, err)

	want := `{
  "admin": true,
  "name": "ada",
  "tags": [
    "x",
    "y"
  ]
}
`
	assert.Equal(t, want, string(got))
}

func TestMarshalDeterministicMaps(t *testing.T) {
	m := map[string]any{"z": 1, "a": 2, "m": map[string]any{"k2": 1, "k1": 2}}
	first, err := Marshal(m)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Marshal(m)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestMarshalNFC(t *testing.T) {
	// "é" as e + combining acute vs the precomposed form.
	decomposed, err := Marshal(map[string]string{"cafe\u0301": "cafe\u0301"})
	require.NoError(t, err)
	composed, err := Marshal(map[string]string{"caf\u00e9": "caf\u00e9"})
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestCompareKeysUTF16(t *testing.T) {
	// U+1F600 encodes to surrogates 0xD83D.., which sort before U+FF61 in
	// UTF-16 but after it in UTF-8.
	assert.Equal(t, -1, CompareKeys("\U0001F600", "｡"))
	assert.Equal(t, 1, CompareKeys("b", "a"))
	assert.Equal(t, -1, CompareKeys("a", "ab"))
	assert.Equal(t, 0, CompareKeys("same", "same"))
}

func TestFormatRejectsTrailingData(t *testing.T) {
	_, err := Format([]byte(`{"a":1} {"b":2}`))
	assert.Error(t, err)

	_, err = Format([]byte(`{not json`))
	assert.Error(t, err)
}

func TestMarshalUnsupported(t *testing.T) {
	_, err := Marshal(make(chan int))
	assert.Error(t, err)
}
