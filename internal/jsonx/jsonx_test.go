package jsonx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject_FencedAndRaw(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
	}{
		{"raw", `{"title": "RFP", "score": 0.5}`},
		{"json fence", "Here you go:\n```json\n{\"title\": \"RFP\", \"score\": 0.5}\n```"},
		{"bare fence", "```\n{\"title\": \"RFP\", \"score\": 0.5}\n```\nthanks"},
		{"embedded prose", "Sure! The result is {\"title\": \"RFP\", \"score\": 0.5} as requested."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			obj, err := Object(tc.text, "title")
			require.NoError(t, err)
			assert.Equal(t, "RFP", obj["title"])
		})
	}
}

func TestObject_Faults(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		keys []string
	}{
		{"empty", "", nil},
		{"whitespace", "  \n\t ", nil},
		{"no json", "I could not find anything relevant.", nil},
		{"missing key", `{"title": "RFP"}`, []string{"requirements"}},
		{"array not object", `[1, 2, 3]`, []string{"title"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Object(tc.text, tc.keys...)
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestStrings_SkipsNonStrings(t *testing.T) {
	t.Parallel()

	out, err := Strings("```json\n[\"a\", 2, \"b\", null]\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out)
}

func TestStrings_NotAnArray(t *testing.T) {
	t.Parallel()

	_, err := Strings(`{"queries": []}`)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
}

func TestDecode_UsesJSONTags(t *testing.T) {
	t.Parallel()

	type profile struct {
		Name  string   `json:"name"`
		Sites []string `json:"sites"`
	}
	var p profile
	require.NoError(t, Decode(map[string]any{
		"name":    "Acme",
		"sites":   []any{"Berlin", "Oslo"},
		"unknown": 42,
	}, &p))
	assert.Equal(t, "Acme", p.Name)
	assert.Equal(t, []string{"Berlin", "Oslo"}, p.Sites)
}
