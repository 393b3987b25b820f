package reply

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type labelReply struct {
	Classification string `json:"classification"`
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"```json {\"a\":1}```":    `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
		"```{\"a\":1}```":         `{"a":1}`,
	}
	for in, want := range cases {
		require.Equal(t, want, StripFences(in), "input %q", in)
	}
}

func TestParse_PlainAndFenced(t *testing.T) {
	res := Parse(`{"classification": "Medical"}`, labelReply{Classification: "general"})
	require.True(t, res.Parsed)
	require.NoError(t, res.Err)
	require.Equal(t, "Medical", res.Value.Classification)

	res = Parse("```json\n{\"classification\": \"greeting\"}\n```", labelReply{Classification: "general"})
	require.True(t, res.Parsed)
	require.Equal(t, "greeting", res.Value.Classification)
}

func TestParse_ProseAroundObject(t *testing.T) {
	raw := "Sure! Here is the result:\n{\"classification\": \"medical\"}\nLet me know if you need more."
	res := Parse(raw, labelReply{Classification: "general"})
	require.True(t, res.Parsed)
	require.Equal(t, "medical", res.Value.Classification)
}

func TestParse_SingleQuotedObject(t *testing.T) {
	type dept struct {
		Department string `json:"department"`
	}
	res := Parse("{'department': 'Neurology'}", dept{Department: "General"})
	require.True(t, res.Parsed)
	require.Equal(t, "Neurology", res.Value.Department)
}

func TestParse_FallbackIsTotal(t *testing.T) {
	fallback := labelReply{Classification: "general"}
	for _, raw := range []string{"", "not-json", "```", `"medical"`, "[1,2,3]", "{broken", "}{"} {
		res := Parse(raw, fallback)
		require.False(t, res.Parsed, "input %q", raw)
		require.True(t, res.IsFallback())
		require.Error(t, res.Err)
		require.Equal(t, fallback, res.Value)
	}
}

func TestParseValidated_SchemaRejects(t *testing.T) {
	schema := MustCompileSchema("label.json", `{
		"type": "object",
		"required": ["classification"],
		"properties": {"classification": {"type": "string"}}
	}`)

	res := ParseValidated(`{"label": "medical"}`, schema, labelReply{Classification: "general"})
	require.False(t, res.Parsed)
	require.Equal(t, "general", res.Value.Classification)

	res = ParseValidated(`{"classification": "medical"}`, schema, labelReply{Classification: "general"})
	require.True(t, res.Parsed)
	require.Equal(t, "medical", res.Value.Classification)
}

func TestCompileSchema_Invalid(t *testing.T) {
	_, err := CompileSchema("bad.json", `{"type": 12}`)
	require.Error(t, err)
}
