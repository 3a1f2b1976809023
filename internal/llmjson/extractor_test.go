package llmjson

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"resume-analyzer-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleObject = `{"name":"John Doe","skills":["Python","AWS"],"score":85,"nested":{"braces":"a } inside { string"}}`

func decoded(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestExtractRecoversWrappedObject(t *testing.T) {
	want := decoded(t, sampleObject)

	inputs := map[string]string{
		"plain":            sampleObject,
		"fenced lowercase": "```json\n" + sampleObject + "\n```",
		"fenced uppercase": "```JSON\n" + sampleObject + "\n```",
		"bare fence":       "```\n" + sampleObject + "\n```",
		"leading prose":    "Sure! Here is the parsed resume:\n" + sampleObject,
		"trailing prose":   sampleObject + "\n\nLet me know if you need anything else.",
		"both sides":       "Result:\n```json\n" + sampleObject + "\n```\nHope this helps {really}.",
		"with BOM":         "\uFEFF" + sampleObject,
		"decoy braces":     "Use {placeholder} values. " + sampleObject,
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			got, err := Extract(input)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestExtractRepairsUnescapedQuotes(t *testing.T) {
	raw := `{"final_assessment": "Strong "Python" background", "score": 70}`
	got, err := Extract(raw)
	require.NoError(t, err)
	assert.Equal(t, `Strong "Python" background`, got["final_assessment"])
}

func TestExtractRejectsNonJSON(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"I'm sorry, I cannot help with that.",
		"[1, 2, 3]",
		"null",
		"{not json at all}",
		"{{{{{{{{{{",
		"}}}}{{{{",
		"```json\n```",
		strings.Repeat("{\"a\":", 5000),
		"\x00\xff\xfe garbage \xc3",
	}

	for _, input := range inputs {
		got, err := Extract(input)
		require.Error(t, err, "input %q", input)
		assert.Nil(t, got)
		assert.True(t, errors.Is(err, types.ErrMalformedOutput))

		var mo *MalformedOutputError
		require.True(t, errors.As(err, &mo))
		assert.Equal(t, input, mo.Raw)
	}
}

func TestBalancedSpanIgnoresBracesInStrings(t *testing.T) {
	text := `prefix {"a": "}{", "b": {"c": "\"}"}} suffix`
	span := balancedSpan(text, strings.IndexByte(text, '{'))
	assert.Equal(t, `{"a": "}{", "b": {"c": "\"}"}}`, span)
	assert.Equal(t, "", balancedSpan(`{"open": true`, 0))
}

func TestSchemaValidate(t *testing.T) {
	s := MustSchema("profile", `{
		"type": "object",
		"anyOf": [{"required": ["name"]}, {"required": ["skills"]}],
		"properties": {"skills": {"type": ["array", "string", "null"]}}
	}`)

	obj, err := ExtractValidated(`{"name": "Jane"}`, s)
	require.NoError(t, err)
	assert.Equal(t, "Jane", obj["name"])

	_, err = ExtractValidated(`{"error": "cannot comply"}`, s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMalformedOutput))

	_, err = ExtractValidated(`{"skills": 42}`, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shape mismatch")
}

// 模型先回显模板示例再给出答案时，应跳过不符合 schema 的对象
func TestExtractValidatedSkipsEchoedTemplate(t *testing.T) {
	s := MustSchema("profile", `{"type": "object", "anyOf": [{"required": ["name"]}]}`)

	raw := "Template: {\"example\": true}\nAnswer:\n{\"name\": \"John Doe\"}"
	obj, err := ExtractValidated(raw, s)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", obj["name"])

	// 不带 schema 时仍返回第一个对象
	obj, err = Extract(raw)
	require.NoError(t, err)
	assert.Equal(t, true, obj["example"])

	_, err = ExtractValidated("Template: {\"example\": true}\nno answer", s)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrMalformedOutput)
	assert.Contains(t, err.Error(), "shape mismatch")
}

func TestFieldAccessors(t *testing.T) {
	obj := decoded(t, `{
		"name": " John ",
		"phone": 5551234,
		"skills": "Python, Go\nSQL",
		"grouped": {"technical": ["Go"], "soft": ["Communication"]},
		"score_int": 85,
		"score_float": 72.6,
		"score_str": "64/100",
		"score_bad": "high",
		"list": ["a", "", null, 3]
	}`)

	assert.Equal(t, "John", String(obj, "name"))
	assert.Equal(t, "5551234", String(obj, "phone"))
	assert.Equal(t, "", String(obj, "missing"))
	assert.Equal(t, []string{"Python", "Go", "SQL"}, StringSlice(obj, "skills"))
	assert.Equal(t, []string{"Communication", "Go"}, StringSlice(obj, "grouped"))
	assert.Equal(t, []string{"a", "3"}, StringSlice(obj, "list"))
	assert.Equal(t, []string{}, StringSlice(obj, "missing"))

	n, ok := Int(obj, "score_int")
	assert.True(t, ok)
	assert.Equal(t, 85, n)
	n, ok = Int(obj, "score_float")
	assert.True(t, ok)
	assert.Equal(t, 73, n)
	n, ok = Int(obj, "score_str")
	assert.True(t, ok)
	assert.Equal(t, 64, n)
	_, ok = Int(obj, "score_bad")
	assert.False(t, ok)
	_, ok = Int(obj, "missing")
	assert.False(t, ok)
}

func TestIntSaturatesHugeValues(t *testing.T) {
	obj := decoded(t, `{"big": 1e20, "small": -1e20, "big_str": "1e20"}`)

	n, ok := Int(obj, "big")
	assert.True(t, ok)
	assert.Equal(t, math.MaxInt32, n)
	n, ok = Int(obj, "small")
	assert.True(t, ok)
	assert.Equal(t, math.MinInt32, n)
	n, ok = Int(obj, "big_str")
	assert.True(t, ok)
	assert.Equal(t, math.MaxInt32, n)
}
