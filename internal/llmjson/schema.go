package llmjson

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema 对已解码对象做形状校验，用于区分"是 JSON 但不是我们要的东西"
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// NewSchema 编译 JSON Schema 定义
func NewSchema(name, definition string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(definition))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: s}, nil
}

// MustSchema 同 NewSchema，编译失败时 panic，仅用于包级内嵌定义
func MustSchema(name, definition string) *Schema {
	s, err := NewSchema(name, definition)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate 校验对象，不符合时返回 MalformedOutputError
func (s *Schema) Validate(obj map[string]any, raw string) error {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(obj))
	if err != nil {
		return &MalformedOutputError{Raw: raw, Reason: fmt.Sprintf("%s schema validation: %v", s.name, err)}
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return &MalformedOutputError{
		Raw:    raw,
		Reason: fmt.Sprintf("%s shape mismatch: %s", s.name, strings.Join(msgs, "; ")),
	}
}

// ExtractValidated 返回第一个既能解码又符合 schema 的候选对象。
// 输出中先出现的无关对象（例如回显的模板示例）会被跳过
func ExtractValidated(raw string, s *Schema) (map[string]any, error) {
	if s == nil {
		return Extract(raw)
	}
	return extract(raw, func(obj map[string]any) error {
		return s.Validate(obj, raw)
	})
}
