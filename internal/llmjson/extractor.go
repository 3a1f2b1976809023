// Package llmjson 从不可靠的模型输出中定位并解码 JSON 对象。
// 所有需要结构化结果的模型响应都经过这里，任何输入都只会得到解码结果或 MalformedOutputError。
package llmjson

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"resume-analyzer-go/internal/types"
)

// maxCandidateStarts 限制平衡括号扫描的起点数量，避免对恶意输入做平方级扫描
const maxCandidateStarts = 32

// 代码围栏标记，例如 ```json / ```JSON / ```
var fenceRe = regexp.MustCompile("(?i)```[a-z0-9_+-]*")

// MalformedOutputError 模型输出无法解码为 JSON 对象
type MalformedOutputError struct {
	Raw    string
	Reason string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("%s: %s", types.ErrMalformedOutput, e.Reason)
}

// Is 使 errors.Is(err, types.ErrMalformedOutput) 成立
func (e *MalformedOutputError) Is(target error) bool {
	return target == types.ErrMalformedOutput
}

// Clean 去除 BOM、代码围栏和首尾空白
func Clean(raw string) string {
	s := strings.TrimPrefix(raw, "\uFEFF")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	s = fenceRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Extract 从模型输出中解码第一个 JSON 对象。
// 顺序：整体严格解码 → 平衡括号子串 → 贪婪的首个 { 到最后一个 } → 修复未转义引号后重试。
func Extract(raw string) (map[string]any, error) {
	return extract(raw, nil)
}

// extract 按 Extract 的顺序遍历候选对象，返回第一个被 accept 接受的。
// accept 为 nil 时接受任何对象；所有对象都被拒绝时返回第一个拒绝原因
func extract(raw string, accept func(map[string]any) error) (obj map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			obj = nil
			err = &MalformedOutputError{Raw: raw, Reason: fmt.Sprintf("decoder panic: %v", r)}
		}
	}()

	text := Clean(raw)
	if text == "" {
		return nil, &MalformedOutputError{Raw: raw, Reason: "empty output"}
	}

	var rejected error
	try := func(s string) (map[string]any, bool) {
		o, ok := decodeObject(s)
		if !ok {
			return nil, false
		}
		if accept == nil {
			return o, true
		}
		if aerr := accept(o); aerr != nil {
			if rejected == nil {
				rejected = aerr
			}
			return nil, false
		}
		return o, true
	}

	if o, ok := try(text); ok {
		return o, nil
	}
	for _, candidate := range candidates(text) {
		if o, ok := try(candidate); ok {
			return o, nil
		}
		if o, ok := try(sanitizeJSON(candidate)); ok {
			return o, nil
		}
	}

	if rejected != nil {
		return nil, rejected
	}
	return nil, &MalformedOutputError{Raw: raw, Reason: "no decodable JSON object found"}
}

// decodeObject 严格解码，只接受顶层为对象且没有多余内容的输入
func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// candidates 按优先级返回候选子串：各个起点的平衡括号片段，最后是贪婪片段
func candidates(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	starts := 0
	for i := 0; i < len(text) && starts < maxCandidateStarts; i++ {
		if text[i] != '{' {
			continue
		}
		starts++
		add(balancedSpan(text, i))
	}

	first := strings.IndexByte(text, '{')
	last := strings.LastIndexByte(text, '}')
	if first != -1 && last > first {
		add(text[first : last+1])
	}
	return out
}

// balancedSpan 从 start 处的 { 开始做括号计数，忽略字符串字面量中的括号
func balancedSpan(text string, start int) string {
	depth := 0
	inStr := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// sanitizeJSON 将字符串字面量内部未转义的双引号改写为 \"。
// 下一个非空白字符为 :, ], } 或 , 时才认为引号是字符串的结束。
func sanitizeJSON(src string) string {
	var b strings.Builder
	b.Grow(len(src) + 8)
	inStr := false
	escaped := false

	for i := 0; i < len(src); i++ {
		c := src[i]

		if c == '"' && !escaped {
			if !inStr {
				inStr = true
				b.WriteByte(c)
			} else {
				j := i + 1
				for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
					j++
				}
				if j >= len(src) || src[j] == ':' || src[j] == ',' || src[j] == ']' || src[j] == '}' {
					inStr = false
					b.WriteByte(c)
				} else {
					b.WriteString("\\\"")
				}
			}
			escaped = false
		} else if c == '\\' && !escaped {
			escaped = true
			b.WriteByte(c)
		} else {
			b.WriteByte(c)
			escaped = false
		}
	}

	return b.String()
}
