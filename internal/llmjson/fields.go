package llmjson

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// String 读取字符串字段，数字和布尔值会被格式化，数组会以逗号拼接
func String(obj map[string]any, key string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	return stringify(v)
}

// StringSlice 读取字符串列表字段。
// 单个字符串按逗号/换行拆分，对象会展开为其值（例如 {"technical":[...],"soft":[...]}）
func StringSlice(obj map[string]any, key string) []string {
	v, ok := obj[key]
	if !ok || v == nil {
		return []string{}
	}
	return toStrings(v)
}

// Objects 读取对象列表字段，非对象的元素交给 fallback 转换
func Objects(obj map[string]any, key string) []map[string]any {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, item := range t {
			switch it := item.(type) {
			case map[string]any:
				out = append(out, it)
			case nil:
			default:
				out = append(out, map[string]any{"": stringify(it)})
			}
		}
		return out
	case map[string]any:
		return []map[string]any{t}
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []map[string]any{{"": t}}
	}
	return nil
}

// Int 读取整数，接受 85 / 85.0 / "85" / "85/100"。
// ok 为 false 表示字段缺失或无法识别
func Int(obj map[string]any, key string) (n int, ok bool) {
	v, present := obj[key]
	if !present || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return roundInt(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return roundInt(f), true
	case string:
		s := strings.TrimSpace(t)
		if i := strings.IndexAny(s, "/%"); i > 0 {
			s = strings.TrimSpace(s[:i])
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return roundInt(f), true
	}
	return 0, false
}

// roundInt 先收窄到 int32 范围再转换，避免超大值溢出成相反符号
func roundInt(f float64) int {
	switch {
	case f > math.MaxInt32:
		f = math.MaxInt32
	case f < math.MinInt32:
		f = math.MinInt32
	}
	return int(math.Round(f))
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		return strings.Join(toStrings(t), ", ")
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func toStrings(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := stringify(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.FieldsFunc(t, func(r rune) bool { return r == ',' || r == '\n' || r == ';' }) {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, toStrings(t[k])...)
		}
	default:
		if s := stringify(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}
