package processor

import (
	"net/url"
	"regexp"
	"strings"

	"resume-analyzer-go/internal/metrics"
)

// 链接校验策略
const (
	LinkPolicyStrip = "strip" // 删除未提供的链接，保留锚文本
	LinkPolicyFlag  = "flag"  // 保留链接并追加 "(unverified link)"
	LinkPolicyOff   = "off"   // 不校验
)

const unverifiedMark = " (unverified link)"

// 先匹配 Markdown 链接，再匹配裸 URL，避免把 [text](url) 中的 url 重复处理
var linkPattern = regexp.MustCompile(`\[([^\]\n]*)\]\((https?://[^)\s]+)\)|<?(https?://[^\s<>()\]]+)>?`)

// LinkValidator 确保路线图只引用搜索阶段提供过的 URL
type LinkValidator struct {
	policy  string
	allowed map[string]struct{}
}

// NewLinkValidator 未知策略按 strip 处理
func NewLinkValidator(policy string, allowed []string) *LinkValidator {
	switch policy {
	case LinkPolicyFlag, LinkPolicyOff:
	default:
		policy = LinkPolicyStrip
	}
	v := &LinkValidator{policy: policy, allowed: make(map[string]struct{}, len(allowed))}
	for _, u := range allowed {
		v.allowed[normalizeURL(u)] = struct{}{}
	}
	return v
}

// Validate 返回处理后的文本和被拦截的链接数
func (v *LinkValidator) Validate(text string) (string, int) {
	if v.policy == LinkPolicyOff {
		return text, 0
	}
	rejected := 0
	out := linkPattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := linkPattern.FindStringSubmatch(match)
		anchor, target := sub[1], sub[2]
		markdown := target != ""
		if !markdown {
			target = strings.TrimRight(sub[3], ".,;:!?")
		}
		if v.isAllowed(target) {
			metrics.RoadmapLinksTotal.WithLabelValues("kept").Inc()
			return match
		}
		rejected++
		// 裸 URL 尾部的标点不属于链接
		tail := ""
		if !markdown {
			tail = trailingPunct(sub[3])
			match = strings.TrimSuffix(match, tail)
		}
		if v.policy == LinkPolicyFlag {
			metrics.RoadmapLinksTotal.WithLabelValues("flagged").Inc()
			return match + unverifiedMark + tail
		}
		metrics.RoadmapLinksTotal.WithLabelValues("stripped").Inc()
		if markdown {
			return anchor
		}
		return tail
	})
	return out, rejected
}

func (v *LinkValidator) isAllowed(u string) bool {
	_, ok := v.allowed[normalizeURL(u)]
	return ok
}

func trailingPunct(s string) string {
	return s[len(strings.TrimRight(s, ".,;:!?")):]
}

// normalizeURL 忽略 scheme 与 host 大小写、末尾斜杠和 fragment
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.ToLower(raw), "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}
