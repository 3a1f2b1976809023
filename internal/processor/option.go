package processor

import (
	"time"

	"github.com/gofrs/uuid/v5"

	"resume-analyzer-go/internal/constants"
)

// Components 聚合编排器依赖的所有功能组件，便于集中管理和测试替换
type Components struct {
	Extractor  TextExtractor        // 文档文本提取
	Parser     *ResumeParser        // 简历结构化解析
	Analyzer   *FitAnalyzer         // 人岗匹配分析
	Suggester  *SuggestionGenerator // 修改建议
	Roadmapper *RoadmapGenerator    // 学习路线
}

// Settings 纯配置项，不包含任何业务逻辑组件
type Settings struct {
	RequestTimeout time.Duration // 单次分析的总超时，<=0 表示不额外限制
	NewRequestID   func() string // 请求ID生成器
}

// SettingOpt 设置选项类型，仅改变 Settings 结构体内的字段
type SettingOpt func(*Settings)

// WithRequestTimeout 设置单次分析的总超时
func WithRequestTimeout(d time.Duration) SettingOpt {
	return func(s *Settings) {
		s.RequestTimeout = d
	}
}

// WithIDGenerator 设置请求ID生成器，测试中用于固定ID
func WithIDGenerator(fn func() string) SettingOpt {
	return func(s *Settings) {
		if fn != nil {
			s.NewRequestID = fn
		}
	}
}

func defaultSettings() Settings {
	return Settings{
		RequestTimeout: constants.DefaultRequestTimeout,
		NewRequestID:   newRequestID,
	}
}

// newRequestID 使用 UUIDv7，按时间有序便于日志检索
func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Must(uuid.NewV4()).String()
	}
	return id.String()
}
