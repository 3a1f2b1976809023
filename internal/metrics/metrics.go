// Package metrics 定义分析流水线的 Prometheus 指标
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "resume_analyzer"

var (
	// StageDuration 各阶段耗时
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"stage", "status"},
	)

	// RequestsTotal 请求结果，kind 为错误分类，成功时为 "ok"
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total analysis requests by outcome",
		},
		[]string{"kind"},
	)

	// LLMCallsTotal 模型调用次数
	LLMCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Total chat model calls",
		},
		[]string{"task", "model", "status"},
	)

	// LLMCallDuration 模型调用耗时
	LLMCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_duration_seconds",
			Help:      "Chat model call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"task", "model"},
	)

	// ParseAttemptsTotal 简历解析尝试次数，result 为 ok / malformed
	ParseAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_attempts_total",
			Help:      "Resume parse attempts by result",
		},
		[]string{"result"},
	)

	// EmbeddingRequestsTotal 向量化请求
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Total embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	// SearchRequestsTotal 网页搜索请求
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total web search requests",
		},
		[]string{"provider", "status"},
	)

	// RoadmapLinksTotal 路线中链接的校验结果，result 为 kept / stripped / flagged
	RoadmapLinksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roadmap_links_total",
			Help:      "Roadmap links by validation result",
		},
		[]string{"result"},
	)

	// DegradedTotal 降级次数，stage 为 analysis / suggestions / roadmap
	DegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_total",
			Help:      "Stages that returned a degraded or placeholder result",
		},
		[]string{"stage"},
	)
)

var registerOnce sync.Once

// Register 注册全部指标，多次调用安全。reg 为 nil 时使用默认注册表
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(
			StageDuration,
			RequestsTotal,
			LLMCallsTotal,
			LLMCallDuration,
			ParseAttemptsTotal,
			EmbeddingRequestsTotal,
			SearchRequestsTotal,
			RoadmapLinksTotal,
			DegradedTotal,
		)
	})
}

// ObserveStage 记录阶段耗时
func ObserveStage(stage string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StageDuration.WithLabelValues(stage, status).Observe(time.Since(start).Seconds())
}
