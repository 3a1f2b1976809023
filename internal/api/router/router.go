package router

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/gofrs/uuid/v5"
	"github.com/hertz-contrib/cors"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"resume-analyzer-go/internal/api/handler"
	appconfig "resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/logger"
)

const defaultMaxUploadMB = 10

// NewServer 按配置创建 hertz 服务器，并挂载 OpenTelemetry 服务端中间件
func NewServer(cfg *appconfig.Config) *server.Hertz {
	maxMB := cfg.Server.MaxUploadMB
	if maxMB <= 0 {
		maxMB = defaultMaxUploadMB
	}
	tracer, tracerCfg := hertztracing.NewServerTracer()
	opts := []config.Option{
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(maxMB << 20),
		// 分析请求会串行调用多次模型，读写超时需覆盖整个请求
		server.WithReadTimeout(appconfig.GetDuration(cfg.Server.RequestTimeout, constants.DefaultRequestTimeout) + 10*time.Second),
		server.WithWriteTimeout(appconfig.GetDuration(cfg.Server.RequestTimeout, constants.DefaultRequestTimeout) + 10*time.Second),
		tracer,
	}
	h := server.New(opts...)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	return h
}

// Options 路由可选项
type Options struct {
	MetricsEnabled bool
	MetricsPath    string
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, analyzeHandler *handler.AnalyzeHandler, opts Options) {
	h.Use(
		cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Accept", constants.RequestIDHeader},
			ExposeHeaders:   []string{constants.RequestIDHeader},
			MaxAge:          12 * time.Hour,
		}),
		requestID(),
		accessLog(),
	)

	h.GET("/", analyzeHandler.Liveness)
	h.POST("/analyze", analyzeHandler.Analyze)

	if opts.MetricsEnabled {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		h.GET(path, adaptor.HertzHandler(promhttp.Handler()))
	}
}

// requestID 复用客户端传入的请求ID，没有时生成 UUIDv7，并写入响应头
func requestID() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		id := string(c.GetHeader(constants.RequestIDHeader))
		if id == "" {
			if v7, err := uuid.NewV7(); err == nil {
				id = v7.String()
			}
		}
		c.Set(handler.ContextKeyRequestID, id)
		c.Response.Header.Set(constants.RequestIDHeader, id)
		c.Next(logger.WithRequestID(ctx, id))
	}
}

func accessLog() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)
		logger.Ctx(ctx).Info().
			Str("method", string(c.Method())).
			Str("path", string(c.Path())).
			Int("status", c.Response.StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("HTTP 请求")
	}
}
