package parser

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/logger"
)

// TikaPDFTextExtractor 通过 Apache Tika 服务提取 PDF 文本
type TikaPDFTextExtractor struct {
	serverURL   string
	client      *client.Client
	timeout     time.Duration
	annotations bool
}

// TikaOption Tika 提取器的配置选项
type TikaOption func(*TikaPDFTextExtractor)

// WithTikaTimeout 设置单次请求超时
func WithTikaTimeout(d time.Duration) TikaOption {
	return func(e *TikaPDFTextExtractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithAnnotations 是否提取 PDF 链接注释文本，默认提取
func WithAnnotations(extract bool) TikaOption {
	return func(e *TikaPDFTextExtractor) {
		e.annotations = extract
	}
}

var _ PDFTextExtractor = (*TikaPDFTextExtractor)(nil)

// NewTikaPDFTextExtractor 创建 Tika 提取器，serverURL 例如 http://localhost:9998
func NewTikaPDFTextExtractor(serverURL string, options ...TikaOption) (*TikaPDFTextExtractor, error) {
	if strings.TrimSpace(serverURL) == "" {
		return nil, fmt.Errorf("tika server url is required")
	}
	e := &TikaPDFTextExtractor{
		serverURL:   strings.TrimRight(serverURL, "/"),
		timeout:     constants.DefaultExtractionTimeout,
		annotations: true,
	}
	for _, option := range options {
		option(e)
	}

	c, err := client.NewClient(
		client.WithDialer(standard.NewDialer()),
		client.WithTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}),
		client.WithDialTimeout(e.timeout),
		client.WithClientReadTimeout(e.timeout),
		client.WithWriteTimeout(e.timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tika http client: %w", err)
	}
	e.client = c
	return e, nil
}

// ExtractText 以纯文本模式调用 PUT /tika
func (e *TikaPDFTextExtractor) ExtractText(ctx context.Context, data []byte, uri string) (string, error) {
	log := logger.Ctx(ctx)
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)

	req.SetRequestURI(e.serverURL + "/tika")
	req.SetMethod(consts.MethodPut)
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", "text/plain; charset=UTF-8")
	if uri != "" {
		req.Header.Set("X-Tika-Resource-Name", uri)
	}
	if !e.annotations {
		req.Header.Set("X-Tika-PDFExtractAnnotationText", "false")
	}
	req.SetBody(data)

	deadline, _ := ctx.Deadline()
	if err := e.client.DoDeadline(ctx, req, resp, deadline); err != nil {
		log.Warn().Err(err).Str("uri", uri).Msg("Tika请求失败")
		return "", fmt.Errorf("tika request failed for %s: %w", uri, err)
	}
	if resp.StatusCode() != consts.StatusOK {
		return "", fmt.Errorf("tika returned status %d for %s", resp.StatusCode(), uri)
	}

	text := string(resp.Body())
	log.Debug().
		Str("uri", uri).
		Int("chars", len(text)).
		Dur("elapsed", time.Since(startTime)).
		Msg("Tika提取完成")
	return text, nil
}
