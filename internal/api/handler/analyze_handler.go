package handler

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel/trace"

	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/tracing"
	"resume-analyzer-go/internal/types"
)

// ContextKeyRequestID 中间件写入 RequestContext 的请求ID键
const ContextKeyRequestID = "request_id"

// Analyzer 执行一次完整的简历分析
type Analyzer interface {
	Analyze(ctx context.Context, req *types.AnalyzeRequest) (*types.AnalysisResult, error)
}

// AnalyzeHandler 简历分析接口
type AnalyzeHandler struct {
	analyzer Analyzer
}

// NewAnalyzeHandler 创建分析处理器
func NewAnalyzeHandler(analyzer Analyzer) *AnalyzeHandler {
	return &AnalyzeHandler{analyzer: analyzer}
}

// Liveness GET /
func (h *AnalyzeHandler) Liveness(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{"message": constants.LivenessMessage})
}

// Analyze POST /analyze，multipart 表单字段 resume 与 job_description。
// 缺少字段时交给编排器判定为 InvalidInput，不在这里提前返回
func (h *AnalyzeHandler) Analyze(ctx context.Context, c *app.RequestContext) {
	req := &types.AnalyzeRequest{
		RequestID:      c.GetString(ContextKeyRequestID),
		JobDescription: string(c.FormValue(constants.FormFieldJobDescription)),
	}

	if fileHeader, err := c.FormFile(constants.FormFieldResume); err == nil {
		content, err := readUpload(fileHeader)
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("filename", fileHeader.Filename).Msg("读取上传文件失败")
			c.JSON(consts.StatusInternalServerError, utils.H{"error": "Failed to read uploaded file"})
			return
		}
		req.Filename = fileHeader.Filename
		req.Content = content
	}

	result, err := h.analyzer.Analyze(ctx, req)
	if err != nil {
		status := types.HTTPStatus(err)
		tracing.RecordHTTPError(trace.SpanFromContext(ctx), err, status)
		c.JSON(status, utils.H{"error": types.PublicMessage(err)})
		return
	}
	c.JSON(consts.StatusOK, result)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer f.Close()
	return io.ReadAll(f)
}
