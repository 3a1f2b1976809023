package processor

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"

	"resume-analyzer-go/internal/types"
)

// TextExtractor 将上传的文档转换为纯文本
type TextExtractor interface {
	Extract(ctx context.Context, filename string, content []byte) (string, error)
}

// IndexBuilder 为一段文本构建仅属于当前请求的检索器
type IndexBuilder func(ctx context.Context, text string) (retriever.Retriever, error)

// ChatModelProvider 按任务返回聊天模型
type ChatModelProvider interface {
	ChatModel(task string) (model.BaseChatModel, error)
}

// WebSearcher 给定查询返回有界的搜索结果
type WebSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]types.SearchHit, error)
}
