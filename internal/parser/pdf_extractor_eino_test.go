package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEinoPDFTextExtractor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	extractor, err := NewEinoPDFTextExtractor(ctx)
	require.NoError(t, err, "创建PDF提取器不应返回错误")
	require.NotNil(t, extractor.parser, "PDF提取器内部的parser不应为nil")

	extractor, err = NewEinoPDFTextExtractor(ctx, WithPDFTimeout(3*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, extractor.timeout)
}

func TestEinoPDFTextExtractor_CorruptInput(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	extractor, err := NewEinoPDFTextExtractor(ctx)
	require.NoError(t, err)

	_, err = extractor.ExtractText(ctx, []byte("%PDF-1.4 this is not really a pdf"), "broken.pdf")
	assert.Error(t, err, "损坏的PDF应返回错误而不是panic")
}

func TestEinoPDFTextExtractor_SampleFile(t *testing.T) {
	matches, _ := filepath.Glob("testdata/*.pdf")
	if len(matches) == 0 {
		t.Skip("找不到测试PDF文件，跳过测试")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	extractor, err := NewEinoPDFTextExtractor(ctx)
	require.NoError(t, err)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)

	text, err := extractor.ExtractText(ctx, data, matches[0])
	require.NoError(t, err, "PDF提取不应返回错误")
	assert.NotEmpty(t, text)
	t.Logf("从%s提取了%d个字符的文本", matches[0], len(text))
}
