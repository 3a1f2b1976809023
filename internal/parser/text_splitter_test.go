package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitText_Empty(t *testing.T) {
	assert.Empty(t, SplitText("   \n\t ", 100, 10))
}

func TestSplitText_ShortTextSingleChunk(t *testing.T) {
	assert.Equal(t, []string{"hello world"}, SplitText("  hello world  ", 100, 10))
}

func TestSplitText_BreaksOnWhitespaceWithOverlap(t *testing.T) {
	words := make([]string, 0, 60)
	for i := 0; i < 60; i++ {
		words = append(words, "word")
	}
	text := strings.Join(words, " ")

	chunks := SplitText(text, 50, 10)
	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 50)
		for _, w := range strings.Fields(c) {
			assert.Equal(t, "word", w, "不应截断单词")
		}
	}
}

func TestSplitText_CoversWholeText(t *testing.T) {
	text := strings.Repeat("abcdefghij", 25) // 无空白，强制按长度切分
	chunks := SplitText(text, 40, 0)
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitText_InvalidOverlapIgnored(t *testing.T) {
	text := strings.Repeat("x", 30)
	chunks := SplitText(text, 10, 20)
	assert.Len(t, chunks, 3)
}

func TestSplitText_MultiByte(t *testing.T) {
	text := strings.Repeat("简历", 30)
	chunks := SplitText(text, 20, 5)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 20)
	}
}
