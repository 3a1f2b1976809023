package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/agent"
	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/types"
)

// fakeSearcher 按查询中包含的差距返回预设结果
type fakeSearcher struct {
	mu      sync.Mutex
	hits    map[string][]types.SearchHit
	fail    map[string]bool
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]types.SearchHit, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	for gap, failed := range f.fail {
		if failed && strings.HasSuffix(query, gap) {
			return nil, fmt.Errorf("%w: boom", types.ErrSearchUnavailable)
		}
	}
	for gap, hits := range f.hits {
		if strings.HasSuffix(query, gap) {
			out := make([]types.SearchHit, len(hits))
			copy(out, hits)
			if len(out) > limit {
				out = out[:limit]
			}
			return out, nil
		}
	}
	return nil, nil
}

func roadmapInput() RoadmapInput {
	return RoadmapInput{
		Profile:        &types.CandidateProfile{Name: "John Doe", Skills: []string{"Go"}},
		Analysis:       &types.FitAnalysis{Strengths: []string{"Go"}, MissingRequirements: "Kubernetes", Score: 60},
		JobDescription: "Platform engineer: Go, Kubernetes, Terraform",
	}
}

func TestParseGaps(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"semicolons", "Kubernetes; Terraform; AWS Lambda", []string{"Kubernetes", "Terraform", "AWS Lambda"}},
		{"numbered lines", "1. Kubernetes\n2) Terraform\n- AWS", []string{"Kubernetes", "Terraform", "AWS"}},
		{"dedupe and cap", "Docker; docker; Kafka; Redis; Rust", []string{"Docker", "Kafka", "Redis"}},
		{"reasoning block", "<think>let me see; maybe</think>GraphQL", []string{"GraphQL"}},
		{"empty", "   ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseGaps(tt.raw, 3))
		})
	}
}

func TestRoadmapProceedsWhenEverySearchFails(t *testing.T) {
	gapModel := agent.NewMockChatClient("Kubernetes; Terraform", nil)
	roadmapModel := agent.NewMockChatClient("**1. Learn Kubernetes**\n- **Links:** none", nil)
	searcher := &fakeSearcher{fail: map[string]bool{"Kubernetes": true, "Terraform": true}}

	g := NewRoadmapGenerator(gapModel, roadmapModel, searcher, RoadmapConfig{})
	out, err := g.Generate(context.Background(), roadmapInput())
	require.NoError(t, err)
	assert.NotEmpty(t, out.Markdown)
	assert.Equal(t, []string{"Kubernetes", "Terraform"}, out.Gaps)
	assert.Empty(t, out.Links)
	assert.Len(t, searcher.queries, 2)
	assert.Contains(t, roadmapModel.LastUserContent(), constants.NoLinksPlaceholder)
}

func TestRoadmapProceedsWhenSearchFindsNothing(t *testing.T) {
	gapModel := agent.NewMockChatClient("Kubernetes; Terraform; Kafka", nil)
	roadmapModel := agent.NewMockChatClient("**1. Learn Kubernetes**\n- **Links:** none", nil)
	searcher := &fakeSearcher{}

	g := NewRoadmapGenerator(gapModel, roadmapModel, searcher, RoadmapConfig{})
	out, err := g.Generate(context.Background(), roadmapInput())
	require.NoError(t, err)
	assert.NotEmpty(t, out.Markdown)
	assert.Empty(t, out.Links)
	assert.Len(t, searcher.queries, 3)
	assert.Contains(t, roadmapModel.LastUserContent(), constants.NoLinksPlaceholder)
}

// sharedSearcher 每次都返回同一个底层切片，模拟带缓存的搜索器
type sharedSearcher struct {
	hits []types.SearchHit
}

func (s *sharedSearcher) Search(ctx context.Context, query string, limit int) ([]types.SearchHit, error) {
	return s.hits, nil
}

func TestDiscoverResourcesDoesNotMutateSearcherResults(t *testing.T) {
	shared := &sharedSearcher{hits: []types.SearchHit{{Title: "Docs", URL: "https://docs.example.com"}}}
	g := NewRoadmapGenerator(agent.NewMockChatClient("", nil), agent.NewMockChatClient("", nil), shared, RoadmapConfig{})

	links := g.DiscoverResources(context.Background(), []string{"Kubernetes", "Terraform", "Kafka"})
	require.Len(t, links, 1)
	assert.NotEmpty(t, links[0].Gap)
	assert.Empty(t, shared.hits[0].Gap, "搜索器返回的切片不应被修改")
}

func TestRoadmapSkipsFailedGapAndKeepsOthers(t *testing.T) {
	gapModel := agent.NewMockChatClient("Kubernetes; Terraform; Kafka", nil)
	roadmapModel := agent.NewMockChatClient(
		"1. [K8s course](https://k8s.example.com/course) and [Invented](https://invented.example.com)", nil)
	searcher := &fakeSearcher{
		hits: map[string][]types.SearchHit{
			"Kubernetes": {{Title: "K8s course", URL: "https://k8s.example.com/course"}},
			"Kafka": {
				{Title: "Kafka docs", URL: "https://kafka.example.com"},
				{Title: "K8s course again", URL: "https://k8s.example.com/course/"},
			},
		},
		fail: map[string]bool{"Terraform": true},
	}

	g := NewRoadmapGenerator(gapModel, roadmapModel, searcher, RoadmapConfig{ResultsPerGap: 5, LinkPolicy: LinkPolicyStrip})
	out, err := g.Generate(context.Background(), roadmapInput())
	require.NoError(t, err)

	require.Len(t, out.Links, 2)
	assert.Equal(t, "Kubernetes", out.Links[0].Gap)
	assert.Equal(t, "Kafka", out.Links[1].Gap)
	assert.Equal(t, 1, out.RejectedLinks)
	assert.Contains(t, out.Markdown, "[K8s course](https://k8s.example.com/course)")
	assert.NotContains(t, out.Markdown, "invented.example.com")

	prompt := roadmapModel.LastUserContent()
	assert.Contains(t, prompt, "https://kafka.example.com")
	assert.Contains(t, prompt, "Current Score: 60/100")
}

func TestRoadmapSearchQueryFormat(t *testing.T) {
	searcher := &fakeSearcher{}
	g := NewRoadmapGenerator(nil, nil, searcher, RoadmapConfig{})
	links := g.DiscoverResources(context.Background(), []string{"Docker"})
	assert.Empty(t, links)
	assert.Equal(t, []string{"best online courses, tutorials, or projects to learn Docker"}, searcher.queries)
}

func TestRoadmapWithoutSearcher(t *testing.T) {
	gapModel := agent.NewMockChatClient("Docker", nil)
	roadmapModel := agent.NewMockChatClient("**1. Docker**", nil)
	g := NewRoadmapGenerator(gapModel, roadmapModel, nil, RoadmapConfig{})

	out, err := g.Generate(context.Background(), roadmapInput())
	require.NoError(t, err)
	assert.Equal(t, "**1. Docker**", out.Markdown)
}

func TestRoadmapGapModelFailure(t *testing.T) {
	gapModel := agent.NewMockChatClient("", errors.New("connection reset by peer"))
	roadmapModel := agent.NewMockChatClient("unused", nil)
	g := NewRoadmapGenerator(gapModel, roadmapModel, &fakeSearcher{}, RoadmapConfig{})

	_, err := g.Generate(context.Background(), roadmapInput())
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrModelUnavailable))
	assert.Equal(t, 0, roadmapModel.CallCount())
}
