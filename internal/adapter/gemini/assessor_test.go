package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"repolens/internal/adapter/cache"
	"repolens/internal/common"
	"repolens/internal/domain"
)

// fakeRetryOpts 重试不真实等待
func fakeRetryOpts() []common.Option {
	return []common.Option{
		common.WithMaxRetries(assessRetries),
		common.WithSleep(func(ctx context.Context, d time.Duration) error { return nil }),
	}
}

// newTestAssessor 绕过真实的 genai 客户端，直接注入假的 generate
func newTestAssessor(t *testing.T, generate func(ctx context.Context, prompt string) (string, error)) *Assessor {
	t.Helper()
	return &Assessor{
		modelName:  defaultModel,
		cacheStore: cache.NewFileCache(t.TempDir()),
		cacheTTL:   time.Hour,
		generate:   generate,
		retryOpts:  fakeRetryOpts(),
	}
}

func TestNewAssessorRequiresAPIKey(t *testing.T) {
	_, err := NewAssessor(context.Background(), "", "", nil, 0)
	assert.Error(t, err)
	// key 缺失是配置错误，必须在发起任何网络请求之前上报
	assert.True(t, common.HasCode(err, common.ErrCodeConfig))
}

func TestAssessRepoSuccess(t *testing.T) {
	calls := 0
	a := newTestAssessor(t, func(ctx context.Context, prompt string) (string, error) {
		calls++
		return validAssessmentJSON, nil
	})

	got, err := a.AssessRepo(context.Background(), "alice/demo", "readme", nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 72, *got.SkillScore)
	assert.Len(t, got.Strengths, 3)
}

func TestAssessRepoUsesCache(t *testing.T) {
	calls := 0
	a := newTestAssessor(t, func(ctx context.Context, prompt string) (string, error) {
		calls++
		return validAssessmentJSON, nil
	})

	ctx := context.Background()
	_, err := a.AssessRepo(ctx, "alice/demo", "readme", nil)
	assert.NoError(t, err)

	// 同样的输入第二次直接命中缓存，不再调 LLM
	_, err = a.AssessRepo(ctx, "alice/demo", "readme", nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)

	// 输入变化后缓存失效
	_, err = a.AssessRepo(ctx, "alice/demo", "different readme", nil)
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestAssessRepoRetriesOnParseFailure(t *testing.T) {
	calls := 0
	a := newTestAssessor(t, func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls < 3 {
			return "I cannot produce JSON right now", nil
		}
		return validAssessmentJSON, nil
	})

	got, err := a.AssessRepo(context.Background(), "alice/demo", "readme", nil)
	assert.NoError(t, err)
	// 解析失败和网络失败同等消耗尝试次数
	assert.Equal(t, 3, calls)
	assert.Equal(t, 72, *got.SkillScore)
}

func TestAssessRepoRetriesOnNetworkFailure(t *testing.T) {
	calls := 0
	a := newTestAssessor(t, func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("connection reset")
		}
		return validAssessmentJSON, nil
	})

	_, err := a.AssessRepo(context.Background(), "alice/demo", "readme", nil)
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestAssessRepoExhaustsRetries(t *testing.T) {
	calls := 0
	a := newTestAssessor(t, func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "still not json", nil
	})

	_, err := a.AssessRepo(context.Background(), "alice/demo", "readme", nil)
	assert.Error(t, err)
	// 首次 + 2 次重试
	assert.Equal(t, 3, calls)
	assert.True(t, common.HasCode(err, common.ErrCodeAIProcessing))
	// 错误里带上最后一次原文预览，方便排查
	assert.Contains(t, err.Error(), "still not json")
}

func TestAssessRepoFailureNotCached(t *testing.T) {
	calls := 0
	a := newTestAssessor(t, func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls <= 3 {
			return "garbage", nil
		}
		return validAssessmentJSON, nil
	})

	ctx := context.Background()
	_, err := a.AssessRepo(ctx, "alice/demo", "readme", nil)
	assert.Error(t, err)

	// 失败不会写缓存，下一次照常重新调用
	got, err := a.AssessRepo(ctx, "alice/demo", "readme", nil)
	assert.NoError(t, err)
	assert.Equal(t, 72, *got.SkillScore)
}

func TestAssessRepoWithoutCache(t *testing.T) {
	a := newTestAssessor(t, func(ctx context.Context, prompt string) (string, error) {
		return validAssessmentJSON, nil
	})
	a.cacheStore = nil

	_, err := a.AssessRepo(context.Background(), "alice/demo", "readme", nil)
	assert.NoError(t, err)
}

func TestAssessRepoPromptContainsSample(t *testing.T) {
	var seenPrompt string
	a := newTestAssessor(t, func(ctx context.Context, prompt string) (string, error) {
		seenPrompt = prompt
		return validAssessmentJSON, nil
	})

	files := []domain.FileSample{{Path: "main.go", Content: "package main"}}
	_, err := a.AssessRepo(context.Background(), "alice/demo", "# Demo", files)
	assert.NoError(t, err)

	assert.Contains(t, seenPrompt, "alice/demo")
	assert.Contains(t, seenPrompt, "# Demo")
	assert.Contains(t, seenPrompt, "main.go")
}

func TestAssessPortfolio(t *testing.T) {
	raw := `{
		"headline": "Pragmatic backend developer",
		"recruiter_summary": "Consistently ships small Go services.",
		"top_strengths": ["Ships", "Documents", "Iterates"],
		"top_risks": ["Few tests", "Solo work", "Stale repos"]
	}`

	var seenPrompt string
	a := newTestAssessor(t, func(ctx context.Context, prompt string) (string, error) {
		seenPrompt = prompt
		return raw, nil
	})

	scored := []*domain.ScoredRepo{
		{
			Repo:      &domain.RepoRecord{Name: "demo", Language: strPtr("Go")},
			Breakdown: domain.ScoreBreakdown{Total: 70.5},
			Assessment: &domain.QualityAssessment{
				Strengths:  []string{"s1", "s2", "s3"},
				Weaknesses: []string{"w1", "w2", "w3"},
			},
		},
	}

	p, err := a.AssessPortfolio(context.Background(), "alice", scored)
	assert.NoError(t, err)
	assert.Equal(t, "Pragmatic backend developer", p.Headline)

	// 投影只带名字、语言、总分和前 2 条优缺点
	assert.Contains(t, seenPrompt, "demo")
	assert.Contains(t, seenPrompt, "70.5")
	assert.Contains(t, seenPrompt, "s2")
	assert.NotContains(t, seenPrompt, "s3")
}

func TestBuildPortfolioPromptCapsRepos(t *testing.T) {
	var scored []*domain.ScoredRepo
	for i := 0; i < maxPortfolioRepos+5; i++ {
		scored = append(scored, &domain.ScoredRepo{
			Repo: &domain.RepoRecord{Name: fmt.Sprintf("repo-%02d", i)},
		})
	}

	prompt := buildPortfolioPrompt("alice", scored)
	assert.Contains(t, prompt, fmt.Sprintf("repo-%02d", maxPortfolioRepos-1))
	assert.NotContains(t, prompt, fmt.Sprintf("repo-%02d", maxPortfolioRepos))
}

func strPtr(s string) *string { return &s }
