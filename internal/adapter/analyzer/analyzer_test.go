package analyzer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"repolens/internal/domain"
)

type stubFetcher struct {
	mu        sync.Mutex
	calls     []string
	sampleErr error
}

func (s *stubFetcher) FetchUserRepos(ctx context.Context, username string) ([]*domain.RepoRecord, error) {
	return nil, nil
}

func (s *stubFetcher) FetchRepoSample(ctx context.Context, owner, repo string) (string, []domain.FileSample, error) {
	s.mu.Lock()
	s.calls = append(s.calls, owner+"/"+repo)
	s.mu.Unlock()
	if s.sampleErr != nil {
		return "", nil, s.sampleErr
	}
	return "readme for " + repo, []domain.FileSample{{Path: "main.go", Content: "package main"}}, nil
}

type stubAssessor struct {
	assess func(fullName string) (*domain.QualityAssessment, error)
	active int32
	peak   int32
}

func (s *stubAssessor) AssessRepo(ctx context.Context, fullName, readme string, files []domain.FileSample) (*domain.QualityAssessment, error) {
	cur := atomic.AddInt32(&s.active, 1)
	for {
		p := atomic.LoadInt32(&s.peak)
		if cur <= p || atomic.CompareAndSwapInt32(&s.peak, p, cur) {
			break
		}
	}
	defer atomic.AddInt32(&s.active, -1)

	if s.assess != nil {
		return s.assess(fullName)
	}
	score := 60
	return &domain.QualityAssessment{RepoSummary: fullName, SkillScore: &score}, nil
}

func (s *stubAssessor) AssessPortfolio(ctx context.Context, username string, scored []*domain.ScoredRepo) (*domain.PortfolioAssessment, error) {
	return nil, errors.New("not used")
}

func makeRepos(names ...string) []*domain.RepoRecord {
	repos := make([]*domain.RepoRecord, 0, len(names))
	for _, name := range names {
		repos = append(repos, &domain.RepoRecord{Name: name, FullName: "alice/" + name})
	}
	return repos
}

func TestAssessAllEmpty(t *testing.T) {
	a := NewRepoAnalyzer(&stubFetcher{}, &stubAssessor{})
	results := a.AssessAll(context.Background(), nil)
	assert.Empty(t, results)
}

func TestAssessAllKeepsOrder(t *testing.T) {
	a := NewRepoAnalyzer(&stubFetcher{}, &stubAssessor{})
	repos := makeRepos("one", "two", "three", "four", "five")

	results := a.AssessAll(context.Background(), repos)
	assert.Len(t, results, len(repos))
	for i, r := range repos {
		assert.NotNil(t, results[i])
		assert.Equal(t, r.FullName, results[i].RepoSummary)
	}
}

func TestAssessAllPartialFailure(t *testing.T) {
	assessor := &stubAssessor{
		assess: func(fullName string) (*domain.QualityAssessment, error) {
			if fullName == "alice/bad" {
				return nil, errors.New("LLM unavailable")
			}
			return &domain.QualityAssessment{RepoSummary: fullName}, nil
		},
	}
	a := NewRepoAnalyzer(&stubFetcher{}, assessor)
	repos := makeRepos("good", "bad", "also-good")

	results := a.AssessAll(context.Background(), repos)

	// 单仓库失败只让对应位置为 nil，不中断整批
	assert.NotNil(t, results[0])
	assert.Nil(t, results[1])
	assert.NotNil(t, results[2])
}

func TestAssessAllFetchFailure(t *testing.T) {
	a := NewRepoAnalyzer(&stubFetcher{sampleErr: errors.New("rate limited")}, &stubAssessor{})
	repos := makeRepos("demo")

	results := a.AssessAll(context.Background(), repos)
	assert.Nil(t, results[0])
}

func TestAssessAllInvalidFullName(t *testing.T) {
	a := NewRepoAnalyzer(&stubFetcher{}, &stubAssessor{})
	repos := []*domain.RepoRecord{
		{Name: "no-owner", FullName: "no-owner"},
		{Name: "ok", FullName: "alice/ok"},
	}

	results := a.AssessAll(context.Background(), repos)
	assert.Nil(t, results[0])
	assert.NotNil(t, results[1])
}

func TestAssessAllRespectsConcurrencyLimit(t *testing.T) {
	assessor := &stubAssessor{}
	a := NewRepoAnalyzer(&stubFetcher{}, assessor)
	a.SetMaxGoroutines(2)

	repos := makeRepos("r1", "r2", "r3", "r4", "r5", "r6", "r7", "r8")
	a.AssessAll(context.Background(), repos)

	assert.LessOrEqual(t, atomic.LoadInt32(&assessor.peak), int32(2))
}

func TestSetMaxGoroutinesIgnoresInvalid(t *testing.T) {
	a := NewRepoAnalyzer(&stubFetcher{}, &stubAssessor{})
	a.SetMaxGoroutines(0)
	assert.Equal(t, 3, a.maxGoroutines)

	a.SetMaxGoroutines(-1)
	assert.Equal(t, 3, a.maxGoroutines)

	a.SetMaxGoroutines(5)
	assert.Equal(t, 5, a.maxGoroutines)
}

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		in    string
		owner string
		repo  string
		ok    bool
	}{
		{"alice/demo", "alice", "demo", true},
		{"alice/demo/extra", "alice", "demo/extra", true},
		{"just-a-name", "", "", false},
		{"/demo", "", "", false},
		{"alice/", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		owner, repo, ok := splitFullName(tt.in)
		assert.Equal(t, tt.ok, ok, "input=%q", tt.in)
		assert.Equal(t, tt.owner, owner)
		assert.Equal(t, tt.repo, repo)
	}
}
