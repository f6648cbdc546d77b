package port

import (
	"context"
	"time"

	"repolens/internal/domain"
)

// 编译期检查：mock 实现必须完整覆盖接口定义
var (
	_ Fetcher    = (*mockFetcher)(nil)
	_ Assessor   = (*mockAssessor)(nil)
	_ Analyzer   = (*mockAnalyzer)(nil)
	_ Cache      = (*mockCache)(nil)
	_ ScoreStore = (*mockScoreStore)(nil)
	_ Notifier   = (*mockNotifier)(nil)
	_ Exporter   = (*mockExporter)(nil)
)

type mockFetcher struct{}

func (m *mockFetcher) FetchUserRepos(ctx context.Context, username string) ([]*domain.RepoRecord, error) {
	return nil, nil
}

func (m *mockFetcher) FetchRepoSample(ctx context.Context, owner, repo string) (string, []domain.FileSample, error) {
	return "", nil, nil
}

type mockAssessor struct{}

func (m *mockAssessor) AssessRepo(ctx context.Context, fullName, readme string, files []domain.FileSample) (*domain.QualityAssessment, error) {
	return nil, nil
}

func (m *mockAssessor) AssessPortfolio(ctx context.Context, username string, scored []*domain.ScoredRepo) (*domain.PortfolioAssessment, error) {
	return nil, nil
}

type mockAnalyzer struct{}

func (m *mockAnalyzer) SetMaxGoroutines(max int) {}

func (m *mockAnalyzer) AssessAll(ctx context.Context, repos []*domain.RepoRecord) []*domain.QualityAssessment {
	return nil
}

type mockCache struct{}

func (m *mockCache) Get(namespace, key string, ttl time.Duration, out any) bool { return false }
func (m *mockCache) Set(namespace, key string, val any)                         {}
func (m *mockCache) Clear() error                                               { return nil }

type mockScoreStore struct{}

func (m *mockScoreStore) CreateRun(ctx context.Context, username string, repoCount int) (uint, error) {
	return 0, nil
}

func (m *mockScoreStore) SaveScore(ctx context.Context, score *domain.RepoScore) error { return nil }

func (m *mockScoreStore) RecentRuns(ctx context.Context, limit int) ([]*domain.Run, error) {
	return nil, nil
}

func (m *mockScoreStore) RunScores(ctx context.Context, runID uint) ([]*domain.RepoScore, error) {
	return nil, nil
}

func (m *mockScoreStore) Search(ctx context.Context, query string) ([]*domain.RepoScore, error) {
	return nil, nil
}

type mockNotifier struct{}

func (m *mockNotifier) Notify(ctx context.Context, result *domain.BatchResult) error { return nil }

type mockExporter struct{}

func (m *mockExporter) SaveReport(result *domain.BatchResult, stats domain.PortfolioStats) (string, error) {
	return "", nil
}

func (m *mockExporter) SaveSummaryJSON(result *domain.BatchResult, stats domain.PortfolioStats) (string, error) {
	return "", nil
}

func (m *mockExporter) SaveScoresCSV(result *domain.BatchResult) (string, error) {
	return "", nil
}
