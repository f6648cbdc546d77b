package port

import (
	"context"
	"time"

	"repolens/internal/domain"
)

// Fetcher (采集层): 负责从 GitHub 拉取仓库元数据和文件样本
type Fetcher interface {
	// FetchUserRepos 分页拉取用户的全部公开仓库
	FetchUserRepos(ctx context.Context, username string) ([]*domain.RepoRecord, error)

	// FetchRepoSample 拉取 README + 少量代码文件，供 LLM 评估用
	FetchRepoSample(ctx context.Context, owner, repo string) (string, []domain.FileSample, error)
}

// Assessor (鉴定师): 负责调用 LLM 做质量评估
type Assessor interface {
	// AssessRepo 评估单个仓库，输出结构化的质量报告
	AssessRepo(ctx context.Context, fullName, readme string, files []domain.FileSample) (*domain.QualityAssessment, error)

	// AssessPortfolio 基于已评分仓库的压缩投影，评估整个作品集
	AssessPortfolio(ctx context.Context, username string, scored []*domain.ScoredRepo) (*domain.PortfolioAssessment, error)
}

// Analyzer (分析器): 并发执行逐仓库的样本抓取 + LLM 评估
type Analyzer interface {
	// SetMaxGoroutines 设置最大并发数
	SetMaxGoroutines(max int)

	// AssessAll 返回与输入同序的评估结果，失败的位置为 nil
	AssessAll(ctx context.Context, repos []*domain.RepoRecord) []*domain.QualityAssessment
}

// Cache (缓存): key→payload 存储，带 TTL
// 缓存只是优化手段：miss、过期、损坏一律静默处理，绝不报错
type Cache interface {
	// Get 命中时把 payload 反序列化进 out 并返回 true
	Get(namespace, key string, ttl time.Duration, out any) bool

	// Set 尽力写入，失败时静默吞掉
	Set(namespace, key string, val any)

	// Clear 清空全部缓存
	Clear() error
}

// ScoreStore (仓库管理员): 负责评分结果的持久化
type ScoreStore interface {
	// CreateRun 新建一条批量分析记录，返回 run id
	CreateRun(ctx context.Context, username string, repoCount int) (uint, error)

	// SaveScore 保存单仓库评分行
	SaveScore(ctx context.Context, score *domain.RepoScore) error

	// RecentRuns 最近的 N 次分析
	RecentRuns(ctx context.Context, limit int) ([]*domain.Run, error)

	// RunScores 某次分析的全部评分行
	RunScores(ctx context.Context, runID uint) ([]*domain.RepoScore, error)

	// Search 关键词搜索历史评分 (LIKE 匹配)
	Search(ctx context.Context, query string) ([]*domain.RepoScore, error)
}

// Notifier (信使): 推送分析完成的摘要卡片
type Notifier interface {
	Notify(ctx context.Context, result *domain.BatchResult) error
}

// Exporter (导出): 把分析结果写成报告文件
type Exporter interface {
	SaveReport(result *domain.BatchResult, stats domain.PortfolioStats) (string, error)
	SaveSummaryJSON(result *domain.BatchResult, stats domain.PortfolioStats) (string, error)
	SaveScoresCSV(result *domain.BatchResult) (string, error)
}
