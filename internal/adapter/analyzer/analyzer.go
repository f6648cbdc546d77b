package analyzer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"repolens/internal/domain"
	"repolens/internal/port"
)

// RepoAnalyzer 实现了 port.Analyzer 接口
// 用固定大小的 worker 池并发执行 样本抓取 + LLM 评估
type RepoAnalyzer struct {
	fetcher        port.Fetcher
	assessor       port.Assessor
	maxGoroutines  int           // 最大并发数
	perRepoTimeout time.Duration // 单仓库超时
}

// NewRepoAnalyzer 创建新的分析器实例
func NewRepoAnalyzer(fetcher port.Fetcher, assessor port.Assessor) *RepoAnalyzer {
	return &RepoAnalyzer{
		fetcher:        fetcher,
		assessor:       assessor,
		maxGoroutines:  3, // 默认并发数为3，尊重 LLM 供应商的限流
		perRepoTimeout: 30 * time.Second,
	}
}

// SetMaxGoroutines 设置最大并发数
func (a *RepoAnalyzer) SetMaxGoroutines(max int) {
	if max > 0 {
		a.maxGoroutines = max
	}
}

// AssessAll 并发评估所有仓库
// 返回与输入同序的结果切片；单仓库失败只会让对应位置为 nil，绝不中断整批
func (a *RepoAnalyzer) AssessAll(ctx context.Context, repos []*domain.RepoRecord) []*domain.QualityAssessment {
	results := make([]*domain.QualityAssessment, len(repos))
	if len(repos) == 0 {
		return results
	}

	fmt.Printf("🤖 开始LLM质量评估，共 %d 个仓库，最大并发数: %d\n", len(repos), a.maxGoroutines)

	jobs := make(chan int, len(repos))

	var wg sync.WaitGroup
	for w := 1; w <= a.maxGoroutines; w++ {
		wg.Add(1)
		go a.assessWorker(ctx, repos, results, jobs, &wg, w)
	}

	for i := range repos {
		jobs <- i
	}
	close(jobs)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// 所有任务完成
	case <-ctx.Done():
		fmt.Println("⏰ LLM评估因超时或取消而中断")
		return results
	}

	fmt.Println("✅ LLM质量评估完成")
	return results
}

// assessWorker 工作协程，处理单个仓库的 样本抓取 + 评估
// 每个 index 只有一个 worker 写，results 不需要加锁
func (a *RepoAnalyzer) assessWorker(
	ctx context.Context,
	repos []*domain.RepoRecord,
	results []*domain.QualityAssessment,
	jobs <-chan int,
	wg *sync.WaitGroup,
	workerID int,
) {
	defer wg.Done()

	for idx := range jobs {
		repo := repos[idx]
		fmt.Printf("   [Worker-%d] 正在评估 %s...\n", workerID, repo.FullName)

		repoCtx, cancel := context.WithTimeout(ctx, a.perRepoTimeout)
		assessment, err := a.assessOne(repoCtx, repo)
		cancel()

		if err != nil {
			// 失败只记录日志，对应位置保持 nil (质量信号缺失，评分退化为 hard 分)
			log.Printf("   [Worker-%d] ❌ %s 评估失败: %v", workerID, repo.FullName, err)
			continue
		}

		results[idx] = assessment
		fmt.Printf("   [Worker-%d] ✅ %s 评估完成\n", workerID, repo.FullName)
	}
}

// assessOne 抓样本 + 调评估器
func (a *RepoAnalyzer) assessOne(ctx context.Context, repo *domain.RepoRecord) (*domain.QualityAssessment, error) {
	owner, name, ok := splitFullName(repo.FullName)
	if !ok {
		return nil, fmt.Errorf("无法解析仓库全名: %q", repo.FullName)
	}

	readme, files, err := a.fetcher.FetchRepoSample(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("抓取样本失败: %w", err)
	}

	return a.assessor.AssessRepo(ctx, repo.FullName, readme, files)
}

// splitFullName 把 "owner/repo" 拆开
func splitFullName(fullName string) (owner, repo string, ok bool) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
