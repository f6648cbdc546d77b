package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"repolens/internal/domain"
	"repolens/internal/port"
)

// AnalysisService 处理一次完整的作品集分析
// 流程: 拉取 → 时间特征 → 并发LLM评估 → 评分 → 汇总 → 作品集评估 → 入库 → 导出 → 推送
type AnalysisService struct {
	fetcher  port.Fetcher
	analyzer port.Analyzer
	assessor port.Assessor
	store    port.ScoreStore
	exporter port.Exporter
	notifier port.Notifier

	// maxAssess 最多对多少个仓库做 LLM 评估 (按 push 时间倒序取前 N 个)
	// 超出的仓库照常评分，只是没有质量信号
	maxAssess int

	skipLLM bool
	nowFunc func() time.Time // 便于测试注入当前时间
}

// NewAnalysisService 创建分析服务
func NewAnalysisService(
	fetcher port.Fetcher,
	analyzer port.Analyzer,
	assessor port.Assessor,
	store port.ScoreStore,
	exporter port.Exporter,
	notifier port.Notifier,
) *AnalysisService {
	return &AnalysisService{
		fetcher:   fetcher,
		analyzer:  analyzer,
		assessor:  assessor,
		store:     store,
		exporter:  exporter,
		notifier:  notifier,
		maxAssess: 12, // 控制 LLM Token 消耗
		nowFunc:   time.Now,
	}
}

// SetSkipLLM 关闭 LLM 评估，只算 hard 分
func (s *AnalysisService) SetSkipLLM(skip bool) {
	s.skipLLM = skip
}

// SetMaxAssess 设置 LLM 评估的仓库数上限
func (s *AnalysisService) SetMaxAssess(max int) {
	if max > 0 {
		s.maxAssess = max
	}
}

// AnalyzePortfolio 执行一次完整分析
// LLM 和持久化/导出/推送都是尽力而为：它们失败不会让分析本身失败
func (s *AnalysisService) AnalyzePortfolio(ctx context.Context, username string, concurrency int) (*domain.BatchResult, error) {
	fmt.Printf("🚀 开始分析 %s 的 GitHub 作品集...\n", username)

	// 1. 拉取仓库列表
	fmt.Println("📥 正在拉取仓库列表...")
	repos, err := s.fetcher.FetchUserRepos(ctx, username)
	if err != nil {
		return nil, err
	}
	fmt.Printf("✅ 成功拉取 %d 个仓库\n", len(repos))

	result := &domain.BatchResult{Username: username}
	if len(repos) == 0 {
		fmt.Println("📭 该用户没有公开仓库")
		return result, nil
	}

	// 2. 时间特征 (派生字段，不回写原始记录)
	enriched := domain.EnrichRepos(repos, s.nowFunc().UTC())

	// 3. LLM 质量评估 (并发，仅前 maxAssess 个)
	assessments := make([]*domain.QualityAssessment, len(enriched))
	if !s.skipLLM && s.analyzer != nil {
		s.analyzer.SetMaxGoroutines(concurrency)

		toAssess := enriched
		if len(toAssess) > s.maxAssess {
			toAssess = toAssess[:s.maxAssess]
		}
		copy(assessments, s.analyzer.AssessAll(ctx, toAssess))
	}

	// 4. 评分
	fmt.Println("🧮 开始评分...")
	for i, r := range enriched {
		breakdown := domain.CombineScores(r, assessments[i].QualityValue())
		result.Repos = append(result.Repos, &domain.ScoredRepo{
			Repo:       r,
			Breakdown:  breakdown,
			Assessment: assessments[i],
		})
	}

	// 5. 批量统计
	breakdowns := make([]domain.ScoreBreakdown, len(result.Repos))
	for i, sr := range result.Repos {
		breakdowns[i] = sr.Breakdown
	}
	result.Averages = domain.AverageScores(breakdowns)
	result.Confidence = domain.ConfidenceScore(breakdowns)
	fmt.Printf("✅ 评分完成，置信度 %d/100\n", result.Confidence)

	// 6. 作品集级评估 (尽力而为)
	if !s.skipLLM && s.assessor != nil {
		portfolio, perr := s.assessor.AssessPortfolio(ctx, username, result.Repos)
		if perr != nil {
			log.Printf("⚠️ 作品集评估失败: %v", perr)
		} else {
			result.Portfolio = portfolio
		}
	}

	// 7. 入库
	s.persist(ctx, result)

	// 8. 导出 + 推送
	s.export(result, domain.ComputeStats(enriched))
	s.notify(ctx, result)

	fmt.Printf("🎉 分析完成，共评分 %d 个仓库\n", len(result.Repos))
	return result, nil
}

// Search 关键词搜索历史评分
func (s *AnalysisService) Search(ctx context.Context, query string) ([]*domain.RepoScore, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.Search(ctx, query)
}

// persist 把评分结果写进数据库，失败只记录日志
func (s *AnalysisService) persist(ctx context.Context, result *domain.BatchResult) {
	if s.store == nil {
		return
	}

	fmt.Println("💾 开始入库...")
	runID, err := s.store.CreateRun(ctx, result.Username, len(result.Repos))
	if err != nil {
		log.Printf("❌ 创建 run 记录失败: %v", err)
		return
	}
	result.RunID = runID

	saved := 0
	for _, sr := range result.Repos {
		// 检查 context 是否已超时或取消
		select {
		case <-ctx.Done():
			log.Printf("⏰ 执行时间过长，提前结束入库阶段 (已保存 %d 条)", saved)
			return
		default:
		}

		if err := s.store.SaveScore(ctx, domain.NewRepoScore(runID, sr)); err != nil {
			log.Printf("❌ 保存仓库 %s 的评分失败: %v", sr.Repo.Name, err)
			continue
		}
		saved++
	}
	fmt.Printf("✅ 入库完成，共 %d 条\n", saved)
}

// export 写报告文件，失败只记录日志
func (s *AnalysisService) export(result *domain.BatchResult, stats domain.PortfolioStats) {
	if s.exporter == nil {
		return
	}

	if path, err := s.exporter.SaveReport(result, stats); err != nil {
		log.Printf("⚠️ 导出 TXT 报告失败: %v", err)
	} else {
		fmt.Printf("📄 报告已保存: %s\n", path)
	}

	if path, err := s.exporter.SaveSummaryJSON(result, stats); err != nil {
		log.Printf("⚠️ 导出 JSON 摘要失败: %v", err)
	} else {
		fmt.Printf("📄 摘要已保存: %s\n", path)
	}

	if path, err := s.exporter.SaveScoresCSV(result); err != nil {
		log.Printf("⚠️ 导出 CSV 失败: %v", err)
	} else {
		fmt.Printf("📄 评分表已保存: %s\n", path)
	}
}

// notify 推送摘要卡片，失败只记录日志
func (s *AnalysisService) notify(ctx context.Context, result *domain.BatchResult) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, result); err != nil {
		log.Printf("⚠️ 推送通知失败: %v", err)
	}
}
