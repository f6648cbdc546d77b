package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"repolens/internal/domain"
)

// FileExporter 实现了 port.Exporter 接口
// 把一次分析的结果写成 TXT 报告、JSON 摘要和 CSV 评分表
// 文件名带时间戳，避免覆盖之前的导出
type FileExporter struct {
	dir     string
	nowFunc func() time.Time // 便于测试固定时间戳
}

const (
	topRepoCount     = 5
	topLanguageCount = 5
)

// NewFileExporter 创建导出器，dir 不存在时会自动创建
func NewFileExporter(dir string) *FileExporter {
	return &FileExporter{
		dir:     dir,
		nowFunc: time.Now,
	}
}

func repoNames(repos []*domain.RepoRecord) []string {
	names := make([]string, len(repos))
	for i, r := range repos {
		names[i] = r.Name
	}
	return names
}

func (e *FileExporter) timestamp() string {
	return e.nowFunc().Format("20060102_150405")
}

func (e *FileExporter) ensureDir() error {
	return os.MkdirAll(e.dir, 0o755)
}

// SaveReport 保存人类可读的 TXT 报告
func (e *FileExporter) SaveReport(result *domain.BatchResult, stats domain.PortfolioStats) (string, error) {
	if err := e.ensureDir(); err != nil {
		return "", err
	}

	path := filepath.Join(e.dir, fmt.Sprintf("%s_report_%s.txt", result.Username, e.timestamp()))

	var b strings.Builder
	fmt.Fprintf(&b, "RepoLens 分析报告: %s\n", result.Username)
	fmt.Fprintf(&b, "================================\n\n")
	fmt.Fprintf(&b, "仓库数: %d  总 Star: %d  平均 Star: %.1f\n",
		stats.RepoCount, stats.TotalStars, stats.AvgStars)
	fmt.Fprintf(&b, "活跃 (30/90/365 天): %d / %d / %d  陈旧: %d\n",
		stats.Active30d, stats.Active90d, stats.Active365d, stats.Stale365dPlus)
	fmt.Fprintf(&b, "归档: %d  有 License: %d  有 open issues: %d\n\n",
		stats.ArchivedCount, stats.LicensedCount, stats.ReposWithIssues)

	fmt.Fprintf(&b, "置信度: %d/100\n\n", result.Confidence)

	if result.Portfolio != nil {
		fmt.Fprintf(&b, "【%s】\n%s\n\n", result.Portfolio.Headline, result.Portfolio.RecruiterSummary)
		fmt.Fprintf(&b, "亮点:\n")
		for _, s := range result.Portfolio.TopStrengths {
			fmt.Fprintf(&b, "  + %s\n", s)
		}
		fmt.Fprintf(&b, "风险:\n")
		for _, r := range result.Portfolio.TopRisks {
			fmt.Fprintf(&b, "  - %s\n", r)
		}
		fmt.Fprintf(&b, "\n")
	}

	fmt.Fprintf(&b, "单仓库评分:\n")
	for _, s := range result.Repos {
		quality := "N/A"
		if s.Breakdown.Quality != nil {
			quality = fmt.Sprintf("%.1f", *s.Breakdown.Quality)
		}
		fmt.Fprintf(&b, "  %-40s total=%5.1f hard=%5.1f quality=%s\n",
			s.Repo.Name, s.Breakdown.Total, s.Breakdown.Hard, quality)
	}

	records := make([]*domain.RepoRecord, len(result.Repos))
	for i, s := range result.Repos {
		records[i] = s.Repo
	}

	fmt.Fprintf(&b, "\nTop 仓库 (按 star):\n")
	for _, r := range domain.TopByStars(records, topRepoCount) {
		fmt.Fprintf(&b, "  - %s | stars=%d | %s\n", r.Name, r.Stars, r.HTMLURL)
	}

	fmt.Fprintf(&b, "\n最近活跃:\n")
	for _, r := range domain.TopByRecentPush(records, topRepoCount) {
		days := "未知"
		if r.DaysSincePush != nil {
			days = fmt.Sprintf("%d 天前", *r.DaysSincePush)
		}
		fmt.Fprintf(&b, "  - %s | 上次 push: %s\n", r.Name, days)
	}

	fmt.Fprintf(&b, "\n主要语言:\n")
	for _, row := range domain.TopLanguages(records, topLanguageCount) {
		fmt.Fprintf(&b, "  - %s: %d\n", row.Language, row.RepoCount)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// jsonSummary JSON 摘要的顶层结构
type jsonSummary struct {
	Username     string                      `json:"username"`
	GeneratedAt  string                      `json:"generated_at"`
	Stats        domain.PortfolioStats       `json:"stats"`
	Averages     domain.ScoreAverages        `json:"averages"`
	Confidence   int                         `json:"confidence"`
	Portfolio    *domain.PortfolioAssessment `json:"portfolio,omitempty"`
	TopByStars   []string                    `json:"top_by_stars"`
	TopByForks   []string                    `json:"top_by_forks"`
	TopLanguages []domain.LanguageCount      `json:"top_languages"`
}

// SaveSummaryJSON 保存机器可读的 JSON 摘要
func (e *FileExporter) SaveSummaryJSON(result *domain.BatchResult, stats domain.PortfolioStats) (string, error) {
	if err := e.ensureDir(); err != nil {
		return "", err
	}

	path := filepath.Join(e.dir, fmt.Sprintf("%s_summary_%s.json", result.Username, e.timestamp()))

	records := make([]*domain.RepoRecord, len(result.Repos))
	for i, s := range result.Repos {
		records[i] = s.Repo
	}

	summary := jsonSummary{
		Username:     result.Username,
		GeneratedAt:  e.nowFunc().UTC().Format(time.RFC3339),
		Stats:        stats,
		Averages:     result.Averages,
		Confidence:   result.Confidence,
		Portfolio:    result.Portfolio,
		TopByStars:   repoNames(domain.TopByStars(records, topRepoCount)),
		TopByForks:   repoNames(domain.TopByForks(records, topRepoCount)),
		TopLanguages: domain.TopLanguages(records, topLanguageCount),
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// SaveScoresCSV 保存逐仓库评分的 CSV (方便在表格软件里打开)
func (e *FileExporter) SaveScoresCSV(result *domain.BatchResult) (string, error) {
	if err := e.ensureDir(); err != nil {
		return "", err
	}

	path := filepath.Join(e.dir, fmt.Sprintf("%s_scores_%s.csv", result.Username, e.timestamp()))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"repo_name", "repo_url", "language",
		"total_score", "llm_skill_score", "hard_score",
		"activity_score", "popularity_score", "health_score",
		"days_since_push", "stars", "forks",
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, s := range result.Repos {
		quality := ""
		if s.Breakdown.Quality != nil {
			quality = strconv.FormatFloat(*s.Breakdown.Quality, 'f', 1, 64)
		}
		days := ""
		if s.Repo.DaysSincePush != nil {
			days = strconv.Itoa(*s.Repo.DaysSincePush)
		}

		row := []string{
			s.Repo.Name,
			s.Repo.HTMLURL,
			s.Repo.LanguageName(),
			strconv.FormatFloat(s.Breakdown.Total, 'f', 1, 64),
			quality,
			strconv.FormatFloat(s.Breakdown.Hard, 'f', 1, 64),
			strconv.FormatFloat(s.Breakdown.Activity, 'f', 1, 64),
			strconv.FormatFloat(s.Breakdown.Popularity, 'f', 1, 64),
			strconv.FormatFloat(s.Breakdown.Health, 'f', 1, 64),
			days,
			strconv.Itoa(s.Repo.Stars),
			strconv.Itoa(s.Repo.Forks),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}
