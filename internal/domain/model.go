package domain

import (
	"strings"
	"time"
)

// RepoRecord 代表一个 GitHub 仓库的原始元数据 + 派生字段
// 原始字段来自 GitHub API，派生字段由 EnrichRepos 计算后附加
type RepoRecord struct {
	// 基础信息 (来自 GitHub)
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"` // 例如 "gohugoio/hugo"
	HTMLURL     string  `json:"html_url"`
	Description string  `json:"description"`
	Language    *string `json:"language"` // 可能为 null
	Stars       int     `json:"stargazers_count"`
	Forks       int     `json:"forks_count"`
	OpenIssues  int     `json:"open_issues_count"`
	SizeKB      int     `json:"size"`
	Archived    bool    `json:"archived"`
	License     *string `json:"license_name"` // license.name，可能为 null

	// GitHub 时间戳原文 (ISO-8601, Z 后缀)，缺失时为空串
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	PushedAt  string `json:"pushed_at"`

	// --- 派生字段 (EnrichRepos 填充，不回写原始记录) ---

	// 最后一次 push 的绝对时间，解析失败时为 nil
	PushedTime *time.Time `json:"pushed_dt,omitempty"`

	// 距离最后一次 push 的整数天数，nil 表示 unknown
	// 不变量: 仅当 pushed_at 缺失或无法解析时为 nil
	DaysSincePush *int `json:"days_since_push,omitempty"`

	// 活跃窗口标记
	Active30  bool `json:"is_active_30"`
	Active90  bool `json:"is_active_90"`
	Active365 bool `json:"is_active_365"`
}

// LanguageName 返回语言名，null 时返回空串
func (r *RepoRecord) LanguageName() string {
	if r.Language == nil {
		return ""
	}
	return *r.Language
}

// FileSample 是发给 LLM 的单个文件样本
type FileSample struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ScoreBreakdown 单仓库评分结果，所有分数都在 [0, 100] 区间内
// Quality 为 nil 表示没有 LLM 质量信号 (缺失 != 0 分)
type ScoreBreakdown struct {
	Activity   float64  `json:"activity_score"`
	Popularity float64  `json:"popularity_score"`
	Health     float64  `json:"health_score"`
	Hard       float64  `json:"hard_score"`
	Quality    *float64 `json:"llm_skill_score"`
	Total      float64  `json:"total_score"`
}

// QualityAssessment 是 LLM 对单个仓库的结构化评估结果
// 不变量: 校验之后三个列表字段各自恰好包含 3 条
type QualityAssessment struct {
	RepoSummary           string   `json:"repo_summary"`
	Strengths             []string `json:"strengths"`
	Weaknesses            []string `json:"weaknesses"`
	SuggestedImprovements []string `json:"suggested_improvements"`
	SkillScore            *int     `json:"skill_score"` // nil 表示模型未给出可用分数
	Notes                 string   `json:"notes"`
	RawOutput             string   `json:"raw_output"` // 仅用于诊断
}

// QualityValue 把技能分转成评分引擎需要的 *float64
func (q *QualityAssessment) QualityValue() *float64 {
	if q == nil || q.SkillScore == nil {
		return nil
	}
	v := float64(*q.SkillScore)
	return &v
}

// PortfolioAssessment 是 LLM 对整个作品集的评估结果
type PortfolioAssessment struct {
	Headline         string   `json:"headline"`
	RecruiterSummary string   `json:"recruiter_summary"`
	TopStrengths     []string `json:"top_strengths"`
	TopRisks         []string `json:"top_risks"`
	RawOutput        string   `json:"raw_output"`
}

// ScoredRepo 把仓库记录、评分和 LLM 评估绑在一起
type ScoredRepo struct {
	Repo       *RepoRecord
	Breakdown  ScoreBreakdown
	Assessment *QualityAssessment // LLM 失败或跳过时为 nil
}

// ScoreAverages 批量平均值，按字段独立统计
// 某字段在所有仓库上都缺失时为 nil
type ScoreAverages struct {
	Activity   *float64 `json:"activity_score"`
	Popularity *float64 `json:"popularity_score"`
	Health     *float64 `json:"health_score"`
	Hard       *float64 `json:"hard_score"`
	Quality    *float64 `json:"llm_skill_score"`
	Total      *float64 `json:"total_score"`
}

// BatchResult 一次完整分析的产出
type BatchResult struct {
	Username   string
	Repos      []*ScoredRepo        // 保持输入顺序
	Averages   ScoreAverages
	Confidence int                  // [0, 100]
	Portfolio  *PortfolioAssessment // 可选，LLM 失败时为 nil
	RunID      uint                 // 入库后的 run id，0 表示未入库
}

// Run 一次批量分析的数据库记录
type Run struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	Username  string    `json:"username"`
	RepoCount int       `json:"repo_count"`
}

// RepoScore 单仓库评分的数据库记录，strengths/weaknesses 按行拼接存储
type RepoScore struct {
	ID              uint     `json:"id" gorm:"primaryKey"`
	RunID           uint     `json:"run_id" gorm:"index"`
	RepoName        string   `json:"repo_name"`
	RepoURL         string   `json:"repo_url"`
	Language        string   `json:"language"`
	TotalScore      float64  `json:"total_score"`
	LLMSkillScore   *float64 `json:"llm_skill_score"`
	HardScore       float64  `json:"hard_score"`
	ActivityScore   float64  `json:"activity_score"`
	PopularityScore float64  `json:"popularity_score"`
	HealthScore     float64  `json:"health_score"`
	Strengths       string   `json:"strengths" gorm:"type:text"`
	Weaknesses      string   `json:"weaknesses" gorm:"type:text"`
	Notes           string   `json:"notes" gorm:"type:text"`
}

// NewRepoScore 把评分结果压平成一条数据库记录
func NewRepoScore(runID uint, s *ScoredRepo) *RepoScore {
	row := &RepoScore{
		RunID:           runID,
		RepoName:        s.Repo.Name,
		RepoURL:         s.Repo.HTMLURL,
		Language:        s.Repo.LanguageName(),
		TotalScore:      s.Breakdown.Total,
		LLMSkillScore:   s.Breakdown.Quality,
		HardScore:       s.Breakdown.Hard,
		ActivityScore:   s.Breakdown.Activity,
		PopularityScore: s.Breakdown.Popularity,
		HealthScore:     s.Breakdown.Health,
	}
	if s.Assessment != nil {
		row.Strengths = strings.Join(s.Assessment.Strengths, "\n")
		row.Weaknesses = strings.Join(s.Assessment.Weaknesses, "\n")
		row.Notes = s.Assessment.Notes
	}
	return row
}
