package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"repolens/internal/adapter/cache"
	"repolens/internal/adapter/filter"
	"repolens/internal/common"
	"repolens/internal/domain"
	"repolens/internal/port"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultModel = "gemini-2.5-flash-lite"

	// llmNamespace LLM 评估结果的缓存命名空间
	llmNamespace = "llm"

	// 作品集评估最多带上多少个仓库的投影
	maxPortfolioRepos = 12

	// 评估最多尝试 3 次：首次 + 2 次重试，退避 1s、2s
	assessRetries = 2
)

// Assessor 实现了 port.Assessor 接口
// 对不可靠的外部 LLM 强制执行严格的输出契约：重试、解析修复、校验、补位
type Assessor struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string

	cacheStore port.Cache // 为 nil 时不缓存
	cacheTTL   time.Duration

	// generate 实际的 LLM 调用，便于测试注入假实现
	generate func(ctx context.Context, prompt string) (string, error)

	// retryOpts 重试策略，测试时注入假 sleep 以免真实等待
	retryOpts []common.Option
}

// NewAssessor 创建 LLM 评估器
// apiKey 为空立即返回配置错误，不发起任何网络请求
func NewAssessor(ctx context.Context, apiKey, modelName string, cacheStore port.Cache, cacheTTL time.Duration) (*Assessor, error) {
	if apiKey == "" {
		return nil, common.NewError(common.ErrCodeConfig,
			"缺少 GEMINI_API_KEY，请在环境变量或 .env 中配置")
	}
	if modelName == "" {
		modelName = defaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, common.WrapError(common.ErrCodeAIProcessing, "初始化 Gemini 客户端失败", err)
	}

	model := client.GenerativeModel(modelName)
	// 强制要求返回 JSON，降低解析错误的概率
	model.ResponseMIMEType = "application/json"
	// 低随机性，输出更稳定
	model.SetTemperature(0.2)
	model.SetMaxOutputTokens(900)

	a := &Assessor{
		client:     client,
		model:      model,
		modelName:  modelName,
		cacheStore: cacheStore,
		cacheTTL:   cacheTTL,
		retryOpts: []common.Option{
			common.WithMaxRetries(assessRetries),
			common.WithInitialDelay(time.Second),
			common.WithMultiplier(2),
		},
	}
	a.generate = a.generateContent

	return a, nil
}

// generateContent 调一次 Gemini 并取出文本部分
func (a *Assessor) generateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("LLM 调用失败: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("LLM 返回内容为空")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("LLM 返回格式错误")
	}
	return string(text), nil
}

// AssessRepo 评估单个仓库
// 先查缓存；miss 时走 重试→解析→校验 协议；全部失败时带上原文预览返回错误
// (空评估会污染下游评分合成，所以失败必须显式上报，绝不静默默认)
func (a *Assessor) AssessRepo(ctx context.Context, fullName, readme string, files []domain.FileSample) (*domain.QualityAssessment, error) {
	cleanReadme, cleanFiles := filter.CleanSample(readme, files)

	key := cache.AssessmentKey(fullName, a.modelName, cleanReadme, cleanFiles)
	if a.cacheStore != nil {
		var cached domain.QualityAssessment
		if a.cacheStore.Get(llmNamespace, key, a.cacheTTL, &cached) {
			return &cached, nil
		}
	}

	prompt := buildRepoPrompt(fullName, cleanReadme, cleanFiles)

	result, err := a.callWithRetry(ctx, prompt, func(raw string) error {
		_, parseErr := parseAssessment(raw)
		return parseErr
	})
	if err != nil {
		return nil, err
	}

	assessment, _ := parseAssessment(result)
	if a.cacheStore != nil {
		a.cacheStore.Set(llmNamespace, key, assessment)
	}
	return assessment, nil
}

// AssessPortfolio 评估整个作品集
// 输入是已评分仓库的压缩投影 (名称、语言、总分、前 2 条优缺点)，不是原始文件
func (a *Assessor) AssessPortfolio(ctx context.Context, username string, scored []*domain.ScoredRepo) (*domain.PortfolioAssessment, error) {
	prompt := buildPortfolioPrompt(username, scored)

	result, err := a.callWithRetry(ctx, prompt, func(raw string) error {
		_, parseErr := parsePortfolio(raw)
		return parseErr
	})
	if err != nil {
		return nil, err
	}

	return parsePortfolio(result)
}

// callWithRetry 统一的 调用→解析 重试循环
// 网络失败和解析失败同等对待：都消耗一次尝试，退避后再来
func (a *Assessor) callWithRetry(ctx context.Context, prompt string, validate func(raw string) error) (string, error) {
	var lastRaw string
	var result string

	err := common.Do(ctx, func() error {
		raw, genErr := a.generate(ctx, prompt)
		if genErr != nil {
			return genErr
		}
		lastRaw = raw

		if parseErr := validate(raw); parseErr != nil {
			return parseErr
		}
		result = raw
		return nil
	}, a.retryOpts...)

	if err != nil {
		preview := truncateText(lastRaw, previewCharLimit)
		return "", common.WrapError(common.ErrCodeAIProcessing,
			fmt.Sprintf("LLM 评估重试耗尽，原文预览: %q", preview), err)
	}
	return result, nil
}

// buildRepoPrompt 构造单仓库评估的 Prompt，严格限定六字段 JSON 输出
func buildRepoPrompt(fullName, readme string, files []domain.FileSample) string {
	filesJSON, _ := json.MarshalIndent(files, "", "  ")

	return fmt.Sprintf(`You are a senior software engineer evaluating a GitHub repo for recruiter-facing insight.
Only use the README + file samples below. Do not invent details.

Return ONLY valid JSON (no markdown, no extra text).
The JSON MUST have exactly these keys:
- repo_summary (string, <= 220 chars)
- strengths (array of 3 strings)
- weaknesses (array of 3 strings)
- suggested_improvements (array of 3 strings)
- skill_score (integer 0-100)
- notes (string, <= 220 chars)

Repo: %s

README:
%s

FILES (sample):
%s`, fullName, readme, string(filesJSON))
}

// buildPortfolioPrompt 构造作品集评估的 Prompt
func buildPortfolioPrompt(username string, scored []*domain.ScoredRepo) string {
	type compactRepo struct {
		Repo       string   `json:"repo"`
		Language   string   `json:"language"`
		TotalScore float64  `json:"total_score"`
		Strengths  []string `json:"strengths"`
		Weaknesses []string `json:"weaknesses"`
	}

	compact := make([]compactRepo, 0, maxPortfolioRepos)
	for _, s := range scored {
		if len(compact) >= maxPortfolioRepos {
			break
		}
		entry := compactRepo{
			Repo:       s.Repo.Name,
			Language:   s.Repo.LanguageName(),
			TotalScore: s.Breakdown.Total,
		}
		if s.Assessment != nil {
			entry.Strengths = firstN(s.Assessment.Strengths, 2)
			entry.Weaknesses = firstN(s.Assessment.Weaknesses, 2)
		}
		compact = append(compact, entry)
	}

	compactJSON, _ := json.MarshalIndent(compact, "", "  ")

	return fmt.Sprintf(`You are writing a recruiter-facing portfolio summary based on GitHub repo evaluation results.

Return ONLY valid JSON with exactly these keys:
- recruiter_summary (string, 3-5 sentences, <= 600 chars)
- headline (string, <= 90 chars)
- top_strengths (array of 3 strings)
- top_risks (array of 3 strings)

GitHub username: %s

Scored repo signals:
%s`, username, string(compactJSON))
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
