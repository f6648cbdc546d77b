package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"repolens/internal/domain"
)

// 文本字段的硬性长度上限 (UI 和数据库都依赖这个契约)
const (
	summaryCharLimit  = 220
	notesCharLimit    = 220
	headlineCharLimit = 90
	recruitCharLimit  = 600
	previewCharLimit  = 300
	bulletCount       = 3
)

// 列表字段不足 3 条时的补位句子，按字段语义区分
const (
	fallbackStrength    = "Not enough evidence in sample to make a confident strength."
	fallbackWeakness    = "Not enough evidence in sample to make a confident weakness."
	fallbackImprovement = "Add a README with setup, usage, and project goals."
	fallbackTopStrength = "Not enough evidence to identify a clear strength."
	fallbackTopRisk     = "Not enough evidence to identify a clear risk."
)

// decodeObject 从模型输出里解出一个 JSON 对象
// 模型偶尔会加 markdown 围栏或多余文字，所以按顺序尝试三种策略：
//  1. 直接解析
//  2. 去掉 ```json / ``` 围栏后解析
//  3. 截取第一个 { 到最后一个 } 之间的子串解析
func decodeObject(raw string) (map[string]any, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil, errors.New("empty response")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err == nil {
		return obj, nil
	}

	stripped := strings.ReplaceAll(cleaned, "```json", "")
	stripped = strings.TrimSpace(strings.ReplaceAll(stripped, "```", ""))
	if err := json.Unmarshal([]byte(stripped), &obj); err == nil {
		return obj, nil
	}

	start := strings.Index(stripped, "{")
	end := strings.LastIndex(stripped, "}")
	if start == -1 || end <= start {
		return nil, errors.New("no JSON object found in model output")
	}
	candidate := stripped[start : end+1]
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, fmt.Errorf("invalid JSON object in model output: %w", err)
	}
	return obj, nil
}

// truncateText 按字符 (rune) 截断，避免在多字节字符中间切断产生乱码
// 这些文本会直接入库和展示，必须保持合法 UTF-8
func truncateText(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// asString 把任意 JSON 值转成字符串
func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// coerceBullets 把列表字段强制成恰好 3 条字符串
// 非列表值整个丢弃 (降级成空列表)，超出 3 条的截掉，不足的用 fallback 补齐
func coerceBullets(v any, fallback string) []string {
	out := make([]string, 0, bulletCount)

	if list, ok := v.([]any); ok {
		for _, item := range list {
			if len(out) >= bulletCount {
				break
			}
			out = append(out, asString(item))
		}
	}

	for len(out) < bulletCount {
		out = append(out, fallback)
	}
	return out
}

// clampSkillScore 把模型给的分数压成 [0,100] 的整数，无法转换时返回 nil
func clampSkillScore(v any) *int {
	var n int
	switch x := v.(type) {
	case float64:
		n = int(x)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}

	if n < 0 {
		n = 0
	}
	if n > 100 {
		n = 100
	}
	return &n
}

// parseAssessment 解析并校验单仓库评估的六字段契约
// 校验后的结果保证：三个列表字段各 3 条、文本字段不超限、分数在 [0,100] 或缺失
func parseAssessment(raw string) (*domain.QualityAssessment, error) {
	data, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	return &domain.QualityAssessment{
		RepoSummary:           truncateText(asString(data["repo_summary"]), summaryCharLimit),
		Strengths:             coerceBullets(data["strengths"], fallbackStrength),
		Weaknesses:            coerceBullets(data["weaknesses"], fallbackWeakness),
		SuggestedImprovements: coerceBullets(data["suggested_improvements"], fallbackImprovement),
		SkillScore:            clampSkillScore(data["skill_score"]),
		Notes:                 truncateText(asString(data["notes"]), notesCharLimit),
		RawOutput:             raw,
	}, nil
}

// parsePortfolio 解析并校验作品集评估的四字段契约
func parsePortfolio(raw string) (*domain.PortfolioAssessment, error) {
	data, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	return &domain.PortfolioAssessment{
		Headline:         truncateText(asString(data["headline"]), headlineCharLimit),
		RecruiterSummary: truncateText(asString(data["recruiter_summary"]), recruitCharLimit),
		TopStrengths:     coerceBullets(data["top_strengths"], fallbackTopStrength),
		TopRisks:         coerceBullets(data["top_risks"], fallbackTopRisk),
		RawOutput:        raw,
	}, nil
}
