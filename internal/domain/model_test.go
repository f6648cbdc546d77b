package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int          { return &v }
func strPtr(v string) *string   { return &v }
func f64Ptr(v float64) *float64 { return &v }

func TestLanguageName(t *testing.T) {
	withLang := &RepoRecord{Language: strPtr("Go")}
	assert.Equal(t, "Go", withLang.LanguageName())

	noLang := &RepoRecord{}
	assert.Equal(t, "", noLang.LanguageName())
}

func TestQualityValue(t *testing.T) {
	var nilAssessment *QualityAssessment
	assert.Nil(t, nilAssessment.QualityValue())

	noScore := &QualityAssessment{}
	assert.Nil(t, noScore.QualityValue())

	withScore := &QualityAssessment{SkillScore: intPtr(72)}
	v := withScore.QualityValue()
	assert.NotNil(t, v)
	assert.Equal(t, 72.0, *v)
}

func TestNewRepoScore(t *testing.T) {
	scored := &ScoredRepo{
		Repo: &RepoRecord{
			Name:     "demo",
			HTMLURL:  "https://github.com/alice/demo",
			Language: strPtr("Go"),
		},
		Breakdown: ScoreBreakdown{
			Activity:   85,
			Popularity: 40.2,
			Health:     85,
			Hard:       69.3,
			Quality:    f64Ptr(70),
			Total:      69.8,
		},
		Assessment: &QualityAssessment{
			Strengths:  []string{"清晰的分层", "有 CI", "文档完整"},
			Weaknesses: []string{"缺少测试", "错误处理粗糙", "没有版本发布"},
			Notes:      "样本有限",
		},
	}

	row := NewRepoScore(7, scored)
	assert.Equal(t, uint(7), row.RunID)
	assert.Equal(t, "demo", row.RepoName)
	assert.Equal(t, "https://github.com/alice/demo", row.RepoURL)
	assert.Equal(t, "Go", row.Language)
	assert.Equal(t, 69.8, row.TotalScore)
	assert.Equal(t, 70.0, *row.LLMSkillScore)
	assert.Equal(t, "清晰的分层\n有 CI\n文档完整", row.Strengths)
	assert.Equal(t, "缺少测试\n错误处理粗糙\n没有版本发布", row.Weaknesses)
	assert.Equal(t, "样本有限", row.Notes)
}

func TestNewRepoScoreWithoutAssessment(t *testing.T) {
	scored := &ScoredRepo{
		Repo:      &RepoRecord{Name: "bare"},
		Breakdown: ScoreBreakdown{Total: 52.1, Hard: 52.1},
	}

	row := NewRepoScore(1, scored)
	assert.Nil(t, row.LLMSkillScore)
	assert.Empty(t, row.Strengths)
	assert.Empty(t, row.Weaknesses)
	assert.Empty(t, row.Notes)
}
