package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActivityScore(t *testing.T) {
	tests := []struct {
		name string
		days *int
		want float64
	}{
		{"未知视为不活跃", nil, 0},
		{"0 天", intPtr(0), 100},
		{"7 天边界", intPtr(7), 100},
		{"8 天", intPtr(8), 85},
		{"30 天边界", intPtr(30), 85},
		{"31 天", intPtr(31), 70},
		{"90 天边界", intPtr(90), 70},
		{"91 天", intPtr(91), 45},
		{"365 天边界", intPtr(365), 45},
		{"366 天", intPtr(366), 20},
		{"十年", intPtr(3650), 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ActivityScore(tt.days))
		})
	}
}

func TestPopularityScore(t *testing.T) {
	assert.Equal(t, 0.0, PopularityScore(0, 0))

	// star/fork 单调不减
	assert.Greater(t, PopularityScore(10, 0), PopularityScore(1, 0))
	assert.Greater(t, PopularityScore(0, 10), PopularityScore(0, 1))
	assert.GreaterOrEqual(t, PopularityScore(100, 100), PopularityScore(100, 99))

	// 超大数值被 clamp 在 100
	assert.Equal(t, 100.0, PopularityScore(1_000_000, 1_000_000))

	// 负数视为 0
	assert.Equal(t, 0.0, PopularityScore(-5, -5))
}

func TestHealthScore(t *testing.T) {
	tests := []struct {
		name     string
		issues   int
		archived bool
		want     float64
	}{
		{"无 issue 未归档", 0, false, 85},
		{"归档", 0, true, 60},
		{"少量 issue", 4, false, 79},
		{"issue 扣分封顶", 100, false, 60},
		{"归档加 issue 封顶", 100, true, 35},
		{"负 issue 视为 0", -3, false, 85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HealthScore(tt.issues, tt.archived))
		})
	}
}

func TestCombineScoresWithoutQuality(t *testing.T) {
	r := &RepoRecord{
		Stars:         0,
		Forks:         0,
		OpenIssues:    0,
		DaysSincePush: intPtr(5),
	}

	b := CombineScores(r, nil)
	assert.Equal(t, 100.0, b.Activity)
	assert.Equal(t, 0.0, b.Popularity)
	assert.Equal(t, 85.0, b.Health)
	// 0.45*100 + 0.35*0 + 0.20*85 = 62
	assert.Equal(t, 62.0, b.Hard)
	assert.Nil(t, b.Quality)
	// 无质量信号时 total 就是 hard
	assert.Equal(t, b.Hard, b.Total)
}

func TestCombineScoresWithQuality(t *testing.T) {
	r := &RepoRecord{DaysSincePush: intPtr(5)}

	b := CombineScores(r, f64Ptr(80))
	assert.NotNil(t, b.Quality)
	assert.Equal(t, 80.0, *b.Quality)
	// 0.35*62 + 0.65*80 = 21.7 + 52 = 73.7
	assert.Equal(t, 73.7, b.Total)
}

func TestCombineScoresClampsQuality(t *testing.T) {
	r := &RepoRecord{DaysSincePush: intPtr(5)}

	high := CombineScores(r, f64Ptr(250))
	assert.Equal(t, 100.0, *high.Quality)

	low := CombineScores(r, f64Ptr(-10))
	assert.Equal(t, 0.0, *low.Quality)
	// 0.35*62 + 0.65*0 = 21.7
	assert.Equal(t, 21.7, low.Total)
}

func TestCombineScoresIsDeterministic(t *testing.T) {
	r := &RepoRecord{
		Stars:         123,
		Forks:         45,
		OpenIssues:    7,
		DaysSincePush: intPtr(40),
	}

	first := CombineScores(r, f64Ptr(66))
	second := CombineScores(r, f64Ptr(66))
	assert.Equal(t, first, second)
}

func TestCombineScoresRoundsToOneDecimal(t *testing.T) {
	r := &RepoRecord{
		Stars:         3,
		Forks:         1,
		DaysSincePush: intPtr(100),
	}

	b := CombineScores(r, f64Ptr(77))
	for _, v := range []float64{b.Activity, b.Popularity, b.Health, b.Hard, *b.Quality, b.Total} {
		assert.Equal(t, round1(v), v)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1, 0, 100))
	assert.Equal(t, 100.0, Clamp(101, 0, 100))
	assert.Equal(t, 50.0, Clamp(50, 0, 100))
}
