package domain

import "math"

// avgOf 对存在的值独立求平均，一个都没有时返回 nil
func avgOf(values []*float64) *float64 {
	sum := 0.0
	count := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		count++
	}
	if count == 0 {
		return nil
	}
	avg := round1(sum / float64(count))
	return &avg
}

// AverageScores 按字段独立求平均
// 某个仓库缺失 quality 不会把它从其他字段的平均值里剔除，
// 避免异质缺失造成的除法失真
func AverageScores(scores []ScoreBreakdown) ScoreAverages {
	if len(scores) == 0 {
		return ScoreAverages{}
	}

	n := len(scores)
	activity := make([]*float64, n)
	popularity := make([]*float64, n)
	health := make([]*float64, n)
	hard := make([]*float64, n)
	quality := make([]*float64, n)
	total := make([]*float64, n)

	for i := range scores {
		s := scores[i]
		activity[i] = &s.Activity
		popularity[i] = &s.Popularity
		health[i] = &s.Health
		hard[i] = &s.Hard
		quality[i] = s.Quality
		total[i] = &s.Total
	}

	return ScoreAverages{
		Activity:   avgOf(activity),
		Popularity: avgOf(popularity),
		Health:     avgOf(health),
		Hard:       avgOf(hard),
		Quality:    avgOf(quality),
		Total:      avgOf(total),
	}
}

// ConfidenceScore 批量置信度 (0-100)
// 基础值由批量大小决定，再按 quality 信号覆盖率打折：
// 置信度永远不应该超过批量大小所能支撑的水平
func ConfidenceScore(scores []ScoreBreakdown) int {
	if len(scores) == 0 {
		return 0
	}

	valid := 0
	for _, s := range scores {
		if s.Quality != nil {
			valid++
		}
	}
	pct := float64(valid) / float64(len(scores))

	var base float64
	switch n := len(scores); {
	case n <= 1:
		base = 20
	case n <= 3:
		base = 50
	case n <= 5:
		base = 70
	default:
		base = 90
	}

	return int(math.Floor(base * pct))
}
