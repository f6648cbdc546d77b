package domain

import "math"

// 评分权重：改权重只需要动这里
const (
	weightActivity   = 0.45
	weightPopularity = 0.35
	weightHealth     = 0.20

	// total = 0.35*hard + 0.65*quality (质量信号存在时)
	// LLM 信号比元数据代理更直接地反映代码质量，所以权重更高
	weightHardInTotal    = 0.35
	weightQualityInTotal = 0.65
)

// Clamp 把数值夹在 [lo, hi] 区间内
// 所有评分都保证落在 [0, 100]，防止异常值弄坏图表和数据库
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// round1 保留一位小数
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// ActivityScore 活跃度评分 (0-100)，push 越新分越高
// days 为 nil (unknown) 时视为完全不活跃，得 0 分
// 阶梯函数而不是连续函数：对招聘场景来说可解释性比平滑更重要
func ActivityScore(days *int) float64 {
	if days == nil {
		return 0
	}

	d := *days
	switch {
	case d <= 7:
		return 100
	case d <= 30:
		return 85
	case d <= 90:
		return 70
	case d <= 365:
		return 45
	default:
		return 20
	}
}

// PopularityScore 人气评分 (0-100)，对 star/fork 做对数压缩
// star 分布极度偏斜，log1p 让 0→10 star 有感知、1000→2000 star 影响变小
func PopularityScore(stars, forks int) float64 {
	s := stars
	if s < 0 {
		s = 0
	}
	f := forks
	if f < 0 {
		f = 0
	}

	raw := math.Log1p(float64(s))*18 + math.Log1p(float64(f))*14

	return Clamp(raw, 0, 100)
}

// HealthScore 健康度评分 (0-100)
// 基线 85；归档扣 25 (强信号)；open issues 扣 min(25, issues*1.5)
func HealthScore(openIssues int, archived bool) float64 {
	issues := openIssues
	if issues < 0 {
		issues = 0
	}

	score := 85.0
	if archived {
		score -= 25
	}
	if issues > 0 {
		score -= math.Min(25, float64(issues)*1.5)
	}

	return Clamp(score, 0, 100)
}

// CombineScores 把各项子分合成单仓库评分结果
// quality 为 nil 时 total 就是 hard 分；否则 LLM 信号主导混合
// 输出全部保留一位小数
func CombineScores(r *RepoRecord, quality *float64) ScoreBreakdown {
	a := ActivityScore(r.DaysSincePush)
	p := PopularityScore(r.Stars, r.Forks)
	h := HealthScore(r.OpenIssues, r.Archived)

	// 有界输入的凸组合，不需要再 clamp
	hard := weightActivity*a + weightPopularity*p + weightHealth*h

	breakdown := ScoreBreakdown{
		Activity:   round1(a),
		Popularity: round1(p),
		Health:     round1(h),
		Hard:       round1(hard),
	}

	if quality == nil {
		breakdown.Total = round1(hard)
		return breakdown
	}

	q := Clamp(*quality, 0, 100)
	qr := round1(q)
	breakdown.Quality = &qr
	breakdown.Total = round1(weightHardInTotal*hard + weightQualityInTotal*q)
	return breakdown
}
