package domain

import (
	"math"
	"time"
)

// ParseGitHubTime 解析 GitHub 的 ISO-8601 时间戳 (例如 "2024-01-01T12:34:56Z")
// 缺失或无法解析时返回 nil，绝不报错
func ParseGitHubTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// daysSince 计算距今整数天数 (向下取整)，t 为 nil 时返回 nil
func daysSince(t *time.Time, now time.Time) *int {
	if t == nil {
		return nil
	}
	delta := now.UTC().Sub(t.UTC())
	d := int(math.Floor(delta.Seconds() / 86400.0))
	return &d
}

// EnrichRepo 返回附加了派生时间字段的副本，不修改入参
func EnrichRepo(r *RepoRecord, now time.Time) *RepoRecord {
	enriched := *r // 浅拷贝即可，派生字段全部重新赋值

	enriched.PushedTime = ParseGitHubTime(r.PushedAt)
	enriched.DaysSincePush = daysSince(enriched.PushedTime, now)

	days := enriched.DaysSincePush
	enriched.Active30 = days != nil && *days <= 30
	enriched.Active90 = days != nil && *days <= 90
	enriched.Active365 = days != nil && *days <= 365

	return &enriched
}

// EnrichRepos 批量版本，保持输入顺序
func EnrichRepos(repos []*RepoRecord, now time.Time) []*RepoRecord {
	enriched := make([]*RepoRecord, 0, len(repos))
	for _, r := range repos {
		enriched = append(enriched, EnrichRepo(r, now))
	}
	return enriched
}
