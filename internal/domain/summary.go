package domain

import (
	"sort"
	"strings"
)

// staleSentinel 缺失 push 时间时用的排序哨兵，保证排在最后
const staleSentinel = 1_000_000_000

// PortfolioStats 作品集概览统计
type PortfolioStats struct {
	RepoCount       int     `json:"repo_count"`
	TotalStars      int     `json:"total_stars"`
	AvgStars        float64 `json:"avg_stars"`
	MinStars        int     `json:"min_stars"`
	MaxStars        int     `json:"max_stars"`
	Active30d       int     `json:"active_30d"`
	Active90d       int     `json:"active_90d"`
	Active365d      int     `json:"active_365d"`
	Stale365dPlus   int     `json:"stale_365d_plus"`
	ArchivedCount   int     `json:"archived_count"`
	LicensedCount   int     `json:"licensed_count"`
	ReposWithIssues int     `json:"repos_with_issues"`
	TotalOpenIssues int     `json:"total_open_issues"`
}

// LanguageCount 单语言的仓库数量
type LanguageCount struct {
	Language  string `json:"language"`
	RepoCount int    `json:"repo_count"`
}

// ComputeStats 汇总已 enrich 的仓库列表，空列表返回全零结果
func ComputeStats(repos []*RepoRecord) PortfolioStats {
	stats := PortfolioStats{}
	if len(repos) == 0 {
		return stats
	}

	minStars := repos[0].Stars
	maxStars := repos[0].Stars

	for _, r := range repos {
		stats.TotalStars += r.Stars
		if r.Stars < minStars {
			minStars = r.Stars
		}
		if r.Stars > maxStars {
			maxStars = r.Stars
		}

		if r.Active30 {
			stats.Active30d++
		}
		if r.Active90 {
			stats.Active90d++
		}
		if r.Active365 {
			stats.Active365d++
		}

		// 陈旧判定：push 时间缺失 或 超过 365 天
		if r.DaysSincePush == nil || *r.DaysSincePush > 365 {
			stats.Stale365dPlus++
		}

		if r.Archived {
			stats.ArchivedCount++
		}
		if r.License != nil {
			stats.LicensedCount++
		}

		stats.TotalOpenIssues += r.OpenIssues
		if r.OpenIssues > 0 {
			stats.ReposWithIssues++
		}
	}

	stats.RepoCount = len(repos)
	stats.AvgStars = float64(stats.TotalStars) / float64(stats.RepoCount)
	stats.MinStars = minStars
	stats.MaxStars = maxStars
	return stats
}

// TopByStars 按 star 降序取前 n 个
func TopByStars(repos []*RepoRecord, n int) []*RepoRecord {
	sorted := make([]*RepoRecord, len(repos))
	copy(sorted, repos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Stars > sorted[j].Stars
	})
	return truncateRepos(sorted, n)
}

// TopByForks 按 fork 降序取前 n 个
func TopByForks(repos []*RepoRecord, n int) []*RepoRecord {
	sorted := make([]*RepoRecord, len(repos))
	copy(sorted, repos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Forks > sorted[j].Forks
	})
	return truncateRepos(sorted, n)
}

// TopByRecentPush 按最近 push 排序取前 n 个
// days 为 nil 时用大哨兵值，让 unknown 的仓库排在最后
func TopByRecentPush(repos []*RepoRecord, n int) []*RepoRecord {
	sorted := make([]*RepoRecord, len(repos))
	copy(sorted, repos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return pushAge(sorted[i]) < pushAge(sorted[j])
	})
	return truncateRepos(sorted, n)
}

func pushAge(r *RepoRecord) int {
	if r.DaysSincePush == nil {
		return staleSentinel
	}
	return *r.DaysSincePush
}

// TopLanguages 统计每种语言的仓库数并取前 n 个，language 为 null 的跳过
func TopLanguages(repos []*RepoRecord, n int) []LanguageCount {
	counts := map[string]int{}
	for _, r := range repos {
		if r.Language == nil {
			continue
		}
		counts[*r.Language]++
	}

	rows := make([]LanguageCount, 0, len(counts))
	for lang, count := range counts {
		rows = append(rows, LanguageCount{Language: lang, RepoCount: count})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].RepoCount != rows[j].RepoCount {
			return rows[i].RepoCount > rows[j].RepoCount
		}
		return rows[i].Language < rows[j].Language
	})

	if n < len(rows) {
		rows = rows[:n]
	}
	return rows
}

// SearchByName 按仓库名做大小写不敏感的包含匹配
func SearchByName(repos []*RepoRecord, keyword string) []*RepoRecord {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	var matches []*RepoRecord
	for _, r := range repos {
		if strings.Contains(strings.ToLower(r.Name), keyword) {
			matches = append(matches, r)
		}
	}
	return matches
}

func truncateRepos(repos []*RepoRecord, n int) []*RepoRecord {
	if n < len(repos) {
		return repos[:n]
	}
	return repos
}
