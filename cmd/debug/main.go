package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"repolens/internal/adapter/cache"
	"repolens/internal/adapter/gemini"
	"repolens/internal/adapter/github"
	"repolens/internal/domain"
)

// 调试入口：对单个仓库走一遍完整的 评分 + LLM 评估 流程，把中间结果全部打印出来
func main() {
	_ = godotenv.Load()

	fullName := flag.String("repo", "", "要调试的仓库，格式 owner/repo")
	noLLM := flag.Bool("no-llm", false, "跳过 LLM 评估")
	flag.Parse()

	owner, repo, ok := splitFullName(*fullName)
	if !ok {
		fmt.Println("⚠️ 请用 -repo owner/name 指定仓库，例如 -repo torvalds/linux")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cacheDir := os.Getenv("CACHE_DIR")
	if cacheDir == "" {
		cacheDir = "cache"
	}
	fileCache := cache.NewFileCache(cacheDir)
	fetcher := github.NewFetcher(os.Getenv("GITHUB_TOKEN"), fileCache, 30*time.Minute)

	fmt.Printf("🔍 调试模式：分析 %s/%s\n", owner, repo)

	// 1. 拉取 owner 的仓库列表，找到目标仓库的元数据
	fmt.Println("📥 正在拉取仓库元数据...")
	repos, err := fetcher.FetchUserRepos(ctx, owner)
	if err != nil {
		log.Fatalf("❌ 拉取失败: %v", err)
	}

	var target *domain.RepoRecord
	for _, r := range repos {
		if strings.EqualFold(r.Name, repo) {
			target = r
			break
		}
	}
	if target == nil {
		// 精确匹配失败时按名字模糊找一下，可能只是拼错了
		if similar := domain.SearchByName(repos, repo); len(similar) > 0 {
			fmt.Printf("💡 没有找到 %s，名字相近的仓库:\n", repo)
			for _, r := range similar {
				fmt.Printf("  - %s\n", r.Name)
			}
		}
		log.Fatalf("❌ 在 %s 的公开仓库中没有找到 %s", owner, repo)
	}

	// 2. 时间特征
	target = domain.EnrichRepo(target, time.Now().UTC())
	fmt.Printf("  stars=%d forks=%d issues=%d archived=%v\n",
		target.Stars, target.Forks, target.OpenIssues, target.Archived)
	if target.DaysSincePush != nil {
		fmt.Printf("  距上次 push %d 天\n", *target.DaysSincePush)
	} else {
		fmt.Println("  push 时间缺失或无法解析")
	}

	// 3. hard 分
	hard := domain.CombineScores(target, nil)
	fmt.Println("\n🧮 Hard 分:")
	fmt.Printf("  活跃 %.1f / 热度 %.1f / 健康 %.1f → hard %.1f\n",
		hard.Activity, hard.Popularity, hard.Health, hard.Hard)

	if *noLLM {
		fmt.Printf("\n✅ 总分 (无 LLM): %.1f\n", hard.Total)
		return
	}

	// 4. LLM 质量评估
	assessor, err := gemini.NewAssessor(ctx, os.Getenv("GEMINI_API_KEY"), os.Getenv("GEMINI_MODEL"), fileCache, 24*time.Hour)
	if err != nil {
		log.Fatalf("❌ AI 初始化失败: %v", err)
	}

	fmt.Println("\n📄 正在抓取 README 和代码样本...")
	readme, files, err := fetcher.FetchRepoSample(ctx, owner, repo)
	if err != nil {
		log.Fatalf("❌ 抓取样本失败: %v", err)
	}
	fmt.Printf("  README %d 字符, 样本文件 %d 个\n", len(readme), len(files))
	for _, f := range files {
		fmt.Printf("    - %s (%d 字符)\n", f.Path, len(f.Content))
	}

	fmt.Println("\n🧠 正在进行 LLM 评估...")
	assessment, err := assessor.AssessRepo(ctx, owner+"/"+repo, readme, files)
	if err != nil {
		log.Fatalf("❌ LLM 评估失败: %v", err)
	}

	fmt.Println("\n================ [ 评估结果 ] ================")
	fmt.Printf("摘要: %s\n", assessment.RepoSummary)
	fmt.Println("优点:")
	for _, s := range assessment.Strengths {
		fmt.Printf("  + %s\n", s)
	}
	fmt.Println("不足:")
	for _, w := range assessment.Weaknesses {
		fmt.Printf("  - %s\n", w)
	}
	fmt.Println("改进建议:")
	for _, i := range assessment.SuggestedImprovements {
		fmt.Printf("  * %s\n", i)
	}
	if assessment.SkillScore != nil {
		fmt.Printf("技术评分: %d/100\n", *assessment.SkillScore)
	} else {
		fmt.Println("技术评分: 缺失")
	}
	if assessment.Notes != "" {
		fmt.Printf("备注: %s\n", assessment.Notes)
	}

	// 5. 带质量信号的总分
	final := domain.CombineScores(target, assessment.QualityValue())
	fmt.Println("==============================================")
	fmt.Printf("✅ 总分: %.1f (hard %.1f", final.Total, final.Hard)
	if final.Quality != nil {
		fmt.Printf(", quality %.1f", *final.Quality)
	}
	fmt.Println(")")
}

func splitFullName(s string) (owner, repo string, ok bool) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
