package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"repolens/internal/adapter/analyzer"
	"repolens/internal/adapter/cache"
	"repolens/internal/adapter/export"
	"repolens/internal/adapter/feishu"
	"repolens/internal/adapter/gemini"
	"repolens/internal/adapter/github"
	"repolens/internal/adapter/repository"
	"repolens/internal/port"
	"repolens/internal/service"
)

const (
	githubCacheTTL = 30 * time.Minute
	llmCacheTTL    = 24 * time.Hour
)

func main() {
	// .env 不存在时静默跳过，环境变量照常生效
	_ = godotenv.Load()

	// 1. 定义命令行参数
	mode := flag.String("mode", "analyze", "运行模式: analyze (分析) / search (搜索) / report (历史报告)")
	user := flag.String("user", "", "要分析的 GitHub 用户名")
	query := flag.String("q", "", "搜索关键词 (仅在 search 模式下有效)")
	interval := flag.Int("interval", 0, "定时执行间隔（分钟），0表示只执行一次")
	concurrency := flag.Int("concurrency", 3, "LLM评估并发数")
	noLLM := flag.Bool("no-llm", false, "跳过 LLM 评估，只计算 hard 分")
	clearCache := flag.Bool("clear-cache", false, "执行前清空本地缓存")
	flag.Parse()

	// 2. 初始化公共依赖
	cacheDir := os.Getenv("CACHE_DIR")
	if cacheDir == "" {
		cacheDir = "cache"
	}
	fileCache := cache.NewFileCache(cacheDir)
	if *clearCache {
		if err := fileCache.Clear(); err != nil {
			log.Printf("⚠️ 清空缓存失败: %v", err)
		} else {
			fmt.Println("🧹 本地缓存已清空")
		}
	}

	dsn := os.Getenv("DATABASE_DSN")
	var store *repository.PostgresRepo
	if dsn != "" {
		var err error
		store, err = repository.NewPostgresRepo(dsn)
		if err != nil {
			log.Fatalf("❌ DB 初始化失败: %v", err)
		}
	} else {
		fmt.Println("ℹ️ 未设置 DATABASE_DSN，评分结果不会入库")
	}

	// 3. 初始化 AI 依赖 (-no-llm 时完全不碰 Gemini，包括 key 校验)
	ctx := context.Background()
	var assessor *gemini.Assessor
	if !*noLLM {
		var err error
		assessor, err = gemini.NewAssessor(ctx, os.Getenv("GEMINI_API_KEY"), os.Getenv("GEMINI_MODEL"), fileCache, llmCacheTTL)
		if err != nil {
			log.Fatalf("❌ AI 初始化失败: %v", err)
		}
	}

	// 4. 组装分析服务
	fetcher := github.NewFetcher(os.Getenv("GITHUB_TOKEN"), fileCache, githubCacheTTL)
	exporter := export.NewFileExporter("reports")

	var notifier *feishu.Notifier
	if webhook := os.Getenv("FEISHU_WEBHOOK"); webhook != "" {
		notifier = feishu.NewNotifier(webhook)
	}

	svc := buildService(fetcher, assessor, store, exporter, notifier, *noLLM)

	// 5. 根据模式分流
	switch *mode {
	case "analyze":
		if *user == "" {
			fmt.Println("⚠️ 请用 -user 指定要分析的 GitHub 用户名")
			os.Exit(1)
		}
		if *interval > 0 {
			runScheduled(svc, *user, *interval, *concurrency)
		} else {
			runOnce(svc, *user, *concurrency)
		}
	case "search":
		runSearch(svc, *query)
	case "report":
		runReport(store)
	default:
		fmt.Println("❌ 未知模式，请使用 -mode=analyze / -mode=search / -mode=report")
		os.Exit(1)
	}
}

// buildService 把各 adapter 装配成分析服务
// store / assessor / notifier 允许为 nil，服务内部按可选依赖处理
func buildService(
	fetcher *github.Fetcher,
	assessor *gemini.Assessor,
	store *repository.PostgresRepo,
	exporter *export.FileExporter,
	notifier *feishu.Notifier,
	noLLM bool,
) *service.AnalysisService {
	var repoAnalyzer *analyzer.RepoAnalyzer
	if assessor != nil {
		repoAnalyzer = analyzer.NewRepoAnalyzer(fetcher, assessor)
	}

	// 有类型指针直接塞进接口字段会导致 nil 接口判断失效，这里逐个拆开处理
	svc := service.NewAnalysisService(
		fetcher,
		nilSafeAnalyzer(repoAnalyzer),
		nilSafeAssessor(assessor),
		nilSafeStore(store),
		exporter,
		nilSafeNotifier(notifier),
	)
	svc.SetSkipLLM(noLLM)
	return svc
}

// 带类型的 nil 指针直接赋给接口参数会变成非 nil 接口，必须显式转换

func nilSafeAnalyzer(a *analyzer.RepoAnalyzer) port.Analyzer {
	if a == nil {
		return nil
	}
	return a
}

func nilSafeAssessor(a *gemini.Assessor) port.Assessor {
	if a == nil {
		return nil
	}
	return a
}

func nilSafeStore(s *repository.PostgresRepo) port.ScoreStore {
	if s == nil {
		return nil
	}
	return s
}

func nilSafeNotifier(n *feishu.Notifier) port.Notifier {
	if n == nil {
		return nil
	}
	return n
}

func runOnce(svc *service.AnalysisService, user string, concurrency int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := svc.AnalyzePortfolio(ctx, user, concurrency); err != nil {
		log.Fatalf("❌ 分析失败: %v", err)
	}
}

// runScheduled 按固定间隔重复分析，Ctrl+C 优雅退出
func runScheduled(svc *service.AnalysisService, user string, interval, concurrency int) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	c := cron.New()
	spec := fmt.Sprintf("@every %dm", interval)
	if _, err := c.AddFunc(spec, func() {
		runOnce(svc, user, concurrency)
	}); err != nil {
		log.Fatalf("❌ 定时任务配置失败: %v", err)
	}

	fmt.Printf("⏰ 定时执行模式已启动，每 %d 分钟执行一次\n", interval)
	fmt.Println("按下 Ctrl+C 可以优雅停止程序")

	// 立即执行一次，再交给调度器
	runOnce(svc, user, concurrency)
	c.Start()

	<-sigChan
	fmt.Println("\n👋 收到停止信号，正在退出...")
	stopCtx := c.Stop()
	<-stopCtx.Done()
}

// --- 搜索模式逻辑 ---
func runSearch(svc *service.AnalysisService, query string) {
	if query == "" {
		fmt.Println("⚠️ 请输入搜索关键词，例如: -q 'websocket' 或 -q '缺少测试'")
		return
	}

	scores, err := svc.Search(context.Background(), query)
	if err != nil {
		log.Fatalf("❌ 搜索失败: %v", err)
	}
	if len(scores) == 0 {
		fmt.Println("📭 没有匹配的历史评分。请先运行 -mode=analyze 分析一个用户！")
		return
	}

	fmt.Printf("🔍 找到 %d 条匹配记录:\n\n", len(scores))
	for _, s := range scores {
		fmt.Printf("  %-40s 总分 %.1f  (run #%d)\n", s.RepoName, s.TotalScore, s.RunID)
		if s.Notes != "" {
			fmt.Printf("    %s\n", s.Notes)
		}
	}
}

// --- 历史报告模式逻辑 ---
func runReport(store *repository.PostgresRepo) {
	if store == nil {
		fmt.Println("⚠️ report 模式需要设置 DATABASE_DSN")
		os.Exit(1)
	}

	ctx := context.Background()
	runs, err := store.RecentRuns(ctx, 10)
	if err != nil {
		log.Fatalf("❌ 读取历史记录失败: %v", err)
	}
	if len(runs) == 0 {
		fmt.Println("📭 数据库是空的。请先运行 -mode=analyze 分析一个用户！")
		return
	}

	fmt.Println("📊 最近的分析记录:")
	for _, run := range runs {
		fmt.Printf("\n▶ run #%d  %s  (%d 个仓库, %s)\n",
			run.ID, run.Username, run.RepoCount, run.CreatedAt.Format("2006-01-02 15:04"))

		scores, err := store.RunScores(ctx, run.ID)
		if err != nil {
			log.Printf("⚠️ 读取 run #%d 的评分失败: %v", run.ID, err)
			continue
		}
		for _, s := range scores {
			fmt.Printf("  %-40s 总分 %5.1f  (活跃 %5.1f / 热度 %5.1f / 健康 %5.1f)\n",
				s.RepoName, s.TotalScore, s.ActivityScore, s.PopularityScore, s.HealthScore)
		}
	}
}
