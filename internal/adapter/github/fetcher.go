package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"repolens/internal/adapter/cache"
	"repolens/internal/common"
	"repolens/internal/domain"
	"repolens/internal/port"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
)

const (
	// githubNamespace 原始 API 结果的缓存命名空间
	githubNamespace = "github"

	perPage  = 100
	maxPages = 10

	// 采样限制：跳过超大文件，最多下载 8 个
	maxBlobSize    = 200_000
	maxSampleFiles = 8
)

// 值得下载的文本/代码文件后缀
var sampleExtensions = []string{
	".go", ".py", ".md", ".txt", ".json", ".yml", ".yaml",
	".toml", ".ini", ".cfg", ".js", ".ts", ".html", ".css",
}

// repoSample 打包 README 和文件样本，方便整体缓存
type repoSample struct {
	Readme string              `json:"readme"`
	Files  []domain.FileSample `json:"files"`
}

// Fetcher 实现了 port.Fetcher 接口
type Fetcher struct {
	client     *github.Client
	cacheStore port.Cache // 为 nil 时不缓存
	cacheTTL   time.Duration
}

// NewFetcher 初始化 GitHub 客户端
// token 为空时匿名访问，限制 60次/小时
func NewFetcher(token string, cacheStore port.Cache, cacheTTL time.Duration) *Fetcher {
	var client *github.Client

	if token == "" {
		client = github.NewClient(nil)
	} else {
		ctx := context.Background()
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(ctx, ts)
		client = github.NewClient(tc)
	}

	return &Fetcher{
		client:     client,
		cacheStore: cacheStore,
		cacheTTL:   cacheTTL,
	}
}

// FetchUserRepos 分页拉取用户的全部公开仓库 (按 push 时间倒序)
func (f *Fetcher) FetchUserRepos(ctx context.Context, username string) ([]*domain.RepoRecord, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, common.NewError(common.ErrCodeInvalidInput, "username 不能为空")
	}

	key := cache.RequestKey("GET", "users/"+username+"/repos", map[string]string{
		"per_page": "100",
		"sort":     "pushed",
	})
	if f.cacheStore != nil {
		var cached []*domain.RepoRecord
		if f.cacheStore.Get(githubNamespace, key, f.cacheTTL, &cached) {
			return cached, nil
		}
	}

	opts := &github.RepositoryListOptions{
		Sort:      "pushed",
		Direction: "desc",
		ListOptions: github.ListOptions{
			PerPage: perPage,
		},
	}

	var all []*domain.RepoRecord
	for page := 1; page <= maxPages; page++ {
		opts.Page = page

		var repos []*github.Repository
		var resp *github.Response
		err := common.Do(ctx, func() error {
			var apiErr error
			repos, resp, apiErr = f.client.Repositories.List(ctx, username, opts)
			return apiErr
		},
			common.WithMaxRetries(3),
			common.WithInitialDelay(time.Second),
		)
		if err != nil {
			return nil, common.WrapError(common.ErrCodeGitHubAPI,
				fmt.Sprintf("拉取 %s 的仓库列表失败 (第 %d 页)", username, page), err)
		}

		for _, item := range repos {
			all = append(all, toRecord(item))
		}

		// 没有下一页就结束
		if resp == nil || resp.NextPage == 0 {
			break
		}
	}

	if f.cacheStore != nil {
		f.cacheStore.Set(githubNamespace, key, all)
	}
	return all, nil
}

// FetchRepoSample 拉取 README + 少量代码文件
// 策略：仓库元数据定位默认分支 → readme 接口 → 递归 git tree 选文件 → contents 接口下载
// 任何一步失败都尽量返回已有的部分，绝不让采样失败拖垮整个分析
func (f *Fetcher) FetchRepoSample(ctx context.Context, owner, repo string) (string, []domain.FileSample, error) {
	owner = strings.TrimSpace(owner)
	repo = strings.TrimSpace(repo)
	if owner == "" || repo == "" {
		return "", nil, common.NewError(common.ErrCodeInvalidInput, "owner/repo 不能为空")
	}

	key := cache.RequestKey("GET", "repos/"+owner+"/"+repo+"/sample", nil)
	if f.cacheStore != nil {
		var cached repoSample
		if f.cacheStore.Get(githubNamespace, key, f.cacheTTL, &cached) {
			return cached.Readme, cached.Files, nil
		}
	}

	// 1. 仓库元数据 (拿默认分支)
	var repoData *github.Repository
	err := common.Do(ctx, func() error {
		var apiErr error
		repoData, _, apiErr = f.client.Repositories.Get(ctx, owner, repo)
		return apiErr
	}, common.WithMaxRetries(2), common.WithInitialDelay(time.Second))
	if err != nil {
		return "", nil, common.WrapError(common.ErrCodeGitHubAPI,
			fmt.Sprintf("获取仓库 %s/%s 元数据失败", owner, repo), err)
	}

	defaultBranch := repoData.GetDefaultBranch()
	if defaultBranch == "" {
		defaultBranch = "main"
	}

	// 2. README (尽力而为)
	readme := f.fetchReadme(ctx, owner, repo)

	// 3. 递归 git tree 选出值得采样的文件
	paths := f.pickSamplePaths(ctx, owner, repo, defaultBranch)

	// 4. 逐个下载文件内容，单个失败直接跳过
	var files []domain.FileSample
	for _, path := range paths {
		content, ok := f.fetchFileContent(ctx, owner, repo, path)
		if !ok {
			continue
		}
		files = append(files, domain.FileSample{Path: path, Content: content})
	}

	if f.cacheStore != nil {
		f.cacheStore.Set(githubNamespace, key, repoSample{Readme: readme, Files: files})
	}
	return readme, files, nil
}

// fetchReadme 通过 readme 接口拿解码后的 README 文本，失败返回空串
func (f *Fetcher) fetchReadme(ctx context.Context, owner, repo string) string {
	readmeData, _, err := f.client.Repositories.GetReadme(ctx, owner, repo, nil)
	if err != nil || readmeData == nil {
		return ""
	}
	content, err := readmeData.GetContent()
	if err != nil {
		return ""
	}
	return content
}

// pickSamplePaths 从递归 git tree 里选出值得下载的文件路径
// README 和入口文件优先，总数不超过 maxSampleFiles
func (f *Fetcher) pickSamplePaths(ctx context.Context, owner, repo, branch string) []string {
	// git/trees 接口接受分支名作为 tree ref
	tree, _, err := f.client.Git.GetTree(ctx, owner, repo, branch, true)
	if err != nil || tree == nil {
		return nil
	}

	var prioritized []string
	var others []string

	for _, e := range tree.Entries {
		// 只有 blob 是文件，tree 是目录
		if e.GetType() != "blob" {
			continue
		}

		path := e.GetPath()
		if e.GetSize() > maxBlobSize {
			continue
		}

		lower := strings.ToLower(path)
		if !hasSampleExtension(lower) && lower != "requirements.txt" && lower != "package.json" && lower != "go.mod" {
			continue
		}

		if strings.Contains(lower, "readme") || isEntrypoint(lower) {
			prioritized = append(prioritized, path)
		} else {
			others = append(others, path)
		}
	}

	chosen := append(prioritized, others...)
	if len(chosen) > maxSampleFiles {
		chosen = chosen[:maxSampleFiles]
	}
	return chosen
}

// fetchFileContent 通过 contents 接口下载并解码单个文件
func (f *Fetcher) fetchFileContent(ctx context.Context, owner, repo, path string) (string, bool) {
	fileData, _, _, err := f.client.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil || fileData == nil {
		return "", false
	}
	content, err := fileData.GetContent()
	if err != nil {
		return "", false
	}
	return content, true
}

func hasSampleExtension(lower string) bool {
	for _, ext := range sampleExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func isEntrypoint(lower string) bool {
	return strings.HasSuffix(lower, "main.go") ||
		strings.HasSuffix(lower, "main.py") ||
		strings.HasSuffix(lower, "app.py") ||
		strings.HasSuffix(lower, "index.js")
}

// toRecord 把 GitHub API 的数据结构转换为我们的 Domain 实体 (DTO 转换)
func toRecord(item *github.Repository) *domain.RepoRecord {
	rec := &domain.RepoRecord{
		ID:          item.GetID(),
		Name:        item.GetName(),
		FullName:    item.GetFullName(),
		HTMLURL:     item.GetHTMLURL(),
		Description: item.GetDescription(),
		Stars:       item.GetStargazersCount(),
		Forks:       item.GetForksCount(),
		OpenIssues:  item.GetOpenIssuesCount(),
		SizeKB:      item.GetSize(),
		Archived:    item.GetArchived(),
	}

	// language / license 可能为 null，保留 nil 语义
	if item.Language != nil {
		lang := *item.Language
		rec.Language = &lang
	}
	if item.GetLicense() != nil && item.GetLicense().Name != nil {
		name := item.GetLicense().GetName()
		rec.License = &name
	}

	rec.CreatedAt = formatTimestamp(item.CreatedAt)
	rec.UpdatedAt = formatTimestamp(item.UpdatedAt)
	rec.PushedAt = formatTimestamp(item.PushedAt)

	return rec
}

// formatTimestamp 还原成 GitHub 风格的 ISO-8601 文本，缺失时为空串
func formatTimestamp(ts *github.Timestamp) string {
	if ts == nil || ts.Time.IsZero() {
		return ""
	}
	return ts.Time.UTC().Format("2006-01-02T15:04:05Z")
}
