package filter

import (
	"strings"

	"repolens/internal/domain"
)

// 发送给 LLM 的样本预算
// 控制 token 消耗，同时避免上下文超限
const (
	// ReadmeCharLimit README 最多保留的字符数
	ReadmeCharLimit = 2000

	// FileCharLimit 单个文件最多保留的字符数
	FileCharLimit = 2000

	// MaxSampleFiles 最多保留的文件数
	MaxSampleFiles = 4

	// minifiedLineLimit 单行超过这个长度就认为是压缩/生成产物
	minifiedLineLimit = 500
)

// 值得采样的文本/代码文件后缀
var sampleExtensions = []string{
	".go", ".py", ".js", ".ts", ".md", ".txt", ".json", ".yml", ".yaml",
}

// 即使后缀不在白名单里也要保留的关键配置文件
var keyFiles = map[string]bool{
	"go.mod":           true,
	"requirements.txt": true,
	"package.json":     true,
}

// LooksMinified 判断文本是否像压缩/打包产物
// 启发式：只要有一行超长就算。压缩文件浪费 token 且没有质量信号
func LooksMinified(text string) bool {
	if text == "" {
		return false
	}
	for _, line := range strings.Split(text, "\n") {
		if len(line) > minifiedLineLimit {
			return true
		}
	}
	return false
}

// CleanSample 清洗发给 LLM 的仓库样本
// 规则：
//   - README 截断到 ReadmeCharLimit
//   - 跳过压缩文件
//   - 只保留白名单后缀或关键配置文件
//   - 每个文件截断到 FileCharLimit，最多 MaxSampleFiles 个
func CleanSample(readme string, files []domain.FileSample) (string, []domain.FileSample) {
	cleaned := readme
	if len(cleaned) > ReadmeCharLimit {
		cleaned = cleaned[:ReadmeCharLimit]
	}

	var keep []domain.FileSample
	for _, f := range files {
		if len(keep) >= MaxSampleFiles {
			break
		}

		if LooksMinified(f.Content) {
			continue
		}

		if !isSampleWorthy(f.Path) {
			continue
		}

		content := f.Content
		if len(content) > FileCharLimit {
			content = content[:FileCharLimit]
		}
		keep = append(keep, domain.FileSample{Path: f.Path, Content: content})
	}

	return cleaned, keep
}

// isSampleWorthy 判断文件路径是否值得采样
func isSampleWorthy(path string) bool {
	lower := strings.ToLower(path)

	if keyFiles[lower] {
		return true
	}
	// 子目录里的关键文件也算 (例如 api/package.json)
	if idx := strings.LastIndex(lower, "/"); idx >= 0 && keyFiles[lower[idx+1:]] {
		return true
	}

	for _, ext := range sampleExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
