package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"repolens/internal/domain"
)

// keyContentLimit 参与 key 计算的大文本字段只取前 N 个字符
// 刻意为之：限制 key 推导成本，并让只在截断边界之后有差异的近似重复输入
// 共享同一个缓存条目
const keyContentLimit = 1500

// hashKey 把任意输入串转成定长 SHA-256 十六进制串
// 保证文件名安全 (没有斜杠、空格)，且长度与输入无关
func hashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// truncate 取前 n 个字符 (按 rune，不会把多字节字符切成半个)
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// AssessmentKey 为单仓库 LLM 评估构造缓存 key
// 语义输入 (仓库名、模型、README、文件样本) 任何一项变化 key 就变化
// map 经 json.Marshal 后字段按 key 排序，等价输入总是得到相同的序列化结果
func AssessmentKey(repoFullName, model, readme string, files []domain.FileSample) string {
	filesPart := make([]map[string]string, 0, len(files))
	for _, f := range files {
		filesPart = append(filesPart, map[string]string{
			"path":    f.Path,
			"content": truncate(f.Content, keyContentLimit),
		})
	}

	raw, _ := json.Marshal(map[string]any{
		"repo":   repoFullName,
		"model":  model,
		"readme": truncate(readme, keyContentLimit),
		"files":  filesPart,
	})

	return hashKey(string(raw))
}

// RequestKey 为原始 API 请求构造缓存 key (方法 + URL + 参数)
func RequestKey(method, url string, params map[string]string) string {
	if params == nil {
		params = map[string]string{}
	}

	raw, _ := json.Marshal(map[string]any{
		"method": method,
		"url":    url,
		"params": params,
	})

	return hashKey(string(raw))
}
