package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// FileCache 实现了 port.Cache 接口
// 每个条目一个 JSON 文件：<dir>/<namespace>/<key>.json
// TTL 用文件 mtime 计算 (最后一次写入时间)，没有滑动过期
type FileCache struct {
	dir     string
	nowFunc func() time.Time // 便于测试注入当前时间
}

// NewFileCache 创建以 dir 为根目录的文件缓存
func NewFileCache(dir string) *FileCache {
	return &FileCache{
		dir:     dir,
		nowFunc: time.Now,
	}
}

// Get 尝试读取缓存
// 命中条件：文件存在 且 now - mtime <= ttl
// 文件缺失、过期、损坏一律当作 miss 返回 false，调用方透明地重新计算
func (c *FileCache) Get(namespace, key string, ttl time.Duration, out any) bool {
	path := c.pathFor(namespace, key)

	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	age := c.nowFunc().Sub(info.ModTime())
	if age > ttl {
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		// 损坏的缓存文件直接忽略
		return false
	}
	return true
}

// Set 尽力写入缓存
// 缓存只是优化：序列化或磁盘失败都静默吞掉，绝不影响主流程
func (c *FileCache) Set(namespace, key string, val any) {
	dir := filepath.Join(c.dir, namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}

	data, err := json.MarshalIndent(val, "", "  ")
	if err != nil {
		return
	}

	_ = os.WriteFile(c.pathFor(namespace, key), data, 0o644)
}

// Clear 删除全部缓存条目
func (c *FileCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// Dir 返回缓存根目录
func (c *FileCache) Dir() string {
	return c.dir
}

func (c *FileCache) pathFor(namespace, key string) string {
	return filepath.Join(c.dir, namespace, key+".json")
}
