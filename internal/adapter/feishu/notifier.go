package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"repolens/internal/common"
	"repolens/internal/domain"
)

// Notifier 实现了 port.Notifier 接口
// 分析完成后把作品集摘要推送到飞书群
type Notifier struct {
	webhookURL string
}

func NewNotifier(webhook string) *Notifier {
	if webhook == "" {
		log.Println("⚠️ 警告: 飞书 Webhook 为空，推送功能将无法工作！")
	}
	return &Notifier{webhookURL: webhook}
}

// topScored 按总分降序取前 n 个 (输入是按 push 时间排列的，不能直接截取)
func topScored(repos []*domain.ScoredRepo, n int) []*domain.ScoredRepo {
	sorted := make([]*domain.ScoredRepo, len(repos))
	copy(sorted, repos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Breakdown.Total > sorted[j].Breakdown.Total
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// Notify 发送飞书卡片消息 (Schema 2.0)
func (n *Notifier) Notify(ctx context.Context, result *domain.BatchResult) error {
	if n.webhookURL == "" {
		return common.NewError(common.ErrCodeNotification, "Webhook URL 为空")
	}

	// 1. 准备标题
	title := fmt.Sprintf("📊 %s 的作品集分析完成", result.Username)

	// 2. 构造 Markdown 内容
	var md strings.Builder
	fmt.Fprintf(&md, "**仓库数:** %d  |  **置信度:** %d/100\n", len(result.Repos), result.Confidence)
	if result.Averages.Total != nil {
		fmt.Fprintf(&md, "**平均总分:** %.1f\n", *result.Averages.Total)
	}

	if result.Portfolio != nil {
		fmt.Fprintf(&md, "\n**🎯 %s**\n%s\n", result.Portfolio.Headline, result.Portfolio.RecruiterSummary)
	}

	// 按总分取前 3 名，卡片保持简短
	fmt.Fprintf(&md, "\n**🏆 Top 仓库:**\n")
	for i, s := range topScored(result.Repos, 3) {
		fmt.Fprintf(&md, "%d. %s — %.1f 分\n", i+1, s.Repo.Name, s.Breakdown.Total)
	}

	// 3. 构造 Schema 2.0 JSON 结构
	payload := map[string]interface{}{
		"msg_type": "interactive",
		"card": map[string]interface{}{
			"schema": "2.0",
			"config": map[string]interface{}{
				"update_multi": true,
			},
			"header": map[string]interface{}{
				"title": map[string]interface{}{
					"tag":     "plain_text",
					"content": title,
				},
				"template": "blue",
			},
			"body": map[string]interface{}{
				"direction": "vertical",
				"elements": []map[string]interface{}{
					{
						"tag":       "markdown",
						"content":   md.String(),
						"text_size": "normal",
					},
				},
			},
		},
	}

	// 4. 发送请求 (带重试机制)
	body, _ := json.Marshal(payload)
	err := common.Do(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewBuffer(body))
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("Content-Type", "application/json")

		resp, postErr := http.DefaultClient.Do(req)
		if postErr != nil {
			return postErr
		}
		defer resp.Body.Close()

		if resp.StatusCode != 200 {
			return fmt.Errorf("飞书 API 报错: 状态码 %d", resp.StatusCode)
		}
		return nil
	},
		common.WithMaxRetries(3),
		common.WithInitialDelay(500*time.Millisecond),
	)
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "发送请求失败", err)
	}

	return nil
}
