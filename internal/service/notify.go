package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TgUpdate Telegram 更新（webhook 和轮询共用）
type TgUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

// TelegramNotifier 通知机器人
// 所有发送都是尽力而为：失败只记日志，不向调用方传播
type TelegramNotifier struct {
	botToken string
	chatID   string
	siteURL  string
	apiBase  string // 测试时可覆盖
	client   *http.Client
}

// NewTelegramNotifier 创建通知机器人，token 为空时所有操作都是空操作
func NewTelegramNotifier(botToken, chatID, siteURL string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		siteURL:  siteURL,
		apiBase:  "https://api.telegram.org",
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled 是否配置了机器人
func (n *TelegramNotifier) Enabled() bool {
	return n.botToken != "" && n.chatID != ""
}

// NotifyNewMovies 同步任务发现新片后的通知
func (n *TelegramNotifier) NotifyNewMovies(slugs []string) {
	if !n.Enabled() || len(slugs) == 0 {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Đã phát hiện %d phim mới:\n", len(slugs))
	for _, slug := range slugs {
		fmt.Fprintf(&b, "• %s/phim/%s\n", n.siteURL, slug)
	}

	if err := n.SendMessage(n.chatID, b.String()); err != nil {
		log.Printf("[TelegramNotifier] 发送新片通知失败: %v", err)
	}
}

// SendMessage 发送消息到指定会话
func (n *TelegramNotifier) SendMessage(chatID, text string) error {
	if n.botToken == "" {
		return nil
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	params := url.Values{}
	params.Set("chat_id", chatID)
	params.Set("text", text)

	resp, err := n.client.PostForm(endpoint, params)
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("请求返回状态码: %d, 响应: %s", resp.StatusCode, body)
	}
	return nil
}

// GetUpdates 轮询获取更新（webhook 之外的备用通道）
func (n *TelegramNotifier) GetUpdates(offset int64) ([]TgUpdate, error) {
	if n.botToken == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?offset=%d&timeout=0", n.apiBase, n.botToken, offset)
	resp, err := n.client.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("请求返回状态码: %d", resp.StatusCode)
	}

	var raw struct {
		OK     bool       `json:"ok"`
		Result []TgUpdate `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("解析JSON失败: %w", err)
	}
	return raw.Result, nil
}
