package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"trumpwatch/internal/countdown"
	"trumpwatch/internal/display"
)

// Digest 封装每日摘要的上下文。
type Digest struct {
	Bucket    time.Time
	Countdown countdown.Snapshot
	Cards     []display.Card
	Warning   string
}

// Notifier 定义摘要输送接口。
type Notifier interface {
	Notify(ctx context.Context, digest Digest) error
}

// TelegramNotifier 通过 Telegram Bot API 推送消息。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 推送器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "digest_telegram").Logger(),
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// Notify 调用 sendMessage API 推送文本。
func (n *TelegramNotifier) Notify(ctx context.Context, digest Digest) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                n.chatID,
		Text:                  RenderMessage(digest),
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}

	n.logger.Info().Time("bucket", digest.Bucket).
		Int("term_day", digest.Countdown.ElapsedDays).
		Bool("degraded", digest.Warning != "").
		Msg("摘要已发送 (Telegram)")
	return nil
}

// RenderMessage formats a digest as plain text.
func RenderMessage(digest Digest) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("[TrumpWatch] %s (%s)\n", digest.Countdown.Day(), display.Progress(digest.Countdown)))
	if digest.Countdown.Complete {
		builder.WriteString("The term is over.\n")
	} else {
		builder.WriteString(fmt.Sprintf("Remaining: %s\n", display.Countdown(digest.Countdown.Remaining)))
	}
	for _, card := range digest.Cards {
		line := fmt.Sprintf("%s: %s", card.Label, card.Value)
		if card.Sub != "" {
			line += " (" + card.Sub + ")"
		}
		builder.WriteString(line + "\n")
	}
	if digest.Warning != "" {
		builder.WriteString(digest.Warning)
	}
	return strings.TrimRight(builder.String(), "\n")
}

var _ Notifier = (*TelegramNotifier)(nil)
