package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// 通知はベストエフォート。失敗してもログだけ残して呼び出し側は止めない。
type Notifier interface {
	Send(ctx context.Context, text string) bool
}

// Telegram Bot APIへのPOST
type TelegramNotifier struct {
	botToken string
	chatIDs  []string
	client   *http.Client
	logger   *zap.Logger
}

func NewTelegramNotifier(botToken string, chatIDs []string, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatIDs:  chatIDs,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

// トークンとチャットIDが揃っているか
func (n *TelegramNotifier) Configured() bool {
	return n.botToken != "" && len(n.chatIDs) > 0
}

// 全チャットに送る。1件でも届けばtrue。
func (n *TelegramNotifier) Send(ctx context.Context, text string) bool {
	if !n.Configured() {
		n.logger.Warn("telegram not configured, skipping notification")
		return false
	}

	sent := 0
	for _, chatID := range n.chatIDs {
		if n.sendOne(ctx, chatID, text) {
			sent++
		}
	}
	return sent > 0
}

func (n *TelegramNotifier) sendOne(ctx context.Context, chatID string, text string) bool {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		n.logger.Error("telegram payload marshal failed", zap.Error(err))
		return false
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		n.logger.Error("telegram request build failed", zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error("telegram send failed", zap.String("chat_id", chatID), zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Error("telegram send rejected", zap.String("chat_id", chatID), zap.Int("status", resp.StatusCode))
		return false
	}

	n.logger.Info("telegram message sent", zap.String("chat_id", chatID))
	return true
}
