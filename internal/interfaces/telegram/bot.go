package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
)

// Bot 同时是通知通道（sendMessage）和控制通道（getUpdates 长轮询）
type Bot struct {
	baseURL string
	token   string
	chatID  string
	poll    time.Duration
	client  *http.Client
}

func New(baseURL, token, chatID string, poll time.Duration) *Bot {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	if poll <= 0 {
		poll = 5 * time.Second
	}
	return &Bot{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		chatID:  chatID,
		poll:    poll,
		// 长轮询要比 poll 多留余量
		client: &http.Client{Timeout: poll + 10*time.Second},
	}
}

func (b *Bot) Name() string { return "telegram" }

func (b *Bot) method(name string) string {
	return fmt.Sprintf("%s/bot%s/%s", b.baseURL, b.token, name)
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

func (b *Bot) Send(ctx context.Context, ev model.Event, text string) error {
	return b.SendText(ctx, b.chatID, text)
}

func (b *Bot) SendText(ctx context.Context, chatID, text string) error {
	body, err := json.Marshal(map[string]string{"chat_id": chatID, "text": text})
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.method("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = b.do(req)
	return err
}

func (b *Bot) do(req *http.Request) (json.RawMessage, error) {
	resp, err := b.client.Do(req)
	if err != nil {
		// url.Error 带完整 URL，里面有 token
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return nil, fmt.Errorf("telegram: %s %s: %w", uerr.Op, path.Base(req.URL.Path), uerr.Err)
		}
		return nil, fmt.Errorf("telegram: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("telegram: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, truncate(raw, 256))
	}
	var ar apiResponse
	if err := json.Unmarshal(raw, &ar); err != nil {
		return nil, fmt.Errorf("telegram: decode: %w", err)
	}
	if !ar.OK {
		return nil, fmt.Errorf("telegram: api error: %s", ar.Description)
	}
	return ar.Result, nil
}

func (b *Bot) getUpdates(ctx context.Context, offset int64) ([]update, error) {
	q := url.Values{}
	q.Set("timeout", strconv.Itoa(int(b.poll/time.Second)))
	if offset > 0 {
		q.Set("offset", strconv.FormatInt(offset, 10))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.method("getUpdates")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	raw, err := b.do(req)
	if err != nil {
		return nil, err
	}
	var ups []update
	if err := json.Unmarshal(raw, &ups); err != nil {
		return nil, fmt.Errorf("telegram: decode updates: %w", err)
	}
	return ups, nil
}

// Listen 长轮询 getUpdates，只处理配置的 chat 发来的命令，回复发回同一个 chat
func (b *Bot) Listen(ctx context.Context, handle port.CommandHandler) error {
	var offset int64
	for {
		if ctx.Err() != nil {
			return nil
		}
		ups, err := b.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn().Err(err).Msg("telegram getUpdates failed")
			if !sleepCtx(ctx, b.poll) {
				return nil
			}
			continue
		}
		offset = b.dispatch(ctx, ups, offset, handle)
	}
}

func (b *Bot) dispatch(ctx context.Context, ups []update, offset int64, handle port.CommandHandler) int64 {
	for _, u := range ups {
		if u.UpdateID >= offset {
			offset = u.UpdateID + 1
		}
		if u.Message == nil {
			continue
		}
		chat := strconv.FormatInt(u.Message.Chat.ID, 10)
		if b.chatID != "" && chat != b.chatID {
			log.Debug().Str("chat", chat).Msg("telegram command from unknown chat ignored")
			continue
		}
		text := strings.TrimSpace(u.Message.Text)
		if text == "" {
			continue
		}
		reply := handle(ctx, text)
		if reply == "" {
			continue
		}
		if err := b.SendText(ctx, chat, reply); err != nil {
			log.Warn().Err(err).Str("command", text).Msg("telegram reply failed")
		}
	}
	return offset
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var (
	_ port.Sender         = (*Bot)(nil)
	_ port.ControlChannel = (*Bot)(nil)
)
