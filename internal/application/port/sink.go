package port

import (
	"context"

	"spotarb/internal/domain/model"
)

// Notifier 核心只负责推送结构化事件，投递由实现负责
type Notifier interface {
	Notify(ctx context.Context, ev model.Event) error
}

// Sender 单个通知通道（console / telegram / redis）
type Sender interface {
	Name() string
	// Send 投递事件；text 是已渲染好的可读文本，结构化通道可以忽略它
	Send(ctx context.Context, ev model.Event, text string) error
}

// CommandHandler 处理一条控制命令并返回回复文本
type CommandHandler func(ctx context.Context, command string) string

// ControlChannel 外部控制通道（start/stop/status/balance），阻塞直到 ctx 结束
type ControlChannel interface {
	Listen(ctx context.Context, handle CommandHandler) error
}
