package websocket

import (
	"context"
	"time"
)

type StatusListener interface {
	OnStateChanged(state string)
	OnNotification(method string, params any)
	OnException(err error)
}

type Client interface {
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool
	GetState() string
	Request(ctx context.Context, method string, params any) (*WebSocketResponse, error)
	RequestWithTimeout(ctx context.Context, method string, params any, timeout time.Duration) (*WebSocketResponse, error)
	SendNotification(method string, params any) error
}
