package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"walletbridge/config"
	"walletbridge/logger"
	"walletbridge/websocket"
)

const (
	METHOD_ENABLE           = "enable"
	METHOD_SET_AUTO_REFRESH = "wallet_setAutoRefreshOnNetworkChange"
	NOTIFICATION_STATE      = "providerState"
	CLOSE_CODE_ABNORMAL     = 1006
	EVENT_QUEUE_SIZE        = 128
	FIELD_IS_BITKEEP        = "isBitKeep"
	FIELD_IS_DAPPER         = "isDapper"
	FIELD_CACHED_RESULTS    = "cachedResults"
	FIELD_AUTO_REFRESH      = "autoRefreshOnNetworkChange"
	FIELD_CHAIN_ID          = "chainId"
)

type providerEvent struct {
	name string
	args []any
}

// RemoteProvider is a Provider reached through a JSON-RPC websocket bridge.
// Provider events arrive as JSON-RPC notifications whose params are the
// positional event arguments; they are delivered to listeners one at a time
// in arrival order.
type RemoteProvider struct {
	ws      websocket.Client
	timeout time.Duration
	logger  logger.Logger

	listenersMux sync.RWMutex
	listeners    map[string][]Listener

	fieldsMux sync.RWMutex
	fields    map[string]any

	stateMux  sync.Mutex
	lastState string

	events    chan providerEvent
	done      chan struct{}
	closeOnce sync.Once
}

func NewRemoteProvider(cfg *config.ProviderConfig, logger logger.Logger) *RemoteProvider {
	p := &RemoteProvider{
		timeout:   cfg.GetTimeout(),
		logger:    logger,
		listeners: make(map[string][]Listener),
		fields:    make(map[string]any),
		lastState: websocket.WEB_SOCKET_STATE_STOPPED,
		events:    make(chan providerEvent, EVENT_QUEUE_SIZE),
		done:      make(chan struct{}),
	}
	p.ws = websocket.NewWebSocketClient(cfg, p, logger)

	go p.dispatchLoop()
	return p
}

func (p *RemoteProvider) Connect(ctx context.Context) error {
	return p.ws.Connect(ctx)
}

func (p *RemoteProvider) Disconnect() error {
	return p.ws.Disconnect()
}

func (p *RemoteProvider) IsConnected() bool {
	return p.ws.IsConnected()
}

// Close disconnects and stops event delivery.
func (p *RemoteProvider) Close() error {
	err := p.ws.Disconnect()
	p.closeOnce.Do(func() { close(p.done) })
	return err
}

func (p *RemoteProvider) Send(ctx context.Context, method string, params ...any) (any, error) {
	var rpcParams any
	if len(params) > 0 {
		rpcParams = params
	}

	response, err := p.ws.Request(ctx, method, rpcParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if response.IsError() {
		return nil, toRPCError(response.Error)
	}
	return response.Result, nil
}

func (p *RemoteProvider) Enable(ctx context.Context) (any, error) {
	return p.Send(ctx, METHOD_ENABLE)
}

// SendLegacy answers with the whole JSON-RPC response object, the way old
// providers did for the single-argument send.
func (p *RemoteProvider) SendLegacy(payload Payload) (any, error) {
	response, err := p.ws.RequestWithTimeout(context.Background(), payload.Method, nil, p.timeout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", payload.Method, err)
	}
	if response.IsError() {
		return nil, toRPCError(response.Error)
	}
	return response.Envelope(), nil
}

func toRPCError(e *websocket.RPCError) *RPCError {
	return &RPCError{Code: e.Code, Message: e.Message, Data: e.Data}
}

func (p *RemoteProvider) On(event string, listener Listener) {
	p.listenersMux.Lock()
	defer p.listenersMux.Unlock()
	p.listeners[event] = append(p.listeners[event], listener)
}

func (p *RemoteProvider) RemoveListener(event string, listener Listener) {
	p.listenersMux.Lock()
	defer p.listenersMux.Unlock()

	listeners := p.listeners[event]
	for i, l := range listeners {
		if l == listener {
			p.listeners[event] = append(listeners[:i:i], listeners[i+1:]...)
			return
		}
	}
}

func (p *RemoteProvider) ListenerCount(event string) int {
	p.listenersMux.RLock()
	defer p.listenersMux.RUnlock()
	return len(p.listeners[event])
}

func (p *RemoteProvider) IsBitKeep() bool {
	v, _ := p.field(FIELD_IS_BITKEEP)
	b, _ := v.(bool)
	return b
}

func (p *RemoteProvider) SetAutoRefreshOnNetworkChange(enabled bool) {
	p.setField(FIELD_AUTO_REFRESH, enabled)
	if err := p.ws.SendNotification(METHOD_SET_AUTO_REFRESH, []any{enabled}); err != nil {
		p.logger.Warn("Failed to forward %s to wallet provider: %v", FIELD_AUTO_REFRESH, err)
	}
}

func (p *RemoteProvider) IsDapper() bool {
	v, _ := p.field(FIELD_IS_DAPPER)
	b, _ := v.(bool)
	return b
}

func (p *RemoteProvider) CachedResult(method string) (any, bool) {
	v, ok := p.field(FIELD_CACHED_RESULTS)
	if !ok {
		return nil, false
	}
	cached, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	result, ok := cached[method]
	return result, ok
}

func (p *RemoteProvider) StaticField(name string) (any, bool) {
	v, ok := p.field(name)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (p *RemoteProvider) field(name string) (any, bool) {
	p.fieldsMux.RLock()
	defer p.fieldsMux.RUnlock()
	v, ok := p.fields[name]
	return v, ok
}

func (p *RemoteProvider) setField(name string, value any) {
	p.fieldsMux.Lock()
	defer p.fieldsMux.Unlock()
	p.fields[name] = value
}

// OnStateChanged runs under the websocket client's state lock; it only
// queues work.
func (p *RemoteProvider) OnStateChanged(state string) {
	p.stateMux.Lock()
	previous := p.lastState
	p.lastState = state
	p.stateMux.Unlock()

	if previous == websocket.WEB_SOCKET_STATE_CONNECTED && state == websocket.WEB_SOCKET_STATE_STOPPED {
		p.enqueue(providerEvent{
			name: EventClose,
			args: []any{CLOSE_CODE_ABNORMAL, "connection to wallet provider lost"},
		})
	}
}

func (p *RemoteProvider) OnNotification(method string, params any) {
	switch method {
	case NOTIFICATION_STATE:
		state, ok := params.(map[string]any)
		if !ok {
			if args, isList := params.([]any); isList && len(args) > 0 {
				state, ok = args[0].(map[string]any)
			}
		}
		if !ok {
			p.logger.Warn("Ignoring malformed %s notification: %v", NOTIFICATION_STATE, params)
			return
		}
		p.fieldsMux.Lock()
		for k, v := range state {
			p.fields[k] = v
		}
		p.fieldsMux.Unlock()
	case EventChainChanged, EventAccountsChanged, EventClose:
		args := eventArgs(params)
		if method == EventChainChanged && len(args) > 0 {
			p.setField(FIELD_CHAIN_ID, args[0])
		}
		if method == EventAccountsChanged {
			args = []any{eventAccounts(args)}
		}
		p.enqueue(providerEvent{name: method, args: args})
	default:
		p.logger.Debug("Ignoring wallet provider notification: %s", method)
	}
}

func (p *RemoteProvider) OnException(err error) {
	p.logger.Warn("Wallet provider transport error: %v", err)
}

func eventArgs(params any) []any {
	switch v := params.(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		return []any{v}
	}
}

// eventAccounts accepts both [[a, b]] and the flattened [a, b].
func eventAccounts(args []any) []string {
	if len(args) == 1 {
		if nested, ok := args[0].([]any); ok {
			return Accounts(nested)
		}
	}
	return Accounts(args)
}

func (p *RemoteProvider) enqueue(ev providerEvent) {
	select {
	case p.events <- ev:
	case <-p.done:
	}
}

func (p *RemoteProvider) dispatchLoop() {
	for {
		select {
		case <-p.done:
			return
		case ev := <-p.events:
			p.emit(ev)
		}
	}
}

func (p *RemoteProvider) emit(ev providerEvent) {
	p.listenersMux.RLock()
	listeners := make([]Listener, len(p.listeners[ev.name]))
	copy(listeners, p.listeners[ev.name])
	p.listenersMux.RUnlock()

	for _, l := range listeners {
		l.OnProviderEvent(ev.name, ev.args...)
	}
}
