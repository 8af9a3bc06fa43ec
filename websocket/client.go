package websocket

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"walletbridge/config"
	"walletbridge/logger"
	"walletbridge/retry"
)

// WebSocketClient speaks JSON-RPC 2.0 to the wallet provider bridge.
// Listener callbacks for state changes run while the client holds its state
// lock and must not call back into the client.
type WebSocketClient struct {
	config        *config.ProviderConfig
	listener      StatusListener
	conn          *websocket.Conn
	state         string
	stateMux      sync.RWMutex
	requests      map[int]*WebSocketRequest
	requestsMux   sync.Mutex
	nextID        int
	sendChan      chan *WebSocketMessage
	closeChan     chan struct{}
	retry         *retry.Manager
	reconnectCtx  context.Context
	disconnecting bool
	logger        logger.Logger
}

func NewWebSocketClient(config *config.ProviderConfig, listener StatusListener, logger logger.Logger) *WebSocketClient {
	return &WebSocketClient{
		config:    config,
		listener:  listener,
		state:     WEB_SOCKET_STATE_STOPPED,
		requests:  make(map[int]*WebSocketRequest),
		nextID:    1,
		sendChan:  make(chan *WebSocketMessage, SEND_BUFFER_SIZE),
		closeChan: make(chan struct{}),
		retry:     retry.NewManager(config.AutoReconnect, config.MaxReconnectAttempts, logger),
		logger:    logger,
	}
}

func (c *WebSocketClient) Connect(ctx context.Context) error {
	c.stateMux.Lock()
	c.reconnectCtx = ctx
	c.disconnecting = false
	c.stateMux.Unlock()

	err := c.connectOnce(ctx)
	if err == nil {
		c.retry.Reset()
		return nil
	}

	if !c.retry.IsEnabled() {
		return err
	}

	go c.reconnectLoop(ctx)
	return nil
}

func (c *WebSocketClient) connectOnce(ctx context.Context) error {
	c.stateMux.Lock()
	defer c.stateMux.Unlock()

	if c.state != WEB_SOCKET_STATE_STOPPED {
		return NewClientAlreadyConnectedError("client already connecting or connected")
	}

	c.setState(WEB_SOCKET_STATE_CONNECTING)

	wsURL := c.config.GetWebSocketURL()

	parsed, err := url.Parse(wsURL)
	if err != nil {
		c.setState(WEB_SOCKET_STATE_STOPPED)
		return fmt.Errorf("invalid WebSocket URL: %w", err)
	}

	origin := "http://" + parsed.Host
	if parsed.Scheme == "wss" {
		origin = "https://" + parsed.Host
	}

	wsConfig, err := websocket.NewConfig(wsURL, origin)
	if err != nil {
		c.setState(WEB_SOCKET_STATE_STOPPED)
		return fmt.Errorf("failed to create WebSocket config: %w", err)
	}

	if c.config.APIKey != "" {
		wsConfig.Header = http.Header{}
		wsConfig.Header.Set("X-Api-Key", c.config.APIKey)
	}

	type result struct {
		conn *websocket.Conn
		err  error
	}
	resultChan := make(chan result, 1)

	go func() {
		conn, err := wsConfig.DialContext(ctx)
		resultChan <- result{conn: conn, err: err}
	}()

	select {
	case <-ctx.Done():
		c.setState(WEB_SOCKET_STATE_STOPPED)
		return fmt.Errorf("connection cancelled: %w", ctx.Err())
	case res := <-resultChan:
		if res.err != nil {
			c.setState(WEB_SOCKET_STATE_STOPPED)
			if c.listener != nil {
				c.listener.OnException(NewWebSocketError("connection failed", res.err))
			}
			return fmt.Errorf("failed to connect to WebSocket: %w", res.err)
		}

		c.conn = res.conn
		c.sendChan = make(chan *WebSocketMessage, SEND_BUFFER_SIZE)
		c.closeChan = make(chan struct{})
		c.setState(WEB_SOCKET_STATE_CONNECTED)

		go c.readLoop(c.conn, c.closeChan)
		go c.writeLoop(c.conn, c.sendChan, c.closeChan)

		c.logger.Info("Connected to wallet provider at %s", wsURL)
		return nil
	}
}

func (c *WebSocketClient) reconnectLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			if !c.retry.ShouldReconnect() {
				return
			}

			if err := c.retry.WaitBeforeReconnect(ctx); err != nil {
				return
			}

			if ctx.Err() != nil || c.isDisconnecting() {
				return
			}

			err := c.connectOnce(ctx)
			if err == nil {
				c.logger.Info("WebSocket reconnection successful")
				c.retry.Reset()
				return
			}

			c.logger.Error("WebSocket reconnection attempt %d failed: %v", c.retry.GetAttempt(), err)
		}
	}
}

func (c *WebSocketClient) Disconnect() error {
	c.stateMux.Lock()

	c.disconnecting = true
	if c.state == WEB_SOCKET_STATE_STOPPED {
		c.stateMux.Unlock()
		return nil
	}

	c.setState(WEB_SOCKET_STATE_STOPPING)

	select {
	case <-c.closeChan:
	default:
		close(c.closeChan)
	}

	if c.conn != nil {
		if closeErr := c.conn.Close(); closeErr != nil {
			c.logger.Debug("WebSocket connection closed during shutdown: %v", closeErr)
		}
		c.conn = nil
	}

	c.setState(WEB_SOCKET_STATE_STOPPED)
	c.stateMux.Unlock()

	c.failPending(NewConnectionClosedError("client disconnected"))
	c.logger.Info("Disconnected from wallet provider")
	return nil
}

func (c *WebSocketClient) isDisconnecting() bool {
	c.stateMux.RLock()
	defer c.stateMux.RUnlock()
	return c.disconnecting
}

// connectionLost tears down conn after a read or write failure. It is a no-op
// when conn has already been replaced or closed.
func (c *WebSocketClient) connectionLost(conn *websocket.Conn) {
	c.stateMux.Lock()
	if c.conn != conn {
		c.stateMux.Unlock()
		return
	}

	select {
	case <-c.closeChan:
	default:
		close(c.closeChan)
	}
	if err := conn.Close(); err != nil {
		c.logger.Debug("Closing lost connection: %v", err)
	}
	c.conn = nil
	c.setState(WEB_SOCKET_STATE_STOPPED)

	ctx := c.reconnectCtx
	reconnect := !c.disconnecting && c.retry.IsEnabled() && ctx != nil && ctx.Err() == nil
	c.stateMux.Unlock()

	c.failPending(NewConnectionClosedError("connection to wallet provider lost"))

	if reconnect {
		go c.reconnectLoop(ctx)
	}
}

func (c *WebSocketClient) failPending(err error) {
	c.requestsMux.Lock()
	pending := c.requests
	c.requests = make(map[int]*WebSocketRequest)
	c.requestsMux.Unlock()

	for id, req := range pending {
		req.Response <- WebSocketResponse{ID: id, transportErr: err}
	}
}

func (c *WebSocketClient) GetState() string {
	c.stateMux.RLock()
	defer c.stateMux.RUnlock()
	return c.state
}

func (c *WebSocketClient) IsConnected() bool {
	return c.GetState() == WEB_SOCKET_STATE_CONNECTED
}

// setState must be called with stateMux held.
func (c *WebSocketClient) setState(newState string) {
	if c.state == newState {
		return
	}
	c.state = newState

	if c.listener != nil {
		c.listener.OnStateChanged(newState)
	}
}

func (c *WebSocketClient) Request(ctx context.Context, method string, params any) (*WebSocketResponse, error) {
	return c.RequestWithTimeout(ctx, method, params, c.config.GetTimeout())
}

// RequestWithTimeout sends a request and waits for its response. JSON-RPC
// errors are returned inside the response; the error result is reserved for
// transport failures, timeouts and cancellation.
func (c *WebSocketClient) RequestWithTimeout(ctx context.Context, method string, params any, timeout time.Duration) (*WebSocketResponse, error) {
	if ctx.Err() != nil {
		return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
	}

	c.stateMux.RLock()
	state := c.state
	sendChan := c.sendChan
	c.stateMux.RUnlock()

	if state != WEB_SOCKET_STATE_CONNECTED {
		return nil, NewClientNotConnectedError("not connected")
	}

	c.requestsMux.Lock()
	id := c.nextID
	c.nextID++
	req := NewWebSocketRequest(id, method, params)
	c.requests[id] = req
	c.requestsMux.Unlock()

	message := &WebSocketMessage{
		ID:      &id,
		Method:  method,
		Params:  params,
		JSONRPC: "2.0",
	}
	select {
	case sendChan <- message:
	default:
		c.dropRequest(id)
		return nil, NewWebSocketError("send buffer full", nil)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case response := <-req.Response:
		if response.transportErr != nil {
			return nil, response.transportErr
		}
		return &response, nil
	case <-timer.C:
		c.dropRequest(id)
		return nil, NewRequestTimeoutError(fmt.Sprintf("%s timed out", method), timeout)
	case <-ctx.Done():
		c.dropRequest(id)
		return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
	}
}

func (c *WebSocketClient) dropRequest(id int) {
	c.requestsMux.Lock()
	delete(c.requests, id)
	c.requestsMux.Unlock()
}

func (c *WebSocketClient) SendNotification(method string, params any) error {
	c.stateMux.RLock()
	state := c.state
	sendChan := c.sendChan
	c.stateMux.RUnlock()

	if state != WEB_SOCKET_STATE_CONNECTED {
		return NewClientNotConnectedError("not connected")
	}

	message := &WebSocketMessage{
		Method:  method,
		Params:  params,
		JSONRPC: "2.0",
	}

	select {
	case sendChan <- message:
		return nil
	default:
		return NewWebSocketError("send buffer full", nil)
	}
}

func (c *WebSocketClient) readLoop(conn *websocket.Conn, closeChan chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Read loop panic: %v", r)
		}
	}()

	for {
		var message WebSocketMessage
		err := websocket.JSON.Receive(conn, &message)
		if err != nil {
			select {
			case <-closeChan:
				c.logger.Debug("Read error during shutdown (expected): %v", err)
				return
			default:
			}

			if err == io.EOF {
				c.logger.Info("Connection closed by wallet provider")
			} else {
				c.logger.Error("Read error: %v, State: %s", err, c.GetState())
				if c.listener != nil {
					c.listener.OnException(NewWebSocketError("read error", err))
				}
			}
			c.connectionLost(conn)
			return
		}

		c.handleMessage(&message)
	}
}

func (c *WebSocketClient) writeLoop(conn *websocket.Conn, sendChan chan *WebSocketMessage, closeChan chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Write loop panic: %v", r)
		}
	}()

	for {
		select {
		case <-closeChan:
			return
		case message := <-sendChan:
			if err := websocket.JSON.Send(conn, message); err != nil {
				c.logger.Error("Write error: %v", err)
				if c.listener != nil {
					c.listener.OnException(NewWebSocketError("write error", err))
				}
				c.connectionLost(conn)
				return
			}
		}
	}
}

func (c *WebSocketClient) handleMessage(message *WebSocketMessage) {
	if message.IsResponse() {
		c.requestsMux.Lock()
		req, exists := c.requests[*message.ID]
		if exists {
			delete(c.requests, *message.ID)
		}
		c.requestsMux.Unlock()

		if exists {
			req.Response <- WebSocketResponse{
				ID:     *message.ID,
				Result: message.Result,
				Error:  message.Error,
			}
		} else {
			c.logger.Debug("Dropping response for unknown request %d", *message.ID)
		}
		return
	}

	if message.IsNotification() && c.listener != nil {
		c.listener.OnNotification(message.Method, message.Params)
	}
}
