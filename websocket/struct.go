package websocket

const (
	WEB_SOCKET_STATE_CONNECTING = "ws_connecting"
	WEB_SOCKET_STATE_CONNECTED  = "ws_connected"
	WEB_SOCKET_STATE_STOPPING   = "ws_stopping"
	WEB_SOCKET_STATE_STOPPED    = "ws_stopped"
	SEND_BUFFER_SIZE            = 100
)

type WebSocketMessage struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method,omitempty"`
	Params  any       `json:"params,omitempty"`
	ID      *int      `json:"id,omitempty"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type WebSocketRequest struct {
	ID       int
	Method   string
	Params   any
	Response chan WebSocketResponse
}

type WebSocketResponse struct {
	ID     int
	Result any
	Error  *RPCError

	transportErr error
}
