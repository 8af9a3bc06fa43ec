package websocket

import "encoding/json"

func (e *RPCError) Error() string {
	return e.Message
}

func (m *WebSocketMessage) MarshalJSON() ([]byte, error) {
	type Alias WebSocketMessage
	return json.Marshal(&struct {
		*Alias
		JSONRPC string `json:"jsonrpc"`
	}{
		Alias:   (*Alias)(m),
		JSONRPC: "2.0",
	})
}

func (m *WebSocketMessage) IsResponse() bool {
	return m.ID != nil
}

func (m *WebSocketMessage) IsNotification() bool {
	return m.Method != "" && m.ID == nil
}

func (r *WebSocketResponse) IsError() bool {
	return r.Error != nil
}

// Envelope rebuilds the full JSON-RPC response object for callers that expect
// the legacy `{jsonrpc, id, result}` shape.
func (r *WebSocketResponse) Envelope() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      r.ID,
		"result":  r.Result,
	}
}

func NewWebSocketRequest(id int, method string, params any) *WebSocketRequest {
	return &WebSocketRequest{
		ID:       id,
		Method:   method,
		Params:   params,
		Response: make(chan WebSocketResponse, 1),
	}
}
