package websocket

import (
	"fmt"
	"time"
)

type (
	ClientNotConnectedError struct {
		message string
	}

	ClientAlreadyConnectedError struct {
		message string
	}

	RequestTimeoutError struct {
		message string
		timeout time.Duration
	}

	ConnectionClosedError struct {
		message string
	}

	WebSocketError struct {
		message string
		err     error
	}
)

func (e *ClientNotConnectedError) Error() string {
	if e.message != "" {
		return e.message
	}
	return "client not connected to provider"
}

func (e *ClientAlreadyConnectedError) Error() string {
	if e.message != "" {
		return e.message
	}
	return "client already connected to provider"
}

func (e *RequestTimeoutError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("%s after %v", e.message, e.timeout)
	}
	return fmt.Sprintf("request timed out after %v", e.timeout)
}

func (e *ConnectionClosedError) Error() string {
	if e.message != "" {
		return e.message
	}
	return "connection closed before a response arrived"
}

func (e *WebSocketError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("websocket error: %s - %v", e.message, e.err)
	}
	return fmt.Sprintf("websocket error: %s", e.message)
}

func (e *WebSocketError) Unwrap() error {
	return e.err
}

func NewClientNotConnectedError(message string) *ClientNotConnectedError {
	return &ClientNotConnectedError{message: message}
}

func NewClientAlreadyConnectedError(message string) *ClientAlreadyConnectedError {
	return &ClientAlreadyConnectedError{message: message}
}

func NewRequestTimeoutError(message string, timeout time.Duration) *RequestTimeoutError {
	return &RequestTimeoutError{message: message, timeout: timeout}
}

func NewConnectionClosedError(message string) *ConnectionClosedError {
	return &ConnectionClosedError{message: message}
}

func NewWebSocketError(message string, err error) *WebSocketError {
	return &WebSocketError{message: message, err: err}
}
