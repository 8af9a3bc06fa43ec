// Package provider describes the injected wallet provider the connector talks
// to. Only Provider is required; every other interface is an optional
// capability that callers must check with a type assertion.
package provider

import (
	"context"
	"errors"
	"fmt"
)

const (
	EventChainChanged    = "chainChanged"
	EventAccountsChanged = "accountsChanged"
	EventClose           = "close"

	// CodeUserRejected is the EIP-1193 code for a request the user declined.
	CodeUserRejected = 4001
)

// StaticChainIDFields lists the legacy provider properties that may carry a
// chain id, in lookup order.
var StaticChainIDFields = []string{"chainId", "netVersion", "networkVersion", "_chainId"}

// Payload is the single argument of the legacy send shape.
type Payload struct {
	Method string `json:"method"`
}

// Provider is the request surface every injected provider exposes. Results
// may be bare values or wrapped in an Envelope; use Unwrap.
type Provider interface {
	Send(ctx context.Context, method string, params ...any) (any, error)
	Enable(ctx context.Context) (any, error)
	SendLegacy(payload Payload) (any, error)
}

type Listener interface {
	OnProviderEvent(event string, args ...any)
}

type EventEmitter interface {
	On(event string, listener Listener)
	RemoveListener(event string, listener Listener)
}

type WalletIdentifier interface {
	IsBitKeep() bool
}

type AutoRefreshSetter interface {
	SetAutoRefreshOnNetworkChange(enabled bool)
}

type CachedResultsProvider interface {
	IsDapper() bool
	CachedResult(method string) (any, bool)
}

type StaticFieldsProvider interface {
	StaticField(name string) (any, bool)
}

// RPCError is an error reported by the provider itself, as opposed to a
// transport failure.
type RPCError struct {
	Code    int
	Message string
	Data    any
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

func NewRPCError(code int, message string) *RPCError {
	return &RPCError{Code: code, Message: message}
}

func IsUserRejected(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == CodeUserRejected
}
