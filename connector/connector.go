// Package connector drives an injected wallet provider: activation with
// account discovery, chain id and account queries with ordered fallbacks,
// provider event relay, and deactivation.
package connector

import (
	"context"
	"errors"
	"sync"

	"walletbridge/chains"
	"walletbridge/logger"
	"walletbridge/metrics"
	"walletbridge/provider"
)

type State int

const (
	StateInactive State = iota
	StateActive
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	default:
		return "inactive"
	}
}

// ConnectionUpdate carries the values that changed. An empty Account, a nil
// ChainID or a nil Provider means that field is unchanged.
type ConnectionUpdate struct {
	Account  string
	ChainID  any
	Provider provider.Provider
}

type Subscriber interface {
	OnUpdate(update ConnectionUpdate)
	OnDeactivate()
}

// Locator returns the currently injected provider, or nil when there is none.
type Locator interface {
	Provider() provider.Provider
}

type LocatorFunc func() provider.Provider

func (f LocatorFunc) Provider() provider.Provider {
	return f()
}

// StaticLocator always returns p.
func StaticLocator(p provider.Provider) Locator {
	return LocatorFunc(func() provider.Provider { return p })
}

type Config struct {
	SupportedChainIDs []uint64
}

var providerEvents = []string{
	provider.EventChainChanged,
	provider.EventAccountsChanged,
	provider.EventClose,
}

type WalletConnector struct {
	locator Locator
	config  Config
	logger  logger.Logger

	mu          sync.Mutex
	state       State
	current     provider.Provider
	emitter     provider.EventEmitter
	listening   bool
	generation  uint64
	subscribers []Subscriber
}

func NewWalletConnector(locator Locator, cfg Config, logger logger.Logger) *WalletConnector {
	return &WalletConnector{
		locator: locator,
		config:  cfg,
		logger:  logger,
		state:   StateInactive,
	}
}

func (c *WalletConnector) Subscribe(s Subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, s)
}

func (c *WalletConnector) Unsubscribe(s Subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, sub := range c.subscribers {
		if sub == s {
			c.subscribers = append(c.subscribers[:i:i], c.subscribers[i+1:]...)
			return
		}
	}
}

func (c *WalletConnector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Activate asks the wallet for permission and discovers the account. On
// success the connector is Active and subscribers receive the returned
// update. A rejected permission request fails with UserRejectedRequestError
// without trying enable. When the session is torn down or replaced before
// the queries finish, Activate fails with ErrDeactivatedDuringActivation.
func (c *WalletConnector) Activate(ctx context.Context) (ConnectionUpdate, error) {
	p := c.locator.Provider()
	if p == nil {
		metrics.ActivationsTotal.WithLabelValues("no_provider").Inc()
		return ConnectionUpdate{}, NewNoProviderFoundError()
	}

	generation := c.subscribe(p)

	if id, ok := p.(provider.WalletIdentifier); ok && id.IsBitKeep() {
		if setter, ok := p.(provider.AutoRefreshSetter); ok {
			setter.SetAutoRefreshOnNetworkChange(false)
		}
	}

	v, err := c.runTiers(ctx, QUERY_ACTIVATE, p, activateTiers, accountValue)
	if err != nil {
		c.abortActivation(generation)
		var rejected *UserRejectedRequestError
		if errors.As(err, &rejected) {
			metrics.ActivationsTotal.WithLabelValues("rejected").Inc()
		} else {
			metrics.ActivationsTotal.WithLabelValues("failed").Inc()
		}
		c.logger.Warn("Wallet activation failed: %v", err)
		return ConnectionUpdate{}, err
	}

	update := ConnectionUpdate{Provider: p}
	if account, ok := v.(string); ok {
		update.Account = account
	}

	c.mu.Lock()
	current := c.generation == generation && c.listening
	if current {
		c.state = StateActive
	}
	c.mu.Unlock()

	if !current {
		metrics.ActivationsTotal.WithLabelValues("failed").Inc()
		err := NewQueryFailedError(QUERY_ACTIVATE, ErrDeactivatedDuringActivation)
		c.logger.Warn("Wallet activation failed: %v", err)
		return ConnectionUpdate{}, err
	}

	metrics.ActivationsTotal.WithLabelValues("success").Inc()
	if update.Account == "" {
		c.logger.Info("Wallet activated without an account")
	} else {
		c.logger.Info("Wallet activated for account %s", update.Account)
	}

	c.emitUpdate(update)
	return update, nil
}

// GetChainID returns the chain id as the provider reports it, or nil when no
// query produced one.
func (c *WalletConnector) GetChainID(ctx context.Context) (any, error) {
	p := c.locator.Provider()
	if p == nil {
		return nil, NewNoProviderFoundError()
	}
	return c.runTiers(ctx, QUERY_CHAIN_ID, p, chainIDTiers, chainIDValue)
}

// GetAccount returns the first account, or "" when none is exposed. Only a
// failure of the final legacy query is returned as an error.
func (c *WalletConnector) GetAccount(ctx context.Context) (string, error) {
	p := c.locator.Provider()
	if p == nil {
		return "", NewNoProviderFoundError()
	}
	v, err := c.runTiers(ctx, QUERY_ACCOUNT, p, accountTiers, accountValue)
	if err != nil {
		return "", err
	}
	account, _ := v.(string)
	return account, nil
}

func (c *WalletConnector) GetProvider() (provider.Provider, error) {
	p := c.locator.Provider()
	if p == nil {
		return nil, NewNoProviderFoundError()
	}
	return p, nil
}

// Deactivate removes the event handlers and returns to Inactive. Subscribers
// are told only when the connector was Active.
func (c *WalletConnector) Deactivate() {
	if wasActive := c.teardown(); wasActive {
		c.logger.Info("Wallet deactivated")
		c.emitDeactivate()
	}
}

// IsSupportedChain reports whether chainID is in the configured list. Any
// chain is supported when no list is configured.
func (c *WalletConnector) IsSupportedChain(chainID any) bool {
	if len(c.config.SupportedChainIDs) == 0 {
		return true
	}
	id, err := chains.ParseChainID(chainID)
	if err != nil {
		return false
	}
	for _, supported := range c.config.SupportedChainIDs {
		if supported == id {
			return true
		}
	}
	return false
}

// OnProviderEvent relays provider events while the connector is subscribed.
func (c *WalletConnector) OnProviderEvent(event string, args ...any) {
	c.mu.Lock()
	listening := c.listening
	p := c.current
	c.mu.Unlock()

	if !listening {
		c.logger.Debug("Ignoring %s after deactivation", event)
		return
	}
	metrics.EventsTotal.WithLabelValues(event).Inc()

	switch event {
	case provider.EventChainChanged:
		var chainID any
		if len(args) > 0 {
			chainID = args[0]
		}
		c.logger.Debug("Chain changed: %v", chainID)
		c.emitUpdate(ConnectionUpdate{ChainID: chainID, Provider: p})
	case provider.EventAccountsChanged:
		var accounts []string
		if len(args) > 0 {
			accounts = provider.Accounts(args[0])
		}
		if len(accounts) == 0 {
			c.logger.Info("Wallet reported no accounts, deactivating")
			c.teardown()
			c.emitDeactivate()
			return
		}
		c.logger.Debug("Accounts changed: %s", accounts[0])
		c.emitUpdate(ConnectionUpdate{Account: accounts[0]})
	case provider.EventClose:
		c.logger.Info("Wallet provider closed the connection: %v", args)
		c.teardown()
		c.emitDeactivate()
	}
}

// subscribe registers for provider events on p, dropping any earlier
// registration first. It returns the generation of the new registration.
func (c *WalletConnector) subscribe(p provider.Provider) uint64 {
	c.mu.Lock()
	previous := c.emitter
	c.emitter = nil
	c.listening = false
	c.current = p
	c.generation++
	generation := c.generation
	c.mu.Unlock()

	removeListeners(previous, c)

	emitter, ok := p.(provider.EventEmitter)
	if ok {
		for _, event := range providerEvents {
			emitter.On(event, c)
		}
	}

	c.mu.Lock()
	stale := c.generation != generation
	if !stale {
		if ok {
			c.emitter = emitter
		}
		c.listening = true
	}
	c.mu.Unlock()

	// Torn down or replaced while registering.
	if stale && ok {
		removeListeners(emitter, c)
	}
	return generation
}

// abortActivation tears down a failed activation unless a later teardown or
// activation already replaced it.
func (c *WalletConnector) abortActivation(generation uint64) {
	c.mu.Lock()
	if c.generation != generation {
		c.mu.Unlock()
		return
	}
	emitter, wasActive := c.detachLocked()
	c.mu.Unlock()

	removeListeners(emitter, c)
	if wasActive {
		c.logger.Info("Wallet deactivated")
		c.emitDeactivate()
	}
}

// teardown removes the event handlers and reports whether the connector was
// Active.
func (c *WalletConnector) teardown() bool {
	c.mu.Lock()
	emitter, wasActive := c.detachLocked()
	c.mu.Unlock()

	removeListeners(emitter, c)
	return wasActive
}

// detachLocked resets the session under c.mu and ends the current
// generation. The caller removes the returned emitter's listeners.
func (c *WalletConnector) detachLocked() (provider.EventEmitter, bool) {
	emitter := c.emitter
	wasActive := c.state == StateActive
	c.emitter = nil
	c.current = nil
	c.listening = false
	c.state = StateInactive
	c.generation++
	return emitter, wasActive
}

func removeListeners(emitter provider.EventEmitter, l provider.Listener) {
	if emitter == nil {
		return
	}
	for _, event := range providerEvents {
		emitter.RemoveListener(event, l)
	}
}

func (c *WalletConnector) snapshotSubscribers() []Subscriber {
	c.mu.Lock()
	defer c.mu.Unlock()
	subs := make([]Subscriber, len(c.subscribers))
	copy(subs, c.subscribers)
	return subs
}

func (c *WalletConnector) emitUpdate(update ConnectionUpdate) {
	for _, s := range c.snapshotSubscribers() {
		s.OnUpdate(update)
	}
}

func (c *WalletConnector) emitDeactivate() {
	for _, s := range c.snapshotSubscribers() {
		s.OnDeactivate()
	}
}
