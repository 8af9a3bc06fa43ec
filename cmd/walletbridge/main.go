package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"walletbridge/chains"
	"walletbridge/config"
	"walletbridge/connector"
	"walletbridge/logger"
	"walletbridge/metrics"
	"walletbridge/mqtt"
	"walletbridge/provider"
	"walletbridge/version"
)

const (
	DEFAULT_CONFIG_FILE     = "config.yaml"
	PUBLISH_RETRIES         = 3
	ACTIVATION_ATTEMPTS     = 3
	MAX_CONSECUTIVE_ERRORS  = 5
	SHUTDOWN_TIMEOUT        = 10 * time.Second
	STATE_ACTIVE            = "active"
	STATE_INACTIVE          = "inactive"
	COMMAND_ACTIVATE        = "activate"
	COMMAND_DEACTIVATE      = "deactivate"
	COMMAND_GET_CHAIN_ID    = "get_chain_id"
	COMMAND_GET_ACCOUNT     = "get_account"
	TOPIC_ACCOUNT           = "account"
	TOPIC_CHAIN             = "chain"
	TOPIC_STATE             = "state"
	TOPIC_COMMANDS          = "commands"
	TOPIC_RESPONSES         = "responses"
	COMMAND_RESULT_OK       = "ok"
	UNKNOWN_COMMAND_MESSAGE = "unknown command"
)

type AccountPayload struct {
	Account   string `json:"account"`
	SessionID string `json:"session_id,omitempty"`
}

type ChainPayload struct {
	ChainID   any    `json:"chain_id"`
	Name      string `json:"name,omitempty"`
	Supported bool   `json:"supported"`
	SessionID string `json:"session_id,omitempty"`
}

type StatePayload struct {
	State     string `json:"state"`
	SessionID string `json:"session_id,omitempty"`
}

type CommandRequest struct {
	Command string `json:"command"`
}

type CommandResponse struct {
	Command   string `json:"command"`
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

type App struct {
	config     *config.Config
	remote     *provider.RemoteProvider
	connector  *connector.WalletConnector
	mqttClient mqtt.MQTTClient
	logger     logger.Logger

	runCtx context.Context

	sessionMux  sync.RWMutex
	sessionID   string
	lastAccount string
	lastChainID any
}

func NewApp(configFile string) (*App, error) {
	cfg, err := config.LoadOrCreateConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logger.New(&cfg.Logging, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	remote := provider.NewRemoteProvider(&cfg.Provider, logger)
	locator := connector.LocatorFunc(func() provider.Provider {
		if !remote.IsConnected() {
			return nil
		}
		return remote
	})

	app := newApp(cfg, logger, mqtt.NewPahoClient(&cfg.MQTT, logger), locator)
	app.remote = remote
	return app, nil
}

func newApp(cfg *config.Config, logger logger.Logger, mqttClient mqtt.MQTTClient, locator connector.Locator) *App {
	app := &App{
		config:     cfg,
		mqttClient: mqttClient,
		logger:     logger,
		runCtx:     context.Background(),
	}
	app.connector = connector.NewWalletConnector(locator, connector.Config{
		SupportedChainIDs: cfg.Connector.SupportedChainIDs,
	}, logger)
	app.connector.Subscribe(app)
	return app
}

func (a *App) topic(parts ...string) string {
	topic := a.config.MQTT.TopicPrefix
	for _, part := range parts {
		topic += "/" + part
	}
	return topic
}

func (a *App) publishJSON(topic string, v any, retain bool) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", topic, err)
	}
	if !a.mqttClient.IsConnected() {
		a.logger.Debug("MQTT not connected, dropping message for %s", topic)
		return nil
	}
	if err := a.mqttClient.Publish(topic, data, a.config.MQTT.QoS, retain, PUBLISH_RETRIES); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (a *App) session() string {
	a.sessionMux.RLock()
	defer a.sessionMux.RUnlock()
	return a.sessionID
}

// checksumAccount renders hex addresses in EIP-55 form and leaves anything
// else untouched.
func checksumAccount(account string) string {
	if common.IsHexAddress(account) {
		return common.HexToAddress(account).Hex()
	}
	return account
}

func (a *App) publishAccount(account string) {
	payload := AccountPayload{Account: checksumAccount(account), SessionID: a.session()}
	if err := a.publishJSON(a.topic(TOPIC_ACCOUNT), payload, a.config.MQTT.Retain); err != nil {
		a.logger.Error("Failed to publish account: %v", err)
	}
}

func (a *App) chainPayload(chainID any) ChainPayload {
	payload := ChainPayload{
		ChainID:   chainID,
		Supported: a.connector.IsSupportedChain(chainID),
		SessionID: a.session(),
	}
	if id, err := chains.ParseChainID(chainID); err == nil {
		if name, ok := chains.Name(id); ok {
			payload.Name = name
		}
	}
	return payload
}

func (a *App) publishChain(chainID any) {
	payload := a.chainPayload(chainID)
	if !payload.Supported {
		a.logger.Warn("Wallet is on unsupported chain %v", chainID)
	}
	if err := a.publishJSON(a.topic(TOPIC_CHAIN), payload, a.config.MQTT.Retain); err != nil {
		a.logger.Error("Failed to publish chain: %v", err)
	}
}

func (a *App) publishState(state string) {
	payload := StatePayload{State: state, SessionID: a.session()}
	if err := a.publishJSON(a.topic(TOPIC_STATE), payload, a.config.MQTT.Retain); err != nil {
		a.logger.Error("Failed to publish state: %v", err)
	}
}

func (a *App) OnUpdate(update connector.ConnectionUpdate) {
	a.logger.Debug("Connection update: account=%q chain=%v", update.Account, update.ChainID)

	if update.Account != "" {
		a.sessionMux.Lock()
		a.lastAccount = update.Account
		a.sessionMux.Unlock()
		a.publishAccount(update.Account)
	}
	if update.ChainID != nil {
		a.sessionMux.Lock()
		a.lastChainID = update.ChainID
		a.sessionMux.Unlock()
		a.publishChain(update.ChainID)
	}
	a.publishState(STATE_ACTIVE)
}

func (a *App) OnDeactivate() {
	a.logger.Info("Wallet session ended")
	a.publishState(STATE_INACTIVE)

	a.sessionMux.Lock()
	a.sessionID = ""
	a.lastAccount = ""
	a.lastChainID = nil
	a.sessionMux.Unlock()
}

// activate starts a new session and publishes its chain id.
func (a *App) activate(ctx context.Context) (connector.ConnectionUpdate, error) {
	a.sessionMux.Lock()
	a.sessionID = uuid.NewString()
	a.sessionMux.Unlock()

	update, err := a.connector.Activate(ctx)
	if err != nil {
		a.sessionMux.Lock()
		a.sessionID = ""
		a.sessionMux.Unlock()
		return update, err
	}

	chainID, err := a.connector.GetChainID(ctx)
	if err != nil {
		a.logger.Warn("Failed to read chain id after activation: %v", err)
		return update, nil
	}
	if chainID != nil {
		a.OnUpdate(connector.ConnectionUpdate{ChainID: chainID})
	}
	return update, nil
}

func (a *App) autoActivate(ctx context.Context) {
	for attempt := 1; attempt <= ACTIVATION_ATTEMPTS; attempt++ {
		_, err := a.activate(ctx)
		if err == nil {
			a.logger.Info("Wallet activated")
			return
		}

		var rejected *connector.UserRejectedRequestError
		if errors.As(err, &rejected) {
			a.logger.Warn("Wallet activation rejected by the user, waiting for an activate command")
			return
		}

		a.logger.Warn("Failed to activate wallet (attempt %d/%d): %v", attempt, ACTIVATION_ATTEMPTS, err)
		if attempt == ACTIVATION_ATTEMPTS {
			a.logger.Error("Failed to activate wallet after %d attempts, waiting for an activate command", ACTIVATION_ATTEMPTS)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second * time.Duration(attempt)):
		}
	}
}

// HandleCommand is the MQTT handler for the command topic.
func (a *App) HandleCommand(topic string, payload []byte) {
	go a.runCommand(payload)
}

func (a *App) runCommand(payload []byte) {
	var req CommandRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		a.logger.Warn("Ignoring malformed command: %v", err)
		return
	}
	if req.Command == "" {
		a.logger.Warn("Ignoring command without a name")
		return
	}

	ctx, cancel := context.WithTimeout(a.runCtx, a.config.Provider.GetTimeout())
	defer cancel()

	response := a.executeCommand(ctx, req.Command)
	if err := a.publishJSON(a.topic(TOPIC_RESPONSES, req.Command), response, false); err != nil {
		a.logger.Error("Failed to publish command response: %v", err)
	}
}

func (a *App) executeCommand(ctx context.Context, command string) CommandResponse {
	a.logger.Info("Executing command: %s", command)

	response := CommandResponse{Command: command}
	var (
		result any
		err    error
	)

	switch command {
	case COMMAND_ACTIVATE:
		var update connector.ConnectionUpdate
		update, err = a.activate(ctx)
		if err == nil {
			result = AccountPayload{Account: checksumAccount(update.Account)}
		}
	case COMMAND_DEACTIVATE:
		a.connector.Deactivate()
		result = COMMAND_RESULT_OK
	case COMMAND_GET_CHAIN_ID:
		var chainID any
		chainID, err = a.connector.GetChainID(ctx)
		if err == nil {
			result = a.chainPayload(chainID)
		}
	case COMMAND_GET_ACCOUNT:
		var account string
		account, err = a.connector.GetAccount(ctx)
		if err == nil {
			result = AccountPayload{Account: checksumAccount(account)}
		}
	default:
		err = fmt.Errorf("%s: %s", UNKNOWN_COMMAND_MESSAGE, command)
	}

	if err != nil {
		a.logger.Warn("Command %s failed: %v", command, err)
		response.Error = err.Error()
	} else {
		response.Result = result
	}
	response.SessionID = a.session()
	return response
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting walletbridge %s", version.Version)
	a.runCtx = ctx

	if a.config.Metrics.Enabled {
		srv := metrics.Serve(a.config.Metrics.Address)
		a.logger.Info("Serving metrics on %s", a.config.Metrics.Address)
		defer a.shutdownMetrics(srv)
	}

	if err := a.mqttClient.Connect(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	defer func() {
		if err := a.mqttClient.Disconnect(); err != nil {
			a.logger.Error("Failed to disconnect from MQTT broker: %v", err)
		}
	}()

	if a.remote != nil {
		if err := a.remote.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to wallet provider: %w", err)
		}
		defer func() {
			if err := a.remote.Close(); err != nil {
				a.logger.Error("Failed to disconnect from wallet provider: %v", err)
			}
		}()
	}

	a.logger.Info("Successfully connected to both the wallet provider and MQTT")

	if a.config.MQTT.CommandsEnabled {
		commandTopic := a.topic(TOPIC_COMMANDS)
		if err := a.mqttClient.Subscribe(commandTopic, a.HandleCommand); err != nil {
			a.logger.Warn("Failed to subscribe to command topic %s: %v", commandTopic, err)
		} else {
			a.logger.Info("Subscribed to command topic: %s", commandTopic)
		}
	}

	a.publishState(STATE_INACTIVE)

	if a.config.Connector.AutoActivate {
		a.autoActivate(ctx)
	}

	if interval := a.config.Connector.GetPollInterval(); interval > 0 {
		go a.periodicMonitoring(ctx, interval)
	}

	<-ctx.Done()
	a.logger.Info("Shutting down...")
	a.connector.Deactivate()

	return nil
}

func (a *App) shutdownMetrics(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		a.logger.Error("Failed to stop metrics server: %v", err)
	}
}

func (a *App) periodicMonitoring(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	consecutiveErrors := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if a.connector.State() != connector.StateActive {
				continue
			}
			if err := a.refresh(ctx); err != nil {
				consecutiveErrors++
				a.logger.Error("Failed to refresh wallet state (error %d/%d): %v", consecutiveErrors, MAX_CONSECUTIVE_ERRORS, err)

				if consecutiveErrors == MAX_CONSECUTIVE_ERRORS {
					a.logger.Warn("Too many consecutive errors, slowing down polling interval")
					ticker.Reset(interval * 2)
				}
			} else if consecutiveErrors > 0 {
				a.logger.Info("Refreshed wallet state after %d errors, resuming normal polling", consecutiveErrors)
				consecutiveErrors = 0
				ticker.Reset(interval)
			}
		}
	}
}

// refresh re-queries chain id and account and publishes whichever changed.
func (a *App) refresh(ctx context.Context) error {
	queryCtx, cancel := context.WithTimeout(ctx, a.config.Provider.GetTimeout())
	defer cancel()

	chainID, err := a.connector.GetChainID(queryCtx)
	if err != nil {
		return fmt.Errorf("failed to get chain id: %w", err)
	}
	account, err := a.connector.GetAccount(queryCtx)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}

	a.sessionMux.RLock()
	chainChanged := chainID != nil && !reflect.DeepEqual(chainID, a.lastChainID)
	accountChanged := account != "" && account != a.lastAccount
	a.sessionMux.RUnlock()

	if chainChanged || accountChanged {
		update := connector.ConnectionUpdate{}
		if chainChanged {
			update.ChainID = chainID
		}
		if accountChanged {
			update.Account = account
		}
		a.OnUpdate(update)
	}
	return nil
}

func main() {
	configFile := flag.String("config", DEFAULT_CONFIG_FILE, "Configuration file path")
	generateConfig := flag.Bool("generate-config", false, "Generate a default configuration file and exit")
	showVersion := flag.Bool("version", false, "Show version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("walletbridge version %s\n", version.Version)
		fmt.Printf("Git Commit: %s\n", version.GitCommit)
		fmt.Printf("Git URL: %s\n", version.GitURL)
		fmt.Printf("Build Date: %s\n", version.BuildDate)
		return
	}

	if *generateConfig {
		err := config.GenerateDefaultConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to generate config: %v", err)
		}
		fmt.Printf("Default configuration generated at %s\n", *configFile)
		return
	}

	app, err := NewApp(*configFile)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sigCount := 0
		for {
			<-sigChan
			sigCount++
			if sigCount == 1 {
				log.Println("Received shutdown signal")
				log.Println("Initiating graceful shutdown... (press Ctrl+C again to force quit)")
				cancel()

				go func() {
					time.Sleep(SHUTDOWN_TIMEOUT)
					log.Println("Force shutdown after 10 seconds")
					os.Exit(1)
				}()
			} else {
				log.Println("Force quit requested")
				os.Exit(1)
			}
		}
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("Application error: %v", err)
	}

	log.Println("Application shutdown complete")
}
