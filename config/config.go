package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DEFAULT_REQUEST_TIMEOUT = 30
const DEFAULT_MAX_RECONNECT_ATTEMPTS = 10
const DEFAULT_PROVIDER_PATH = "/provider"

func LoadConfig(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close config file: %v\n", closeErr)
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	overrideWithEnv(&config)

	return &config, nil
}

func overrideWithEnv(config *Config) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("No .env file found or error loading it: %v", err)
	}

	if env := os.Getenv("ENVIRONMENT"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("PROVIDER_HOST"); host != "" {
		config.Provider.Host = host
	}
	if port := os.Getenv("PROVIDER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Provider.Port = p
		}
	}
	if path := os.Getenv("PROVIDER_PATH"); path != "" {
		config.Provider.Path = path
	}
	if apiKey := os.Getenv("PROVIDER_API_KEY"); apiKey != "" {
		config.Provider.APIKey = apiKey
	}
	if ssl := os.Getenv("PROVIDER_SSL"); ssl != "" {
		if s, err := strconv.ParseBool(ssl); err == nil {
			config.Provider.SSL = s
		}
	}
	if timeout := os.Getenv("PROVIDER_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			config.Provider.Timeout = t
		}
	}
	if autoReconnect := os.Getenv("PROVIDER_AUTO_RECONNECT"); autoReconnect != "" {
		if ar, err := strconv.ParseBool(autoReconnect); err == nil {
			config.Provider.AutoReconnect = ar
		}
	}
	if maxReconnect := os.Getenv("PROVIDER_MAX_RECONNECT_ATTEMPTS"); maxReconnect != "" {
		if mr, err := strconv.Atoi(maxReconnect); err == nil {
			config.Provider.MaxReconnectAttempts = mr
		}
	}

	if autoActivate := os.Getenv("CONNECTOR_AUTO_ACTIVATE"); autoActivate != "" {
		if aa, err := strconv.ParseBool(autoActivate); err == nil {
			config.Connector.AutoActivate = aa
		}
	}
	if pollInterval := os.Getenv("CONNECTOR_POLL_INTERVAL"); pollInterval != "" {
		if pi, err := strconv.Atoi(pollInterval); err == nil {
			config.Connector.PollInterval = pi
		}
	}
	if chainIDs := os.Getenv("CONNECTOR_SUPPORTED_CHAIN_IDS"); chainIDs != "" {
		if ids, err := ParseChainIDList(chainIDs); err == nil {
			config.Connector.SupportedChainIDs = ids
		} else {
			log.Printf("Ignoring CONNECTOR_SUPPORTED_CHAIN_IDS: %v", err)
		}
	}

	if host := os.Getenv("MQTT_HOST"); host != "" {
		config.MQTT.Host = host
	}
	if port := os.Getenv("MQTT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.MQTT.Port = p
		}
	}
	if username := os.Getenv("MQTT_USERNAME"); username != "" {
		config.MQTT.Username = username
	}
	if password := os.Getenv("MQTT_PASSWORD"); password != "" {
		config.MQTT.Password = password
	}
	if clientID := os.Getenv("MQTT_CLIENT_ID"); clientID != "" {
		config.MQTT.ClientID = clientID
	}
	if topicPrefix := os.Getenv("MQTT_TOPIC_PREFIX"); topicPrefix != "" {
		config.MQTT.TopicPrefix = topicPrefix
	}
	if qos := os.Getenv("MQTT_QOS"); qos != "" {
		if q, err := strconv.ParseUint(qos, 10, 8); err == nil {
			config.MQTT.QoS = byte(q)
		}
	}
	if retain := os.Getenv("MQTT_RETAIN"); retain != "" {
		if r, err := strconv.ParseBool(retain); err == nil {
			config.MQTT.Retain = r
		}
	}
	if autoReconnect := os.Getenv("MQTT_AUTO_RECONNECT"); autoReconnect != "" {
		if ar, err := strconv.ParseBool(autoReconnect); err == nil {
			config.MQTT.AutoReconnect = ar
		}
	}
	if maxReconnect := os.Getenv("MQTT_MAX_RECONNECT_ATTEMPTS"); maxReconnect != "" {
		if mr, err := strconv.Atoi(maxReconnect); err == nil {
			config.MQTT.MaxReconnectAttempts = mr
		}
	}
	if commandsEnabled := os.Getenv("MQTT_COMMANDS_ENABLED"); commandsEnabled != "" {
		if ce, err := strconv.ParseBool(commandsEnabled); err == nil {
			config.MQTT.CommandsEnabled = ce
		}
	}

	if enabled := os.Getenv("METRICS_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Metrics.Enabled = e
		}
	}
	if address := os.Getenv("METRICS_ADDRESS"); address != "" {
		config.Metrics.Address = address
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if file := os.Getenv("LOG_FILE"); file != "" {
		config.Logging.File = file
	}
}

// ParseChainIDList parses a comma separated list of decimal chain ids.
func ParseChainIDList(s string) ([]uint64, error) {
	var ids []uint64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chain id '%s': %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func SaveConfig(config *Config, filename string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close config file: %v\n", closeErr)
		}
	}()

	_, err = file.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func LoadOrCreateConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		config := DefaultConfig()

		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("default config validation failed: %w", err)
		}

		if err := SaveConfig(config, filename); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
		return config, nil
	}

	config, err := LoadConfig(filename)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func GenerateDefaultConfig(filename string) error {
	config := DefaultConfig()
	return SaveConfig(config, filename)
}

func (p *ProviderConfig) GetWebSocketURL() string {
	protocol := "ws"
	if p.SSL {
		protocol = "wss"
	}
	path := p.Path
	if path == "" {
		path = DEFAULT_PROVIDER_PATH
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("%s://%s:%d%s", protocol, p.Host, p.Port, path)
}

func (p *ProviderConfig) GetTimeout() time.Duration {
	if p.Timeout <= 0 {
		return time.Duration(DEFAULT_REQUEST_TIMEOUT) * time.Second
	}
	return time.Duration(p.Timeout) * time.Second
}

func (c *ConnectorConfig) GetPollInterval() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

func (m *MQTTConfig) GetMQTTBrokerURL() string {
	scheme := "tcp"
	if m.UseTLS {
		scheme = "tls"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, m.Host, m.Port)
}

func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Provider: ProviderConfig{
			Host:                 "localhost",
			Port:                 8546,
			Path:                 DEFAULT_PROVIDER_PATH,
			APIKey:               "",
			SSL:                  false,
			Timeout:              DEFAULT_REQUEST_TIMEOUT,
			AutoReconnect:        true,
			MaxReconnectAttempts: DEFAULT_MAX_RECONNECT_ATTEMPTS,
		},
		Connector: ConnectorConfig{
			AutoActivate:      true,
			PollInterval:      15,
			SupportedChainIDs: []uint64{56},
		},
		MQTT: MQTTConfig{
			Host:                 "localhost",
			Port:                 1883,
			Username:             "",
			Password:             "",
			UseTLS:               false,
			ClientID:             "walletbridge",
			TopicPrefix:          "wallet",
			QoS:                  0,
			Retain:               false,
			AutoReconnect:        true,
			MaxReconnectAttempts: DEFAULT_MAX_RECONNECT_ATTEMPTS,
			CommandsEnabled:      true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9102",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Provider.Validate(); err != nil {
		return fmt.Errorf("provider config validation failed: %w", err)
	}

	if err := c.Connector.Validate(); err != nil {
		return fmt.Errorf("connector config validation failed: %w", err)
	}

	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt config validation failed: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config validation failed: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}

	validEnvs := []string{"development", "production", "testing"}
	found := false
	for _, env := range validEnvs {
		if c.Environment == env {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid environment '%s', must be one of: %s", c.Environment, strings.Join(validEnvs, ", "))
	}

	return nil
}

func (p *ProviderConfig) Validate() error {
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("provider host cannot be empty")
	}

	if p.Port <= 0 || p.Port > 65535 {
		return fmt.Errorf("provider port must be between 1 and 65535, got %d", p.Port)
	}

	if p.Timeout <= 0 {
		return fmt.Errorf("provider timeout must be positive, got %d", p.Timeout)
	}

	if p.MaxReconnectAttempts < 0 {
		return fmt.Errorf("provider max reconnect attempts must be non-negative, got %d", p.MaxReconnectAttempts)
	}

	if strings.ContainsAny(p.Path, " ?#") {
		return fmt.Errorf("provider path must be a plain URL path, got '%s'", p.Path)
	}

	return nil
}

func (c *ConnectorConfig) Validate() error {
	if c.PollInterval < 0 {
		return fmt.Errorf("connector poll interval must be non-negative, got %d", c.PollInterval)
	}

	seen := make(map[uint64]bool, len(c.SupportedChainIDs))
	for _, id := range c.SupportedChainIDs {
		if id == 0 {
			return fmt.Errorf("connector supported chain ids cannot contain 0")
		}
		if seen[id] {
			return fmt.Errorf("connector supported chain id %d listed twice", id)
		}
		seen[id] = true
	}

	return nil
}

func (m *MQTTConfig) Validate() error {
	if strings.TrimSpace(m.Host) == "" {
		return fmt.Errorf("mqtt host cannot be empty")
	}

	if m.Port <= 0 || m.Port > 65535 {
		return fmt.Errorf("mqtt port must be between 1 and 65535, got %d", m.Port)
	}

	if strings.TrimSpace(m.ClientID) == "" {
		return fmt.Errorf("mqtt client ID cannot be empty")
	}

	if strings.TrimSpace(m.TopicPrefix) == "" {
		return fmt.Errorf("mqtt topic prefix cannot be empty")
	}

	if m.QoS > 2 {
		return fmt.Errorf("mqtt QoS must be 0, 1, or 2, got %d", m.QoS)
	}

	if m.MaxReconnectAttempts < 0 {
		return fmt.Errorf("mqtt max reconnect attempts must be non-negative, got %d", m.MaxReconnectAttempts)
	}

	if strings.HasPrefix(m.TopicPrefix, "/") || strings.HasSuffix(m.TopicPrefix, "/") {
		return fmt.Errorf("mqtt topic prefix should not start or end with '/', got '%s'", m.TopicPrefix)
	}

	return nil
}

func (m *MetricsConfig) Validate() error {
	if m.Enabled && strings.TrimSpace(m.Address) == "" {
		return fmt.Errorf("metrics address cannot be empty when metrics are enabled")
	}
	return nil
}

func (l *LoggingConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "warning", "error"}
	found := false
	level := strings.ToLower(l.Level)
	for _, validLevel := range validLevels {
		if level == validLevel {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log level '%s', must be one of: %s", l.Level, strings.Join(validLevels, ", "))
	}

	validFormats := []string{"text", "json"}
	found = false
	format := strings.ToLower(l.Format)
	for _, validFormat := range validFormats {
		if format == validFormat {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log format '%s', must be one of: %s", l.Format, strings.Join(validFormats, ", "))
	}

	return nil
}
