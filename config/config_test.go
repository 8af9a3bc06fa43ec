package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validTestConfig() Config {
	return Config{
		Environment: "development",
		Provider: ProviderConfig{
			Host:                 "localhost",
			Port:                 8546,
			Timeout:              30,
			MaxReconnectAttempts: 10,
		},
		Connector: ConnectorConfig{
			PollInterval:      15,
			SupportedChainIDs: []uint64{56},
		},
		MQTT: MQTTConfig{
			Host:                 "localhost",
			Port:                 1883,
			ClientID:             "test-client",
			TopicPrefix:          "test",
			QoS:                  0,
			MaxReconnectAttempts: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func TestProviderConfig_GetWebSocketURL(t *testing.T) {
	tests := []struct {
		name     string
		config   ProviderConfig
		expected string
	}{
		{
			name:     "default path",
			config:   ProviderConfig{Host: "localhost", Port: 8546},
			expected: "ws://localhost:8546/provider",
		},
		{
			name:     "custom path without slash",
			config:   ProviderConfig{Host: "bridge", Port: 9000, Path: "bitkeep"},
			expected: "ws://bridge:9000/bitkeep",
		},
		{
			name:     "ssl",
			config:   ProviderConfig{Host: "bridge", Port: 443, Path: "/ws", SSL: true},
			expected: "wss://bridge:443/ws",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.GetWebSocketURL(); got != tt.expected {
				t.Errorf("GetWebSocketURL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestProviderConfig_GetTimeout(t *testing.T) {
	cfg := ProviderConfig{Timeout: 0}
	if got := cfg.GetTimeout(); got != DEFAULT_REQUEST_TIMEOUT*time.Second {
		t.Errorf("GetTimeout() = %v, want default", got)
	}

	cfg.Timeout = 5
	if got := cfg.GetTimeout(); got != 5*time.Second {
		t.Errorf("GetTimeout() = %v, want 5s", got)
	}
}

func TestParseChainIDList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []uint64
		wantErr  bool
	}{
		{name: "single", input: "56", expected: []uint64{56}},
		{name: "several with spaces", input: " 1, 56 ,97", expected: []uint64{1, 56, 97}},
		{name: "trailing comma", input: "56,", expected: []uint64{56}},
		{name: "not a number", input: "56,bsc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := ParseChainIDList(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseChainIDList() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(ids) != len(tt.expected) {
				t.Fatalf("ParseChainIDList() = %v, want %v", ids, tt.expected)
			}
			for i := range ids {
				if ids[i] != tt.expected[i] {
					t.Errorf("ParseChainIDList()[%d] = %d, want %d", i, ids[i], tt.expected[i])
				}
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid environment",
			mutate:  func(c *Config) { c.Environment = "invalid-env" },
			wantErr: true,
			errMsg:  "invalid environment",
		},
		{
			name:    "metrics enabled without address",
			mutate:  func(c *Config) { c.Metrics = MetricsConfig{Enabled: true} },
			wantErr: true,
			errMsg:  "metrics address cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validTestConfig()
			tt.mutate(&config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Config.Validate() error = %v, expected to contain %v", err, tt.errMsg)
			}
		})
	}
}

func TestProviderConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  ProviderConfig
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			config:  ProviderConfig{Host: "localhost", Port: 8546, Timeout: 30, MaxReconnectAttempts: 10},
			wantErr: false,
		},
		{
			name:    "empty host",
			config:  ProviderConfig{Host: "", Port: 8546, Timeout: 30},
			wantErr: true,
			errMsg:  "provider host cannot be empty",
		},
		{
			name:    "invalid port - too low",
			config:  ProviderConfig{Host: "localhost", Port: 0, Timeout: 30},
			wantErr: true,
			errMsg:  "provider port must be between 1 and 65535",
		},
		{
			name:    "invalid port - too high",
			config:  ProviderConfig{Host: "localhost", Port: 70000, Timeout: 30},
			wantErr: true,
			errMsg:  "provider port must be between 1 and 65535",
		},
		{
			name:    "invalid timeout",
			config:  ProviderConfig{Host: "localhost", Port: 8546, Timeout: -1},
			wantErr: true,
			errMsg:  "provider timeout must be positive",
		},
		{
			name:    "negative reconnect attempts",
			config:  ProviderConfig{Host: "localhost", Port: 8546, Timeout: 30, MaxReconnectAttempts: -1},
			wantErr: true,
			errMsg:  "provider max reconnect attempts must be non-negative",
		},
		{
			name:    "path with query",
			config:  ProviderConfig{Host: "localhost", Port: 8546, Timeout: 30, Path: "/provider?x=1"},
			wantErr: true,
			errMsg:  "provider path must be a plain URL path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("ProviderConfig.Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ProviderConfig.Validate() error = %v, expected to contain %v", err, tt.errMsg)
			}
		})
	}
}

func TestConnectorConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  ConnectorConfig
		wantErr bool
		errMsg  string
	}{
		{
			name:    "no supported chains",
			config:  ConnectorConfig{PollInterval: 0},
			wantErr: false,
		},
		{
			name:    "negative poll interval",
			config:  ConnectorConfig{PollInterval: -1},
			wantErr: true,
			errMsg:  "connector poll interval must be non-negative",
		},
		{
			name:    "zero chain id",
			config:  ConnectorConfig{SupportedChainIDs: []uint64{56, 0}},
			wantErr: true,
			errMsg:  "cannot contain 0",
		},
		{
			name:    "duplicate chain id",
			config:  ConnectorConfig{SupportedChainIDs: []uint64{56, 56}},
			wantErr: true,
			errMsg:  "listed twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("ConnectorConfig.Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ConnectorConfig.Validate() error = %v, expected to contain %v", err, tt.errMsg)
			}
		})
	}
}

func TestMQTTConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  MQTTConfig
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			config: MQTTConfig{
				Host:        "localhost",
				Port:        1883,
				ClientID:    "test-client",
				TopicPrefix: "test",
				QoS:         0,
			},
			wantErr: false,
		},
		{
			name: "empty host",
			config: MQTTConfig{
				Host:        "",
				Port:        1883,
				ClientID:    "test-client",
				TopicPrefix: "test",
			},
			wantErr: true,
			errMsg:  "mqtt host cannot be empty",
		},
		{
			name: "invalid QoS",
			config: MQTTConfig{
				Host:        "localhost",
				Port:        1883,
				ClientID:    "test-client",
				TopicPrefix: "test",
				QoS:         3,
			},
			wantErr: true,
			errMsg:  "mqtt QoS must be 0, 1, or 2",
		},
		{
			name: "topic prefix with leading slash",
			config: MQTTConfig{
				Host:        "localhost",
				Port:        1883,
				ClientID:    "test-client",
				TopicPrefix: "/test",
				QoS:         0,
			},
			wantErr: true,
			errMsg:  "mqtt topic prefix should not start or end with '/'",
		},
		{
			name: "topic prefix with trailing slash",
			config: MQTTConfig{
				Host:        "localhost",
				Port:        1883,
				ClientID:    "test-client",
				TopicPrefix: "test/",
				QoS:         0,
			},
			wantErr: true,
			errMsg:  "mqtt topic prefix should not start or end with '/'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("MQTTConfig.Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("MQTTConfig.Validate() error = %v, expected to contain %v", err, tt.errMsg)
			}
		})
	}
}

func TestLoggingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  LoggingConfig
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config - info/text",
			config:  LoggingConfig{Level: "info", Format: "text"},
			wantErr: false,
		},
		{
			name:    "valid config - debug/json",
			config:  LoggingConfig{Level: "debug", Format: "json"},
			wantErr: false,
		},
		{
			name:    "valid config - case insensitive",
			config:  LoggingConfig{Level: "INFO", Format: "TEXT"},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			config:  LoggingConfig{Level: "invalid", Format: "text"},
			wantErr: true,
			errMsg:  "invalid log level",
		},
		{
			name:    "invalid log format",
			config:  LoggingConfig{Level: "info", Format: "invalid"},
			wantErr: true,
			errMsg:  "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("LoggingConfig.Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("LoggingConfig.Validate() error = %v, expected to contain %v", err, tt.errMsg)
			}
		})
	}
}

func TestLoadOrCreateConfig(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name       string
		setupFile  func() string
		wantErr    bool
		errMsg     string
		expectFile bool
	}{
		{
			name: "file doesn't exist - creates default",
			setupFile: func() string {
				return filepath.Join(tmpDir, "new_config.yaml")
			},
			wantErr:    false,
			expectFile: true,
		},
		{
			name: "valid existing file",
			setupFile: func() string {
				path := filepath.Join(tmpDir, "valid_config.yaml")
				validConfig := `environment: development
provider:
  host: localhost
  port: 8546
  timeout: 30
connector:
  auto_activate: true
  poll_interval: 10
  supported_chain_ids: [56, 97]
mqtt:
  host: localhost
  port: 1883
  client_id: test-client
  topic_prefix: test
  qos: 0
logging:
  level: info
  format: text`
				if err := os.WriteFile(path, []byte(validConfig), 0644); err != nil {
					t.Fatalf("Failed to write valid config file: %v", err)
				}
				return path
			},
			wantErr:    false,
			expectFile: true,
		},
		{
			name: "invalid YAML file",
			setupFile: func() string {
				path := filepath.Join(tmpDir, "invalid_config.yaml")
				invalidConfig := `environment: development
provider:
  host: localhost
  port: invalid_port  # This should be a number
`
				if err := os.WriteFile(path, []byte(invalidConfig), 0644); err != nil {
					t.Fatalf("Failed to write invalid config file: %v", err)
				}
				return path
			},
			wantErr: true,
			errMsg:  "failed to parse config file",
		},
		{
			name: "config with validation errors",
			setupFile: func() string {
				path := filepath.Join(tmpDir, "validation_error_config.yaml")
				invalidConfig := `environment: invalid_environment
provider:
  host: localhost
  port: 8546
  timeout: 30
mqtt:
  host: localhost
  port: 1883
  client_id: test-client
  topic_prefix: test
  qos: 0
logging:
  level: info
  format: text`
				if err := os.WriteFile(path, []byte(invalidConfig), 0644); err != nil {
					t.Fatalf("Failed to write invalid config file: %v", err)
				}
				return path
			},
			wantErr: true,
			errMsg:  "config validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := tt.setupFile()

			config, err := LoadOrCreateConfig(configPath)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadOrCreateConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("LoadOrCreateConfig() error = %v, expected to contain %v", err, tt.errMsg)
				}
				return
			}

			if config == nil {
				t.Error("LoadOrCreateConfig() returned nil config without error")
				return
			}

			if err := config.Validate(); err != nil {
				t.Errorf("LoadOrCreateConfig() returned invalid config: %v", err)
			}

			if tt.expectFile {
				if _, err := os.Stat(configPath); os.IsNotExist(err) {
					t.Errorf("LoadOrCreateConfig() expected to create file %v but it doesn't exist", configPath)
				}
			}
		})
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := GenerateDefaultConfig(path); err != nil {
		t.Fatalf("GenerateDefaultConfig() failed: %v", err)
	}

	t.Setenv("PROVIDER_HOST", "bridge.local")
	t.Setenv("PROVIDER_PORT", "9001")
	t.Setenv("CONNECTOR_SUPPORTED_CHAIN_IDS", "56,97")
	t.Setenv("METRICS_ENABLED", "true")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Provider.Host != "bridge.local" {
		t.Errorf("Expected provider host override, got '%s'", cfg.Provider.Host)
	}
	if cfg.Provider.Port != 9001 {
		t.Errorf("Expected provider port override, got %d", cfg.Provider.Port)
	}
	if len(cfg.Connector.SupportedChainIDs) != 2 || cfg.Connector.SupportedChainIDs[1] != 97 {
		t.Errorf("Expected supported chain ids [56 97], got %v", cfg.Connector.SupportedChainIDs)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Expected metrics to be enabled by env override")
	}
}

func TestMQTTConfig_GetMQTTBrokerURL(t *testing.T) {
	cfg := MQTTConfig{Host: "broker.local", Port: 1883}
	if got := cfg.GetMQTTBrokerURL(); got != "tcp://broker.local:1883" {
		t.Errorf("GetMQTTBrokerURL() = %s", got)
	}

	cfg.UseTLS = true
	cfg.Port = 8883
	if got := cfg.GetMQTTBrokerURL(); got != "tls://broker.local:8883" {
		t.Errorf("GetMQTTBrokerURL() = %s", got)
	}
}

func TestConnectorConfig_GetPollInterval(t *testing.T) {
	cfg := ConnectorConfig{PollInterval: 15}
	if got := cfg.GetPollInterval(); got != 15*time.Second {
		t.Errorf("GetPollInterval() = %v, want 15s", got)
	}
}
