package config

type Config struct {
	Environment string          `yaml:"environment" env:"ENVIRONMENT"`
	Provider    ProviderConfig  `yaml:"provider"`
	Connector   ConnectorConfig `yaml:"connector"`
	MQTT        MQTTConfig      `yaml:"mqtt"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Logging     LoggingConfig   `yaml:"logging"`
}

// ProviderConfig points at the websocket bridge exposing the injected wallet provider.
type ProviderConfig struct {
	Host                 string `yaml:"host" env:"PROVIDER_HOST"`
	Port                 int    `yaml:"port" env:"PROVIDER_PORT"`
	Path                 string `yaml:"path" env:"PROVIDER_PATH"`
	APIKey               string `yaml:"api_key" env:"PROVIDER_API_KEY"`
	SSL                  bool   `yaml:"ssl" env:"PROVIDER_SSL"`
	Timeout              int    `yaml:"timeout" env:"PROVIDER_TIMEOUT"`
	AutoReconnect        bool   `yaml:"auto_reconnect" env:"PROVIDER_AUTO_RECONNECT"`
	MaxReconnectAttempts int    `yaml:"max_reconnect_attempts" env:"PROVIDER_MAX_RECONNECT_ATTEMPTS"`
}

type ConnectorConfig struct {
	AutoActivate      bool     `yaml:"auto_activate" env:"CONNECTOR_AUTO_ACTIVATE"`
	PollInterval      int      `yaml:"poll_interval" env:"CONNECTOR_POLL_INTERVAL"`
	SupportedChainIDs []uint64 `yaml:"supported_chain_ids" env:"CONNECTOR_SUPPORTED_CHAIN_IDS"`
}

type MQTTConfig struct {
	Host                 string `yaml:"host" env:"MQTT_HOST"`
	Port                 int    `yaml:"port" env:"MQTT_PORT"`
	Username             string `yaml:"username" env:"MQTT_USERNAME"`
	Password             string `yaml:"password" env:"MQTT_PASSWORD"`
	UseTLS               bool   `yaml:"use_tls" env:"MQTT_USE_TLS"`
	ClientID             string `yaml:"client_id" env:"MQTT_CLIENT_ID"`
	TopicPrefix          string `yaml:"topic_prefix" env:"MQTT_TOPIC_PREFIX"`
	QoS                  byte   `yaml:"qos" env:"MQTT_QOS"`
	Retain               bool   `yaml:"retain" env:"MQTT_RETAIN"`
	AutoReconnect        bool   `yaml:"auto_reconnect" env:"MQTT_AUTO_RECONNECT"`
	MaxReconnectAttempts int    `yaml:"max_reconnect_attempts" env:"MQTT_MAX_RECONNECT_ATTEMPTS"`
	CommandsEnabled      bool   `yaml:"commands_enabled" env:"MQTT_COMMANDS_ENABLED"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED"`
	Address string `yaml:"address" env:"METRICS_ADDRESS"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
	File   string `yaml:"file" env:"LOG_FILE"`
}
