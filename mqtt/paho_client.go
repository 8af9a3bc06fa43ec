package mqtt

import (
	"fmt"
	"sync"
	"time"

	"walletbridge/config"
	"walletbridge/logger"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	PUBLISH_RETRY_DELAY = 200 * time.Millisecond
	DISCONNECT_QUIESCE  = 250
)

type MQTTClient interface {
	Connect() error
	Disconnect() error
	IsConnected() bool
	Publish(topic string, payload []byte, qos byte, retain bool, maxRetries int) error
	Subscribe(topic string, handler MessageHandler) error
	Unsubscribe(topic string) error
}

type MessageHandler func(topic string, payload []byte)

type PahoClient struct {
	config *config.MQTTConfig
	client mqtt.Client
	logger logger.Logger

	subscribersMux sync.RWMutex
	subscribers    map[string]MessageHandler
}

func NewPahoClient(cfg *config.MQTTConfig, logger logger.Logger) *PahoClient {
	return &PahoClient{
		config:      cfg,
		logger:      logger,
		subscribers: make(map[string]MessageHandler),
	}
}

func (c *PahoClient) Connect() error {
	opts := mqtt.NewClientOptions()

	brokerURL := c.config.GetMQTTBrokerURL()
	opts.AddBroker(brokerURL)
	opts.SetClientID(c.config.ClientID)

	if c.config.Username != "" {
		opts.SetUsername(c.config.Username)
	}

	if c.config.Password != "" {
		opts.SetPassword(c.config.Password)
	}

	opts.SetKeepAlive(60 * time.Second)
	opts.SetDefaultPublishHandler(c.defaultMessageHandler)
	opts.SetPingTimeout(30 * time.Second)
	opts.SetConnectTimeout(30 * time.Second)
	opts.SetAutoReconnect(c.config.AutoReconnect)
	opts.SetMaxReconnectInterval(10 * time.Second)
	opts.SetConnectionLostHandler(c.connectionLostHandler)
	opts.SetOnConnectHandler(c.onConnectHandler)
	opts.SetReconnectingHandler(c.reconnectingHandler)

	c.client = mqtt.NewClient(opts)

	c.logger.Info("Connecting to MQTT broker at %s", brokerURL)

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	c.logger.Info("Successfully connected to MQTT broker")
	return nil
}

func (c *PahoClient) Disconnect() error {
	if c.client != nil && c.client.IsConnected() {
		c.logger.Info("Disconnecting from MQTT broker")
		c.client.Disconnect(DISCONNECT_QUIESCE)
	}
	return nil
}

func (c *PahoClient) IsConnected() bool {
	if c.client == nil {
		return false
	}
	return c.client.IsConnected()
}

// Publish tries up to maxRetries+1 times before giving up.
func (c *PahoClient) Publish(topic string, payload []byte, qos byte, retain bool, maxRetries int) error {
	if !c.IsConnected() {
		return fmt.Errorf("not connected to MQTT broker")
	}

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("Retrying publish to %s (%d/%d)", topic, attempt, maxRetries)
			time.Sleep(PUBLISH_RETRY_DELAY * time.Duration(attempt))
		}

		token := c.client.Publish(topic, qos, retain, payload)
		if token.Wait() && token.Error() != nil {
			err = token.Error()
			continue
		}
		return nil
	}

	return fmt.Errorf("failed to publish message: %w", err)
}

func (c *PahoClient) Subscribe(topic string, handler MessageHandler) error {
	if !c.IsConnected() {
		return fmt.Errorf("not connected to MQTT broker")
	}

	c.subscribersMux.Lock()
	c.subscribers[topic] = handler
	c.subscribersMux.Unlock()

	token := c.client.Subscribe(topic, c.config.QoS, c.route)
	if token.Wait() && token.Error() != nil {
		c.subscribersMux.Lock()
		delete(c.subscribers, topic)
		c.subscribersMux.Unlock()
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}

	c.logger.Info("Successfully subscribed to topic: %s", topic)
	return nil
}

func (c *PahoClient) Unsubscribe(topic string) error {
	if !c.IsConnected() {
		return fmt.Errorf("not connected to MQTT broker")
	}

	token := c.client.Unsubscribe(topic)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to unsubscribe from topic %s: %w", topic, token.Error())
	}

	c.subscribersMux.Lock()
	delete(c.subscribers, topic)
	c.subscribersMux.Unlock()

	c.logger.Info("Successfully unsubscribed from topic: %s", topic)
	return nil
}

func (c *PahoClient) route(_ mqtt.Client, msg mqtt.Message) {
	c.dispatch(msg.Topic(), msg.Payload())
}

func (c *PahoClient) dispatch(topic string, payload []byte) {
	c.subscribersMux.RLock()
	handler, exists := c.subscribers[topic]
	c.subscribersMux.RUnlock()

	if !exists {
		c.logger.Debug("No handler for topic %s", topic)
		return
	}
	handler(topic, payload)
}

func (c *PahoClient) defaultMessageHandler(client mqtt.Client, msg mqtt.Message) {
	c.logger.Debug("Received message on topic %s: %s", msg.Topic(), string(msg.Payload()))
}

func (c *PahoClient) connectionLostHandler(client mqtt.Client, err error) {
	c.logger.Warn("MQTT connection lost: %v", err)
}

func (c *PahoClient) onConnectHandler(client mqtt.Client) {
	c.logger.Info("MQTT connection established")

	c.subscribersMux.RLock()
	topics := make([]string, 0, len(c.subscribers))
	for topic := range c.subscribers {
		topics = append(topics, topic)
	}
	c.subscribersMux.RUnlock()

	for _, topic := range topics {
		c.logger.Info("Resubscribing to topic: %s", topic)
		token := client.Subscribe(topic, c.config.QoS, c.route)
		if token.Wait() && token.Error() != nil {
			c.logger.Error("Failed to resubscribe to topic %s: %v", topic, token.Error())
		}
	}
}

func (c *PahoClient) reconnectingHandler(client mqtt.Client, opts *mqtt.ClientOptions) {
	c.logger.Info("Attempting to reconnect to MQTT broker...")
}
