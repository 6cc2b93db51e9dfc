package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// DefaultTopic is where samples go when no topic is configured
const DefaultTopic = "speedctl/state"

// MQTTPublisher publishes samples as JSON to a single topic
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	logger *slog.Logger
}

var _ Publisher = &MQTTPublisher{}

// NewMQTTPublisher connects to broker, which is a host, host:port or a full URL. The client
// reconnects on its own after the first connection succeeds.
func NewMQTTPublisher(broker, topic string, logger *slog.Logger) (*MQTTPublisher, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(broker))
	opts.SetClientID(fmt.Sprintf("speedctl-%d", time.Now().UnixNano()))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(5 * time.Second)

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("connected to MQTT broker", "broker", broker)
	})

	client := mqtt.NewClient(opts)

	logger.Info("connecting to MQTT broker", "broker", broker)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("error connecting to MQTT broker: %w", token.Error())
	}

	return newMQTTPublisher(client, topic, logger), nil
}

func newMQTTPublisher(client mqtt.Client, topic string, logger *slog.Logger) *MQTTPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &MQTTPublisher{client: client, topic: topic, logger: logger}
}

// Publish sends s with QoS 0, retained so new subscribers see the latest state
func (p *MQTTPublisher) Publish(ctx context.Context, s Sample) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("error encoding sample: %w", err)
	}

	token := p.client.Publish(p.topic, 0, true, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	if token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker
func (p *MQTTPublisher) Close() error {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		p.logger.Info("disconnected from MQTT broker")
	}
	return nil
}

func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	if !strings.Contains(broker, ":") {
		broker += ":1883"
	}
	return "tcp://" + broker
}
