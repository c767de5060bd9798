package labels

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// MQTTConfig holds broker settings for the MQTT label listener.
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
}

// MQTTListener subscribes to a label topic and mirrors valid messages into
// the shared Cell. Payloads use the same LABEL:<id>:<name> form as the UDP
// datagrams, so a generator can publish through a broker instead of (or in
// addition to) broadcasting on the bench network.
type MQTTListener struct {
	cfg  MQTTConfig
	cell *Cell

	client mqtt.Client
}

// NewMQTTListener creates a listener for the configured broker and topic.
func NewMQTTListener(cfg MQTTConfig, cell *Cell) *MQTTListener {
	if cfg.ClientID == "" {
		cfg.ClientID = "wavedaq-labels"
	}

	return &MQTTListener{
		cfg:  cfg,
		cell: cell,
	}
}

// Start connects to the broker and subscribes to the label topic. The
// subscription is re-established by the on-connect handler after reconnects.
func (l *MQTTListener) Start() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(l.cfg.Broker)
	opts.SetClientID(l.cfg.ClientID)
	opts.SetUsername(l.cfg.Username)
	opts.SetPassword(l.cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		if token := client.Subscribe(l.cfg.Topic, 1, l.handleLabel); token.Wait() && token.Error() != nil {
			log.Printf("Failed to subscribe to label topic %s: %v", l.cfg.Topic, token.Error())
			return
		}
		log.Printf("Subscribed to label topic: %s", l.cfg.Topic)
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v", err)
	})

	l.client = mqtt.NewClient(opts)

	if token := l.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker %s: %w", l.cfg.Broker, token.Error())
	}

	return nil
}

// Close disconnects from the broker.
func (l *MQTTListener) Close() error {
	if l.client != nil && l.client.IsConnected() {
		l.client.Disconnect(250)
	}
	return nil
}

// IsConnected returns whether the broker connection is up.
func (l *MQTTListener) IsConnected() bool {
	return l.client != nil && l.client.IsConnected()
}

// handleLabel processes one label message from the broker.
func (l *MQTTListener) handleLabel(_ mqtt.Client, msg mqtt.Message) {
	l.apply(msg.Payload())
}

// apply parses a label payload and stores it into the cell.
func (l *MQTTListener) apply(payload []byte) {
	label, err := ParseMessage(string(payload))
	if err != nil {
		log.Printf("Ignoring malformed label message: %v", err)
		return
	}

	l.cell.Store(label)
	log.Printf("Label updated: %s (wave=%d)", label.Name, label.ID)
}
