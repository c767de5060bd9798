package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMQTTListener_DefaultClientID(t *testing.T) {
	var cell Cell

	listener := NewMQTTListener(MQTTConfig{Broker: "tcp://localhost:1883", Topic: "bench/labels"}, &cell)
	assert.Equal(t, "wavedaq-labels", listener.cfg.ClientID)
	assert.False(t, listener.IsConnected())
}

func TestMQTTListener_Apply(t *testing.T) {
	var cell Cell

	listener := NewMQTTListener(MQTTConfig{Broker: "tcp://localhost:1883", Topic: "bench/labels"}, &cell)

	listener.apply([]byte("LABEL:1:square"))
	label, ok := cell.Load()
	assert.True(t, ok)
	assert.Equal(t, Label{ID: 1, Name: "SQUARE"}, label)
}

func TestMQTTListener_ApplyMalformed(t *testing.T) {
	var cell Cell

	listener := NewMQTTListener(MQTTConfig{Broker: "tcp://localhost:1883", Topic: "bench/labels"}, &cell)

	listener.apply([]byte("not a label"))
	_, ok := cell.Load()
	assert.False(t, ok)
}

func TestMQTTListener_CloseWithoutStart(t *testing.T) {
	var cell Cell

	listener := NewMQTTListener(MQTTConfig{}, &cell)
	assert.NoError(t, listener.Close())
}
