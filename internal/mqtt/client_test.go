package mqtt

import (
	"testing"

	"github.com/jackbeau/stagehand/internal/conf"
	"github.com/stretchr/testify/assert"
)

func TestNewClientReadsSettings(t *testing.T) {
	settings := &conf.Settings{}
	settings.MQTT.Broker = "tcp://broker.local:1883"
	settings.MQTT.ClientID = "stagehand-test"
	settings.MQTT.Username = "alice"
	settings.MQTT.Password = "secret"

	c := NewClient(settings).(*client)

	assert.Equal(t, "tcp://broker.local:1883", c.config.Broker)
	assert.Equal(t, "stagehand-test", c.config.ClientID)
	assert.Equal(t, "alice", c.config.Username)
	assert.False(t, c.IsConnected())
}

func TestPublishBeforeConnectReturnsError(t *testing.T) {
	settings := &conf.Settings{}
	settings.MQTT.Broker = "tcp://broker.local:1883"
	c := NewClient(settings)

	err := c.Publish(nil, "tracker/position", []byte(`{"page":1}`), true)
	assert.Error(t, err)
}

func TestSubscribeBeforeConnectQueuesHandler(t *testing.T) {
	settings := &conf.Settings{}
	settings.MQTT.Broker = "tcp://broker.local:1883"
	c := NewClient(settings).(*client)

	called := false
	err := c.Subscribe("tracker/position", func(Message) { called = true })

	assert.NoError(t, err)
	assert.Contains(t, c.subs, "tracker/position")
	assert.False(t, called)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	settings := &conf.Settings{}
	settings.MQTT.Broker = "tcp://broker.local:1883"
	c := NewClient(settings)

	assert.NotPanics(t, func() {
		c.Disconnect()
		c.Disconnect()
	})
}
