package conf_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jackbeau/stagehand/internal/conf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	settings, err := conf.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "stagehand", settings.Main.Name)
	assert.Equal(t, 50, settings.Camera.Brightness)
	assert.FileExists(t, path)
}

func TestLoadRejectsInvalidHomography(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
stagezone:
  enablehomography: true
  homographywidth: 0
  homographyheight: 5
performertracker:
  maxpan: 540
  maxtilt: 270
`), 0o644))

	_, err := conf.Load(path)
	assert.Error(t, err)
}

func TestEnvOverrideBuildsMQTTBroker(t *testing.T) {
	t.Setenv("HIVEMQ_IP", "10.0.0.5")
	t.Setenv("HIVEMQ_PORT", "1884")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	settings, err := conf.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tcp://10.0.0.5:1884", settings.MQTT.Broker)
}
