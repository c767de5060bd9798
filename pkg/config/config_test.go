package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 256, cfg.Capture.WindowSize)
	assert.Equal(t, 20000, cfg.Capture.SampleRate)
	assert.Equal(t, 100, cfg.Capture.WindowsPerRun)
	assert.Equal(t, []string{"SINE", "SQUARE", "TRIANGLE", "SAWTOOTH"}, cfg.Capture.Waveforms)
	assert.Equal(t, 10*time.Second, cfg.Capture.IdleTimeout)
	assert.Equal(t, "serial", cfg.Capture.Source)
	assert.True(t, cfg.Labels.UDPEnabled)
	assert.Equal(t, ":5005", cfg.Labels.UDPAddr)
	assert.False(t, cfg.Labels.MQTTEnabled)
	assert.Equal(t, "collected_data", cfg.Dataset.DataDir)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Generator.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Generator.Settle)
	assert.Equal(t, 2*time.Second, cfg.Generator.Gap)
	assert.Equal(t, "SINE", cfg.Mock.Waveform)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
  baud_rate: 230400

capture:
  window_size: 512
  sample_rate: 40000
  windows_per_run: 50
  waveforms: ["SINE", "SQUARE"]
  idle_timeout: 5s
  source: tcp
  tcp_addr: "10.0.0.5:3333"

labels:
  udp_enabled: true
  udp_addr: ":6006"
  mqtt_enabled: true
  mqtt_broker: "tcp://broker:1883"
  mqtt_topic: "bench/labels"

dataset:
  data_dir: "bench_data"
  compress: true

generator:
  port: "/dev/ttyUSB1"
  dwell: 30s
  plan:
    - waveform: SINE
      frequency: 500
      dwell: 10s
    - waveform: SQUARE
      frequency: 2000
      dwell: 20s
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 230400, cfg.Serial.BaudRate)
	assert.Equal(t, 512, cfg.Capture.WindowSize)
	assert.Equal(t, 40000, cfg.Capture.SampleRate)
	assert.Equal(t, 50, cfg.Capture.WindowsPerRun)
	assert.Equal(t, []string{"SINE", "SQUARE"}, cfg.Capture.Waveforms)
	assert.Equal(t, 5*time.Second, cfg.Capture.IdleTimeout)
	assert.Equal(t, "tcp", cfg.Capture.Source)
	assert.Equal(t, "10.0.0.5:3333", cfg.Capture.TCPAddr)
	assert.Equal(t, ":6006", cfg.Labels.UDPAddr)
	assert.True(t, cfg.Labels.MQTTEnabled)
	assert.Equal(t, "bench_data", cfg.Dataset.DataDir)
	assert.True(t, cfg.Dataset.Compress)
	assert.Equal(t, "/dev/ttyUSB1", cfg.Generator.Port)
	assert.Equal(t, 30*time.Second, cfg.Generator.Dwell)
	require.Len(t, cfg.Generator.Plan, 2)
	assert.Equal(t, "SQUARE", cfg.Generator.Plan[1].Waveform)
	assert.Equal(t, 2000, cfg.Generator.Plan[1].Frequency)
	assert.Equal(t, 20*time.Second, cfg.Generator.Plan[1].Dwell)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)    // default
	assert.Equal(t, 256, cfg.Capture.WindowSize)    // default
	assert.Equal(t, "collected_data", cfg.Dataset.DataDir) // default
}

func TestLoad_EnvOverridesCredentials(t *testing.T) {
	t.Setenv("CLICKHOUSE_ADDR", "ch.example:9000")
	t.Setenv("CLICKHOUSE_PASS", "secret")
	t.Setenv("MQTT_BROKER", "tcp://broker.example:1883")

	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)

	assert.Equal(t, "ch.example:9000", cfg.Archive.Addr)
	assert.Equal(t, "secret", cfg.Archive.Password)
	assert.Equal(t, "tcp://broker.example:1883", cfg.Labels.MQTTBroker)
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Capture.WindowsPerRun = 25

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	// Load it back and verify
	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, 25, loaded.Capture.WindowsPerRun)
}
