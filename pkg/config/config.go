package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	Capture   CaptureConfig   `yaml:"capture"`
	Labels    LabelsConfig    `yaml:"labels"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Generator GeneratorConfig `yaml:"generator"`
	Mock      MockConfig      `yaml:"mock"`
}

// SerialConfig contains the sampler serial link configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// CaptureConfig contains window capture parameters.
type CaptureConfig struct {
	WindowSize    int           `yaml:"window_size"`     // Samples per window
	SampleRate    int           `yaml:"sample_rate"`     // Sampler ADC rate (Hz), recorded in summaries
	WindowsPerRun int           `yaml:"windows_per_run"` // Target windows per label
	Waveforms     []string      `yaml:"waveforms"`       // Labels walked by the collect command
	IdleTimeout   time.Duration `yaml:"idle_timeout"`    // Max wait for the next stream line
	Source        string        `yaml:"source"`          // serial | tcp | ws | mock
	TCPAddr       string        `yaml:"tcp_addr"`        // Sampler WiFi streaming endpoint
	WSURL         string        `yaml:"ws_url"`          // Sampler WebSocket endpoint
}

// LabelsConfig configures the asynchronous label listeners.
type LabelsConfig struct {
	UDPEnabled   bool   `yaml:"udp_enabled"`
	UDPAddr      string `yaml:"udp_addr"`
	MQTTEnabled  bool   `yaml:"mqtt_enabled"`
	MQTTBroker   string `yaml:"mqtt_broker"`
	MQTTTopic    string `yaml:"mqtt_topic"`
	MQTTClientID string `yaml:"mqtt_client_id"`
	MQTTUsername string `yaml:"mqtt_username"`
	MQTTPassword string `yaml:"mqtt_password"`
}

// DatasetConfig controls dataset persistence.
type DatasetConfig struct {
	DataDir  string `yaml:"data_dir"`
	Compress bool   `yaml:"compress"` // Also write zstd copies of the CSV outputs
}

// ArchiveConfig controls the optional ClickHouse window archive.
type ArchiveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// GeneratorConfig controls the signal generator driver.
type GeneratorConfig struct {
	Port      string        `yaml:"port"`
	BaudRate  int           `yaml:"baud_rate"`
	UDPTarget string        `yaml:"udp_target"` // host:port for label announcements
	Frequency int           `yaml:"frequency"`  // Default signal frequency (Hz)
	Dwell     time.Duration `yaml:"dwell"`      // Default time per plan step
	Settle    time.Duration `yaml:"settle"`     // Wait after a config command
	Gap       time.Duration `yaml:"gap"`        // Wait after stopping a step
	Plan      []PlanStep    `yaml:"plan"`       // Explicit sequence (empty = all waveforms)
}

// PlanStep is one generator sequencing step.
type PlanStep struct {
	Waveform  string        `yaml:"waveform"`
	Frequency int           `yaml:"frequency"`
	Dwell     time.Duration `yaml:"dwell"`
}

// MockConfig contains mock source configuration.
type MockConfig struct {
	Waveform       string        `yaml:"waveform"`        // Initial waveform
	WindowSize     int           `yaml:"window_size"`     // Samples per frame (0 = capture window size)
	SampleRate     int           `yaml:"sample_rate"`     // Synthesized ADC rate (Hz)
	Frequency      int           `yaml:"frequency"`       // Signal frequency (Hz)
	Amplitude      int           `yaml:"amplitude"`       // ADC codes around mid-scale
	NoiseLevel     float64       `yaml:"noise_level"`     // Pseudo-noise level in ADC codes
	WindowInterval time.Duration `yaml:"window_interval"` // Pause between emitted frames
	TruncateEvery  int           `yaml:"truncate_every"`  // Emit a short window every Nth frame (0 = never)
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			BaudRate: 115200,
		},
		Capture: CaptureConfig{
			WindowSize:    256,
			SampleRate:    20000,
			WindowsPerRun: 100,
			Waveforms:     []string{"SINE", "SQUARE", "TRIANGLE", "SAWTOOTH"},
			IdleTimeout:   10 * time.Second,
			Source:        "serial",
			TCPAddr:       "192.168.1.151:3333",
			WSURL:         "ws://192.168.1.151/ws",
		},
		Labels: LabelsConfig{
			UDPEnabled:   true,
			UDPAddr:      ":5005",
			MQTTEnabled:  false,
			MQTTBroker:   "tcp://localhost:1883",
			MQTTTopic:    "wavedaq/labels",
			MQTTClientID: "wavedaq",
		},
		Dataset: DatasetConfig{
			DataDir:  "collected_data",
			Compress: false,
		},
		Archive: ArchiveConfig{
			Enabled:  false,
			Addr:     "localhost:9000",
			Database: "wavedaq",
			Username: "default",
		},
		Generator: GeneratorConfig{
			Port:      "/dev/ttyUSB0",
			BaudRate:  115200,
			UDPTarget: "127.0.0.1:5005",
			Frequency: 1000,
			Dwell:     60 * time.Second,
			Settle:    500 * time.Millisecond,
			Gap:       2 * time.Second,
		},
		Mock: MockConfig{
			Waveform:       "SINE",
			SampleRate:     20000,
			Frequency:      1000,
			Amplitude:      1500,
			NoiseLevel:     20,
			WindowInterval: 50 * time.Millisecond,
			TruncateEvery:  0,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values. A .env file (when present) and
// environment variables override broker and database credentials.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults with env overrides
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()
	cfg.applyEnv()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Capture.WindowSize == 0 {
		c.Capture.WindowSize = def.Capture.WindowSize
	}
	if c.Capture.SampleRate == 0 {
		c.Capture.SampleRate = def.Capture.SampleRate
	}
	if c.Capture.WindowsPerRun == 0 {
		c.Capture.WindowsPerRun = def.Capture.WindowsPerRun
	}
	if len(c.Capture.Waveforms) == 0 {
		c.Capture.Waveforms = def.Capture.Waveforms
	}
	if c.Capture.IdleTimeout == 0 {
		c.Capture.IdleTimeout = def.Capture.IdleTimeout
	}
	if c.Capture.Source == "" {
		c.Capture.Source = def.Capture.Source
	}
	if c.Capture.TCPAddr == "" {
		c.Capture.TCPAddr = def.Capture.TCPAddr
	}
	if c.Capture.WSURL == "" {
		c.Capture.WSURL = def.Capture.WSURL
	}

	if c.Labels.UDPAddr == "" {
		c.Labels.UDPAddr = def.Labels.UDPAddr
	}
	if c.Labels.MQTTBroker == "" {
		c.Labels.MQTTBroker = def.Labels.MQTTBroker
	}
	if c.Labels.MQTTTopic == "" {
		c.Labels.MQTTTopic = def.Labels.MQTTTopic
	}
	if c.Labels.MQTTClientID == "" {
		c.Labels.MQTTClientID = def.Labels.MQTTClientID
	}

	if c.Dataset.DataDir == "" {
		c.Dataset.DataDir = def.Dataset.DataDir
	}

	if c.Archive.Addr == "" {
		c.Archive.Addr = def.Archive.Addr
	}
	if c.Archive.Database == "" {
		c.Archive.Database = def.Archive.Database
	}
	if c.Archive.Username == "" {
		c.Archive.Username = def.Archive.Username
	}

	if c.Generator.Port == "" {
		c.Generator.Port = def.Generator.Port
	}
	if c.Generator.BaudRate == 0 {
		c.Generator.BaudRate = def.Generator.BaudRate
	}
	if c.Generator.UDPTarget == "" {
		c.Generator.UDPTarget = def.Generator.UDPTarget
	}
	if c.Generator.Frequency == 0 {
		c.Generator.Frequency = def.Generator.Frequency
	}
	if c.Generator.Dwell == 0 {
		c.Generator.Dwell = def.Generator.Dwell
	}
	if c.Generator.Settle == 0 {
		c.Generator.Settle = def.Generator.Settle
	}
	if c.Generator.Gap == 0 {
		c.Generator.Gap = def.Generator.Gap
	}

	if c.Mock.Waveform == "" {
		c.Mock.Waveform = def.Mock.Waveform
	}
	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
	if c.Mock.Frequency == 0 {
		c.Mock.Frequency = def.Mock.Frequency
	}
	if c.Mock.Amplitude == 0 {
		c.Mock.Amplitude = def.Mock.Amplitude
	}
	if c.Mock.WindowInterval == 0 {
		c.Mock.WindowInterval = def.Mock.WindowInterval
	}
}

// applyEnv overrides broker and database credentials from the environment.
// A .env file in the working directory is loaded first when present.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	c.Archive.Addr = getEnv("CLICKHOUSE_ADDR", c.Archive.Addr)
	c.Archive.Database = getEnv("CLICKHOUSE_DB", c.Archive.Database)
	c.Archive.Username = getEnv("CLICKHOUSE_USER", c.Archive.Username)
	c.Archive.Password = getEnv("CLICKHOUSE_PASS", c.Archive.Password)

	c.Labels.MQTTBroker = getEnv("MQTT_BROKER", c.Labels.MQTTBroker)
	c.Labels.MQTTUsername = getEnv("MQTT_USERNAME", c.Labels.MQTTUsername)
	c.Labels.MQTTPassword = getEnv("MQTT_PASSWORD", c.Labels.MQTTPassword)
}

// getEnv returns the environment value for key, or defaultValue when unset.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
