package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CaptureConfig selects and tunes the frame source.
type CaptureConfig struct {
	Interface   string `yaml:"interface"`
	ReadFile    string `yaml:"read_file"`
	SnapshotLen int32  `yaml:"snapshot_len"`
	Promiscuous bool   `yaml:"promiscuous"`
	BPFFilter   string `yaml:"bpf_filter"`
}

// ClassifierConfig tunes protocol labelling.
type ClassifierConfig struct {
	SniffPayload bool `yaml:"sniff_payload"`
}

// AttributionConfig controls the port to process cache.
type AttributionConfig struct {
	Enabled         bool   `yaml:"enabled"`
	RefreshInterval string `yaml:"refresh_interval"`
}

// FilterConfig lists the discovery/multicast chatter dropped before delivery.
type FilterConfig struct {
	DropLabels       []string `yaml:"drop_labels"`
	DropDestinations []string `yaml:"drop_destinations"`
}

// MonitorConfig sizes the consumer-side structures.
type MonitorConfig struct {
	HistorySize     int    `yaml:"history_size"`
	BufferSize      int    `yaml:"buffer_size"`
	TickInterval    string `yaml:"tick_interval"`
	PollInterval    string `yaml:"poll_interval"`
	StatusInterval  string `yaml:"status_interval"`
	RequestCapacity int    `yaml:"request_capacity"`
}

// PersistenceConfig controls raw frame recording.
type PersistenceConfig struct {
	Path        string `yaml:"path"`
	SnapshotLen uint32 `yaml:"snapshot_len"`
	StartActive bool   `yaml:"start_active"`
}

// APIConfig holds the HTTP view/control server settings.
type APIConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// GRPCConfig holds the health service settings.
type GRPCConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// NATSConfig holds the record mirror settings.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// ClickHouseConfig holds the connection details for ClickHouse.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// WriterDef defines one flow snapshot writer.
type WriterDef struct {
	Type             string           `yaml:"type"`
	Enabled          bool             `yaml:"enabled"`
	SnapshotInterval string           `yaml:"snapshot_interval"`
	RootPath         string           `yaml:"root_path"`
	ClickHouse       ClickHouseConfig `yaml:"clickhouse"`
}

// ExportConfig lists the flow snapshot writers.
type ExportConfig struct {
	Writers []WriterDef `yaml:"writers"`
}

// AlerterRule defines a single threshold rule.
type AlerterRule struct {
	Name      string  `yaml:"name"`
	Metric    string  `yaml:"metric"`
	Operator  string  `yaml:"operator"`
	Threshold float64 `yaml:"threshold"`
}

// AlerterConfig holds the spike alerter settings.
type AlerterConfig struct {
	Enabled       bool          `yaml:"enabled"`
	CheckInterval string        `yaml:"check_interval"`
	Rules         []AlerterRule `yaml:"rules"`
}

// SMTPConfig holds the email notifier settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// LimitsConfig caps the monitor's own resource usage through a cgroup.
type LimitsConfig struct {
	CPUCores float64 `yaml:"cpu_cores"`
	MemoryMB int     `yaml:"memory_mb"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Capture     CaptureConfig     `yaml:"capture"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	Attribution AttributionConfig `yaml:"attribution"`
	Filter      FilterConfig      `yaml:"filter"`
	Monitor     MonitorConfig     `yaml:"monitor"`
	Persistence PersistenceConfig `yaml:"persistence"`
	API         APIConfig         `yaml:"api"`
	GRPC        GRPCConfig        `yaml:"grpc"`
	NATS        NATSConfig        `yaml:"nats"`
	Export      ExportConfig      `yaml:"export"`
	Alerter     AlerterConfig     `yaml:"alerter"`
	SMTP        SMTPConfig        `yaml:"smtp"`
	Limits      LimitsConfig      `yaml:"limits"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{
		Attribution: AttributionConfig{Enabled: true},
	}
	cfg.ApplyDefaults()
	return cfg
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Config{
		Attribution: AttributionConfig{Enabled: true},
	}
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills every zero-valued setting with its default.
func (c *Config) ApplyDefaults() {
	if c.Capture.SnapshotLen <= 0 {
		c.Capture.SnapshotLen = 65536
	}
	if c.Attribution.RefreshInterval == "" {
		c.Attribution.RefreshInterval = "2s"
	}
	if c.Filter.DropLabels == nil {
		c.Filter.DropLabels = []string{"SSDP"}
	}
	if c.Filter.DropDestinations == nil {
		c.Filter.DropDestinations = []string{"239.255.255.250", "ff02::c", "ff05::c"}
	}
	if c.Monitor.HistorySize <= 0 {
		c.Monitor.HistorySize = 200
	}
	if c.Monitor.BufferSize <= 0 {
		c.Monitor.BufferSize = 1000
	}
	if c.Monitor.TickInterval == "" {
		c.Monitor.TickInterval = "1s"
	}
	if c.Monitor.PollInterval == "" {
		c.Monitor.PollInterval = "10ms"
	}
	if c.Monitor.StatusInterval == "" {
		c.Monitor.StatusInterval = "5s"
	}
	if c.Monitor.RequestCapacity <= 0 {
		c.Monitor.RequestCapacity = 64
	}
	if c.Persistence.Path == "" {
		c.Persistence.Path = "."
	}
	if c.Persistence.SnapshotLen == 0 {
		c.Persistence.SnapshotLen = 65536
	}
	if c.API.ListenAddr == "" {
		c.API.ListenAddr = "127.0.0.1:8086"
	}
	if c.GRPC.ListenAddr == "" {
		c.GRPC.ListenAddr = "127.0.0.1:9096"
	}
	if c.NATS.URL == "" {
		c.NATS.URL = "nats://127.0.0.1:4222"
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = "netspike.records"
	}
	if c.Alerter.CheckInterval == "" {
		c.Alerter.CheckInterval = "1s"
	}
	for i := range c.Export.Writers {
		if c.Export.Writers[i].SnapshotInterval == "" {
			c.Export.Writers[i].SnapshotInterval = "30s"
		}
	}
}

// Validate checks the duration fields so later parsing cannot fail.
func (c *Config) Validate() error {
	durations := map[string]string{
		"attribution.refresh_interval": c.Attribution.RefreshInterval,
		"monitor.tick_interval":        c.Monitor.TickInterval,
		"monitor.poll_interval":        c.Monitor.PollInterval,
		"monitor.status_interval":      c.Monitor.StatusInterval,
		"alerter.check_interval":       c.Alerter.CheckInterval,
	}
	for name, value := range durations {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be a positive duration", name)
		}
	}
	for _, w := range c.Export.Writers {
		if _, err := time.ParseDuration(w.SnapshotInterval); err != nil {
			return fmt.Errorf("invalid snapshot_interval for writer '%s': %w", w.Type, err)
		}
	}
	return nil
}

// Duration parses a duration that Validate has already accepted.
func Duration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}
