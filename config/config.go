package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"bookflow/models"
)

type Config struct {
	Bookflow  BookflowConfig  `yaml:"bookflow"`
	Market    MarketConfig    `yaml:"market"`
	Feed      FeedConfig      `yaml:"feed"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type BookflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type MarketConfig struct {
	Symbol string   `yaml:"symbol"`
	Venues []string `yaml:"venues"`
}

type FeedConfig struct {
	ConnectTimeout    time.Duration `yaml:"connect_timeout"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	SyntheticRefresh  time.Duration `yaml:"synthetic_refresh"`
	Depth             int           `yaml:"depth"`
}

// UnmarshalYAML decodes duration fields from strings like "15s"; yaml has no
// native duration scalar.
func (f *FeedConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		ConnectTimeout    string `yaml:"connect_timeout"`
		ReconnectDelay    string `yaml:"reconnect_delay"`
		HeartbeatInterval string `yaml:"heartbeat_interval"`
		SyntheticRefresh  string `yaml:"synthetic_refresh"`
		Depth             int    `yaml:"depth"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	var err error
	if f.ConnectTimeout, err = parseDuration("feed.connect_timeout", raw.ConnectTimeout); err != nil {
		return err
	}
	if f.ReconnectDelay, err = parseDuration("feed.reconnect_delay", raw.ReconnectDelay); err != nil {
		return err
	}
	if f.HeartbeatInterval, err = parseDuration("feed.heartbeat_interval", raw.HeartbeatInterval); err != nil {
		return err
	}
	if f.SyntheticRefresh, err = parseDuration("feed.synthetic_refresh", raw.SyntheticRefresh); err != nil {
		return err
	}
	f.Depth = raw.Depth
	return nil
}

type SimulatorConfig struct {
	MaxDelay time.Duration `yaml:"max_delay"`
}

func (s *SimulatorConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		MaxDelay string `yaml:"max_delay"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	var err error
	s.MaxDelay, err = parseDuration("simulator.max_delay", raw.MaxDelay)
	return err
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	return d, nil
}

type DashboardConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// LoadConfig reads the yaml configuration from path, expands ${ENV} references
// and applies defaults for anything left unset.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Bookflow.Name == "" {
		c.Bookflow.Name = "bookflow"
	}
	if c.Market.Symbol == "" {
		c.Market.Symbol = "BTC-USD"
	}
	if len(c.Market.Venues) == 0 {
		for _, v := range models.AllVenues() {
			c.Market.Venues = append(c.Market.Venues, string(v))
		}
	}
	if c.Feed.ConnectTimeout <= 0 {
		c.Feed.ConnectTimeout = 15 * time.Second
	}
	if c.Feed.ReconnectDelay <= 0 {
		c.Feed.ReconnectDelay = 5 * time.Second
	}
	if c.Feed.HeartbeatInterval <= 0 {
		c.Feed.HeartbeatInterval = 30 * time.Second
	}
	if c.Feed.SyntheticRefresh <= 0 {
		c.Feed.SyntheticRefresh = 2 * time.Second
	}
	if c.Feed.Depth <= 0 {
		c.Feed.Depth = 25
	}
	if c.Simulator.MaxDelay <= 0 {
		c.Simulator.MaxDelay = time.Second
	}
	if c.Dashboard.Address == "" {
		c.Dashboard.Address = ":8085"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

func (c *Config) validate() error {
	for _, v := range c.Market.Venues {
		if !models.Venue(v).Valid() {
			return fmt.Errorf("unknown venue %q in market.venues", v)
		}
	}
	if c.Feed.Depth > 25 {
		return fmt.Errorf("feed.depth must not exceed 25, got %d", c.Feed.Depth)
	}
	return nil
}

// Venues returns the enabled venues as typed values.
func (c *Config) Venues() []models.Venue {
	out := make([]models.Venue, 0, len(c.Market.Venues))
	for _, v := range c.Market.Venues {
		out = append(out, models.Venue(v))
	}
	return out
}
