package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/san-kum/livegraph/internal/feed"
	"github.com/san-kum/livegraph/internal/layout"
	"github.com/san-kum/livegraph/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFPS            = 60
	DefaultWidth          = 960.0
	DefaultHeight         = 600.0
	DefaultIntervalMS     = 1000
	DefaultBatchSize      = 5
	DefaultSyntheticNodes = 12
	DefaultSyntheticFeed  = 60
	DefaultRedisKey       = "livegraph:feed"
	DefaultRedisTimeoutMS = 200
	DefaultServerAddr     = ":8080"
)

type Config struct {
	// Source names where the snapshot comes from: "synthetic", a .yaml or
	// .json file, a .db sqlite file, or "redis".
	Source    string          `yaml:"source" toml:"source"`
	FPS       int             `yaml:"fps" toml:"fps"`
	Viewport  sim.Viewport    `yaml:"viewport" toml:"viewport"`
	Layout    layout.Config   `yaml:"layout" toml:"layout"`
	Feed      FeedConfig      `yaml:"feed" toml:"feed"`
	Synthetic SyntheticConfig `yaml:"synthetic" toml:"synthetic"`
	Redis     RedisConfig     `yaml:"redis" toml:"redis"`
	Server    ServerConfig    `yaml:"server" toml:"server"`
}

type FeedConfig struct {
	IntervalMS int `yaml:"interval_ms" toml:"interval_ms"`
	BatchSize  int `yaml:"batch_size" toml:"batch_size"`
}

type SyntheticConfig struct {
	Seed  uint64 `yaml:"seed" toml:"seed"`
	Nodes int    `yaml:"nodes" toml:"nodes"`
	Feed  int    `yaml:"feed" toml:"feed"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr" toml:"addr"`
	Key       string `yaml:"key" toml:"key"`
	TimeoutMS int    `yaml:"timeout_ms" toml:"timeout_ms"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		Source:   "synthetic",
		FPS:      DefaultFPS,
		Viewport: sim.Viewport{Width: DefaultWidth, Height: DefaultHeight},
		Layout:   layout.DefaultConfig(),
		Feed: FeedConfig{
			IntervalMS: DefaultIntervalMS,
			BatchSize:  DefaultBatchSize,
		},
		Synthetic: SyntheticConfig{
			Seed:  1,
			Nodes: DefaultSyntheticNodes,
			Feed:  DefaultSyntheticFeed,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			Key:       DefaultRedisKey,
			TimeoutMS: DefaultRedisTimeoutMS,
		},
		Server: ServerConfig{Addr: DefaultServerAddr},
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads a YAML file, or TOML when the path ends in .toml. Fields the
// file leaves out keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if err := c.FeedConfig().Validate(); err != nil {
		return err
	}
	if c.Synthetic.Nodes < 0 || c.Synthetic.Feed < 0 {
		return fmt.Errorf("synthetic sizes must not be negative")
	}
	if c.Redis.TimeoutMS < 0 {
		return fmt.Errorf("redis timeout must not be negative")
	}
	return c.SimConfig().Validate()
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Frame:    time.Second / time.Duration(max(c.FPS, 1)),
		Viewport: c.Viewport,
		Layout:   c.Layout,
	}
}

func (c *Config) FeedConfig() feed.Config {
	return feed.Config{
		Interval:  time.Duration(c.Feed.IntervalMS) * time.Millisecond,
		BatchSize: c.Feed.BatchSize,
	}
}

func (c *Config) RedisTimeout() time.Duration {
	return time.Duration(c.Redis.TimeoutMS) * time.Millisecond
}
