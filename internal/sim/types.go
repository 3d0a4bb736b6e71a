package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/livegraph/internal/layout"
)

// Ticker is called once per frame, after the solver has stepped. Tickers
// project solver state into drawables and must not mutate node positions.
type Ticker interface {
	Tick()
}

// Starter is called once, before the first frame.
type Starter interface {
	Start()
}

// Participant is anything registered as both a ticker and a starter.
type Participant interface {
	Ticker
	Starter
}

// Hooks receives events from the frame loop. Implementations must return
// promptly; they run on the loop goroutine.
type Hooks interface {
	OnFrame(alpha, energy float64)
	OnRestart()
	OnWarning(err error)
}

// NoopHooks is a no-op implementation of Hooks.
type NoopHooks struct{}

func (NoopHooks) OnFrame(float64, float64) {}
func (NoopHooks) OnRestart()               {}
func (NoopHooks) OnWarning(error)          {}

// MultiHooks fans every event out to each of its members in order.
type MultiHooks []Hooks

func (m MultiHooks) OnFrame(alpha, energy float64) {
	for _, h := range m {
		h.OnFrame(alpha, energy)
	}
}

func (m MultiHooks) OnRestart() {
	for _, h := range m {
		h.OnRestart()
	}
}

func (m MultiHooks) OnWarning(err error) {
	for _, h := range m {
		h.OnWarning(err)
	}
}

type Viewport struct {
	Width  float64 `yaml:"width" toml:"width"`
	Height float64 `yaml:"height" toml:"height"`
}

type Config struct {
	Frame    time.Duration
	Viewport Viewport
	Layout   layout.Config
}

func DefaultConfig() Config {
	return Config{
		Frame:    time.Second / 60,
		Viewport: Viewport{Width: 960, Height: 600},
		Layout:   layout.DefaultConfig(),
	}
}

func (cfg Config) Validate() error {
	if cfg.Frame <= 0 {
		return fmt.Errorf("frame interval must be positive, got %v", cfg.Frame)
	}
	if cfg.Viewport.Width <= 0 || cfg.Viewport.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %gx%g", cfg.Viewport.Width, cfg.Viewport.Height)
	}
	return cfg.Layout.Validate()
}
