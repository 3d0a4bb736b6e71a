package config

import (
	"sort"

	"github.com/san-kum/livegraph/internal/layout"
)

// Presets are named starting points. small is the default demo, dense
// packs a larger swarm with a faster feed, calm lets the layout cool and
// come to rest between batches.
var Presets = map[string]func() *Config{
	"small": DefaultConfig,
	"dense": func() *Config {
		c := DefaultConfig()
		c.Synthetic.Nodes = 40
		c.Synthetic.Feed = 400
		c.Feed.IntervalMS = 250
		c.Feed.BatchSize = 10
		c.Layout.Charge = -60
		c.Layout.LinkDistance = 120
		c.Layout.LinkJitter = 80
		return c
	},
	"calm": func() *Config {
		c := DefaultConfig()
		c.FPS = 30
		c.Feed.IntervalMS = 2000
		c.Feed.BatchSize = 2
		c.Layout.AlphaTarget = 0
		c.Layout.AlphaDecay = layout.DefaultAlphaDecay
		c.Layout.ActiveOnly = true
		return c
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
