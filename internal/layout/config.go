package layout

import (
	"fmt"
	"math"
)

const (
	DefaultCharge        = -30.0
	DefaultDistanceMin   = 1.0
	DefaultLinkDistance  = 300.0
	DefaultLinkJitter    = 200.0
	DefaultAlphaMin      = 0.001
	DefaultAlphaTarget   = 1.0
	DefaultVelocityDecay = 0.4
	DefaultDt            = 1.0
)

// DefaultAlphaDecay cools alpha to AlphaMin in about 300 steps when the
// target is zero.
var DefaultAlphaDecay = 1 - math.Pow(DefaultAlphaMin, 1.0/300)

type Config struct {
	Charge        float64 `yaml:"charge" toml:"charge"`
	DistanceMin   float64 `yaml:"distance_min" toml:"distance_min"`
	DistanceMax   float64 `yaml:"distance_max" toml:"distance_max"`
	LinkDistance  float64 `yaml:"link_distance" toml:"link_distance"`
	LinkJitter    float64 `yaml:"link_jitter" toml:"link_jitter"`
	LinkStrength  float64 `yaml:"link_strength" toml:"link_strength"`
	ActiveOnly    bool    `yaml:"active_only" toml:"active_only"`
	AlphaMin      float64 `yaml:"alpha_min" toml:"alpha_min"`
	AlphaDecay    float64 `yaml:"alpha_decay" toml:"alpha_decay"`
	AlphaTarget   float64 `yaml:"alpha_target" toml:"alpha_target"`
	VelocityDecay float64 `yaml:"velocity_decay" toml:"velocity_decay"`
	Dt            float64 `yaml:"dt" toml:"dt"`
	Seed          int64   `yaml:"seed" toml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Charge:        DefaultCharge,
		DistanceMin:   DefaultDistanceMin,
		LinkDistance:  DefaultLinkDistance,
		LinkJitter:    DefaultLinkJitter,
		AlphaMin:      DefaultAlphaMin,
		AlphaDecay:    DefaultAlphaDecay,
		AlphaTarget:   DefaultAlphaTarget,
		VelocityDecay: DefaultVelocityDecay,
		Dt:            DefaultDt,
	}
}

func (c Config) Validate() error {
	for name, v := range map[string]float64{
		"charge":         c.Charge,
		"distance_min":   c.DistanceMin,
		"distance_max":   c.DistanceMax,
		"link_distance":  c.LinkDistance,
		"link_jitter":    c.LinkJitter,
		"link_strength":  c.LinkStrength,
		"alpha_min":      c.AlphaMin,
		"alpha_decay":    c.AlphaDecay,
		"alpha_target":   c.AlphaTarget,
		"velocity_decay": c.VelocityDecay,
		"dt":             c.Dt,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("layout: %s must be finite, got %f", name, v)
		}
	}
	if c.Dt <= 0 {
		return fmt.Errorf("layout: dt must be positive, got %f", c.Dt)
	}
	if c.DistanceMin < 0 || c.DistanceMax < 0 {
		return fmt.Errorf("layout: distance bounds must not be negative")
	}
	if c.LinkDistance < 0 || c.LinkJitter < 0 || c.LinkStrength < 0 {
		return fmt.Errorf("layout: link parameters must not be negative")
	}
	if c.VelocityDecay < 0 || c.VelocityDecay > 1 {
		return fmt.Errorf("layout: velocity_decay must be in [0, 1], got %f", c.VelocityDecay)
	}
	if c.AlphaDecay < 0 || c.AlphaDecay > 1 {
		return fmt.Errorf("layout: alpha_decay must be in [0, 1], got %f", c.AlphaDecay)
	}
	if c.AlphaTarget < 0 || c.AlphaTarget > 1 || c.AlphaMin < 0 || c.AlphaMin > 1 {
		return fmt.Errorf("layout: alpha bounds must be in [0, 1]")
	}
	return nil
}
