package cmn

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the core's full runtime configuration. It is loaded once (by
// whatever surrounds the core — file, env, flags, all via viper so the
// core itself never has to know the source) and handed around as an
// immutable pointer; nothing in this module mutates a *Config after
// Validate succeeds.
type Config struct {
	Retention RetentionConfig `mapstructure:"retention"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	Dedup     DedupConfig     `mapstructure:"dedup"`
	Mirror    MirrorConfig    `mapstructure:"mirror"`
	Pool      PoolConfig      `mapstructure:"pool"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Request   RequestLimits   `mapstructure:"request_limits"`
}

// RetentionConfig maps each entity kind to how long the mirror and memory
// tiers keep it.
type RetentionConfig struct {
	Mirror map[EntityKind]time.Duration `mapstructure:"-"`
	Memory map[EntityKind]time.Duration `mapstructure:"-"`
}

// MemoryConfig controls the RAM snapshot tier.
type MemoryConfig struct {
	InitialCapacity int `mapstructure:"initial_capacity"`
}

// DedupConfig controls the insert-dedup LRU per entity kind.
type DedupConfig struct {
	Capacity map[EntityKind]int `mapstructure:"-"`
}

// MirrorConfig controls the persistent mirror.
type MirrorConfig struct {
	Path        string        `mapstructure:"path"` // buntdb file path, ":memory:" for ephemeral
	InsertBatch int           `mapstructure:"insert_batch"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

// PoolConfig controls bounded worker/connection pools.
type PoolConfig struct {
	Workers     int `mapstructure:"workers"`
	Connections int `mapstructure:"connections"`
}

// IngestConfig controls the upstream mirror maintenance scheduler.
type IngestConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// RequestLimits bounds a single dispatcher request.
type RequestLimits struct {
	MaxTimesteps int `mapstructure:"max_timesteps"`
	MaxStations  int `mapstructure:"max_stations"`
	MaxElements  int `mapstructure:"max_elements"`
}

// DefaultConfig returns sane defaults for every field; callers typically
// load a viper.Viper seeded with these and then overlay file/env values.
func DefaultConfig() *Config {
	return &Config{
		Retention: RetentionConfig{
			Mirror: map[EntityKind]time.Duration{
				KindObservation: 30 * 24 * time.Hour,
				KindFlash:       7 * 24 * time.Hour,
				KindRoadWeather: 14 * 24 * time.Hour,
				KindMobile:      3 * 24 * time.Hour,
			},
			Memory: map[EntityKind]time.Duration{
				KindObservation: 6 * time.Hour,
				KindFlash:       30 * time.Minute,
				KindRoadWeather: 6 * time.Hour,
				KindMobile:      2 * time.Hour,
			},
		},
		Memory: MemoryConfig{InitialCapacity: 4096},
		Dedup: DedupConfig{
			Capacity: map[EntityKind]int{
				KindObservation: 50_000,
				KindFlash:       20_000,
				KindRoadWeather: 20_000,
				KindMobile:      20_000,
			},
		},
		Mirror: MirrorConfig{
			Path:        ":memory:",
			InsertBatch: 500,
			BusyTimeout: 30 * time.Second,
		},
		Pool: PoolConfig{
			Workers:     8,
			Connections: 16,
		},
		Ingest: IngestConfig{
			TickInterval: time.Minute,
		},
		Request: RequestLimits{
			MaxTimesteps: 50_000,
			MaxStations:  5_000,
			MaxElements:  500,
		},
	}
}

// LoadConfig overlays a viper instance (already told where to look for a
// config file/env prefix by the surrounding service) on top of
// DefaultConfig — the way a component that doesn't own config *parsing*
// still owns config *shape* and *defaults*.
func LoadConfig(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if v == nil {
		return cfg, cfg.Validate()
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, NewError("cmn.LoadConfig", err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Mirror.InsertBatch <= 0 {
		return fmt.Errorf("mirror.insert_batch must be positive, got %d", c.Mirror.InsertBatch)
	}
	if c.Pool.Workers <= 0 {
		return fmt.Errorf("pool.workers must be positive, got %d", c.Pool.Workers)
	}
	if c.Pool.Connections <= 0 {
		return fmt.Errorf("pool.connections must be positive, got %d", c.Pool.Connections)
	}
	if c.Request.MaxTimesteps <= 0 || c.Request.MaxStations <= 0 || c.Request.MaxElements <= 0 {
		return fmt.Errorf("request_limits must all be positive")
	}
	for k, d := range c.Retention.Mirror {
		if mem, ok := c.Retention.Memory[k]; ok && mem > d {
			return fmt.Errorf("memory retention for %s (%s) exceeds mirror retention (%s)", k, mem, d)
		}
	}
	return nil
}
