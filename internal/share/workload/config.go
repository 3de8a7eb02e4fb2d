// Package workload drives the containers from many goroutines at once, the
// way independent isolates would, and checks that nothing was lost.
package workload

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes one stress run. Sections with zero workers are skipped.
type Config struct {
	Counter CounterConfig `yaml:"counter"`
	Map     MapConfig     `yaml:"map"`
	Queue   QueueConfig   `yaml:"queue"`
}

// CounterConfig drives one shared atomic integer.
type CounterConfig struct {
	Workers    int   `yaml:"workers"`
	Increments int   `yaml:"increments"` // per worker
	Initial    int64 `yaml:"initial"`
}

// MapConfig drives one shared hash map.
type MapConfig struct {
	Writers int `yaml:"writers"`
	Keys    int `yaml:"keys"` // distinct keys per writer
	// SharedKeys are written by every writer; they must collapse to one
	// entry each.
	SharedKeys int `yaml:"shared_keys"`
	Shards     int `yaml:"shards,omitempty"`
}

// QueueConfig drives one shared blocking queue.
type QueueConfig struct {
	Producers int `yaml:"producers"`
	Consumers int `yaml:"consumers"`
	Items     int `yaml:"items"` // per producer
	// Rate limits each producer to this many pushes per second. Zero means
	// unlimited.
	Rate  float64 `yaml:"rate,omitempty"`
	Burst int     `yaml:"burst,omitempty"`
}

// DefaultConfig returns the configuration used when no file is given. It
// includes the counter scenario of 10 workers × 100 increments from 10.
func DefaultConfig() Config {
	return Config{
		Counter: CounterConfig{Workers: 10, Increments: 100, Initial: 10},
		Map:     MapConfig{Writers: 8, Keys: 200, SharedKeys: 16},
		Queue:   QueueConfig{Producers: 4, Consumers: 4, Items: 1000},
	}
}

// LoadConfig reads a YAML config. Fields absent from the document keep their
// DefaultConfig value; unknown fields are an error.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse workload config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid workload config: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML config from path.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path) //nolint:gosec // User-specified config path
	if err != nil {
		return Config{}, fmt.Errorf("failed to open workload config: %w", err)
	}
	defer f.Close()
	return LoadConfig(f)
}

// Validate checks that every count is usable.
func (c *Config) Validate() error {
	checks := []struct {
		name string
		n    int
	}{
		{"counter.workers", c.Counter.Workers},
		{"counter.increments", c.Counter.Increments},
		{"map.writers", c.Map.Writers},
		{"map.keys", c.Map.Keys},
		{"map.shared_keys", c.Map.SharedKeys},
		{"map.shards", c.Map.Shards},
		{"queue.producers", c.Queue.Producers},
		{"queue.consumers", c.Queue.Consumers},
		{"queue.items", c.Queue.Items},
		{"queue.burst", c.Queue.Burst},
	}
	for _, ch := range checks {
		if ch.n < 0 {
			return fmt.Errorf("%s must not be negative, got %d", ch.name, ch.n)
		}
	}
	if c.Queue.Rate < 0 {
		return fmt.Errorf("queue.rate must not be negative, got %g", c.Queue.Rate)
	}
	if c.Queue.Producers > 0 && c.Queue.Consumers == 0 {
		return errors.New("queue.consumers must be positive when queue.producers is")
	}
	return nil
}
