// Package latency provides the instruction latency and reservation-station
// sizing configuration for the Tomasulo simulator, JSON-configurable the
// same way the teacher pipeline's TimingConfig is.
package latency

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/tomasulosim/insts"
)

// Config holds per-opcode latencies, station-pool sizes, and the default
// register value. All values default to the ones named in the spec.
type Config struct {
	// LoadLatency is the LD execution latency in cycles. Default: 3.
	LoadLatency uint `json:"load_latency"`
	// StoreLatency is the SD execution latency in cycles. Default: 3.
	StoreLatency uint `json:"store_latency"`
	// AddLatency is the ADDD/SUBD execution latency in cycles. Default: 2.
	AddLatency uint `json:"add_latency"`
	// MultLatency is the MULTD execution latency in cycles. Default: 10.
	MultLatency uint `json:"mult_latency"`
	// DivLatency is the DIVD execution latency in cycles. Default: 40.
	DivLatency uint `json:"div_latency"`

	// LoadStations is the number of load reservation stations. Default: 3.
	LoadStations uint `json:"load_stations"`
	// StoreStations is the number of store reservation stations. Default: 3.
	StoreStations uint `json:"store_stations"`
	// AddStations is the number of add reservation stations. Default: 3.
	AddStations uint `json:"add_stations"`
	// MultStations is the number of mult reservation stations. Default: 2.
	MultStations uint `json:"mult_stations"`

	// DefaultRegisterValue seeds every register before simulation starts.
	// Default: 2 (chosen upstream to make arithmetic interesting).
	DefaultRegisterValue float64 `json:"default_register_value"`
}

// Default returns the Config matching the spec's fixed defaults.
func Default() *Config {
	return &Config{
		LoadLatency:  3,
		StoreLatency: 3,
		AddLatency:   2,
		MultLatency:  10,
		DivLatency:   40,

		LoadStations:  3,
		StoreStations: 3,
		AddStations:   3,
		MultStations:  2,

		DefaultRegisterValue: 2,
	}
}

// Load reads a Config from a JSON file, starting from Default() so that an
// override file only needs to mention the fields it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read latency config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse latency config: %w", err)
	}

	return cfg, nil
}

// Save writes the Config to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize latency config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write latency config file: %w", err)
	}
	return nil
}

// Validate checks that every latency is positive and every station pool
// is non-empty.
func (c *Config) Validate() error {
	checks := []struct {
		name string
		v    uint
	}{
		{"load_latency", c.LoadLatency},
		{"store_latency", c.StoreLatency},
		{"add_latency", c.AddLatency},
		{"mult_latency", c.MultLatency},
		{"div_latency", c.DivLatency},
		{"load_stations", c.LoadStations},
		{"store_stations", c.StoreStations},
		{"add_stations", c.AddStations},
		{"mult_stations", c.MultStations},
	}
	for _, check := range checks {
		if check.v == 0 {
			return fmt.Errorf("%s must be > 0", check.name)
		}
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// LatencyFor returns the configured latency for op, or -1 for an
// unrecognized opcode, per the spec's instruction reader contract.
func (c *Config) LatencyFor(op insts.Op) int {
	switch op {
	case insts.OpLD:
		return int(c.LoadLatency)
	case insts.OpSD:
		return int(c.StoreLatency)
	case insts.OpADDD, insts.OpSUBD:
		return int(c.AddLatency)
	case insts.OpMULTD:
		return int(c.MultLatency)
	case insts.OpDIVD:
		return int(c.DivLatency)
	default:
		return -1
	}
}
