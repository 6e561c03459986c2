package btelem

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries the instantiation-time sizing knobs: ring capacity and
// the client table and schema registry sizes. Unlike MaxPayload and the
// wire-format limits in wire.go (true compile-time constants shared by
// every build, since they fix the wire layout every decoder must agree
// on), these are per-Context choices made at construction.
//
// Grounded on order-matching-engine/internal/disruptor/ring_buffer.go's
// Config/DefaultConfig pair, generalized to the rest of the sizing knobs
// and made loadable from YAML (gopkg.in/yaml.v3) so the example producer
// command can take its sizing from a config file.
type Config struct {
	RingCapacity     uint64 `yaml:"ring_capacity"`
	MaxClients       int    `yaml:"max_clients"`
	MaxSchemaEntries int    `yaml:"max_schema_entries"`
}

// DefaultConfig returns the documented defaults: a 4096-slot ring (power
// of two, left to the caller to size further), 8 client slots, 64 schema
// entries.
func DefaultConfig() Config {
	return Config{
		RingCapacity:     4096,
		MaxClients:       8,
		MaxSchemaEntries: 64,
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig: fields
// absent from the file keep their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.RingCapacity == 0 || c.RingCapacity&(c.RingCapacity-1) != 0 {
		return ErrInvalidArgument
	}
	if c.MaxClients <= 0 || c.MaxSchemaEntries <= 0 {
		return ErrInvalidArgument
	}
	return nil
}
