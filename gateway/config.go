package gateway

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sailgo/n2k-gateway/transport"
)

// IODirection selects which side(s) of the bridge a Driver serves
// (spec.md §6 io_direction).
type IODirection uint8

const (
	Input IODirection = iota
	Output
	InOut
)

func (d IODirection) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	case InOut:
		return "inout"
	default:
		return "unknown"
	}
}

func (d IODirection) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *IODirection) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "input", "":
		*d = Input
	case "output":
		*d = Output
	case "inout":
		*d = InOut
	default:
		return fmt.Errorf("gateway: unknown io_direction %q", s)
	}
	return nil
}

// Config mirrors spec.md §6's configuration struct, loadable from YAML the
// way the teacher's cmd/n2kreader loads its canboat.json schema.
type Config struct {
	NetworkAddress  string             `yaml:"network_address"`
	NetworkPort     int                `yaml:"network_port"`
	Protocol        transport.Protocol `yaml:"-"`
	ProtocolName    string             `yaml:"protocol"`
	IODirection     IODirection        `yaml:"io_direction"`
	NoDataReconnect bool               `yaml:"no_data_reconnect"`
	UserComment     string             `yaml:"user_comment"`
	Server          bool               `yaml:"server"`
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("gateway: reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("gateway: parsing config %s: %w", path, err)
	}
	switch cfg.ProtocolName {
	case "udp":
		cfg.Protocol = transport.UDP
	case "gpsd":
		cfg.Protocol = transport.GPSD
	default:
		cfg.Protocol = transport.TCP
	}
	return cfg, nil
}
