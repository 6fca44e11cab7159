// Package config loads the engine's YAML configuration: buffer pool
// capacity, the data directory backing the disk manager, and the debug
// logging toggle.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the top-level configuration tree, unmarshalled from YAML via
// mapstructure tags.
type Config struct {
	Buffer struct {
		// Capacity is the number of frames (N) in the buffer pool.
		Capacity int `mapstructure:"capacity"`
	} `mapstructure:"buffer"`

	Storage struct {
		DataDir string `mapstructure:"data_dir"`
		// PageSize is read from the config file but no package consults
		// it; the page size is always the compile-time disk.PageSize.
		PageSize int `mapstructure:"page_size"`
	} `mapstructure:"storage"`

	Debug bool `mapstructure:"debug"`
}

// Load reads and unmarshals a YAML config file at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("buffer.capacity", 16)
	v.SetDefault("storage.data_dir", "./data")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %q: %w", path, err)
	}
	return &cfg, nil
}
