package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Duration reads "10s"-style strings from YAML and TOML.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Addr    string  `yaml:"addr" toml:"addr" validate:"required"`
	Items   Items   `yaml:"items" toml:"items"`
	Batch   Batch   `yaml:"batch" toml:"batch"`
	Persist Persist `yaml:"persist" toml:"persist"`
	Log     Log     `yaml:"log" toml:"log"`
}

type Items struct {
	Count int    `yaml:"count" toml:"count" validate:"gte=0"`
	Seed  uint64 `yaml:"seed" toml:"seed"`
}

type Batch struct {
	InsertInterval    Duration `yaml:"insert_interval" toml:"insert_interval" validate:"gt=0"`
	ReadWriteInterval Duration `yaml:"read_write_interval" toml:"read_write_interval" validate:"gt=0"`
}

type Persist struct {
	Enabled            bool     `yaml:"enabled" toml:"enabled"`
	Dir                string   `yaml:"dir" toml:"dir" validate:"required_if=Enabled true"`
	CheckpointInterval Duration `yaml:"checkpoint_interval" toml:"checkpoint_interval" validate:"gt=0"`
}

type Log struct {
	Level  string `yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" toml:"format" validate:"oneof=auto text json"`
}

func Default() Config {
	return Config{
		Addr:  ":3000",
		Items: Items{Count: 1_000_000, Seed: 1},
		Batch: Batch{
			InsertInterval:    Duration(10 * time.Second),
			ReadWriteInterval: Duration(1 * time.Second),
		},
		Persist: Persist{
			Enabled:            true,
			Dir:                "./data",
			CheckpointInterval: Duration(30 * time.Second),
		},
		Log: Log{Level: "info", Format: "auto"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// The PORT environment variable overrides the listen address.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(b, &cfg)
		case ".toml":
			err = toml.Unmarshal(b, &cfg)
		default:
			return cfg, fmt.Errorf("config: unsupported file type %q", filepath.Ext(path))
		}
		if err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
	}
	return err
}
