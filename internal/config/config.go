// Package config loads the typed xmlstack configuration from viper and
// validates it.
package config

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/prescod/the-xml-document-stack/internal/sniff"
	"github.com/prescod/the-xml-document-stack/pkg/cleaner/simplify"
)

// Config is the full configuration shared by every command.
type Config struct {
	Debug   bool `mapstructure:"debug"`
	Quiet   bool `mapstructure:"quiet"`
	LogJSON bool `mapstructure:"log_json"`

	// Workers bounds concurrent items for pooled commands.
	Workers int `mapstructure:"workers" validate:"gte=1,lte=1024"`

	// Exclusions is the exclusions file; empty means exclude_files.txt if present.
	Exclusions string `mapstructure:"exclusions"`

	// Catalog is the SQLite catalog path; empty disables cataloguing.
	Catalog string `mapstructure:"catalog"`

	Gate      sniff.Gate      `mapstructure:"gate"`
	Partition Partition       `mapstructure:"partition"`
	Hub       Hub             `mapstructure:"hub"`
	Dita      Dita            `mapstructure:"dita"`
	Simplify  simplify.Config `mapstructure:"simplify"`
}

// Partition configures where mined documents are written.
type Partition struct {
	XMLRoot         string `mapstructure:"xml_root" validate:"required"`
	TextRoot        string `mapstructure:"text_root" validate:"required"`
	ReadmeMinLength int    `mapstructure:"readme_min_length" validate:"gte=0"`
}

// Hub configures corpus shard downloads.
type Hub struct {
	Endpoint string        `mapstructure:"endpoint" validate:"required,url"`
	Repo     string        `mapstructure:"repo" validate:"required"`
	Revision string        `mapstructure:"revision" validate:"required"`
	Lang     string        `mapstructure:"lang" validate:"required"`
	Total    int           `mapstructure:"total" validate:"gte=1"`
	Token    string        `mapstructure:"token"`
	Dir      string        `mapstructure:"dir" validate:"required"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// Dita configures the DITA-OT conversion.
type Dita struct {
	Binary  string   `mapstructure:"binary" validate:"required"`
	MinSize string   `mapstructure:"min_size" validate:"required"`
	Formats []string `mapstructure:"formats" validate:"min=1,dive,required"`
	Workers int      `mapstructure:"workers" validate:"gte=1,lte=256"`

	// MinBytes is MinSize parsed.
	MinBytes uint64 `mapstructure:"-"`
}

// SetDefaults registers default values and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("workers", 4)

	gate := sniff.DefaultGate()
	v.SetDefault("gate.window", gate.Window)
	v.SetDefault("gate.rules", gate.Rules)

	v.SetDefault("partition.xml_root", "xml")
	v.SetDefault("partition.text_root", "text")
	v.SetDefault("partition.readme_min_length", 200)

	v.SetDefault("hub.endpoint", "https://huggingface.co")
	v.SetDefault("hub.repo", "bigcode/the-stack")
	v.SetDefault("hub.revision", "main")
	v.SetDefault("hub.lang", "xml")
	v.SetDefault("hub.total", 297)
	v.SetDefault("hub.dir", "dataset_bin")
	v.SetDefault("hub.timeout", 30*time.Minute)
	_ = v.BindEnv("hub.token", "XMLSTACK_HUB_TOKEN", "HF_TOKEN")

	v.SetDefault("dita.binary", "dita")
	v.SetDefault("dita.min_size", "2KiB")
	v.SetDefault("dita.formats", []string{"markdown", "html5"})
	v.SetDefault("dita.workers", 8)

	s := simplify.DefaultConfig()
	v.SetDefault("simplify.delete_elements", s.DeleteElements)
	v.SetDefault("simplify.delete_attributes", s.DeleteAttributes)
	v.SetDefault("simplify.remove_elements", s.RemoveElements)
	v.SetDefault("simplify.unwrap_elements", s.UnwrapElements)
	v.SetDefault("simplify.ignore_attributes", s.IgnoreAttributes)
	v.SetDefault("simplify.keep_attributes", s.KeepAttributes)
	v.SetDefault("simplify.verify", s.Verify)
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	size, err := humanize.ParseBytes(cfg.Dita.MinSize)
	if err != nil {
		return nil, fmt.Errorf("invalid dita.min_size %q: %w", cfg.Dita.MinSize, err)
	}
	cfg.Dita.MinBytes = size

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
