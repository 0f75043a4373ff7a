// Package config loads engine options from a YAML file; cmd/lsmctl layers
// its CLI flag overrides on top. It is the one place max_memtable_size_bytes
// defaulting and validation happens, so internal/lsm never re-validates
// it.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/arclsm/lsmkv/internal/dberr"
	"github.com/arclsm/lsmkv/internal/lsm"
)

// DefaultMaxMemtableSizeBytes is used when a config file omits the field
// and no CLI override is given.
const DefaultMaxMemtableSizeBytes = 4 << 20 // 4 MiB

// DefaultLogLevel is used when a config file omits log_level.
const DefaultLogLevel = "info"

// file mirrors the on-disk YAML shape. There is deliberately no
// sync_on_write field: the engine fsyncs every write unconditionally, and
// a toggle that could disable that would contradict the durability
// invariant.
type file struct {
	Dir      string `yaml:"dir"`
	LogLevel string `yaml:"log_level"`
	// MaxMemtableSizeBytes is a pointer so a YAML file can distinguish
	// "omitted" (use the default) from "explicitly set to 0" (always
	// flush on the next write — see spec §8 scenario 3).
	MaxMemtableSizeBytes *int64 `yaml:"max_memtable_size_bytes"`
}

// Config is the fully resolved, validated configuration — lsm.Options
// plus the ambient log level that lsm.Options itself does not carry.
type Config struct {
	Dir                  string
	MaxMemtableSizeBytes int64
	LogLevel             string
}

// Load reads and parses the YAML file at path, applying defaults for any
// omitted field. A missing file is not an error: it returns the defaults
// with Dir unset, letting the caller supply one via CLI flag.
func Load(path string) (Config, error) {
	cfg := Config{
		MaxMemtableSizeBytes: DefaultMaxMemtableSizeBytes,
		LogLevel:             DefaultLogLevel,
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, dberr.WrapIO(err, "config: read %s", path)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Config{}, dberr.WrapIO(err, "config: parse %s", path)
	}

	if f.Dir != "" {
		cfg.Dir = f.Dir
	}
	if f.MaxMemtableSizeBytes != nil {
		if *f.MaxMemtableSizeBytes < 0 {
			return Config{}, errors.Newf("config: max_memtable_size_bytes must be non-negative, got %d", *f.MaxMemtableSizeBytes)
		}
		cfg.MaxMemtableSizeBytes = *f.MaxMemtableSizeBytes
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	return cfg, nil
}

// LSMOptions converts Config into the lsm.Options Open expects. log is
// attached separately by the caller, which owns the logger's lifecycle.
func (c Config) LSMOptions() lsm.Options {
	return lsm.Options{
		Dir:                  c.Dir,
		MaxMemtableSizeBytes: c.MaxMemtableSizeBytes,
	}
}
