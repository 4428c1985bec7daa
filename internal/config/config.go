// Package config loads the importer configuration from a JSON (or YAML/TOML)
// file, CSVIMPORT_* environment variables and command line flags, in
// increasing order of priority.
package config

import (
	"path/filepath"
	"strings"
	"time"

	"csv-import/internal/model"
	"csv-import/pkg/utils"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CSVIMPORT"

// DefaultPath is where the configuration file is looked up when none is given.
const DefaultPath = "config/config.json"

// Defaults for keys that may be missing from the file.
const (
	DefaultMaxWorkers         = 8
	DefaultMemoryLimitPercent = 70
	DefaultMemoryPollInterval = 500 * time.Millisecond
	DefaultProgressEvery      = 1000
)

var defaults = map[string]interface{}{
	"mongodb_host":         "localhost",
	"mongodb_port":         27017,
	"mongodb_database":     "",
	"mongodb_collection":   "",
	"mongodb_username":     "",
	"mongodb_password":     "",
	"max_threads":          DefaultMaxWorkers,
	"memory_limit_percent": DefaultMemoryLimitPercent,
	"memory_poll_interval": DefaultMemoryPollInterval.String(),
	"input_dir":            "files_csv",
	"mapping_file":         "config/field_mapping.json",
	"log_file":             "import.log",
	"ledger_path":          "pipeline.db",
	"report_file":          "",
	"progress_every":       DefaultProgressEvery,
	"dry_run":              false,
}

// New returns a viper instance carrying the defaults and the environment
// binding. Flags in fs, if any, are bound to the key obtained by replacing
// dashes with underscores in the flag name.
func New(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	var bindErr error
	if fs != nil {
		fs.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, known := defaults[key]; !known || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(key, f)
		})
	}
	return v, bindErr
}

// Load reads the configuration file at path into v and returns the resulting
// Config. A missing or unreadable file is an error.
func Load(v *viper.Viper, path string) (*model.Config, error) {
	v.SetConfigFile(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		v.SetConfigType("yaml")
	case ".toml":
		v.SetConfigType("toml")
	default:
		v.SetConfigType("json")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading configuration file %s", path)
	}
	return FromViper(v)
}

// FromViper decodes the settings already held by v.
func FromViper(v *viper.Viper) (*model.Config, error) {
	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decoding configuration")
	}
	cfg.MemoryPollInterval = utils.ParseDuration(v.GetString("memory_poll_interval"), DefaultMemoryPollInterval)
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations a run cannot start with.
func Validate(cfg *model.Config) error {
	if cfg.MemoryLimitPercent < 0 || cfg.MemoryLimitPercent > 100 {
		return errors.Errorf("memory_limit_percent must be between 0 and 100, got %d", cfg.MemoryLimitPercent)
	}
	if cfg.InputDir == "" {
		return errors.New("input_dir must be set")
	}
	if cfg.MappingFile == "" {
		return errors.New("mapping_file must be set")
	}
	if cfg.LogFile == "" {
		return errors.New("log_file must be set")
	}
	if cfg.DryRun {
		return nil
	}
	if cfg.MongoHost == "" {
		return errors.New("mongodb_host must be set")
	}
	if cfg.MongoPort <= 0 || cfg.MongoPort > 65535 {
		return errors.Errorf("mongodb_port out of range: %d", cfg.MongoPort)
	}
	if cfg.MongoDatabase == "" || cfg.MongoCollection == "" {
		return errors.New("mongodb_database and mongodb_collection must be set")
	}
	return nil
}
