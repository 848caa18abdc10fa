// Package config loads the kvstore command configuration from flags,
// environment variables, .env files and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/eigerco/kvstore/pkg/db"
	"github.com/eigerco/kvstore/pkg/db/bolt"
	"github.com/eigerco/kvstore/pkg/db/factory"
	"github.com/eigerco/kvstore/pkg/db/leveldb"
	"github.com/eigerco/kvstore/pkg/db/pebble"
)

// EnvPrefix prefixes every environment variable, e.g. KVSTORE_URI.
const EnvPrefix = "kvstore"

// Keys shared by flags, environment variables and config files.
const (
	KeyBackend            = "backend"
	KeyURI                = "uri"
	KeyLogLevel           = "log-level"
	KeyLogFormat          = "log-format"
	KeyPebbleCacheSize    = "pebble-cache-size"
	KeyPebbleMemTableSize = "pebble-memtable-size"
	KeyBoltBucket         = "bolt-bucket"
	KeyNoSync             = "no-sync"
	KeyReadOnly           = "read-only"
)

type Config struct {
	Backend            string
	URI                string
	LogLevel           string
	LogFormat          string
	PebbleCacheSize    int64
	PebbleMemTableSize uint64
	BoltBucket         string
	NoSync             bool
	ReadOnly           bool
}

// NewViper returns a viper instance with defaults and environment lookup set up.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyBackend, db.TypePebble.String())
	v.SetDefault(KeyURI, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyPebbleCacheSize, int64(pebble.DefaultCacheSize))
	v.SetDefault(KeyPebbleMemTableSize, uint64(pebble.DefaultMemTableSize))
	v.SetDefault(KeyBoltBucket, bolt.DefaultBucket)
	v.SetDefault(KeyNoSync, false)
	v.SetDefault(KeyReadOnly, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadEnvFiles loads .env style files into the process environment. Missing
// files are skipped and variables already set are kept.
func LoadEnvFiles(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", file, err)
		}
	}
	return nil
}

// Load reads file (when not empty) into v and returns the validated configuration.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Backend:            v.GetString(KeyBackend),
		URI:                v.GetString(KeyURI),
		LogLevel:           v.GetString(KeyLogLevel),
		LogFormat:          v.GetString(KeyLogFormat),
		PebbleCacheSize:    v.GetInt64(KeyPebbleCacheSize),
		PebbleMemTableSize: v.GetUint64(KeyPebbleMemTableSize),
		BoltBucket:         v.GetString(KeyBoltBucket),
		NoSync:             v.GetBool(KeyNoSync),
		ReadOnly:           v.GetBool(KeyReadOnly),
	}
	return cfg, cfg.Validate()
}

// Validate checks the backend type and, for on-disk backends, the uri.
func (c Config) Validate() error {
	t, err := db.ParseType(c.Backend)
	if err != nil {
		return err
	}
	if t == db.TypeMemory {
		return nil
	}
	if _, err := db.ParseFileURI(c.URI); err != nil {
		return err
	}
	return nil
}

// Type returns the parsed backend type. Call Validate first.
func (c Config) Type() db.Type {
	t, _ := db.ParseType(c.Backend)
	return t
}

// FactoryOptions converts the configuration into store options.
func (c Config) FactoryOptions(logger zerolog.Logger) factory.Options {
	return factory.Options{
		Pebble: pebble.Config{
			CacheSize:    c.PebbleCacheSize,
			MemTableSize: c.PebbleMemTableSize,
			NoSync:       c.NoSync,
			ReadOnly:     c.ReadOnly,
		},
		LevelDB: leveldb.Config{
			NoSync:   c.NoSync,
			ReadOnly: c.ReadOnly,
		},
		Bolt: bolt.Config{
			Bucket:   c.BoltBucket,
			NoSync:   c.NoSync,
			ReadOnly: c.ReadOnly,
		},
		Logger: logger,
	}
}
