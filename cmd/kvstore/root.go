package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eigerco/kvstore/internal/config"
	"github.com/eigerco/kvstore/pkg/db"
	"github.com/eigerco/kvstore/pkg/db/factory"
	"github.com/eigerco/kvstore/pkg/db/instrumented"
	"github.com/eigerco/kvstore/pkg/log"
)

const Version = "0.1.0"

// app holds the state shared by all subcommands of one invocation.
type app struct {
	v      *viper.Viper
	cfg    config.Config
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configFile string
	hexMode    bool
	metrics    bool
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{v: config.NewViper(), in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "kvstore",
		Short: "embedded key-value store tool",
		Long: fmt.Sprintf(`kvstore (v%s)

Reads and writes a local key-value store through one of the supported
backends (pebble, leveldb, bolt, memory). Flags can also be set through
environment variables named KVSTORE_<FLAG>, e.g. KVSTORE_URI.`, Version),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (yaml, toml, json)")
	flags.String(config.KeyBackend, db.TypePebble.String(), "storage backend (pebble, leveldb, bolt, memory)")
	flags.String(config.KeyURI, "", "connection uri, e.g. file:///var/data/store")
	flags.String(config.KeyLogLevel, "info", "log level (debug, info, warn, error)")
	flags.String(config.KeyLogFormat, "console", "log format (console, json)")
	flags.Bool(config.KeyNoSync, false, "do not fsync writes")
	flags.Bool(config.KeyReadOnly, false, "open the store read-only")
	flags.BoolVar(&a.hexMode, "hex", false, "keys and values are hex encoded")
	flags.BoolVar(&a.metrics, "metrics", false, "print operation metrics to stderr on exit")

	root.AddCommand(
		a.getCmd(),
		a.putCmd(),
		a.deleteCmd(),
		a.batchCmd(),
		a.scanCmd(),
		backendsCmd(),
		versionCmd(),
	)
	return root
}

// setup binds flags, loads env files and the config, then initializes logging.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := config.LoadEnvFiles(".env", ".env.local"); err != nil {
		return err
	}

	cfg, err := config.Load(a.v, a.configFile)
	// Commands that do not open a store run without a valid store config
	if err != nil && cmd.Annotations["store"] == "true" {
		return err
	}
	a.cfg = cfg

	level, err := log.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logType, err := log.ParseLoggerType(cfg.LogFormat)
	if err != nil {
		return err
	}
	log.Init(log.Options{LogLevel: level, Type: logType, Output: a.errOut})
	return nil
}

// withStore opens the configured store, runs fn and closes the store.
func (a *app) withStore(fn func(store db.KVStore) error) (err error) {
	store, err := factory.New(a.cfg.Type(), a.cfg.URI, a.cfg.FactoryOptions(log.Storage))
	if err != nil {
		return err
	}

	if a.metrics {
		wrapped := instrumented.Wrap(store, a.cfg.Type().String(), log.Storage)
		defer wrapped.WritePrometheus(a.errOut)
		store = wrapped
	}

	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(store)
}

func (a *app) decode(s string) ([]byte, error) {
	if !a.hexMode {
		return []byte(s), nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}

func (a *app) encode(b []byte) string {
	if a.hexMode {
		return hex.EncodeToString(b)
	}
	return string(b)
}

func backendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the registered storage backends",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, t := range factory.Registered() {
				cmd.Println(t)
			}
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvstore",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("kvstore v%s\n", Version)
		},
	}
}
