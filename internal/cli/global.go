package cli

import (
	"fmt"

	"github.com/geovolt/geophygis/internal/config"
	"github.com/geovolt/geophygis/internal/store"
	"github.com/geovolt/geophygis/pkg/log"
	"github.com/geovolt/geophygis/pkg/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"
)

var logLevels = []string{"debug", "info", "warn", "error"}

type GlobalOptions struct {
	ConfigFile  string
	LogLevel    string
	MetricsFile string

	cfg *config.Config
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		LogLevel: "info",
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFile, "config", "c", o.ConfigFile, "Path to a YAML configuration file")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, fmt.Sprintf("Log level, one of %v", logLevels))
	fs.StringVar(&o.MetricsFile, "metrics-file", o.MetricsFile, "Write run metrics to this node exporter textfile")
}

// Complete loads the configuration and installs the global logger. Flags set on the
// command line take precedence over the configuration.
func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	var (
		cfg *config.Config
		err error
	)
	if o.ConfigFile != "" {
		cfg, err = config.NewFromFile(o.ConfigFile)
	} else {
		cfg, err = config.NewDefault()
	}
	if err != nil {
		return err
	}
	o.cfg = cfg

	if cmd.Flags().Changed("log-level") {
		cfg.Service.LogLevel = o.LogLevel
	} else {
		o.LogLevel = cfg.Service.LogLevel
	}
	if cmd.Flags().Changed("metrics-file") {
		cfg.Service.MetricsFile = o.MetricsFile
	} else {
		o.MetricsFile = cfg.Service.MetricsFile
	}
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	if !funk.ContainsString(logLevels, o.LogLevel) {
		return fmt.Errorf("invalid log level %q, must be one of %v", o.LogLevel, logLevels)
	}
	if err := o.cfg.Validate(); err != nil {
		return err
	}

	lvl, err := log.ParseLevel(o.LogLevel)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(log.InitLog(lvl))
	return nil
}

func (o *GlobalOptions) Config() *config.Config {
	return o.cfg
}

// Store opens the run catalog, or returns nil when none is configured.
func (o *GlobalOptions) Store() (store.Store, error) {
	if !store.Enabled(o.cfg) {
		return nil, nil
	}
	db, err := store.InitDB(o.cfg)
	if err != nil {
		return nil, err
	}
	s := store.NewStore(db)
	if err := s.InitialMigration(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrating run catalog: %w", err)
	}
	return s, nil
}

// Finish dumps the metrics file when requested and flushes the logger.
func (o *GlobalOptions) Finish() error {
	defer func() { _ = zap.L().Sync() }()
	if o.MetricsFile == "" {
		return nil
	}
	return metrics.WriteTextfile(o.MetricsFile)
}
