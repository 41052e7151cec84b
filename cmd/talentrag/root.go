package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/config"
	logpkg "github.com/kailas-cloud/talentrag/internal/logger"
)

const app = "talentrag"

var rootCmd = &cobra.Command{
	Use:          app,
	Short:        "talentrag matches résumés against queries and job postings",
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return config.LoadDotEnv()
	},
}

func init() {
	viper.SetEnvPrefix(app)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("env", "", "environment name, selects config/<env>.yaml (default $ENV or local)")
	rootCmd.PersistentFlags().String("config", "", "explicit config file, overrides --env lookup")
	rootCmd.PersistentFlags().String("log-level", "", "log level override: debug, info, warn, error")
	rootCmd.PersistentFlags().String("server", "", "talentrag API base URL; query commands call it instead of a local store")
	rootCmd.PersistentFlags().String("api-key", "", "API key sent to --server")

	for _, name := range []string{"env", "config", "log-level", "server", "api-key"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

// loadConfig resolves the environment and reads its config file.
func loadConfig() (config.Config, string, error) {
	env := viper.GetString("env")
	if env == "" {
		env = config.GetEnv()
	}

	var (
		cfg config.Config
		err error
	)
	if path := viper.GetString("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, "", fmt.Errorf("load config: %w", err)
	}
	return cfg, env, nil
}

// newLogger builds the process logger; the flag wins over the config file level.
func newLogger(env string, cfg config.Config) (*zap.Logger, error) {
	level := viper.GetString("log-level")
	if level == "" {
		level = cfg.Logging.Level
	}
	l, err := logpkg.NewLogger(env, level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return l, nil
}
