package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "GQLENGINE"

const rootLong = `gqlengine executes GraphQL requests against a schema written in SDL.

Fields without resolvers are read from a data file (JSON or YAML) whose
top-level object is the root value. Abstract values name their type with a
"__typename" key, and subscription root fields stream the items of the list
stored under their name.

Every flag can also be set through the environment (GQLENGINE_<FLAG>, dashes
and dots as underscores) or a YAML file passed with --config.`

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gqlengine",
		Short:         "GraphQL execution engine",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "",
		"Configuration file. Takes precedence over default values, but is "+
			"overridden by environment variables and flags.")
	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error.")

	root.AddCommand(newServeCmd(), newExecCmd(), newSDLCmd())
	return root
}

// config binds a command's flags, the persistent root flags, the environment
// and the optional config file into one viper instance.
func config(cmd *cobra.Command) (*viper.Viper, error) {
	conf := viper.New()
	for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.InheritedFlags()} {
		if err := conf.BindPFlags(fs); err != nil {
			return nil, err
		}
	}
	conf.SetEnvPrefix(envPrefix)
	conf.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	conf.AutomaticEnv()
	if file := conf.GetString("config"); file != "" {
		conf.SetConfigFile(file)
		if err := conf.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "reading config")
		}
	}
	return conf, nil
}

func newLogger(conf *viper.Viper) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(conf.GetString("log-level"))
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}
