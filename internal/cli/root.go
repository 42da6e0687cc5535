// Package cli defines the goview command-line interface.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-view/pkg/config"
	"github.com/goliatone/go-view/pkg/logging"
	"github.com/goliatone/go-view/pkg/prompt"
)

// Options stores global CLI options shared between commands.
type Options struct {
	ConfigPath string
	EnvFiles   []string
	LogLevel   logging.Level

	// Prompter asks for missing variables in interactive renders.
	Prompter prompt.Driver
	// Environment replaces the process environment when non-nil.
	Environment map[string]string
}

// Execute builds the root command, runs it with args and returns any error.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts := &Options{
		LogLevel: logging.LevelInfo,
		Prompter: prompt.NewSurveyDriver(),
	}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

func newRootCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "goview",
		Short:         "goview renders templates through layouts and wrappers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := logging.ParseLevel(cmd.Flag("log-level").Value.String())
			opts.LogLevel = level
			logger := logging.NewLogger(cmd.ErrOrStderr(), level)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", level)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to a goview YAML configuration file")
	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", nil, "Read GOVIEW_ variables from .env files")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newRenderCommand(opts),
		newServeCommand(opts),
	)
	return cmd
}

// loadConfig reads the configuration named by the global flags.
func (o *Options) loadConfig() (config.Config, error) {
	loadOpts := []config.LoadOption{config.WithEnvFiles(o.EnvFiles...)}
	if o.Environment != nil {
		loadOpts = append(loadOpts, config.WithEnvironment(o.Environment))
	}
	return config.Load(o.ConfigPath, loadOpts...)
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext returns the command logger, or a stderr logger when none
// was stored.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return logging.NewLogger(os.Stderr, logging.LevelInfo)
}
