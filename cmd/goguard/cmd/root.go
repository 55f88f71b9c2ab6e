// Package cmd implements the goguard CLI commands.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MrEthical07/goGuard"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Version is set at build time.
var Version = "0.1.0"

type rootOptions struct {
	configPath   string
	logLevel     string
	logFormat    string
	outputFormat string
}

// NewRootCmd assembles the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "goguard",
		Short: "Stateless bearer-token authentication service",
		Long: `goguard issues signed bearer tokens for username/password logins and
guards HTTP routes with an ordered rule table.

Example:
  GOGUARD_JWT_SECRET=base64:... goguard serve --addr :8080`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&opts.logLevel, "log-level", "l", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format: text, json")
	rootCmd.PersistentFlags().StringVarP(&opts.outputFormat, "output", "o", "json", "Output format: json, yaml")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newHashPasswordCmd(opts),
		newTokenCmd(opts),
		newLoadtestCmd(opts),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig returns the file configuration when --config is set, otherwise
// the defaults with environment overrides applied. It does not validate.
func (o *rootOptions) loadConfig() (goGuard.Config, error) {
	if o.configPath != "" {
		cfg, err := goGuard.LoadConfigFile(o.configPath)
		if err != nil {
			return goGuard.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}
	cfg := goGuard.DefaultConfig()
	if err := goGuard.ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return goGuard.Config{}, fmt.Errorf("failed to apply environment: %w", err)
	}
	return cfg, nil
}

func (o *rootOptions) newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", o.logLevel)
	}
	hopts := &slog.HandlerOptions{Level: level}

	switch o.logFormat {
	case "json":
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", o.logFormat)
	}
}

// formatOutput writes data in the --output format.
func (o *rootOptions) formatOutput(w io.Writer, data any) error {
	switch o.outputFormat {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", o.outputFormat)
	}
}
