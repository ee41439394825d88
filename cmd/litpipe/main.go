// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the litpipe CLI. The research
// subcommand runs the full seven-phase literature pipeline; the
// remaining subcommands inspect and re-export existing runs.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/litpipe/internal/secrets"
	"github.com/pdiddy/litpipe/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// creds is loaded once in the root PersistentPreRun.
var creds types.Credentials

var rootCmd = &cobra.Command{
	Use:   "litpipe",
	Short: "Academic literature research pipeline",
	Long: `litpipe searches bibliographic APIs for papers matching a research
question, ranks them across five dimensions, acquires open-access PDFs,
extracts validated verbatim quotes, and exports a citation library.

Credentials are read from the environment (optionally via a .env file):
ANTHROPIC_API_KEY, CORE_API_KEY, UNPAYWALL_EMAIL, SEMANTIC_SCHOLAR_API_KEY,
CROSSREF_EMAIL, OPENALEX_EMAIL. Every credential is optional; missing ones
put the corresponding client into its anonymous tier.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		envFile, _ := cmd.Flags().GetString("env-file")
		creds = secrets.Load(envFile)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./litpipe.yaml or ~/.config/litpipe/config.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "optional .env file with credentials")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("litpipe")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "litpipe"))
		}
	}

	viper.SetEnvPrefix("LITPIPE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the process logger. Debug level with --verbose,
// warn otherwise so phase progress on stdout stays readable.
func newLogger(cmd *cobra.Command) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// loadConfig merges the config file (if any) over the defaults.
func loadConfig() (types.PipelineConfig, error) {
	cfg := types.DefaultPipelineConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	cfg.Credentials = creds
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
