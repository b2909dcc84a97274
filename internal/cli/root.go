// Package cli implements the coursemap command-line interface: the
// batch "map" exporter and the "serve" job server.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/campusops/coursemap/internal/config"
)

var (
	cfgFile string
	v       = viper.New()

	rootCmd = &cobra.Command{
		Use:   "coursemap",
		Short: "Map Blackboard course content into navigable exports",
		Long: `coursemap crawls a course's content tree over the Blackboard REST API
and renders it as text, CSV, Markdown, and an interactive HTML viewer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so BB_* variables are visible to viper.
	_ = godotenv.Load()

	cobra.OnInitialize(initConfig)
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./coursemap.toml)")
	pf.String("host", "", "Blackboard base URL, e.g. https://bb.example.edu (BB_HOST)")
	pf.String("key", "", "REST application key (BB_KEY)")
	pf.String("secret", "", "REST application secret (BB_SECRET)")
	pf.Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newMapCommand())
	rootCmd.AddCommand(newServeCommand())
}

// initConfig wires precedence: flags over BB_* environment over config
// file over defaults.
func initConfig() {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("coursemap")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.coursemap")
	}

	v.SetEnvPrefix("BB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server knobs read their own prefix.
	for key, env := range map[string]string{
		"port":           "COURSEMAP_PORT",
		"api_key":        "COURSEMAP_API_KEY",
		"worker_count":   "COURSEMAP_WORKER_COUNT",
		"max_queue_size": "COURSEMAP_MAX_QUEUE_SIZE",
		"job_ttl":        "COURSEMAP_JOB_TTL",
		"session_ttl":    "COURSEMAP_SESSION_TTL",
	} {
		_ = v.BindEnv(key, env)
	}

	config.SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: config file: %v\n", err)
		}
	}

	_ = v.BindPFlags(rootCmd.PersistentFlags())
}

// loadConfig materializes and validates the merged configuration.
func loadConfig() (config.Config, error) {
	cfg := config.Load(v)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger is the batch CLI logger: human-readable, on stderr so it
// never mixes with redirected artifact output.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
