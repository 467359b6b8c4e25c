// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the keyword-query CLI: web searches
// for keyword pairs, page text extraction, and CSV batch runs.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/keyword-query/internal/extract"
	"github.com/pdiddy/keyword-query/internal/search"
	"github.com/pdiddy/keyword-query/internal/secrets"
	"github.com/pdiddy/keyword-query/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// secretsDir holds plain-text API keys, one file per key.
const secretsDir = ".secrets/"

var (
	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets secrets.Set

	// logger is the CLI logger, configured in PersistentPreRunE.
	logger = zerolog.Nop()
)

// rootCmd is the base command for the keyword-query CLI.
var rootCmd = &cobra.Command{
	Use:   "keyword-query",
	Short: "Search the web for keyword pairs and extract page text",
	Long: `keyword-query sends two keywords as exact-phrase terms to a web search
provider and returns the result URLs. It can fetch each result page and
extract its readable text, and it can run a CSV file of keyword pairs
through a bounded worker pool, storing results in a SQLite database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogger(cmd); err != nil {
			return err
		}
		s, err := secrets.Load(secretsDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if names := s.Names(); len(names) > 0 {
			logger.Debug().Strs("secrets", names).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./keyword-query.yaml or ~/.config/keyword-query/keyword-query.yaml)")
	pf.String("api-key", "", "search provider subscription key (overrides config and .secrets/"+secrets.SearchAPIKey+")")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.Bool("debug", false, "shorthand for --log-level debug")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("keyword-query")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "keyword-query"))
		}
	}

	setDefaults(types.DefaultConfig())
	viper.SetEnvPrefix("KEYWORD_QUERY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("search.api_key", "KEYWORD_QUERY_API_KEY", "KEYWORD_QUERY_SEARCH_API_KEY")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so that environment variables
// reach viper.Unmarshal.
func setDefaults(cfg types.Config) {
	viper.SetDefault("search.timeout", cfg.Search.Timeout)
	viper.SetDefault("search.user_agent", cfg.Search.UserAgent)
	viper.SetDefault("search.endpoint", cfg.Search.Endpoint)
	viper.SetDefault("search.count", cfg.Search.Count)
	viper.SetDefault("search.max_retries", cfg.Search.MaxRetries)

	viper.SetDefault("extraction.timeout", cfg.Extraction.Timeout)
	viper.SetDefault("extraction.user_agent", cfg.Extraction.UserAgent)
	viper.SetDefault("extraction.max_body_bytes", cfg.Extraction.MaxBodyBytes)
	viper.SetDefault("extraction.max_text_length", cfg.Extraction.MaxTextLength)
	viper.SetDefault("extraction.max_retries", cfg.Extraction.MaxRetries)

	viper.SetDefault("batch.workers", cfg.Batch.Workers)
	viper.SetDefault("batch.rate_per_second", cfg.Batch.RatePerSecond)
	viper.SetDefault("batch.max_pages", cfg.Batch.MaxPages)

	viper.SetDefault("store.path", cfg.Store.Path)
}

// loadConfig returns the merged configuration: defaults, config file,
// then environment.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	return cfg, nil
}

func setupLogger(cmd *cobra.Command) error {
	levelName, _ := cmd.Flags().GetString("log-level")
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		levelName = "debug"
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelName))
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", levelName, err)
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()
	return nil
}

// apiKey resolves the search key: flag, then config/environment, then
// the .secrets/ file.
func apiKey(cmd *cobra.Command) (string, error) {
	flag, _ := cmd.Flags().GetString("api-key")
	key := secrets.Resolve(flag, viper.GetString("search.api_key"), loadedSecrets.Get(secrets.SearchAPIKey))
	if key == "" {
		return "", fmt.Errorf("no search API key: use --api-key, KEYWORD_QUERY_API_KEY, or %s%s",
			secretsDir, secrets.SearchAPIKey)
	}
	return key, nil
}

func newSearchClient(cmd *cobra.Command, cfg types.Config) (*search.Client, error) {
	key, err := apiKey(cmd)
	if err != nil {
		return nil, err
	}
	c := search.New(key, &http.Client{Timeout: cfg.Search.Timeout}, cfg.Search)
	c.Log = logger.With().Str("component", "search").Logger()
	return c, nil
}

func newExtractor(cfg types.Config) *extract.Extractor {
	e := extract.New(&http.Client{Timeout: cfg.Extraction.Timeout}, cfg.Extraction)
	e.Log = logger.With().Str("component", "extract").Logger()
	return e
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
