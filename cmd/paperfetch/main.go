// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paperfetch CLI. Subcommands search
// arXiv, OpenAlex, and GitHub, download arXiv sources and open-access PDFs,
// and run the JSON tools a plugin host would call.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperfetch/internal/observability"
	"github.com/pdiddy/paperfetch/internal/search"
	"github.com/pdiddy/paperfetch/internal/secrets"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Shared state built by the root command before any subcommand runs.
var (
	cfg     = types.DefaultConfig()
	logger  = zerolog.Nop()
	metrics = observability.NewMetrics()
)

// rootCmd is the base command for the paperfetch CLI.
var rootCmd = &cobra.Command{
	Use:   "paperfetch",
	Short: "Discover and download academic papers",
	Long: `paperfetch searches arXiv, OpenAlex, and GitHub for papers and code, and
downloads documents: LaTeX sources from arXiv (falling back to the PDF) and
open-access PDFs for DOIs through Unpaywall.

Configuration is read from ./paperfetch.yaml or ~/.config/paperfetch/config.yaml
and PAPERFETCH_* environment variables. API keys live in .secrets/.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		applyConfig(&cfg)
		logger = observability.NewLogger(cfg.Log, os.Stderr)

		s, err := secrets.Load(viper.GetString("secrets_dir"), logger)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		applySecrets(&cfg, s, os.LookupEnv)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if cfg.MetricsFile == "" {
			return nil
		}
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./paperfetch.yaml or ~/.config/paperfetch/config.yaml)")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")
	pf.String("metrics-file", "", "write Prometheus metrics in textfile format on exit")
	pf.String("secrets-dir", secrets.DefaultDir, "directory holding API keys")

	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", pf.Lookup("log-format"))
	_ = viper.BindPFlag("metrics_file", pf.Lookup("metrics-file"))
	_ = viper.BindPFlag("secrets_dir", pf.Lookup("secrets-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paperfetch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paperfetch"))
		}
	}

	viper.SetEnvPrefix("PAPERFETCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// applyConfig overlays the keys set in viper onto c. Unset keys keep the
// defaults.
func applyConfig(c *types.Config) {
	if viper.IsSet("timeout") {
		t := viper.GetDuration("timeout")
		c.Search.Timeout, c.Acquisition.Timeout, c.Unpaywall.Timeout = t, t, t
	}
	if viper.IsSet("user_agent") {
		ua := viper.GetString("user_agent")
		c.Search.UserAgent, c.Acquisition.UserAgent, c.Unpaywall.UserAgent = ua, ua, ua
	}
	if viper.IsSet("max_retries") {
		n := viper.GetInt("max_retries")
		c.Search.MaxRetries, c.Acquisition.MaxRetries, c.Unpaywall.MaxRetries = n, n, n
	}
	if viper.IsSet("contact_email") {
		email := viper.GetString("contact_email")
		c.Search.ContactEmail, c.Unpaywall.Email = email, email
	}

	if viper.IsSet("arxiv.delay") {
		c.Acquisition.Pacing.Delay = viper.GetDuration("arxiv.delay")
	}
	if viper.IsSet("arxiv.output_dir") {
		c.Acquisition.OutputDir = viper.GetString("arxiv.output_dir")
	}
	if viper.IsSet("unpaywall.delay") {
		c.Unpaywall.Pacing.Delay = viper.GetDuration("unpaywall.delay")
	}
	if viper.IsSet("unpaywall.rate") {
		c.Unpaywall.Pacing.Rate = viper.GetFloat64("unpaywall.rate")
		c.Unpaywall.Pacing.Burst = viper.GetInt("unpaywall.burst")
	}
	if viper.IsSet("unpaywall.output_dir") {
		c.Unpaywall.OutputDir = viper.GetString("unpaywall.output_dir")
	}

	if v := viper.GetString("log.level"); v != "" {
		c.Log.Level = v
	}
	if v := viper.GetString("log.format"); v != "" {
		c.Log.Format = v
	}
	c.MetricsFile = viper.GetString("metrics_file")
}

// applySecrets fills credentials the config does not set explicitly.
func applySecrets(c *types.Config, s map[string]string, lookupEnv func(string) (string, bool)) {
	c.Search.GithubToken = search.ResolveGithubToken(lookupEnv, s)
	if email, ok := s[secrets.KeyContactEmail]; ok && !viper.IsSet("contact_email") {
		c.Search.ContactEmail, c.Unpaywall.Email = email, email
	}
}

// httpClient returns a client using the given request timeout.
func httpClient(h types.HTTPConfig) *http.Client {
	return &http.Client{Timeout: h.Timeout}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
