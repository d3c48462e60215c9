package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matthewjhunter/cast/internal/config"
	"github.com/matthewjhunter/cast/internal/feeds"
	"github.com/matthewjhunter/cast/internal/output"
	"github.com/matthewjhunter/cast/internal/tracker"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath   string
	dbPath       string
	logLevel     string
	outputFormat string
	cfg          *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cast",
		Short:         "Personal command-line utilities",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default: "+config.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "catalog database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warning, error (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "human", "output format: json, text, human")

	rootCmd.AddCommand(rssCmd())
	rootCmd.AddCommand(initConfigCmd())
	return rootCmd
}

func loadConfig() error {
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return setupLogging(cfg.Log.Level)
}

func setupLogging(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetOutput(os.Stderr)
	log.SetLevel(lvl)
	return nil
}

func rssCmd() *cobra.Command {
	var opts tracker.Options
	var subscribed bool

	cmd := &cobra.Command{
		Use:   "rss [list|add|remove|subscribe|unsubscribe|import] [link|match|file]",
		Short: "RSS feeds management utility",
		Long: `Manage the local catalog of RSS feeds.

The catalog is populated from a default list the first time it is found
empty. remove, subscribe and unsubscribe match every feed whose title or
link contains the given text.

Without a command the option flags decide what to do; with neither the
catalog is listed.`,
		Example: `  cast rss
  cast rss add https://go.dev/blog/feed.atom
  cast rss --remove ycombinator
  cast rss subscribe "Go Blog"
  cast rss import feeds.opml`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var explicit, arg string
			if len(args) > 0 {
				explicit = args[0]
			}
			if len(args) > 1 {
				arg = args[1]
			}

			command, err := tracker.SelectCommand(explicit, arg, opts)
			if err != nil {
				return err
			}
			command.SubscribedOnly = subscribed

			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}

			seeds, err := config.LoadFeeds(cfg.Seed.Path)
			if err != nil {
				return err
			}

			fetcher := feeds.NewFetcher(cfg.Fetch.Timeout, cfg.Fetch.UserAgent)
			formatter := output.NewFormatterWithWriters(format, cmd.OutOrStdout(), cmd.ErrOrStderr())
			t := tracker.New(fetcher, seeds, formatter)

			return t.Run(cmd.Context(), tracker.StoreOpener(cfg.Database.Path), command)
		},
	}

	cmd.Flags().StringVar(&opts.Add, "add", "", "add a new RSS feed by link")
	cmd.Flags().StringVar(&opts.Remove, "remove", "", "remove feeds whose title or link contains the text")
	cmd.Flags().StringVar(&opts.Subscribe, "subscribe", "", "subscribe to feeds whose title or link contains the text")
	cmd.Flags().StringVar(&opts.Unsubscribe, "unsubscribe", "", "unsubscribe from feeds whose title or link contains the text")
	cmd.Flags().BoolVar(&subscribed, "subscribed", false, "list only subscribed feeds")
	return cmd
}

func initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Create a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Write(configPath, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created default config at %s\n", configPath)
			return nil
		},
	}
}
