package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bastiangx/trieserve/internal/cli"
	"github.com/bastiangx/trieserve/internal/logger"
	"github.com/bastiangx/trieserve/internal/metrics"
	"github.com/bastiangx/trieserve/pkg/config"
	"github.com/bastiangx/trieserve/pkg/dictionary"
	"github.com/bastiangx/trieserve/pkg/server"
	"github.com/bastiangx/trieserve/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	configPath string
	debugMode  bool
	appConfig  *config.Config
	activePath string
)

// Execute builds the command tree and runs it.
func Execute() error {
	rootCmd := &cobra.Command{
		Use:           AppName,
		Short:         AppName + " - prefix search over documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debugMode {
				log.SetLevel(log.DebugLevel)
				log.SetReportTimestamp(true)
			} else {
				log.SetLevel(log.WarnLevel)
			}
			var err error
			appConfig, activePath, err = config.LoadConfigWithPriority(configPath)
			return err
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML or YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "toggle debug logging")

	rootCmd.AddCommand(
		DefineServeCommand(),
		DefineReplCommand(),
		DefineConfigCommand(),
		DefineVersionCommand(),
	)
	return rootCmd.Execute()
}

func DefineServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve msgpack search requests on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE:  RunServe,
	}
	addSeedFlags(cmd)
	cmd.Flags().String("metrics-addr", "", "listen address for /metrics, overrides the config")
	return cmd
}

func DefineReplCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Search interactively -- useful for testing and debugging",
		Args:  cobra.NoArgs,
		RunE:  RunRepl,
	}
	addSeedFlags(cmd)
	cmd.Flags().Int("limit", 0, "matches per phrase, defaults to cli.default_limit")
	return cmd
}

func addSeedFlags(cmd *cobra.Command) {
	cmd.Flags().String("data", "", "seed file ("+strings.Join(dictionary.SupportedExtensions(), ", ")+")")
	cmd.Flags().String("text-field", "text", "field holding the lines of a .txt seed file")
}

func DefineConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the active config file, or rebuild it with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rebuild, _ := cmd.Flags().GetBool("rebuild")
			if rebuild {
				path, err := config.RebuildConfigFile()
				if err != nil {
					return fmt.Errorf("rebuilding config: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "config rebuilt at %s\n", path)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.GetActiveConfigPath(activePath))
			return nil
		},
	}
	cmd.Flags().Bool("rebuild", false, "overwrite the default config file with defaults")
	return cmd
}

func DefineVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show current version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion()
		},
	}
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ TrieServe ] prefix search over your documents")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// buildTrie creates the document trie described by cfg and seeds it from dataPath.
// It returns the next free id for the index field.
func buildTrie(cfg *config.Config, dataPath, textField string, rec suggest.Recorder) (*suggest.Trie[*dictionary.Document], int, error) {
	fields, err := cfg.Trie.KeyFields()
	if err != nil {
		return nil, 0, err
	}
	opts, err := cfg.Trie.Options()
	if err != nil {
		return nil, 0, err
	}
	opts.Logger = logger.New("suggest")
	if rec != nil {
		opts.Metrics = rec
	}
	trie, err := suggest.New[*dictionary.Document](fields, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("creating trie: %w", err)
	}

	nextID := 1
	if dataPath == "" {
		log.Warn("No seed file specified, running with an empty index...")
		return trie, nextID, nil
	}
	docs, err := dictionary.LoadFile(dataPath, textField)
	if err != nil {
		return nil, 0, err
	}
	if idField := idFieldOf(cfg); idField != "" {
		nextID = dictionary.AssignIDs(docs, idField, nextID)
	}
	if err := trie.Add(docs...); err != nil {
		return nil, 0, fmt.Errorf("indexing %s: %w", dataPath, err)
	}
	log.Debugf("Indexed [%d] documents into [%d] nodes", len(docs), trie.Size())
	return trie, nextID, nil
}

// idFieldOf returns the top-level index field that generated ids go to.
func idFieldOf(cfg *config.Config) string {
	if strings.Contains(cfg.Trie.IndexField, ".") {
		return ""
	}
	return cfg.Trie.IndexField
}

func RunServe(cmd *cobra.Command, args []string) error {
	dataPath, _ := cmd.Flags().GetString("data")
	textField, _ := cmd.Flags().GetString("text-field")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	if metricsAddr == "" {
		metricsAddr = appConfig.Server.MetricsAddr
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	trie, nextID, err := buildTrie(appConfig, dataPath, textField, m)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []server.Option{server.WithMetrics(m)}
	if idField := idFieldOf(appConfig); idField != "" {
		opts = append(opts, server.WithIDField(idField, nextID))
	}
	srv := server.NewServer(os.Stdin, os.Stdout, trie, appConfig.Server, opts...)
	log.Debugf("Process ID: [ %d ], config: ( %s )", os.Getpid(), config.GetActiveConfigPath(activePath))

	g, gctx := errgroup.WithContext(ctx)
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		httpServer := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Debugf("Serving metrics on %s", metricsAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return httpServer.Shutdown(context.Background())
		})
	}
	g.Go(func() error {
		// input ending stops the metrics listener too
		defer stop()
		if err := srv.Start(gctx); err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func RunRepl(cmd *cobra.Command, args []string) error {
	dataPath, _ := cmd.Flags().GetString("data")
	textField, _ := cmd.Flags().GetString("text-field")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = appConfig.CLI.DefaultLimit
	}

	trie, nextID, err := buildTrie(appConfig, dataPath, textField, nil)
	if err != nil {
		return err
	}
	log.SetReportTimestamp(false)
	log.Debug("Input info:", "limit", limit, "textField", textField)

	out := logger.NewWithConfig(os.Stderr, "", log.GetLevel(), false, false, log.TextFormatter)
	if out.GetLevel() > log.InfoLevel {
		out.SetLevel(log.InfoLevel)
	}
	handler := cli.NewInputHandler(trie, limit, textField, idFieldOf(appConfig), nextID, out)
	return handler.Start(os.Stdin)
}
