package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/brandmonitor/internal/config"
	"github.com/TobiSchelling/brandmonitor/internal/database"
	"github.com/TobiSchelling/brandmonitor/internal/discover"
	"github.com/TobiSchelling/brandmonitor/internal/llm"
	"github.com/TobiSchelling/brandmonitor/internal/logging"
	"github.com/TobiSchelling/brandmonitor/internal/pipeline"
	"github.com/TobiSchelling/brandmonitor/internal/scrape"
	"github.com/TobiSchelling/brandmonitor/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logCloser  io.Closer
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "brandmonitor",
	Short:   "Brand visibility across AI assistants",
	Long:    "brandmonitor asks several AI providers about a company's market and measures how prominently the company and its competitors are mentioned.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if verbose {
			cfg.Logging.Level = "debug"
		}
		logCloser, err = logging.Init(cfg.Logging)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("brandmonitor", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/brandmonitor/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Set provider API keys in your environment or in a .env file next to it.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and provider status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Analyses:")
		fmt.Printf("  Total: %d\n", stats.Analyses)
		fmt.Printf("  Companies: %d\n", stats.Companies)
		if stats.LastAnalysis != nil {
			fmt.Printf("  Last run: %s\n", *stats.LastAnalysis)
		}
		fmt.Println("\nScrape cache:")
		fmt.Printf("  Cached sites: %d\n", stats.CachedSites)
		fmt.Println("\nProviders:")
		fmt.Printf("  Enabled: %d\n", len(llm.NewRegistry(cfg).ListEnabled()))
		return nil
	},
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured AI providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled := llm.NewRegistry(cfg).ListEnabled()
		if len(enabled) == 0 {
			fmt.Println("No AI providers configured. Please set at least one API key.")
			return nil
		}
		for _, p := range enabled {
			fmt.Printf("  %-12s %-12s %s\n", p.ID, p.DisplayName, p.Model)
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, port)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Starting server at http://%s\n", addr)
		fmt.Println("Press Ctrl+C to stop")
		return server.New(cfg, db, buildDeps(db)).ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// buildDeps wires the concrete collaborators from config.
func buildDeps(db *database.DB) pipeline.Deps {
	registry := llm.NewRegistry(cfg)
	search := discover.New(cfg, registry)
	if !search.HasSources() {
		logrus.Debug("No competitor discovery sources configured")
	}
	return pipeline.Deps{
		Providers: registry,
		Querier:   registry,
		Scraper:   scrape.New(cfg.Scrape, db),
		Search:    search,
	}
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(cfg.DatabasePath())
}
