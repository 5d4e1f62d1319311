package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kestrel-dev/kestrel/pkg/config"
	"github.com/kestrel-dev/kestrel/pkg/log"
	"github.com/kestrel-dev/kestrel/pkg/metrics"
	"github.com/kestrel-dev/kestrel/pkg/remote"
	"github.com/kestrel-dev/kestrel/pkg/system"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "kestrel",
	Short:   "kestrel - a local developer service orchestrator",
	Long:    `kestrel drives a set of local services through dependency-ordered blocks, health-checking them and running automations when watched files change.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("kestrel version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var runCmd = &cobra.Command{
	Use:   "run CONFIG-DIR",
	Short: "Load a configuration directory and run the engine (spec.md §6's CLI surface)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir := args[0]

		cfg, err := config.Load(configDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if cfg.Settings.LogLevel != "" {
			log.Init(log.Config{
				Level:      log.Level(cfg.Settings.LogLevel),
				JSONOutput: cfg.Settings.LogJSON,
			})
		}

		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		remoteAddr, _ := cmd.Flags().GetString("remote-addr")

		engine := system.New()
		engine.LoadProfiles(cfg.Profiles)

		metricsCollector := metrics.NewCollector(engine)
		metricsCollector.Start()
		defer metricsCollector.Stop()

		metrics.SetVersion(Version)
		metrics.RegisterComponent("engine", true, "running", true)

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.Handle("/health", metrics.HealthHandler())
		mux.Handle("/ready", metrics.ReadyHandler())
		mux.Handle("/live", metrics.LivenessHandler())

		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				log.Logger.Warn().Err(err).Msg("metrics server error")
			}
		}()
		fmt.Printf("Metrics endpoint: http://%s/metrics\n", metricsAddr)

		var hub *remote.Hub
		if remoteAddr != "" {
			hub = remote.NewHub(engine.OutputStore(), engine, log.WithComponent("remote"))
			hub.Start()
			defer hub.Stop()

			remoteMux := http.NewServeMux()
			remoteMux.Handle("/v1/stream", hub.Handler())
			go func() {
				if err := http.ListenAndServe(remoteAddr, remoteMux); err != nil && err != http.ErrServerClosed {
					log.Logger.Warn().Err(err).Msg("remote stream server error")
				}
			}()
			fmt.Printf("Remote stream:    ws://%s/v1/stream\n", remoteAddr)
		}

		engine.Start()

		if cfg.Settings.DefaultProfile != "" {
			engine.SelectProfile(cfg.Settings.DefaultProfile)
			fmt.Printf("Active profile: %s\n", cfg.Settings.DefaultProfile)
		}

		fmt.Println("kestrel is running. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\nShutting down...")
		engine.Shutdown()
		engine.Stop()
		fmt.Println("Shutdown complete")
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate CONFIG-DIR",
	Short: "Load and type-check a configuration directory without starting the engine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(args[0])
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		fmt.Printf("Configuration valid: %d profile(s)\n", len(cfg.Profiles))
		for _, p := range cfg.Profiles {
			fmt.Printf("  - %s (%d service(s), %d task(s))\n", p.Id, len(p.Services), len(p.Tasks))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address for the metrics/health HTTP server")
	runCmd.Flags().String("remote-addr", "", "Address to serve the optional read-only websocket stream on (disabled if empty)")
}
