// Package main is the entry point for the AetherFlow application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"aetherflow/local-app/src/pkg/adapter"
	_ "aetherflow/local-app/src/pkg/ai/providers"
	"aetherflow/local-app/src/pkg/api"
	"aetherflow/local-app/src/pkg/canvas"
	"aetherflow/local-app/src/pkg/cli"
	"aetherflow/local-app/src/pkg/config"
	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/logview"
	"aetherflow/local-app/src/pkg/viewport"
)

var version = "0.3.0"

var (
	configPath  string
	offlineMode bool
)

var rootCmd = &cobra.Command{
	Use:   "aetherflow",
	Short: "AetherFlow - AI mind maps in your terminal",
	Long: cli.Brand.Sprint("AetherFlow") + " - grow mind maps from a single idea\n" +
		cli.Subtle.Sprint("Expand nodes with AI, chat with them and track tasks from the command line"),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL(cmd.Context())
	},
}

func init() {
	rootCmd.SetVersionTemplate("aetherflow {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVar(&offlineMode, "offline", false, "Run without an AI backend")

	rootCmd.AddCommand(
		canvasCmd(),
		serveCmd(),
		logsCmd(),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, cli.Bad.Sprint("aetherflow: ")+err.Error())
		os.Exit(1)
	}
}

// runREPL starts the interactive command line over a new session.
func runREPL(ctx context.Context) error {
	a, err := bootstrap(configPath, offlineMode)
	if err != nil {
		return err
	}
	defer a.close()

	adapterManager, err := adapter.NewAdapterManager(a.sessionManager, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize adapter manager: %w", err)
	}
	defer adapterManager.Shutdown()

	instance, err := adapterManager.AdapterAdd(adapter.CLIAdapterType)
	if err != nil {
		return fmt.Errorf("failed to initialize CLI adapter: %w", err)
	}
	cliInstance, err := cli.NewCLI(instance.(*adapter.CLIAdapter), a.historyFile(), a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize CLI: %w", err)
	}
	a.logger.Info(ctx, "CLI instance created", log.Fields{"sessionID": cliInstance.SessionID()})

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			a.logger.Info(context.Background(), "Received interrupt signal. Shutting down...", nil)
			fmt.Println("\nReceived interrupt signal. Shutting down...")
			cliInstance.Stop()
		case <-done:
		}
	}()

	if err := cliInstance.Run(); err != nil {
		a.logger.Error(ctx, "CLI error", log.Fields{"error": err})
		return fmt.Errorf("CLI error: %w", err)
	}
	return nil
}

func canvasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "canvas [seed...]",
		Short: "Open the interactive canvas",
		Long: "Open the mouse-driven canvas over the saved map. When a seed is given,\n" +
			"a new map is created from it first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(configPath, offlineMode)
			if err != nil {
				return err
			}
			defer a.close()

			sessionID, err := a.sessionManager.SessionAdd()
			if err != nil {
				return fmt.Errorf("failed to add session: %w", err)
			}
			defer a.sessionManager.SessionDelete(sessionID)
			s, _ := a.sessionManager.SessionGet(sessionID)

			if seed := strings.TrimSpace(strings.Join(args, " ")); seed != "" {
				if _, _, err := s.Orchestrator.NewMap(seed); err != nil {
					return fmt.Errorf("failed to create map: %w", err)
				}
			}

			vp := a.cfg.Viewport
			return canvas.Run(cmd.Context(), s, viewport.Config{
				MinZoom:  vp.MinZoom,
				MaxZoom:  vp.MaxZoom,
				ZoomStep: vp.ZoomStep,
				Throttle: vp.WheelThrottle,
			}, a.logger)
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the AI endpoints over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(configPath, offlineMode)
			if err != nil {
				return err
			}
			defer a.close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			fmt.Printf("%s listening on %s\n", cli.Brand.Sprint("AetherFlow"), addr)
			return api.NewServer(a.client, a.registry, a.logger).ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from configuration)")
	return cmd
}

func logsCmd() *cobra.Command {
	var rate int
	cmd := &cobra.Command{
		Use:   "logs [log directory]",
		Short: "Follow the application logs",
		Long: "Follow every *.log file of the log folder and print entries in a compact,\n" +
			"colored form. Type to filter, backspace to remove the last character,\n" +
			"Ctrl-C or Esc to exit.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			} else {
				if err := config.ConfigLoad(configPath); err != nil {
					return fmt.Errorf("failed to load configuration: %w", err)
				}
				dir = config.ConfigGet().Log.Folder
			}
			if rate < 1 {
				return fmt.Errorf("refresh rate must be a positive integer")
			}
			return logview.New(dir, os.Stdout, time.Duration(rate)*time.Second).Run(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&rate, "rate", "r", 1, "Refresh rate in seconds")
	return cmd
}
