// cord-broker is the background process that bridges editor plugins to the
// desktop chat app's rich-presence endpoint. It is spawned once per editor
// session and exits after an idle timeout with no connected editors.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cordbroker/cord-broker/internal/broker"
	"github.com/cordbroker/cord-broker/internal/config"
)

// version is the broker's release string, printed by --version (§6).
const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cord-broker: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		pipeName            string
		clientID            uint64
		timeoutMs           int64
		reconnectIntervalMs int64
		initialReconnect    bool
		showVersion         bool
	)

	defaults, defErr := config.Load()
	if defaults == nil {
		defaults = &config.Defaults{}
	}

	cmd := &cobra.Command{
		Use:           "cord-broker",
		Short:         "Bridge editor plugins to the desktop chat app's rich-presence endpoint",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Println(version)
				return nil
			}
			if defErr != nil {
				fmt.Fprintf(os.Stderr, "cord-broker: failed to load config defaults, using built-ins: %v\n", defErr)
			}
			if clientID == 0 {
				return fmt.Errorf("--client-id is required and must be > 0")
			}

			level := new(slog.LevelVar)
			level.Set(slog.LevelInfo)
			log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			cfg := broker.Config{
				PipeName:            pipeName,
				ClientID:            clientID,
				TimeoutMs:           timeoutMs,
				ReconnectIntervalMs: reconnectIntervalMs,
				InitialReconnect:    initialReconnect,
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			b := broker.New(cfg, log, level)
			return b.Run(ctx)
		},
	}

	defaultPipeName := broker.DefaultPipeName()
	if defaults.PipeName != "" {
		defaultPipeName = defaults.PipeName
	}
	defaultTimeout := int64(broker.DefaultTimeoutMs)
	if defaults.TimeoutMs > 0 {
		defaultTimeout = defaults.TimeoutMs
	}
	defaultReconnectInterval := int64(0)
	if defaults.ReconnectIntervalMs > 0 {
		defaultReconnectInterval = defaults.ReconnectIntervalMs
	}
	defaultClientID := defaults.ClientID
	defaultInitialReconnect := defaults.InitialReconnect

	flags := cmd.Flags()
	flags.StringVarP(&pipeName, "pipe-name", "p", defaultPipeName, "pipe/socket path to listen on")
	flags.Uint64VarP(&clientID, "client-id", "c", defaultClientID, "Discord application client id (required)")
	flags.Int64VarP(&timeoutMs, "timeout", "t", defaultTimeout, "idle shutdown timeout in milliseconds")
	flags.Int64VarP(&reconnectIntervalMs, "reconnect-interval", "r", defaultReconnectInterval, "milliseconds between reconnect attempts (0 disables periodic reconnect)")
	flags.BoolVarP(&initialReconnect, "initial-reconnect", "i", defaultInitialReconnect, "attempt one reconnect at startup if the initial connect fails")
	flags.BoolVarP(&showVersion, "version", "v", false, "print the version string and exit")

	return cmd
}
