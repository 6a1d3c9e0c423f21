// Command courier runs the food-delivery courier life simulation.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/courier-life/internal/api"
	"github.com/talgya/courier-life/internal/config"
	"github.com/talgya/courier-life/internal/dialogue"
	"github.com/talgya/courier-life/internal/engine"
	"github.com/talgya/courier-life/internal/entropy"
	"github.com/talgya/courier-life/internal/llm"
	"github.com/talgya/courier-life/internal/persistence"
)

const version = "0.1.0"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := &cobra.Command{
		Use:           "courier",
		Short:         "Courier Life, a food-delivery life simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.Version = version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	var configPath string
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "courier.yaml", "path to config file")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newResetCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the session and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			db, err := persistence.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()
			slog.Info("database opened", "path", cfg.DBPath)

			// Entropy: true randomness for lottery draws when a random.org
			// key is configured, falling back to the seeded source.
			rng := entropy.NewSource()
			lotteryRng := entropy.FromTrueOr(entropy.NewTrueClient(cfg.RandomOrgKey), rng)

			var provider dialogue.Provider
			mode := dialogue.ModeOffline
			if cfg.DialogueMode == "online" {
				client := llm.NewClient(cfg.AnthropicKey)
				if client.Enabled() {
					provider = llm.NewDialogueProvider(client)
					mode = dialogue.ModeOnline
					slog.Info("online dialogue enabled")
				} else {
					slog.Warn("online dialogue requested but no API key; using offline catalog")
				}
			}

			session := engine.NewSession(engine.Config{
				PlayerName:     cfg.PlayerName,
				TimeMultiplier: cfg.TimeMultiplier,
				Seed:           cfg.Seed,
				DialogueMode:   mode,
			}, rng, lotteryRng, provider)

			snapshot, err := db.LoadSnapshot()
			if err != nil {
				slog.Warn("saved session unreadable, starting fresh", "error", err)
			} else if snapshot != nil {
				session.Restore(snapshot)
			} else {
				slog.Info("no saved session, starting fresh", "player", cfg.PlayerName)
			}

			server := &api.Server{
				Session:  session,
				DB:       db,
				Addr:     cfg.APIAddr,
				AdminKey: cfg.AdminToken,
			}
			server.Start()

			go session.Run()

			// Periodic autosave.
			saveTicker := time.NewTicker(time.Duration(cfg.SaveInterval) * time.Second)
			defer saveTicker.Stop()
			go func() {
				for range saveTicker.C {
					if err := db.SaveSnapshot(session.Export()); err != nil {
						slog.Error("autosave failed", "error", err)
					}
					if err := db.SaveEvents(session.DrainEvents()); err != nil {
						slog.Error("event save failed", "error", err)
					}
				}
			}()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig

			slog.Info("shutting down")
			session.Stop()
			if err := db.SaveSnapshot(session.Export()); err != nil {
				slog.Error("final save failed", "error", err)
			}
			if err := db.SaveEvents(session.DrainEvents()); err != nil {
				slog.Error("final event save failed", "error", err)
			}
			return nil
		},
	}
}

func newResetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			db, err := persistence.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if err := db.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "saved session cleared")
			return nil
		},
	}
}
