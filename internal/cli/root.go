package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
	cache  *FileStore
	logger *slog.Logger
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "rpgdash",
		Short: "CLI tool for the RPG player dashboard API",
		Long: `rpgdash is a CLI tool for the RPG player dashboard JSON API.

It can show and patch player records, perform cooldown-gated actions, buy
items from the shop, start balance top-ups and stream live record updates.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			client = NewClient(cfg.ServerURL)
			cache = NewFileStore(cfg.CooldownFile)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: RPGDASH_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.PlayerID, "player", "p", cfg.PlayerID, "Player id (env: RPGDASH_PLAYER)")
	rootCmd.PersistentFlags().StringVar(&cfg.CooldownFile, "cooldown-file", cfg.CooldownFile, "Local cooldown cache (env: RPGDASH_COOLDOWN_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newPlayerCmd())
	rootCmd.AddCommand(newActionCmd())
	rootCmd.AddCommand(newCooldownsCmd())
	rootCmd.AddCommand(newShopCmd())
	rootCmd.AddCommand(newCheckoutCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// requirePlayer returns the selected player id
func requirePlayer() (string, error) {
	if cfg.PlayerID == "" {
		return "", errors.New("no player selected: pass --player or set RPGDASH_PLAYER")
	}
	return cfg.PlayerID, nil
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
