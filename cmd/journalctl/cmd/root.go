package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"trading-journal/internal/client"
	"trading-journal/internal/config"
	"trading-journal/internal/logger"
)

var (
	configDir string
	baseURL   string
	verbose   bool

	cfg config.Config
	api *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "journalctl",
	Short: "Command-line access to a trading journal server",
	Long: `journalctl talks to a running journal server.

It can:
  - sign in and keep the session token on disk
  - list trades for a year or month, filtered by model and side
  - print period statistics and the equity curve
  - delete a trade after confirmation
  - print the trading playbook`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "./configs", "directory containing config.yml")
	rootCmd.PersistentFlags().StringVar(&baseURL, "server", "", "journal server URL (overrides client.base_url)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests")
}

func setup(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	var err error
	cfg, err = config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if baseURL != "" {
		cfg.Client.BaseURL = baseURL
	}

	log := zap.NewNop()
	if verbose {
		if log, err = logger.NewLogger("debug", "console"); err != nil {
			return err
		}
	}

	api = client.New(cfg.Client, log)
	if token, err := readToken(); err == nil {
		api.SetToken(token)
	}
	return nil
}

func readToken() (string, error) {
	b, err := os.ReadFile(cfg.Client.SessionFile)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func writeToken(token string) error {
	return os.WriteFile(cfg.Client.SessionFile, []byte(token+"\n"), 0o600)
}

func removeToken() error {
	err := os.Remove(cfg.Client.SessionFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// explain turns an expired session into a hint to log in again.
func explain(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("%w (run `journalctl login`)", err)
	}
	return err
}

func ctx(cmd *cobra.Command) context.Context {
	if c := cmd.Context(); c != nil {
		return c
	}
	return context.Background()
}
