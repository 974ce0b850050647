package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"foodlog-go/internal/app"
	"foodlog-go/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a FoodLogApp. The caller must
// Close it.
func newApp(ctx context.Context, operation string) (*app.FoodLogApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewFoodLogApp(ctx, cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// runWithApp opens the app for one command, records the command's outcome
// and closes the app.
func runWithApp(cmd *cobra.Command, operation string, fn func(ctx context.Context, a *app.FoodLogApp) error) error {
	a, err := newApp(cmd.Context(), operation)
	if err != nil {
		return err
	}

	err = fn(cmd.Context(), a)
	a.Fail(err)
	if closeErr := a.Close(); err == nil {
		err = closeErr
	}
	return err
}

// readPassphrase takes the passphrase from FOODLOG_PASSPHRASE or prompts
// for it on the terminal without echo.
func readPassphrase(prompt string) (string, error) {
	if p := os.Getenv("FOODLOG_PASSPHRASE"); p != "" {
		return p, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal for passphrase prompt: set FOODLOG_PASSPHRASE")
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

var rootCmd = &cobra.Command{
	Use:          "foodlog",
	Short:        "Local-first food log",
	SilenceUsage: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		deviceID := uuid.New().String()
		cfg := config.NewConfig(deviceID, defaults.BaseDir)

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Fprintf(out, "Device ID: %s\n", deviceID)
		fmt.Fprintf(out, "Base Dir:  %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		tz := cfg.Timezone
		if tz == "" {
			tz = "local"
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Fprintf(out, "Device ID:    %s\n", cfg.DeviceID)
		fmt.Fprintf(out, "Base Dir:     %s\n", cfg.BaseDir)
		fmt.Fprintf(out, "Log Dir:      %s\n", cfg.LogDir)
		fmt.Fprintf(out, "Timezone:     %s\n", tz)
		fmt.Fprintf(out, "Default unit: %s\n", cfg.DefaultUnit)
		fmt.Fprintf(out, "Store:        %s %s\n", cfg.Store.Type, cfg.Store.DataDir)
		for _, v := range cfg.Vaults {
			fmt.Fprintf(out, "Vault:        %s (%s)\n", v.Name, v.Type)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(entryCmd)
	rootCmd.AddCommand(totalsCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(offsetCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(backupCmd)
}
