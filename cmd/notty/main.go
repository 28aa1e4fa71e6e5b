package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"notty-go/internal/app"
	"notty-go/internal/config"
	"notty-go/internal/notty"
)

// errAborted is returned when the user declines a confirmation. It is not reported.
var errAborted = errors.New("aborted")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errAborted) {
			printError(os.Stderr, errorMessage(err))
		}
		os.Exit(1)
	}
}

// loadConfig reads the user config, falling back to defaults when no file exists.
func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.Load(defaults.ConfigPath, defaults.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates a NottyApp bound to the current directory.
// The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "save", "rollback").
func newApp(operation string) (*app.NottyApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}

	a, err := app.NewNottyApp(cfg, cwd, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// newRepoApp is newApp for commands that need an initialized repository.
func newRepoApp(operation string) (*app.NottyApp, error) {
	a, err := newApp(operation)
	if err != nil {
		return nil, err
	}
	if !a.Initialized() {
		a.Close()
		return nil, &notty.Error{Kind: notty.KindStructural, Op: operation, Err: notty.ErrNotInitialized}
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:           "notty",
	Short:         "Local snapshot manager for a working directory",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// repository commands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(saveCmd)
	saveCmd.Flags().StringP("comment", "c", "", "Comment changes made in this save")
	saveCmd.Flags().BoolP("multiline", "m", false, "Write a multiline comment")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(descCmd)
	rootCmd.AddCommand(rollbackCmd)
	rollbackCmd.Flags().BoolP("save", "s", false, "Save current state before rolling back")
	rollbackCmd.Flags().Bool("merge", false, "Keep files that are not part of the save")
	rootCmd.AddCommand(forgetCmd)
	forgetCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of operations to show")

	// notes subcommands
	notesCmd.AddCommand(notesShowCmd)
	notesCmd.AddCommand(notesClearCmd)
	notesCmd.AddCommand(notesEditCmd)
	rootCmd.AddCommand(notesCmd)

	// todo subcommands
	todoCmd.AddCommand(todoShowCmd)
	todoCmd.AddCommand(todoAddCmd)
	todoCmd.AddCommand(todoRmCmd)
	todoCmd.AddCommand(todoImpCmd)
	todoCmd.AddCommand(todoStateCmd)
	rootCmd.AddCommand(todoCmd)

	// export / import
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	vaultCmd.AddCommand(vaultListCmd)
	rootCmd.AddCommand(vaultCmd)

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}
