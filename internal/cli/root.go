// Package cli implements the command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/realnamesareboring/KQLified/internal/buildinfo"
	"github.com/realnamesareboring/KQLified/internal/config"
	"github.com/realnamesareboring/KQLified/internal/ui"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Resolved values
	resolvedConfigPath string
	cfg                *config.Config
	logger             = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "kqlified",
	Short: "KQLified - hands-on KQL threat hunting practice",
	Long: `KQLified teaches Kusto Query Language by detection exercises.
Each scenario ships a small log table and an attack hidden in it: write a
query that surfaces the attack and the trainer grades your results.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "help", "version", "completion", "config":
			return nil
		}
		// config subcommands load the file themselves so a broken file can be repaired.
		if cmd.Parent() != nil && cmd.Parent().Name() == "config" {
			return nil
		}

		var err error
		cfg, resolvedConfigPath, err = loadGlobalConfigWithPath()
		if err != nil {
			return reported(handleError(ErrConfigInvalid, err, "Fix the file shown by 'kqlified config path'"))
		}

		ui.ConfigureTheme(cfg.UI.Accent)
		ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)
		logger = newLogger(os.Stderr, cfg, verbose)
		logger.Debug("config loaded", "path", resolvedConfigPath, "build", buildinfo.Current().Short())
		return nil
	},
}

// Execute runs the CLI. Errors already written as JSON are not printed again.
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil && !errors.Is(err, errHandled) {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log engine stages and diagnostics to stderr")
}

// getConfig returns the loaded config.
func getConfig() *config.Config {
	if cfg == nil {
		return config.Default()
	}
	return cfg
}

func resolveConfigPath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	return config.DefaultPath()
}

// loadGlobalConfigWithPath loads the config file. A missing file yields
// defaults unless --config named it explicitly.
func loadGlobalConfigWithPath() (*config.Config, string, error) {
	resolvedPath := resolveConfigPath(configPath)

	var loadedCfg *config.Config
	var err error
	if strings.TrimSpace(configPath) != "" {
		loadedCfg, err = config.LoadFrom(configPath)
	} else {
		loadedCfg, err = config.Load()
	}
	if err != nil {
		return nil, "", err
	}
	if loadedCfg == nil {
		loadedCfg = config.Default()
	}

	return loadedCfg, resolvedPath, nil
}

func newLogger(w io.Writer, c *config.Config, debug bool) *slog.Logger {
	level := c.SlogLevel()
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
