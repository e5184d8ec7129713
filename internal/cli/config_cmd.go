package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/realnamesareboring/KQLified/internal/config"
	"github.com/realnamesareboring/KQLified/internal/ui"
)

// configFile is the config at the resolved --config path, or the defaults
// when that file is absent.
type configFile struct {
	Path   string
	Exists bool
	Config *config.Config
}

func openConfigFile() (*configFile, error) {
	f := &configFile{Path: resolveConfigPath(configPath), Config: config.Default()}

	_, err := os.Stat(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, err
	}

	if f.Config, err = config.LoadFrom(f.Path); err != nil {
		return nil, err
	}
	f.Exists = true
	return f, nil
}

// settings flattens the config into its dotted keys.
func (f *configFile) settings() map[string]string {
	out := make(map[string]string, len(config.Keys()))
	for _, key := range config.Keys() {
		v, _ := f.Config.Get(key)
		out[key] = strings.TrimSpace(v)
	}
	return out
}

func (f *configFile) view() map[string]interface{} {
	return map[string]interface{}{
		"config_path": f.Path,
		"exists":      f.Exists,
		"settings":    f.settings(),
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the kqlified config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openConfigFile()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"config_path": f.Path, "exists": f.Exists}, nil)
			return nil
		}
		fmt.Println(f.Path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a commented config file with defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, created, err := config.CreateDefaultAt(resolveConfigPath(configPath))
		if err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		switch {
		case isJSONOutput():
			outputSuccess(map[string]interface{}{"config_path": path, "created": created}, nil)
		case created:
			fmt.Println(ui.Successf("Created %s", path))
		default:
			fmt.Println(ui.Infof("Config already exists: %s", path))
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one effective config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openConfigFile()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		value, err := f.Config.Get(args[0])
		if err != nil {
			return handleError(ErrInvalidInput, err, "")
		}
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"key": strings.ToLower(args[0]), "value": value}, nil)
			return nil
		}
		fmt.Println(value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one config value",
	Long: fmt.Sprintf(`Sets one config value and saves the file. Comments in an existing file
are not kept.

Keys: %s`, strings.Join(config.Keys(), ", ")),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openConfigFile()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		if err := f.Config.Set(args[0], args[1]); err != nil {
			return handleError(ErrInvalidInput, err, "")
		}
		if err := config.SaveTo(f.Path, f.Config); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}
		f.Exists = true
		logger.Debug("config saved", "path", f.Path, "key", args[0])

		if isJSONOutput() {
			outputSuccess(f.view(), nil)
			return nil
		}
		fmt.Println(ui.Successf("Set %s = %s in %s", strings.ToLower(args[0]), strings.TrimSpace(args[1]), f.Path))
		return nil
	},
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	f, err := openConfigFile()
	if err != nil {
		return handleError(ErrConfigInvalid, err, "")
	}

	if isJSONOutput() {
		outputSuccess(f.view(), nil)
		return nil
	}

	if f.Exists {
		fmt.Printf("config: %s\n\n", f.Path)
	} else {
		fmt.Println(ui.Hint("No config at " + f.Path + ". Showing defaults; create one with 'kqlified config init'."))
		fmt.Println()
	}

	settings := f.settings()
	tbl := ui.NewTable(2)
	for _, key := range config.Keys() {
		value := settings[key]
		if value == "" {
			value = ui.Hint("(default)")
		}
		tbl.AddRow(key, value)
	}
	fmt.Print(tbl.String())
	return nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
