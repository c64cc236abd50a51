package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"dcexport/pkg/config"
	"dcexport/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage the dcexport configuration file.

Configuration is read, in order of precedence, from command line flags,
DCEXPORT_* environment variables, a .env file, and a YAML config file.`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long:  `Write a configuration file populated with default values.`,
	Example: `  # Write ~/.dcexport.yaml
  dcexport config init

  # Write to a custom location
  dcexport config init --path ./dcexport.yaml`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Print the fully resolved configuration with the token masked.`,
	Run:   runConfigShow,
}

var configInitPath string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().StringVar(&configInitPath, "path", "", "where to write the file (default $HOME/.dcexport.yaml)")
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := configInitPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			ui.PrintError("Failed to resolve home directory", err.Error())
			os.Exit(1)
		}
		path = filepath.Join(home, ".dcexport.yaml")
	}

	if _, err := os.Stat(path); err == nil {
		ui.PrintError("Config file already exists", path)
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(path); err != nil {
		ui.PrintError("Failed to write config file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Wrote %s", path))
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Never print the raw token
	if cfg.Discord.Token != "" {
		cfg.Discord.Token = "********"
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to render configuration", err.Error())
		os.Exit(1)
	}

	fmt.Print(string(out))
}
