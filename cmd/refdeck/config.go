package main

import (
	"fmt"

	"github.com/matsen/refdeck/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Long: `Show the global configuration and the resolved data locations.

Settings live in ` + "`~/.config/refdeck/config.yml`" + `:

  data_dir: ~/refs            # override the workspace location
  crossref_mailto: me@x.org   # Crossref polite-pool contact
  s2_api_key: ...             # Semantic Scholar API key`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

// ConfigResponse is the JSON response for the config command.
type ConfigResponse struct {
	ConfigPath     string `json:"config_path"`
	DataDir        string `json:"data_dir"`
	IndexPath      string `json:"index_path"`
	CrossrefMailto string `json:"crossref_mailto,omitempty"`
	S2APIKeySet    bool   `json:"s2_api_key_set"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	resp := ConfigResponse{
		ConfigPath:     config.GlobalConfigPath(),
		DataDir:        config.DataDir(),
		IndexPath:      config.IndexPath(),
		CrossrefMailto: cfg.CrossrefMailto,
		S2APIKeySet:    cfg.S2APIKey != "",
	}

	if humanOutput {
		fmt.Printf("Config file:     %s\n", resp.ConfigPath)
		fmt.Printf("Data directory:  %s\n", resp.DataDir)
		fmt.Printf("Search index:    %s\n", resp.IndexPath)
		if resp.CrossrefMailto != "" {
			fmt.Printf("Crossref mailto: %s\n", resp.CrossrefMailto)
		}
		fmt.Printf("S2 API key:      %v\n", resp.S2APIKeySet)
		return nil
	}
	return outputJSON(resp)
}
