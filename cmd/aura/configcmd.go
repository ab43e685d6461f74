package main

import (
	"fmt"
	"path/filepath"

	"github.com/auracli/aura/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check config.yaml and AURA_* overrides, reporting every problem",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigFrom(resolveConfigDir(), ".")
		if err != nil {
			return exitError(exitInvalidConfig, err)
		}

		var problems []string
		if verr := cfg.Validate(); verr != nil {
			problems = splitJoined(verr)
		}

		if jsonOutput {
			if err := outputJSON(cmd.OutOrStdout(), map[string]any{
				"valid":      len(problems) == 0,
				"configured": cfg.IsConfigured(),
				"problems":   problems,
			}); err != nil {
				return err
			}
		} else {
			for _, p := range problems {
				fmt.Fprintf(cmd.OutOrStdout(), "✗ %s\n", p)
			}
			if len(problems) == 0 {
				printInfo("✓ Configuration is valid\n")
			}
			if !cfg.IsConfigured() {
				printInfo("server.url is not set; run aura on a terminal to set it up\n")
			}
		}

		if len(problems) > 0 {
			return exitError(exitInvalidConfig, fmt.Errorf("%d configuration problem(s)", len(problems)))
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(resolveConfigDir(), "config.yaml"))
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// splitJoined flattens an errors.Join tree into one message per leaf
func splitJoined(err error) []string {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []string{err.Error()}
	}
	var out []string
	for _, e := range joined.Unwrap() {
		out = append(out, splitJoined(e)...)
	}
	return out
}
