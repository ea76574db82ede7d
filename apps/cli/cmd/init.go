package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/formreq/packages/core/config"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
	yamlInit  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a formreq config file with the default settings",
	Long: `Write a config file holding every setting at its default value, ready
to edit. send picks it up from the current directory.

This creates .formreq.json, or .formreq.yaml with --yaml.

Examples:
  formreq init
  formreq init --yaml
  formreq init --force`,
	Args: cobra.NoArgs,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing config file")
	initCmd.Flags().BoolVar(&yamlInit, "yaml", false, "Write YAML instead of JSON")
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	if _, err := writeDefaultConfig(cwd, yamlInit, forceInit, cmd.OutOrStdout()); err != nil {
		return withExitCode(ExitConfigError, err)
	}
	return nil
}

// writeDefaultConfig saves the default config into dir and returns its path
func writeDefaultConfig(dir string, asYAML, force bool, out io.Writer) (string, error) {
	name := ".formreq.json"
	if asYAML {
		name = ".formreq.yaml"
	}
	path := filepath.Join(dir, name)

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("file already exists: %s (use --force to overwrite)", path)
		}
	}

	cfg := config.DefaultConfig()
	cfg.Headers = map[string]string{
		"User-Agent": "formreq/" + version,
	}
	if err := cfg.SaveConfig(path); err != nil {
		return "", fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(out, "Created: %s\n", path)
	return path, nil
}
