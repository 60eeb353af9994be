package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/sitegrab/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/sitegrab.yaml
var configTemplate embed.FS

// configFileName is the default site file name.
const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new sitegrab site file",
		Long: `Initialize creates a new .sitegrab site file in the current directory.

The generated file includes:
- Default settings applied to every site
- Commented examples for per-domain headers, depth and page limits
- URL patterns to ignore or follow

Examples:
  # Create .sitegrab in current directory
  sitegrab init

  # Create the site file at a specific path
  sitegrab init -o sites.yaml

  # Force overwrite existing file
  sitegrab init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the site file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing site file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("site file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/sitegrab.yaml")
	if err != nil {
		return fmt.Errorf("failed to read site file template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write site file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created site file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure per-site settings such as:")
	fmt.Fprintln(out, "  - Extra request headers")
	fmt.Fprintln(out, "  - Crawl depth and page limit per site")
	fmt.Fprintln(out, "  - URL patterns to ignore or follow")

	return nil
}
