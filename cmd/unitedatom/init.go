package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/unitedatom/internal/config"
)

//go:embed templates/unitedatom.yaml
var configTemplate []byte

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long: `Init writes a commented configuration file holding the standard residue
table, nanoparticle generation settings and every scan option with its
default value.

Examples:
  # Write .unitedatom in the current directory
  unitedatom init

  # Write a named configuration for one project
  unitedatom init -o lysozyme.yaml

  # Replace an existing file
  unitedatom init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile, "Path of the file to write")
	cmd.Flags().BoolP("force", "f", false, "Replace the file if it exists")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, configTemplate, 0o600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n\n", path)
	fmt.Fprintln(out, "Set pdb-targets to your structures and pmf-directory to the surface")
	fmt.Fprintln(out, "PMF tables, then run 'unitedatom scan'.")
	return nil
}
