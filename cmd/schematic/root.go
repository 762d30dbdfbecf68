package main

import (
	"github.com/spf13/cobra"

	"schematic/internal/config"
)

var version = "0.1.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "schematic",
		Short:         "Render and manage schematic diagrams",
		Long:          Brand.Sprint("schematic") + ": build schematic scenes from snapshot files\n" + Subtle.Sprint("Render, validate, import and export snapshots"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("schematic {{ .Version }}\n")

	root.AddCommand(
		renderCmd(),
		importCmd(),
		exportCmd(),
		validateCmd(),
	)
	return root
}

// Execute runs the CLI
func Execute() error {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		Bad.Fprintf(root.ErrOrStderr(), "schematic: %v\n", err)
		return err
	}
	return nil
}

// defaultDatabase is the configured database path, or the built-in default
func defaultDatabase() string {
	cfg, _, err := config.Load()
	if err != nil {
		return config.DefaultDatabasePath
	}
	return cfg.Database.Path
}
