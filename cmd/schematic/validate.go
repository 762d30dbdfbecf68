package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"schematic/internal/loader"
)

func validateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a snapshot file",
		Long: "Check a snapshot file for structural errors and report what a scene would\n" +
			"skip: connections to missing nodes and nodes without a position.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			doc, err := loader.LoadFile(args[0])
			if err != nil {
				fmt.Fprintf(out, "%s %s\n", Bad.Sprint("✗"), args[0])
				return err
			}
			schematic := doc.Schematic()

			fmt.Fprintf(out, "%s %s\n", Good.Sprint("✓"), args[0])
			fmt.Fprintf(out, "  %d variants, %d nodes, %d connections\n",
				len(doc.Variants), len(doc.Nodes), len(doc.Connections))

			contexts := schematic.Contexts()
			for _, vc := range contexts {
				fmt.Fprintf(out, "  %s %d nodes\n", Info.Sprintf("%-24s", vc), len(schematic.VisibleIn(vc)))
			}

			warnings := 0
			for _, c := range schematic.Dangling() {
				Warn.Fprintf(out, "  ⚠ connection %s -> %s references a missing node\n",
					c.Source.Identity(), c.Destination.Identity())
				warnings++
			}
			for _, n := range doc.Nodes {
				if len(n.Positions) == 0 {
					Warn.Fprintf(out, "  ⚠ node %s has no position and is never drawn\n", n.ID)
					warnings++
				}
			}
			if len(doc.Variants) == 0 {
				Subtle.Fprintln(out, "  No variants declared; a catalog is needed to render")
			}

			if strict && warnings > 0 {
				return fmt.Errorf("%d warnings", warnings)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")
	return cmd
}
