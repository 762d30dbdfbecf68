package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"schematic/internal/codec"
	"schematic/internal/domain"
	"schematic/internal/loader"
	"schematic/internal/repository/sqlite"
)

func importCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the stored schematic with a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loader.LoadFile(args[0])
			if err != nil {
				return err
			}
			catalog, err := doc.Catalog()
			if err != nil {
				return err
			}

			repo, err := sqlite.New(dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			g, ctx := errgroup.WithContext(cmd.Context())
			if len(catalog.Variants) > 0 {
				g.Go(func() error {
					return repo.ImportCatalog(ctx, catalog)
				})
			}
			g.Go(func() error {
				return repo.ImportSchematic(ctx, doc.Schematic())
			})
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Imported %s into %s\n", Good.Sprint("✓"), args[0], dbPath)
			fmt.Fprintf(out, "  %d variants, %d nodes, %d connections\n",
				len(catalog.Variants), len(doc.Nodes), len(doc.Connections))
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", defaultDatabase(), "SQLite database path")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		dbPath     string
		format     string
		outPath    string
		kind       string
		deployment string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored schematic as a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := sqlite.New(dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			var (
				schematic *domain.Schematic
				variants  []*domain.VariantDescriptor
			)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				var err error
				schematic, err = repo.GetSchematic(ctx)
				return err
			})
			g.Go(func() error {
				var err error
				variants, err = repo.ListVariants(ctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			catalog := domain.NewCatalog()
			for _, v := range variants {
				if err := catalog.Add(v); err != nil {
					return err
				}
			}
			doc := codec.NewDocument(schematic, catalog)
			if kind != "" {
				vc := domain.NewViewingContext(domain.SchematicKind(kind), deployment)
				doc.View = &vc
			}

			if outPath != "" {
				if err := loader.SaveFile(outPath, doc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s Exported %d nodes to %s\n", Good.Sprint("✓"), len(doc.Nodes), outPath)
				return nil
			}

			c, err := codec.ForFormat(format)
			if err != nil {
				return err
			}
			return c.Export(doc, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", defaultDatabase(), "SQLite database path")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format for stdout (yaml, json)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to a file; the format follows its extension")
	cmd.Flags().StringVar(&kind, "kind", "", "Record this viewing context kind as the document view")
	cmd.Flags().StringVar(&deployment, "deployment", "", "Deployment node ID of the document view")
	return cmd
}
