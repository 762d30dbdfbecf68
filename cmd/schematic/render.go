package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"schematic/internal/codec"
	"schematic/internal/config"
	"schematic/internal/domain"
	"schematic/internal/geometry"
	"schematic/internal/loader"
	"schematic/internal/repository/sqlite"
	"schematic/internal/scene"
	"schematic/internal/service"
	"schematic/internal/viewport"
)

func renderCmd() *cobra.Command {
	var (
		kind       string
		deployment string
		zoom       float64
		offsetX    float64
		offsetY    float64
		width      float64
		height     float64
		dbPath     string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Build the scene of a snapshot and print it",
		Long: "Build the scene of a snapshot file in one viewing context and print its nodes,\n" +
			"sockets and connections. Variants come from the file, or from --db when the\n" +
			"file declares none.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loader.LoadFile(args[0])
			if err != nil {
				return err
			}
			if !geometry.ValidZoom(zoom) {
				return fmt.Errorf("invalid zoom %v", zoom)
			}

			vc := viewFor(doc, kind, deployment)
			schematic := doc.Schematic()

			var (
				variants scene.VariantResolver
				sockets  scene.SocketMetadataResolver
			)
			if len(doc.Variants) == 0 && dbPath != "" {
				repo, err := sqlite.New(dbPath)
				if err != nil {
					return err
				}
				defer repo.Close()
				r := service.NewCatalogResolver(repo)
				variants, sockets = r, r
			} else {
				catalog, err := doc.Catalog()
				if err != nil {
					return err
				}
				r := service.NewSnapshotResolver(catalog, schematic)
				variants, sockets = r, r
			}

			out := cmd.OutOrStdout()
			surface := NewTextSurface(out, width, height)
			surface.SetQuiet(asJSON)
			m := scene.NewManager(surface, variants, sockets, scene.WithLogger(log.New(io.Discard, "", 0)))
			surface.Bind(m)
			defer m.Close()

			m.ApplyViewport(viewport.Event{Zoom: zoom, Offset: geometry.Pt(offsetX, offsetY)})
			if err := m.LoadSceneData(cmd.Context(), schematic, vc); err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(m.Snapshot())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Schematic kind (default: from file, else deployment)")
	cmd.Flags().StringVar(&deployment, "deployment", "", "Deployment node ID of the viewing context")
	cmd.Flags().Float64Var(&zoom, "zoom", 1, "Zoom factor")
	cmd.Flags().Float64Var(&offsetX, "offset-x", 0, "Pan offset X")
	cmd.Flags().Float64Var(&offsetY, "offset-y", 0, "Pan offset Y")
	cmd.Flags().Float64Var(&width, "width", config.DefaultWidth, "Surface width")
	cmd.Flags().Float64Var(&height, "height", config.DefaultHeight, "Surface height")
	cmd.Flags().StringVar(&dbPath, "db", "", "Resolve variants from this database")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the scene snapshot as JSON")

	return cmd
}

// viewFor picks the viewing context: flags first, then the document's
// view, then the deployment kind
func viewFor(doc *codec.Document, kind, deployment string) domain.ViewingContext {
	vc := domain.NewViewingContext(domain.SchematicKindDeployment, "")
	if doc.View != nil && doc.View.Kind != "" {
		vc = *doc.View
	}
	if kind != "" {
		vc.Kind = domain.SchematicKind(kind)
		vc.DeploymentNodeID = ""
	}
	if deployment != "" {
		vc.DeploymentNodeID = deployment
	}
	return vc
}
