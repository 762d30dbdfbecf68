package main

import (
	"fmt"
	"io"
	"sync"

	"schematic/internal/geometry"
	"schematic/internal/scene"
)

// TextSurface is a scene.Surface that prints every full render as text.
// Group redraws are counted but not printed.
type TextSurface struct {
	mu            sync.Mutex
	out           io.Writer
	width, height float64
	scene         *scene.Manager
	quiet         bool
	renders       int
	groupRenders  int
}

// NewTextSurface creates a surface printing to out
func NewTextSurface(out io.Writer, width, height float64) *TextSurface {
	return &TextSurface{out: out, width: width, height: height}
}

// Bind attaches the scene that is printed
func (s *TextSurface) Bind(m *scene.Manager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene = m
}

// SetQuiet stops renders from printing
func (s *TextSurface) SetQuiet(quiet bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quiet = quiet
}

func (s *TextSurface) Size() (float64, float64) {
	return s.width, s.height
}

func (s *TextSurface) RenderAll() {
	s.mu.Lock()
	m, quiet := s.scene, s.quiet
	s.renders++
	s.mu.Unlock()
	if m == nil {
		return
	}

	snap := m.Snapshot()
	m.MarkRendered()
	if !quiet {
		printScene(s.out, snap)
	}
}

func (s *TextSurface) RenderGroup(scene.GroupKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupRenders++
}

// GlobalPosition always defers to the scene model; text has no layout
func (s *TextSurface) GlobalPosition(string) (geometry.Point, bool) {
	return geometry.Point{}, false
}

// Renders returns how many full and group renders were requested
func (s *TextSurface) Renders() (full, groups int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renders, s.groupRenders
}

func printScene(w io.Writer, snap scene.Snapshot) {
	fmt.Fprintf(w, "%s %s  %s\n", Brand.Sprint("scene"), snap.Context,
		Subtle.Sprintf("generation %d, %s", snap.Generation, snap.State))
	fmt.Fprintf(w, "  zoom %.2f  offset %s  grid %.0fx%.0f every %.1f (%dx%d lines)\n\n",
		snap.Transform.Zoom, formatPoint(snap.Transform.Offset),
		snap.Grid.Width, snap.Grid.Height, snap.Grid.Spacing, snap.Grid.Cols, snap.Grid.Rows)

	if len(snap.Nodes) == 0 {
		Warn.Fprintln(w, "  No nodes in this context")
		return
	}

	rows := make([][]string, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		rows = append(rows, []string{
			n.ID,
			n.Label,
			n.VariantID,
			formatPoint(n.Position),
			fmt.Sprintf("%.0fx%.0f", n.Width, n.Height),
		})
	}
	Info.Fprintf(w, "  Nodes (%d)\n", len(snap.Nodes))
	Table(w, []string{"ID", "LABEL", "VARIANT", "POSITION", "SIZE"}, rows)
	fmt.Fprintln(w)

	Info.Fprintln(w, "  Sockets")
	for _, n := range snap.Nodes {
		for _, sock := range n.Sockets {
			mark := Subtle.Sprint("○")
			if sock.Connected {
				mark = Good.Sprint("●")
			}
			fmt.Fprintf(w, "  %s %-24s %-7s %s\n", mark, sock.Identity, sock.Kind, formatPoint(sock.Anchor))
		}
	}
	fmt.Fprintln(w)

	Info.Fprintf(w, "  Connections (%d)\n", len(snap.Connections))
	for _, c := range snap.Connections {
		fmt.Fprintf(w, "  %s %s -> %s  %s -> %s  %s\n",
			hexColor(c.Color).Sprint("━━"),
			c.Source, c.Destination,
			formatPoint(c.Start), formatPoint(c.End),
			Subtle.Sprint(c.ID))
	}
}

func formatPoint(p geometry.Point) string {
	return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
}
