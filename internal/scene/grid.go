package scene

import "schematic/internal/geometry"

// DefaultGridSpacing is the base distance between grid lines at zoom 1
const DefaultGridSpacing = 20.0

// Grid is the background grid. Its line spacing follows the zoom factor.
type Grid struct {
	width, height float64
	base          float64
	spacing       float64
	cols, rows    int
	renders       int
	destroyed     bool
}

func newGrid(width, height, base, zoom float64) *Grid {
	if base <= 0 {
		base = DefaultGridSpacing
	}
	g := &Grid{width: width, height: height, base: base}
	g.rerender(zoom)
	return g
}

func (g *Grid) rerender(zoom float64) {
	g.spacing = geometry.GridSpacing(g.base, zoom)
	g.cols, g.rows = geometry.GridLines(g.width, g.height, g.spacing)
	g.renders++
}

// VisualName returns "grid"
func (g *Grid) VisualName() string {
	return "grid"
}

// Size returns the area the grid covers
func (g *Grid) Size() (width, height float64) {
	return g.width, g.height
}

// Spacing returns the drawn distance between lines
func (g *Grid) Spacing() float64 {
	return g.spacing
}

// Lines returns the number of vertical and horizontal lines
func (g *Grid) Lines() (cols, rows int) {
	return g.cols, g.rows
}

// Renders returns how many times the grid has been laid out
func (g *Grid) Renders() int {
	return g.renders
}

// Destroy releases the grid
func (g *Grid) Destroy() {
	g.destroyed = true
}
