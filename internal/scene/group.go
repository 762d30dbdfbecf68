package scene

// GroupKind tags the containers that partition the scene
type GroupKind int

const (
	GridGroup GroupKind = iota
	ConnectionGroup
	NodeGroup
)

func (k GroupKind) String() string {
	switch k {
	case GridGroup:
		return "grid"
	case ConnectionGroup:
		return "connections"
	case NodeGroup:
		return "nodes"
	default:
		return "unknown"
	}
}

// ZIndex returns the draw order of the group; higher draws on top
func (k GroupKind) ZIndex() int {
	return int(k)
}

// Visual is anything a group can hold
type Visual interface {
	VisualName() string
	Destroy()
}

// Group is an ordered container of visuals
type Group struct {
	kind     GroupKind
	children []Visual
}

func newGroup(kind GroupKind) *Group {
	return &Group{kind: kind}
}

// Kind returns the group's tag
func (g *Group) Kind() GroupKind {
	return g.kind
}

// Len returns the number of children
func (g *Group) Len() int {
	return len(g.children)
}

// Children returns the children in insertion order
func (g *Group) Children() []Visual {
	out := make([]Visual, len(g.children))
	copy(out, g.children)
	return out
}

func (g *Group) add(v Visual) {
	g.children = append(g.children, v)
}

// remove detaches the named child without destroying it
func (g *Group) remove(name string) (Visual, bool) {
	for i, c := range g.children {
		if c.VisualName() == name {
			g.children = append(g.children[:i], g.children[i+1:]...)
			return c, true
		}
	}
	return nil, false
}

// clear destroys and detaches every child
func (g *Group) clear() int {
	n := len(g.children)
	for _, c := range g.children {
		c.Destroy()
	}
	g.children = nil
	return n
}
