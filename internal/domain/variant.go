package domain

import "fmt"

// SocketKind is the direction of a socket
type SocketKind string

const (
	SocketKindInput  SocketKind = "input"
	SocketKindOutput SocketKind = "output"
)

// SocketArity limits how many connections a socket accepts
type SocketArity string

const (
	SocketArityOne  SocketArity = "one"
	SocketArityMany SocketArity = "many"
)

// Default node dimensions when a variant does not specify them
const (
	DefaultNodeWidth  = 140.0
	DefaultNodeHeight = 100.0
)

// SocketDescriptor describes one socket a variant offers.
// OffsetX/OffsetY place the socket's anchor relative to the node origin.
type SocketDescriptor struct {
	ID       string      `json:"id" yaml:"id"`
	Name     string      `json:"name" yaml:"name"`
	Kind     SocketKind  `json:"kind" yaml:"kind"`
	Arity    SocketArity `json:"arity,omitempty" yaml:"arity,omitempty"`
	Provider string      `json:"provider,omitempty" yaml:"provider,omitempty"`
	Color    string      `json:"color,omitempty" yaml:"color,omitempty"`
	OffsetX  float64     `json:"offset_x" yaml:"offset_x"`
	OffsetY  float64     `json:"offset_y" yaml:"offset_y"`
}

// VariantDescriptor describes how nodes of one schema variant are drawn
type VariantDescriptor struct {
	ID      string             `json:"id" yaml:"id"`
	Name    string             `json:"name" yaml:"name"`
	Color   string             `json:"color,omitempty" yaml:"color,omitempty"`
	Width   float64            `json:"width,omitempty" yaml:"width,omitempty"`
	Height  float64            `json:"height,omitempty" yaml:"height,omitempty"`
	Sockets []SocketDescriptor `json:"sockets,omitempty" yaml:"sockets,omitempty"`
}

// Size returns the variant's dimensions, falling back to defaults
func (v *VariantDescriptor) Size() (w, h float64) {
	w, h = v.Width, v.Height
	if w <= 0 {
		w = DefaultNodeWidth
	}
	if h <= 0 {
		h = DefaultNodeHeight
	}
	return w, h
}

// Socket finds a socket descriptor by ID
func (v *VariantDescriptor) Socket(id string) (SocketDescriptor, bool) {
	for _, s := range v.Sockets {
		if s.ID == id {
			return s, true
		}
	}
	return SocketDescriptor{}, false
}

// Validate checks the descriptor for missing or duplicate fields
func (v *VariantDescriptor) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("variant ID is required")
	}
	seen := make(map[string]bool, len(v.Sockets))
	for _, s := range v.Sockets {
		if s.ID == "" {
			return fmt.Errorf("variant %s: socket ID is required", v.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("variant %s: duplicate socket %s", v.ID, s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// SocketMetadata is provider information for a socket
type SocketMetadata struct {
	Provider      string `json:"provider,omitempty"`
	ProviderColor string `json:"provider_color,omitempty"`
}

// Metadata returns the provider metadata of a socket descriptor
func (s SocketDescriptor) Metadata() *SocketMetadata {
	return &SocketMetadata{Provider: s.Provider, ProviderColor: s.Color}
}
