// Package scene is the diagram scene graph engine.
//
// A Manager materializes a domain.Schematic into a live scene for one viewing
// context: a Node visual per positioned node record, a Socket visual per
// socket of the node's variant, and a Connection visual per connection record
// whose sockets are both present. The visuals live in three tagged groups,
// drawn bottom to top:
//
//   - GridGroup: the background grid, kept across reloads
//   - ConnectionGroup: persisted and interactive connections
//   - NodeGroup: nodes with their sockets
//
// The node and connection groups sit inside a root container that carries
// the pan offset and zoom factor. Socket positions reported by the rendering
// surface are in the outer frame, so persisted connection endpoints are
// mapped back into the root frame on every refresh. The interactive
// connection that follows a pointer drag is drawn in the pointer's frame and
// is never remapped.
//
// # Loading
//
// LoadSceneData clears the node and connection groups and rebuilds them.
// Variant and socket-metadata lookups run without the scene lock held, so a
// pan/zoom event or another load may run while a lookup is pending. Every load
// carries a generation number and a cancelable context; when a newer load
// starts, the older one's context is canceled and any of its continuations
// that still arrive are discarded with ErrLoadSuperseded.
//
// # Collaborators
//
// The engine depends on three interfaces supplied by the host: a
// VariantResolver, a SocketMetadataResolver and a Surface. Pan/zoom input
// arrives through a viewport.Stream the manager subscribes to.
package scene
