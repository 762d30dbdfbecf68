// Package geometry provides the coordinate math shared by the scene engine.
//
// Three frames are involved when positioning a connection endpoint:
//
//   - socket-local: offset of a socket relative to its node's origin
//   - scene (root-local): the frame of the root container that holds the
//     node and connection groups
//   - global (viewport): the frame the rendering surface reports positions
//     in, after the root container's pan offset and zoom are applied
//
// Transform carries the root container's pan offset and zoom factor and maps
// points between the scene and global frames.
package geometry
