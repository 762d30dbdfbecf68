package scene

import (
	"errors"
	"fmt"
)

var (
	// ErrLoadSuperseded is returned by a load whose scene was cleared by a
	// newer load before it finished
	ErrLoadSuperseded = errors.New("scene load superseded by a newer load")

	// ErrClosed is returned by operations on a closed manager
	ErrClosed = errors.New("scene manager closed")

	// ErrNodeExists is returned when adding a node whose ID is already in the scene
	ErrNodeExists = errors.New("node already in scene")

	// ErrSocketExists is returned when adding a node one of whose socket
	// identities is already registered by another node
	ErrSocketExists = errors.New("socket identity already in scene")

	// ErrAlreadySubscribed is returned when subscribing a manager twice
	ErrAlreadySubscribed = errors.New("scene already subscribed to a viewport stream")
)

// LoadError reports a collaborator failure that aborted a load
type LoadError struct {
	// Record is "node" or "connection"
	Record string
	// ID is the node ID or connection identity being built
	ID  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s %s: %v", e.Record, e.ID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
