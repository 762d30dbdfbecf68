package scene

import (
	"context"
	"errors"
	"fmt"
	"time"

	"schematic/internal/domain"
)

// LoadSceneData rebuilds the scene from a schematic for one viewing context.
//
// The node and connection groups are cleared first; the grid is kept. Nodes
// without a position for vc and connections whose sockets are not in the
// scene are skipped. A failing lookup aborts the load and is returned as a
// *LoadError. If another load starts before this one finishes, this one
// stops touching the scene and returns ErrLoadSuperseded.
func (m *Manager) LoadSceneData(ctx context.Context, schematic *domain.Schematic, vc domain.ViewingContext) error {
	started := time.Now()
	loadCtx, gen, err := m.beginLoad(ctx, vc)
	if err != nil {
		return err
	}
	defer m.endLoad(gen)
	m.recorder.LoadStarted()

	var nodes, connections, skipped int

	for i := range schematic.Nodes {
		rec := &schematic.Nodes[i]

		variant, err := m.variantResolver.ResolveVariant(loadCtx, rec.SchemaVariantID)
		if m.superseded(gen) {
			return m.supersede(gen)
		}
		if err == nil && variant == nil {
			err = fmt.Errorf("variant %s not found", rec.SchemaVariantID)
		}
		if err != nil {
			return m.failLoad(gen, &LoadError{Record: "node", ID: rec.ID, Err: err})
		}

		pos, ok := rec.PositionFor(vc)
		if !ok {
			skipped++
			continue
		}

		err = m.addLoadedNode(gen, NewNode(rec, variant, pos))
		switch {
		case err == nil:
			nodes++
		case errors.Is(err, ErrLoadSuperseded):
			return m.supersede(gen)
		default:
			m.logger.Printf("Scene load %d: %v, skipped", gen, err)
			skipped++
		}
	}

	for i := range schematic.Connections {
		rec := &schematic.Connections[i]
		src, dst := rec.Source.Identity(), rec.Destination.Identity()

		present, err := m.socketsPresent(gen, src, dst)
		if err != nil {
			return m.supersede(gen)
		}
		if !present {
			skipped++
			continue
		}

		md, err := m.socketResolver.ResolveSocketMetadata(loadCtx, src)
		if m.superseded(gen) {
			return m.supersede(gen)
		}
		if err != nil {
			return m.failLoad(gen, &LoadError{Record: "connection", ID: string(rec.Identity()), Err: err})
		}
		color := ""
		if md != nil {
			color = md.ProviderColor
		}

		created, err := m.addLoadedConnection(gen, src, dst, color)
		if err != nil {
			return m.supersede(gen)
		}
		if created {
			connections++
		} else {
			skipped++
		}
	}

	m.mu.Lock()
	if m.generation != gen || m.closed {
		m.mu.Unlock()
		return m.supersede(gen)
	}
	m.state = StatePopulated
	m.mu.Unlock()

	m.surface.RenderAll()

	elapsed := time.Since(started)
	m.recorder.LoadFinished(nodes, connections, skipped, elapsed)
	m.logger.Printf("Scene load %d (%s): %d nodes, %d connections, %d skipped in %s",
		gen, vc, nodes, connections, skipped, elapsed.Round(time.Millisecond))
	return nil
}

// beginLoad starts a new generation: the previous load is canceled and the
// node and connection groups are cleared
func (m *Manager) beginLoad(ctx context.Context, vc domain.ViewingContext) (context.Context, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, 0, ErrClosed
	}
	if m.cancelLoad != nil {
		m.cancelLoad()
	}

	loadCtx, cancel := context.WithCancel(ctx)
	m.generation++
	m.cancelLoad = cancel
	m.context = vc
	m.clearLocked(NodeGroup, ConnectionGroup)
	m.state = StateLoading
	return loadCtx, m.generation, nil
}

// endLoad releases the load's context if it is still the current one
func (m *Manager) endLoad(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation == gen && m.cancelLoad != nil {
		m.cancelLoad()
		m.cancelLoad = nil
	}
}

func (m *Manager) superseded(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation != gen || m.closed
}

func (m *Manager) supersede(gen uint64) error {
	m.recorder.LoadSuperseded()
	m.logger.Printf("Scene load %d superseded, discarding", gen)
	return ErrLoadSuperseded
}

func (m *Manager) failLoad(gen uint64, err *LoadError) error {
	m.recorder.LoadFailed()
	m.logger.Printf("Scene load %d failed: %v", gen, err)
	return err
}

// addLoadedNode adds a node unless the load is stale or the node clashes
// with one already in the scene
func (m *Manager) addLoadedNode(gen uint64, n *Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen || m.closed {
		return ErrLoadSuperseded
	}
	if err := m.checkNodeLocked(n); err != nil {
		return err
	}
	m.addNodeLocked(n)
	return nil
}

func (m *Manager) socketsPresent(gen uint64, src, dst domain.SocketIdentity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen || m.closed {
		return false, ErrLoadSuperseded
	}
	// A missing destination is treated like a missing source
	return m.sockets[src] != nil && m.sockets[dst] != nil, nil
}

func (m *Manager) addLoadedConnection(gen uint64, src, dst domain.SocketIdentity, color string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen || m.closed {
		return false, ErrLoadSuperseded
	}
	srcSocket, dstSocket := m.sockets[src], m.sockets[dst]
	if srcSocket == nil || dstSocket == nil {
		return false, nil
	}
	conn := m.createConnectionLocked(srcSocket.Anchor(), dstSocket.Anchor(), src, dst, color, ConnectionPersisted)
	return conn != nil, nil
}
