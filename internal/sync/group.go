package sync

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"pairhub/internal/records"
	"pairhub/pkg/domain"
)

// Group drives one Synchronizer per registered table as a unit, so joining a
// room bootstraps every table and leaving tears every subscription down.
type Group struct {
	engines map[string]*Synchronizer
}

// NewGroup creates a group over the given engines, keyed by table name.
func NewGroup(engines ...*Synchronizer) (*Group, error) {
	if len(engines) == 0 {
		return nil, errors.New("at least one engine is required")
	}
	byName := make(map[string]*Synchronizer, len(engines))
	for _, engine := range engines {
		if _, ok := byName[engine.table.Name]; ok {
			return nil, errors.New("duplicate engine for table " + engine.table.Name)
		}
		byName[engine.table.Name] = engine
	}
	return &Group{engines: byName}, nil
}

// Engine returns the group's engine for a table.
func (g *Group) Engine(table records.Table) (*Synchronizer, bool) {
	engine, ok := g.engines[table.Name]
	return engine, ok
}

// SetRoom points every engine at the room concurrently. Each engine's
// bootstrap is independent; the first error is returned after all engines
// settle, and the others keep whatever state they reached.
func (g *Group) SetRoom(ctx context.Context, code domain.RoomCode) error {
	var eg errgroup.Group
	for _, engine := range g.engines {
		eg.Go(func() error {
			return engine.SetRoom(ctx, code)
		})
	}
	return eg.Wait()
}

// Submit routes a submission to the table's engine.
func (g *Group) Submit(ctx context.Context, table records.Table, body string, at time.Time) error {
	engine, ok := g.engines[table.Name]
	if !ok {
		return errors.New("no engine for table " + table.Name)
	}
	return engine.Submit(ctx, body, at)
}

// Close tears down every engine.
func (g *Group) Close() {
	for _, engine := range g.engines {
		engine.Close()
	}
}
