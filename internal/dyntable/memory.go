package dyntable

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	id "veriform/pkg/domain"
	"veriform/pkg/platform/sentinel"
)

type memoryUnit struct {
	columns []string
	rows    map[uuid.UUID]*Row
}

func (u *memoryUnit) hasColumn(name string) bool {
	for _, col := range u.columns {
		if col == name {
			return true
		}
	}
	return false
}

// InMemory implements Gateway with maps. It keeps the engine testable
// without a database and intentionally favors clarity over performance.
type InMemory struct {
	mu    sync.RWMutex
	units map[string]*memoryUnit
}

func NewInMemory() *InMemory {
	return &InMemory{units: make(map[string]*memoryUnit)}
}

func (g *InMemory) UnitColumns(_ context.Context, unit string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	u, ok := g.units[unit]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]string{}, u.columns...), nil
}

func (g *InMemory) CreateUnit(_ context.Context, unit string, fields []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.units[unit]; ok {
		// Lost the creation race; converge silently, the caller re-reads
		// columns and widens what is missing.
		return nil
	}
	columns := append([]string{}, BaselineColumns...)
	for _, field := range fields {
		if !IsBaselineColumn(field) {
			columns = append(columns, field)
		}
	}
	g.units[unit] = &memoryUnit{columns: columns, rows: make(map[uuid.UUID]*Row)}
	return nil
}

func (g *InMemory) AddColumn(_ context.Context, unit, column string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	u, ok := g.units[unit]
	if !ok {
		return fmt.Errorf("add column to %s: %w", unit, sentinel.ErrNotFound)
	}
	if !u.hasColumn(column) {
		u.columns = append(u.columns, column)
	}
	return nil
}

func (g *InMemory) FindByCandidate(_ context.Context, unit string, candidateID id.CandidateID) (*Row, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	u, ok := g.units[unit]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	row, ok := u.rows[uuid.UUID(candidateID)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyRow(row), nil
}

func (g *InMemory) Insert(_ context.Context, unit string, row *Row) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	u, ok := g.units[unit]
	if !ok {
		return fmt.Errorf("insert into %s: %w", unit, sentinel.ErrNotFound)
	}
	key := uuid.UUID(row.CandidateID)
	if _, exists := u.rows[key]; exists {
		return fmt.Errorf("insert into %s: %w", unit, sentinel.ErrConflict)
	}
	stored := copyRow(row)
	// Only declared columns are stored; the gateway mirrors the relational
	// behavior where unknown columns cannot be written.
	for field := range stored.Fields {
		if !u.hasColumn(field) {
			return fmt.Errorf("insert into %s: column %s: %w", unit, field, sentinel.ErrInvalidState)
		}
	}
	u.rows[key] = stored
	return nil
}

func (g *InMemory) Update(_ context.Context, unit string, candidateID id.CandidateID, fields map[string]string, updatedAt time.Time) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	u, ok := g.units[unit]
	if !ok {
		return 0, fmt.Errorf("update %s: %w", unit, sentinel.ErrNotFound)
	}
	row, ok := u.rows[uuid.UUID(candidateID)]
	if !ok {
		return 0, nil
	}
	for field, value := range fields {
		if !u.hasColumn(field) {
			return 0, fmt.Errorf("update %s: column %s: %w", unit, field, sentinel.ErrInvalidState)
		}
		row.Fields[field] = value
	}
	row.UpdatedAt = updatedAt
	return 1, nil
}

func copyRow(row *Row) *Row {
	dup := *row
	dup.Fields = make(map[string]string, len(row.Fields))
	for k, v := range row.Fields {
		dup.Fields[k] = v
	}
	return &dup
}
