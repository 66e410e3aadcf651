package market

import (
	"context"
	"fmt"
	"slices"

	"github.com/sahil-darj/Rewear/internal/store"
)

// mirror is the in-memory copy of one record-store list. Mutations build a
// new slice, the caller persists it, and only then commits it.
type mirror[T any] struct {
	key  string
	rows []T
	id   func(T) string
	// clone deep-copies a row handed to callers; nil means rows are plain
	// values.
	clone func(T) T
}

func (m *mirror[T]) load(ctx context.Context, rec store.Records) error {
	var rows []T
	if _, err := rec.Get(ctx, m.key, &rows); err != nil {
		return fmt.Errorf("load %s: %w", m.key, err)
	}
	m.rows = rows
	return nil
}

func (m *mirror[T]) out(row T) T {
	if m.clone == nil {
		return row
	}
	return m.clone(row)
}

func (m *mirror[T]) all() []T {
	rows := slices.Clone(m.rows)
	for i := range rows {
		rows[i] = m.out(rows[i])
	}
	return rows
}

func (m *mirror[T]) find(id string) (T, bool) {
	for _, row := range m.rows {
		if m.id(row) == id {
			return m.out(row), true
		}
	}
	var zero T
	return zero, false
}

func (m *mirror[T]) appended(row T) []T {
	next := make([]T, 0, len(m.rows)+1)
	next = append(next, m.rows...)
	return append(next, row)
}

// replaced returns a copy of the rows with fn applied to the row matching id.
// It reports false, and returns nil, when no row matches.
func (m *mirror[T]) replaced(id string, fn func(T) T) ([]T, bool) {
	idx := slices.IndexFunc(m.rows, func(row T) bool { return m.id(row) == id })
	if idx < 0 {
		return nil, false
	}
	next := slices.Clone(m.rows)
	next[idx] = fn(next[idx])
	return next, true
}

func (m *mirror[T]) persist(ctx context.Context, rec store.Records, rows []T) error {
	if err := rec.Put(ctx, m.key, rows); err != nil {
		return fmt.Errorf("persist %s: %w", m.key, err)
	}
	m.rows = rows
	return nil
}

func (m *mirror[T]) commit(rows []T) {
	m.rows = rows
}
