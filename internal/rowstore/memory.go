package rowstore

import (
	"context"
	"fmt"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

type memoryTable struct {
	header []string
	rows   [][]string
}

// MemoryStore keeps tables in process memory. Used in tests and the "memory" backend.
type MemoryStore struct {
	mutex  sync.RWMutex
	tables map[string]*memoryTable
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: make(map[string]*memoryTable),
	}
}

func (s *MemoryStore) ReadAll(_ context.Context, table string) ([]Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	t, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingTable, table)
	}
	return toRecords(t.header, t.rows), nil
}

func (s *MemoryStore) AppendRow(ctx context.Context, table string, row Row) error {
	return s.AppendRows(ctx, table, []Row{row})
}

func (s *MemoryStore) AppendRows(_ context.Context, table string, rows []Row) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	t, ok := s.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingTable, table)
	}
	for _, row := range rows {
		t.rows = append(t.rows, append([]string(nil), row...))
	}
	return nil
}

func (s *MemoryStore) DistinctValues(ctx context.Context, table, column string) ([]string, error) {
	return distinctValues(ctx, s, table, column)
}

func (s *MemoryStore) EnsureTable(_ context.Context, table string, header []string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.tables[table]; ok {
		return nil
	}
	s.tables[table] = &memoryTable{
		header: append([]string(nil), header...),
	}
	return nil
}

// RowCount is a test helper.
func (s *MemoryStore) RowCount(table string) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if t, ok := s.tables[table]; ok {
		return len(t.rows)
	}
	return 0
}
