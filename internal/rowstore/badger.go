package rowstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"go.uber.org/multierr"
)

var _ Store = (*BadgerStore)(nil)

const sequenceBandwidth = 100

// BadgerStore is the embedded, single-process backend.
// Keys: h/<table> holds the header, r/<table>/<seq> holds one row.
type BadgerStore struct {
	db *badger.DB

	mutex     sync.Mutex
	sequences map[string]*badger.Sequence
}

// NewBadgerStore opens (or creates) a badger database at path.
// An empty path opens an in-memory database.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger at [%s]: %w", ErrConnection, path, err)
	}

	return &BadgerStore{
		db:        db,
		sequences: make(map[string]*badger.Sequence),
	}, nil
}

func headerKey(table string) []byte {
	return []byte("h/" + table)
}

func rowPrefix(table string) []byte {
	return []byte("r/" + table + "/")
}

func rowKey(table string, seq uint64) []byte {
	key := rowPrefix(table)
	return binary.BigEndian.AppendUint64(key, seq)
}

func (s *BadgerStore) ReadAll(_ context.Context, table string) ([]Record, error) {
	var header []string
	var rows [][]string

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(headerKey(table))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrMissingTable, table)
		} else if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &header)
		}); err != nil {
			return fmt.Errorf("decode header: %w", err)
		}

		prefix := rowPrefix(table)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var cells []string
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &cells)
			}); err != nil {
				return fmt.Errorf("decode row: %w", err)
			}
			rows = append(rows, cells)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toRecords(header, rows), nil
}

func (s *BadgerStore) AppendRow(ctx context.Context, table string, row Row) error {
	return s.AppendRows(ctx, table, []Row{row})
}

func (s *BadgerStore) AppendRows(_ context.Context, table string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	seq, err := s.sequence(table)
	if err != nil {
		return err
	}

	keys := make([][]byte, 0, len(rows))
	for range rows {
		n, err := seq.Next()
		if err != nil {
			return fmt.Errorf("next row sequence: %w", err)
		}
		keys = append(keys, rowKey(table, n))
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(headerKey(table)); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrMissingTable, table)
		} else if err != nil {
			return err
		}

		for i, row := range rows {
			val, err := json.Marshal([]string(row))
			if err != nil {
				return err
			}
			if err := txn.Set(keys[i], val); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) DistinctValues(ctx context.Context, table, column string) ([]string, error) {
	return distinctValues(ctx, s, table, column)
}

func (s *BadgerStore) EnsureTable(_ context.Context, table string, header []string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(headerKey(table))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		val, err := json.Marshal(header)
		if err != nil {
			return err
		}
		return txn.Set(headerKey(table), val)
	})
}

func (s *BadgerStore) sequence(table string) (*badger.Sequence, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if seq, ok := s.sequences[table]; ok {
		return seq, nil
	}

	seq, err := s.db.GetSequence([]byte("seq/"+table), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("get sequence for %s: %w", table, err)
	}
	s.sequences[table] = seq
	return seq, nil
}

func (s *BadgerStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var err error
	for table, seq := range s.sequences {
		err = multierr.Append(err, seq.Release())
		delete(s.sequences, table)
	}
	return multierr.Append(err, s.db.Close())
}
