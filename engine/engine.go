// Package engine is the facade the REPL (and any other caller) drives:
// open/close a database file, insert a row, scan all rows in key order,
// look one up by id, and dump a diagnostic tree. It owns the duplicate-key
// check, so package table's Cursor.Insert can assume its precondition (key
// not already present) always holds, and it maps table.ErrTableFull to the
// TableFull result.
package engine

import (
	"iter"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"vqlite/internal/dblog"
	"vqlite/table"
)

// Result classifies the outcome of a recoverable, per-statement operation.
type Result int

const (
	Success Result = iota
	DuplicateKey
	TableFull
	InvalidRow
)

func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case DuplicateKey:
		return "DuplicateKey"
	case TableFull:
		return "TableFull"
	case InvalidRow:
		return "InvalidRow"
	default:
		return "Unknown"
	}
}

// Engine wraps a table.Table with the duplicate-key check and result
// taxonomy the spec contracts for insert.
type Engine struct {
	table *table.Table
	log   *logrus.Logger
}

// Open opens path (creating it if absent) and prepares the B+tree. log may
// be nil, in which case a default info-level logger is used.
func Open(path string, log *logrus.Logger) (*Engine, error) {
	if log == nil {
		log = dblog.New("info")
	}
	t, err := table.Open(path, log)
	if err != nil {
		return nil, errors.Wrap(err, "engine: open")
	}
	return &Engine{table: t, log: log}, nil
}

// Close flushes every resident page and closes the file.
func (e *Engine) Close() error {
	return e.table.Close()
}

// Insert validates row, rejects duplicates, and otherwise writes it
// through a cursor positioned by Find. TableFull surfaces when inserting
// would require splitting an internal node, which this engine does not
// implement.
func (e *Engine) Insert(row table.Row) (Result, error) {
	if err := row.Validate(); err != nil {
		return InvalidRow, err
	}

	pageNum, cellNum, err := e.table.Tree.Find(row.ID)
	if err != nil {
		return Success, errors.Wrap(err, "engine: find")
	}

	cursor, err := e.table.Tree.CursorAt(pageNum, cellNum)
	if err != nil {
		return Success, errors.Wrap(err, "engine: cursor")
	}
	if !cursor.EndOfTable {
		key, err := cursor.Key()
		if err != nil {
			return Success, errors.Wrap(err, "engine: read key")
		}
		if key == row.ID {
			return DuplicateKey, nil
		}
	}

	if err := cursor.Insert(row.ID, row); err != nil {
		if errors.Is(err, table.ErrTableFull) {
			e.log.WithFields(logrus.Fields{"id": row.ID}).Warn("insert rejected: table full")
			return TableFull, nil
		}
		return Success, errors.Wrap(err, "engine: insert")
	}
	return Success, nil
}

// Find looks up a single row by id.
func (e *Engine) Find(id uint32) (table.Row, bool, error) {
	pageNum, cellNum, err := e.table.Tree.Find(id)
	if err != nil {
		return table.Row{}, false, errors.Wrap(err, "engine: find")
	}
	cursor, err := e.table.Tree.CursorAt(pageNum, cellNum)
	if err != nil {
		return table.Row{}, false, errors.Wrap(err, "engine: cursor")
	}
	if cursor.EndOfTable {
		return table.Row{}, false, nil
	}
	key, err := cursor.Key()
	if err != nil {
		return table.Row{}, false, err
	}
	if key != id {
		return table.Row{}, false, nil
	}
	row, err := cursor.Read()
	if err != nil {
		return table.Row{}, false, err
	}
	return row, true, nil
}

// Scan yields every row in ascending key order. It is lazy and
// restartable: each call to Scan walks the leaf chain afresh from the
// first leaf.
func (e *Engine) Scan() iter.Seq[table.Row] {
	return func(yield func(table.Row) bool) {
		cursor, err := e.table.Tree.TableStart()
		if err != nil {
			return
		}
		for !cursor.EndOfTable {
			row, err := cursor.Read()
			if err != nil {
				return
			}
			if !yield(row) {
				return
			}
			if err := cursor.Advance(); err != nil {
				return
			}
		}
	}
}

// PrintTree renders a diagnostic pre-order traversal of the tree.
func (e *Engine) PrintTree() (string, error) {
	return e.table.PrintTree()
}
