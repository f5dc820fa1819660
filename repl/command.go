package repl

import (
	"fmt"
	"strconv"
	"strings"

	"vqlite/column"
	"vqlite/pager"
	"vqlite/table"
)

// MetaCommandResult classifies the outcome of a leading-dot meta-command.
type MetaCommandResult int

const (
	MetaCommandSuccess MetaCommandResult = iota
	MetaCommandUnrecognized
	MetaCommandExit
)

// handleMetaCommand dispatches ".exit", ".constants", and ".btree". Any
// other leading-dot input is unrecognized; an ordinary statement is
// prepared in statement.go and executed in repl.go.
func (r *REPL) handleMetaCommand(line string) (MetaCommandResult, string) {
	switch strings.TrimSpace(line) {
	case ".exit":
		return MetaCommandExit, ""
	case ".constants":
		return MetaCommandSuccess, r.constants()
	case ".btree":
		out, err := r.engine.PrintTree()
		if err != nil {
			return MetaCommandSuccess, fmt.Sprintf("error: %v", err)
		}
		return MetaCommandSuccess, out
	default:
		return MetaCommandUnrecognized, ""
	}
}

func (r *REPL) constants() string {
	var b strings.Builder
	fmt.Fprintf(&b, "PAGE_SIZE: %d\n", pager.PageSize)
	fmt.Fprintf(&b, "TABLE_MAX_PAGES: %d\n", pager.TableMaxPages)
	fmt.Fprintf(&b, "ROW_SIZE: %d\n", column.RowSize)
	fmt.Fprintf(&b, "LEAF_NODE_MAX_CELLS: %d\n", table.LeafNodeMaxCells)
	fmt.Fprintf(&b, "INTERNAL_NODE_MAX_CELLS: %d\n", table.InternalNodeMaxCells)
	return b.String()
}

// parseInsertArgs parses "insert <id> <username> <email>" into a row.
// Negative or non-numeric ids and malformed statements are reported as
// input errors; the engine state is left unchanged either way.
func parseInsertArgs(args []string) (table.Row, error) {
	if len(args) != 3 {
		return table.Row{}, fmt.Errorf("usage: insert <id> <username> <email>")
	}
	n, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return table.Row{}, fmt.Errorf("id must be an integer: %w", err)
	}
	if n < 0 {
		return table.Row{}, fmt.Errorf("id must be non-negative")
	}
	if n > int64(^uint32(0)) {
		return table.Row{}, fmt.Errorf("id exceeds uint32 range")
	}
	return table.Row{ID: uint32(n), Username: args[1], Email: args[2]}, nil
}
