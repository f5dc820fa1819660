// Package repl implements the miniature SQL-like front end described in
// the engine's external interface: insert/select statements plus
// .exit/.constants/.btree meta-commands, read with line editing and
// history via chzyer/readline and rendered with olekukonko/tablewriter.
// Everything here is a thin front end over package engine; it owns no
// storage of its own.
package repl

import (
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"vqlite/engine"
)

// REPL drives one interactive session against a single open Engine.
type REPL struct {
	engine *engine.Engine
	log    *logrus.Logger
	rl     *readline.Instance
	out    io.Writer
}

// New wires a readline-backed REPL to an already-open engine.
func New(eng *engine.Engine, log *logrus.Logger) (*REPL, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "db > ",
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       ".exit",
	})
	if err != nil {
		return nil, err
	}
	return &REPL{engine: eng, log: log, rl: rl, out: os.Stdout}, nil
}

// Close releases the underlying readline instance.
func (r *REPL) Close() error {
	return r.rl.Close()
}

// Run reads lines until ".exit", EOF, or an unrecoverable error. Fatal
// engine errors are logged and returned so main can exit non-zero.
func (r *REPL) Run() error {
	for {
		line, err := r.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}

		if len(line) > 0 && line[0] == '.' {
			result, output := r.handleMetaCommand(line)
			switch result {
			case MetaCommandExit:
				return nil
			case MetaCommandSuccess:
				if output != "" {
					fmt.Fprint(r.out, output)
				}
				continue
			case MetaCommandUnrecognized:
				fmt.Fprintf(r.out, "Unrecognized command '%s'.\n", line)
				continue
			}
		}

		stmt, prepareResult, err := prepareStatement(line)
		switch prepareResult {
		case PrepareUnrecognizedStatement:
			fmt.Fprintf(r.out, "Unrecognized keyword at start of '%s'.\n", line)
			continue
		case PrepareSyntaxError:
			fmt.Fprintf(r.out, "Syntax error: %v\n", err)
			continue
		}

		if err := r.execute(stmt); err != nil {
			return err
		}
	}
}

func (r *REPL) execute(stmt Statement) error {
	switch stmt.Type {
	case StatementInsert:
		result, err := r.engine.Insert(stmt.RowToInsert)
		if err != nil {
			r.log.WithError(err).Error("insert failed")
			return err
		}
		switch result {
		case engine.Success:
			fmt.Fprintln(r.out, "Executed.")
		case engine.DuplicateKey:
			fmt.Fprintln(r.out, "Error: Duplicate key.")
		case engine.TableFull:
			fmt.Fprintln(r.out, "Error: Table full.")
		case engine.InvalidRow:
			fmt.Fprintln(r.out, "Error: Invalid row.")
		}
	case StatementSelect:
		r.printRows()
	}
	return nil
}

func (r *REPL) printRows() {
	tw := tablewriter.NewWriter(r.out)
	tw.SetHeader([]string{"id", "username", "email"})
	for row := range r.engine.Scan() {
		tw.Append([]string{
			fmt.Sprintf("%d", row.ID),
			row.Username,
			row.Email,
		})
	}
	tw.Render()
	fmt.Fprintln(r.out, "Executed.")
}
