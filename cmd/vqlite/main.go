// Command vqlite is the REPL binary over the package engine B+tree
// storage engine.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"vqlite/engine"
	"vqlite/internal/dblog"
	"vqlite/repl"
)

func main() {
	var dbPath string
	var logLevel string
	flag.StringVar(&dbPath, "db", "", "path to the database file (required)")
	flag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	if dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: vqlite --db <path>")
		os.Exit(1)
	}

	log := dblog.New(logLevel)

	eng, err := engine.Open(dbPath, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer func() {
		if err := eng.Close(); err != nil {
			log.WithError(err).Error("failed to close database cleanly")
		}
	}()

	r, err := repl.New(eng, log)
	if err != nil {
		log.WithError(err).Fatal("failed to start REPL")
	}
	defer r.Close()

	if err := r.Run(); err != nil {
		log.WithError(err).Fatal("REPL exited with error")
	}
}
