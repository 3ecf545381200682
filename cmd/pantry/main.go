// Package main provides the pantry CLI, a small shell over the PantryDB
// driver for running statements and inspecting schema.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mesh-intelligence/pantrydb/pkg/pantrydb"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	// User mistakes (bad SQL, bad parameters) exit 1; everything else,
	// including engine faults, exits 2.
	if errors.Is(err, pantrydb.ErrProgramming) || errors.Is(err, pantrydb.ErrData) {
		return exitUserError
	}
	if errors.Is(err, pantrydb.ErrDriver) {
		return exitSysError
	}
	return exitUserError
}
