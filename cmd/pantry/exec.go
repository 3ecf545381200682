// Exec command runs a statement that returns no rows.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <sql> [param...]",
	Short: "Run a statement and report affected rows",
	Long: `Exec runs a single statement against the database. Positional ?
placeholders are filled from the remaining arguments; numbers, booleans,
and null are recognized, everything else binds as text.

Example:
  pantry exec "CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT)"
  pantry exec "INSERT INTO items VALUES (?, ?)" 1 bread`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func runExec(cmd *cobra.Command, args []string) error {
	conn, err := openConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	cur, err := conn.Cursor()
	if err != nil {
		return err
	}
	defer cur.Close()

	if err := cur.Execute(args[0], parseParams(args[1:])...); err != nil {
		return err
	}
	if err := conn.Commit(); err != nil {
		return err
	}

	if n := cur.RowCount(); n >= 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "rows affected: %d\n", n)
	}
	return nil
}
