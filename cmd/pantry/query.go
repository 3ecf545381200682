// Query command fetches and prints result rows.
package main

import (
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <sql> [param...]",
	Short: "Run a select and print its rows",
	Long: `Query runs a statement and prints the result set, tab separated or
as JSON with --json. Positional ? placeholders are filled from the
remaining arguments.

Example:
  pantry query "SELECT * FROM items"
  pantry query "SELECT name FROM items WHERE id = ?" 1 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	conn, err := openConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	cur, err := conn.Execute(args[0], parseParams(args[1:])...)
	if err != nil {
		return err
	}
	defer cur.Close()

	rows, err := cur.FetchAll()
	if err != nil {
		return err
	}
	return printRows(cmd.OutOrStdout(), cur.Columns(), rows)
}
