// Columns command describes one table's columns.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var columnsCmd = &cobra.Command{
	Use:   "columns <table>",
	Short: "Describe the columns of a table",
	Args:  cobra.ExactArgs(1),
	RunE:  runColumns,
}

func runColumns(cmd *cobra.Command, args []string) error {
	conn, err := openConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	cols, err := conn.GetTableColumns(args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cols)
	}
	for _, col := range cols {
		line := col.Name + "\t" + col.Type
		if col.NotNull {
			line += "\tNOT NULL"
		}
		if col.PrimaryKey {
			line += "\tPRIMARY KEY"
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}
