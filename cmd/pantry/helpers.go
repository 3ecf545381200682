// Shared helpers for pantry CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mesh-intelligence/pantrydb/pkg/pantrydb"
)

// parseParams turns command-line parameter literals into driver values.
// Each literal is first tried as JSON, which covers numbers, booleans,
// null, and quoted strings; anything that fails to parse is passed through
// as a plain string.
func parseParams(args []string) []any {
	params := make([]any, len(args))
	for i, arg := range args {
		var parsed any
		if err := json.Unmarshal([]byte(arg), &parsed); err != nil {
			params[i] = arg
			continue
		}
		// JSON numbers arrive as float64; keep integral values as int64
		// so they bind to integer columns.
		if f, ok := parsed.(float64); ok && f == float64(int64(f)) {
			parsed = int64(f)
		}
		params[i] = parsed
	}
	return params
}

// printRows writes a fetched result set either as JSON objects or as
// tab-separated lines with a header.
func printRows(w io.Writer, cols []string, rows [][]any) error {
	if flagJSON {
		out := make([]map[string]any, len(rows))
		for i, row := range rows {
			rec := make(map[string]any, len(cols))
			for j, col := range cols {
				rec[col] = renderValue(row[j])
			}
			out[i] = rec
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintln(w, strings.Join(cols, "\t"))
	for _, row := range rows {
		parts := make([]string, len(row))
		for j, v := range row {
			parts[j] = fmt.Sprintf("%v", renderValue(v))
		}
		fmt.Fprintln(w, strings.Join(parts, "\t"))
	}
	return nil
}

// renderValue makes driver values printable: blobs become hex strings and
// decimals their plain rendering.
func renderValue(v any) any {
	switch tv := v.(type) {
	case nil:
		return nil
	case []byte:
		return fmt.Sprintf("%x", tv)
	case pantrydb.Decimal:
		return tv.String()
	default:
		return v
	}
}
