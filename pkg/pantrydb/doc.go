// Package pantrydb is the client driver for the PantryDB embedded SQL
// engine. It provides connections and cursors, `?` and `:name` parameter
// rewriting, typed value conversion including fixed-point decimals, a
// bounded prepared-statement cache, and a deferred bind+step fast path
// for selects on engine builds that export the combined entry point.
package pantrydb

// Version is the driver version reported by the CLI.
const Version = "0.3.0"
