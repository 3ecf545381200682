package pantrydb

import (
	"errors"

	"github.com/mesh-intelligence/pantrydb/internal/codec"
	"github.com/mesh-intelligence/pantrydb/internal/native"
	"github.com/mesh-intelligence/pantrydb/internal/rewrite"
)

// Cursor runs statements and fetches their rows. A cursor holds at most
// one prepared statement at a time; when it moves to a different
// statement the old handle is returned to the connection's cache, never
// finalized directly. Cursors are not safe for concurrent use.
type Cursor struct {
	conn   *Connection
	closed bool

	stmt     native.Stmt
	stmtSQL  string
	colCount int
	colNames []string

	rowCount int64

	rewriteCache rewrite.Cache

	// Bind bookkeeping for the clear-bindings elision on statement reuse.
	lastBoundSQL    string
	lastBoundParams int
	hasLastBound    bool

	// Deferred select state. When pending is set the statement has been
	// resolved but not bound or stepped; the first fetch performs
	// bind+step+row-view in one native call.
	pending       bool
	pendingSQL    string
	pendingParams []codec.Value
	pendingArgs   any
}

// Execute prepares and runs one statement. Positional parameters use `?`
// markers and are passed as plain arguments; named parameters use `:name`
// markers and are passed as a single map[string]any. For statements that
// return no rows, Execute runs them to completion and records the
// affected row count; for selects, rows are consumed with the fetch
// methods.
func (c *Cursor) Execute(sql string, args ...any) error {
	if c.closed {
		return newError(ErrProgramming, "cursor is closed")
	}
	if c.conn.closed {
		return newError(ErrProgramming, "connection is closed")
	}
	c.clearPending()

	finalSQL, values, ctxArgs, err := c.prepareArgs(sql, args)
	if err != nil {
		return err
	}

	reused, err := c.resolveStatement(finalSQL, ctxArgs)
	if err != nil {
		return err
	}

	if c.colCount > 0 && c.conn.rowView && c.conn.fast != nil {
		// Select fast path: leave the statement untouched and run
		// bind+step on the first fetch.
		c.pending = true
		c.pendingSQL = finalSQL
		c.pendingParams = values
		c.pendingArgs = ctxArgs
		c.rowCount = -1
		return nil
	}

	if reused {
		eng := c.conn.eng
		eng.Reset(c.stmt)
		// Rebinding every marker overwrites all previous bindings, so
		// the clear can be skipped when the last Execute provably did.
		fullRebind := rewrite.HasPlaceholders(sql) &&
			c.hasLastBound && c.lastBoundSQL == finalSQL && c.lastBoundParams == len(values)
		if !fullRebind {
			eng.ClearBindings(c.stmt)
		}
	}

	if err := c.bind(finalSQL, values, ctxArgs); err != nil {
		return err
	}

	if c.colCount == 0 {
		eng := c.conn.eng
		for {
			switch eng.Step(c.stmt) {
			case native.StepDone:
				c.rowCount = eng.RowsAffected(c.stmt)
				return nil
			case native.StepError:
				return c.conn.raise(finalSQL, ctxArgs)
			}
		}
	}
	c.rowCount = -1
	return nil
}

// ExecuteMany runs the statement once per parameter set.
func (c *Cursor) ExecuteMany(sql string, paramSets [][]any) error {
	for _, set := range paramSets {
		if err := c.Execute(sql, set...); err != nil {
			return err
		}
	}
	return nil
}

// prepareArgs rewrites placeholders and converts arguments. A single
// map[string]any argument selects named mode; anything else is
// positional. ctxArgs is the caller-shaped argument set kept for error
// context.
func (c *Cursor) prepareArgs(sql string, args []any) (string, []codec.Value, any, error) {
	if len(args) == 1 {
		if named, ok := args[0].(map[string]any); ok {
			rewritten, ordered, err := rewrite.Named(sql, named)
			if err != nil {
				return "", nil, nil, newError(ErrProgramming, "%v", err)
			}
			values, err := codec.FromArgs(ordered)
			if err != nil {
				return "", nil, nil, convertError(err)
			}
			return rewritten, values, named, nil
		}
	}

	if len(args) == 0 {
		// No parameters means no placeholder processing at all; the
		// statement text goes to the engine verbatim.
		return sql, nil, nil, nil
	}

	rewritten, ok := c.rewriteCache.Get(sql, rewrite.ModePositional, len(args))
	if !ok {
		var err error
		rewritten, err = rewrite.Positional(sql, len(args))
		if err != nil {
			return "", nil, nil, newError(ErrProgramming, "%v", err)
		}
		c.rewriteCache.Put(sql, rewrite.ModePositional, len(args), rewritten)
	}
	values, err := codec.FromArgs(args)
	if err != nil {
		return "", nil, nil, convertError(err)
	}
	return rewritten, values, args, nil
}

// resolveStatement makes c.stmt a prepared handle for finalSQL, pulling
// from the current handle, then the cache, then a fresh prepare. reused
// reports that the current handle was kept, in which case its bindings
// may still be populated.
func (c *Cursor) resolveStatement(finalSQL string, ctxArgs any) (reused bool, err error) {
	if c.stmt != nil {
		if c.stmtSQL == finalSQL {
			return true, nil
		}
		c.conn.cache.Put(c.stmtSQL, c.stmt)
		c.stmt = nil
		c.stmtSQL = ""
		c.hasLastBound = false
	}

	if stmt, ok := c.conn.cache.Get(finalSQL); ok {
		c.stmt = stmt
	} else {
		stmt, st := c.conn.eng.Prepare(c.conn.db, finalSQL)
		if st != native.StatusOK {
			return false, c.conn.raise(finalSQL, ctxArgs)
		}
		c.conn.prepares++
		c.stmt = stmt
	}
	c.stmtSQL = finalSQL

	eng := c.conn.eng
	c.colCount = eng.ColumnCount(c.stmt)
	c.colNames = make([]string, c.colCount)
	for i := range c.colNames {
		c.colNames[i] = eng.ColumnName(c.stmt, i)
	}
	return false, nil
}

func (c *Cursor) bind(finalSQL string, values []codec.Value, ctxArgs any) error {
	eng := c.conn.eng
	for i, v := range values {
		idx := i + 1
		var st native.Status
		switch v.Kind() {
		case native.KindNull:
			st = eng.BindNull(c.stmt, idx)
		case native.KindBool:
			st = eng.BindBool(c.stmt, idx, v.BoolVal())
		case native.KindInt64:
			st = eng.BindInt64(c.stmt, idx, v.Int64Val())
		case native.KindFloat64:
			st = eng.BindFloat64(c.stmt, idx, v.Float64Val())
		case native.KindText:
			st = eng.BindText(c.stmt, idx, v.BytesVal())
		case native.KindBlob:
			st = eng.BindBlob(c.stmt, idx, v.BytesVal())
		case native.KindDecimal:
			d := v.DecimalVal()
			st = eng.BindDecimal(c.stmt, idx, d.Unscaled, d.Scale)
		}
		if st != native.StatusOK {
			return c.conn.raise(finalSQL, ctxArgs)
		}
	}
	c.lastBoundSQL = finalSQL
	c.lastBoundParams = len(values)
	c.hasLastBound = true
	return nil
}

// FetchOne returns the next result row, or nil with a nil error when the
// result set is exhausted.
func (c *Cursor) FetchOne() ([]any, error) {
	if c.closed {
		return nil, newError(ErrProgramming, "cursor is closed")
	}
	if c.stmt == nil {
		return nil, newError(ErrProgramming, "no statement has been executed")
	}
	if c.colCount == 0 {
		return nil, newError(ErrProgramming, "statement returns no rows")
	}

	if c.pending {
		return c.fetchPending()
	}

	eng := c.conn.eng
	switch eng.Step(c.stmt) {
	case native.StepDone:
		return nil, nil
	case native.StepError:
		return nil, c.conn.raise(c.stmtSQL, nil)
	}
	return c.decodeCurrentRow()
}

func (c *Cursor) fetchPending() ([]any, error) {
	c.pending = false
	views := codec.Views(c.pendingParams)
	row, hasRow, st := c.conn.fast.StepWithParamsRowView(c.stmt, views)
	if st != native.StatusOK {
		err := c.conn.raise(c.pendingSQL, c.pendingArgs)
		c.clearPending()
		return nil, err
	}
	c.lastBoundSQL = c.pendingSQL
	c.lastBoundParams = len(c.pendingParams)
	c.hasLastBound = true
	c.clearPending()
	if !hasRow {
		return nil, nil
	}
	decoded, err := codec.DecodeRow(row)
	if err != nil {
		if errors.Is(err, codec.ErrUnknownKind) {
			return c.readRowByColumn()
		}
		return nil, newError(ErrData, "%v", err)
	}
	return decoded, nil
}

func (c *Cursor) decodeCurrentRow() ([]any, error) {
	if c.conn.rowView {
		views, st := c.conn.eng.RowView(c.stmt)
		if st == native.StatusOK {
			decoded, err := codec.DecodeRow(views)
			if err == nil {
				return decoded, nil
			}
			if !errors.Is(err, codec.ErrUnknownKind) {
				return nil, newError(ErrData, "%v", err)
			}
		}
		// Row view unavailable or carried a kind this build does not
		// know; fall through to per-column reads.
	}
	return c.readRowByColumn()
}

func (c *Cursor) readRowByColumn() ([]any, error) {
	eng := c.conn.eng
	row := make([]any, c.colCount)
	for i := range row {
		switch eng.ColumnType(c.stmt, i) {
		case native.KindNull:
			row[i] = nil
		case native.KindInt64:
			row[i] = eng.ColumnInt64(c.stmt, i)
		case native.KindBool:
			row[i] = eng.ColumnInt64(c.stmt, i) != 0
		case native.KindFloat64:
			row[i] = eng.ColumnFloat64(c.stmt, i)
		case native.KindText:
			row[i] = string(eng.ColumnBytes(c.stmt, i))
		case native.KindBlob:
			buf := eng.ColumnBytes(c.stmt, i)
			out := make([]byte, len(buf))
			copy(out, buf)
			row[i] = out
		case native.KindDecimal:
			unscaled, scale := eng.ColumnDecimal(c.stmt, i)
			row[i] = codec.Decimal{Unscaled: unscaled, Scale: scale}
		default:
			row[i] = nil
		}
	}
	return row, nil
}

// FetchMany returns up to n rows. Fewer rows, possibly none, are
// returned when the result set runs out.
func (c *Cursor) FetchMany(n int) ([][]any, error) {
	rows := make([][]any, 0, n)
	for len(rows) < n {
		row, err := c.FetchOne()
		if err != nil {
			return nil, err
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FetchAll returns all remaining rows.
func (c *Cursor) FetchAll() ([][]any, error) {
	var rows [][]any
	for {
		row, err := c.FetchOne()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return rows, nil
		}
		rows = append(rows, row)
	}
}

// Columns returns the result column names of the current statement.
func (c *Cursor) Columns() []string {
	out := make([]string, len(c.colNames))
	copy(out, c.colNames)
	return out
}

// RowCount returns the affected row count of the last data-modifying
// statement, or -1 for selects.
func (c *Cursor) RowCount() int64 { return c.rowCount }

// Close releases the cursor. Its statement handle, if any, is returned
// to the connection's cache. Close is idempotent.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.clearPending()
	if c.stmt != nil {
		c.conn.cache.Put(c.stmtSQL, c.stmt)
		c.stmt = nil
		c.stmtSQL = ""
	}
	c.colCount = -1
	c.colNames = nil
	c.hasLastBound = false
	c.closed = true
	return nil
}

func (c *Cursor) clearPending() {
	c.pending = false
	c.pendingSQL = ""
	c.pendingParams = nil
	c.pendingArgs = nil
}

// convertError maps parameter conversion failures onto the public
// hierarchy.
func convertError(err error) error {
	switch {
	case errors.Is(err, codec.ErrValueRange), errors.Is(err, codec.ErrDecimalRange):
		return &Error{Message: err.Error(), class: ErrData}
	case errors.Is(err, codec.ErrDecimalSyntax):
		return &Error{Message: err.Error(), class: ErrData}
	default:
		return &Error{Message: err.Error(), class: ErrProgramming}
	}
}
