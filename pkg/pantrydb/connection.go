package pantrydb

import (
	"encoding/json"
	"errors"

	"github.com/mesh-intelligence/pantrydb/internal/native"
	"github.com/mesh-intelligence/pantrydb/internal/stmtcache"
)

// Connection is an open handle on a PantryDB database. A connection owns
// its cursors and its prepared-statement cache; it is not safe for
// concurrent use.
type Connection struct {
	eng  native.Engine
	fast native.PreparedStepper
	db   native.DB

	cache   *stmtcache.Cache
	cursors []*Cursor
	rowView bool

	prepares int
	closed   bool
}

// Stats reports counters useful for verifying statement reuse.
type Stats struct {
	Prepares    int
	CacheHits   int
	CacheMisses int
}

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}

// Connect opens the database at path. An empty path opens an in-memory
// database when the engine supports one.
func Connect(path string, opts ...Option) (*Connection, error) {
	cfg := connConfig{
		cacheSize: DefaultStmtCacheSize,
		rowView:   true,
		params:    map[string]string{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	eng := cfg.engine
	if eng == nil {
		eng = native.Default()
	}
	if eng == nil {
		return nil, newError(ErrInterface, "no native engine registered")
	}

	db := eng.Open(path, cfg.optionString())
	if db == nil {
		msg := eng.GlobalErrorMessage()
		if msg == "" {
			msg = "failed to open database"
		}
		return nil, newError(ErrOperational, "%s", msg)
	}

	fast, _ := eng.(native.PreparedStepper)
	return &Connection{
		eng:     eng,
		fast:    fast,
		db:      db,
		cache:   stmtcache.New(eng, cfg.cacheSize),
		rowView: cfg.rowView,
	}, nil
}

// Cursor returns a new cursor bound to this connection.
func (c *Connection) Cursor() (*Cursor, error) {
	if c.closed {
		return nil, newError(ErrProgramming, "connection is closed")
	}
	cur := &Cursor{conn: c, colCount: -1}
	c.cursors = append(c.cursors, cur)
	return cur, nil
}

// Execute opens a cursor, runs the statement on it, and returns the
// cursor so rows can be fetched from it.
func (c *Connection) Execute(sql string, args ...any) (*Cursor, error) {
	cur, err := c.Cursor()
	if err != nil {
		return nil, err
	}
	if err := cur.Execute(sql, args...); err != nil {
		cur.Close()
		return nil, err
	}
	return cur, nil
}

// Commit commits the current transaction. Committing with no open
// transaction is a no-op.
func (c *Connection) Commit() error {
	return c.endTransaction("COMMIT")
}

// Rollback rolls back the current transaction. Rolling back with no open
// transaction is a no-op.
func (c *Connection) Rollback() error {
	return c.endTransaction("ROLLBACK")
}

func (c *Connection) endTransaction(sql string) error {
	if c.closed {
		return newError(ErrProgramming, "connection is closed")
	}
	cur := &Cursor{conn: c, colCount: -1}
	err := cur.Execute(sql)
	cur.Close()
	if err == nil {
		return nil
	}
	// Only "no transaction is active" is forgiven here; transaction
	// errors from other causes still surface.
	var de *Error
	if errors.As(err, &de) && de.NativeCode == int(native.StatusTransaction) {
		return nil
	}
	return err
}

// ListTables returns the names of the user tables in the database.
func (c *Connection) ListTables() ([]string, error) {
	if c.closed {
		return nil, newError(ErrProgramming, "connection is closed")
	}
	buf := c.eng.ListTablesJSON(c.db)
	if buf == nil {
		return nil, c.raise("", nil)
	}
	defer buf.Free()
	var names []string
	if err := json.Unmarshal(buf.Bytes(), &names); err != nil {
		return nil, newError(ErrInternal, "malformed table list from engine: %v", err)
	}
	return names, nil
}

// GetTableColumns returns the column descriptions of the named table.
func (c *Connection) GetTableColumns(table string) ([]ColumnInfo, error) {
	if c.closed {
		return nil, newError(ErrProgramming, "connection is closed")
	}
	buf := c.eng.TableColumnsJSON(c.db, table)
	if buf == nil {
		return nil, c.raise("", nil)
	}
	defer buf.Free()
	var cols []ColumnInfo
	if err := json.Unmarshal(buf.Bytes(), &cols); err != nil {
		return nil, newError(ErrInternal, "malformed column list from engine: %v", err)
	}
	return cols, nil
}

// Stats returns prepare and cache counters accumulated since Connect.
func (c *Connection) Stats() Stats {
	return Stats{
		Prepares:    c.prepares,
		CacheHits:   c.cache.Hits(),
		CacheMisses: c.cache.Misses(),
	}
}

// Close closes every cursor, finalizes all cached statements, and
// releases the database handle. Close is idempotent.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	for _, cur := range c.cursors {
		cur.Close()
	}
	c.cursors = nil
	c.cache.Flush()
	c.eng.Close(c.db)
	c.db = nil
	c.closed = true
	return nil
}
