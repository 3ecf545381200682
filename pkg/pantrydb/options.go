package pantrydb

import (
	"sort"
	"strings"

	"github.com/mesh-intelligence/pantrydb/internal/native"
)

// DefaultStmtCacheSize is the statement cache capacity used when
// WithStmtCacheSize is not given.
const DefaultStmtCacheSize = 128

type connConfig struct {
	cacheSize int
	engine    native.Engine
	rowView   bool
	params    map[string]string
}

// Option adjusts how Connect opens a connection.
type Option func(*connConfig)

// WithStmtCacheSize sets the prepared-statement cache capacity. Zero
// disables caching; negative values are treated as zero.
func WithStmtCacheSize(n int) Option {
	return func(c *connConfig) {
		if n < 0 {
			n = 0
		}
		c.cacheSize = n
	}
}

// WithEngine connects through the given engine instead of the process
// default registered with the native package.
func WithEngine(eng native.Engine) Option {
	return func(c *connConfig) { c.engine = eng }
}

// WithRowView toggles decoding result rows through the engine's packed
// row view. It is on by default; disabling it forces per-column reads.
func WithRowView(enabled bool) Option {
	return func(c *connConfig) { c.rowView = enabled }
}

// WithParam passes an opaque key=value open parameter through to the
// native engine.
func WithParam(key, value string) Option {
	return func(c *connConfig) { c.params[key] = value }
}

func (c *connConfig) optionString() string {
	if len(c.params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(c.params))
	for k := range c.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + c.params[k]
	}
	return strings.Join(parts, "&")
}
