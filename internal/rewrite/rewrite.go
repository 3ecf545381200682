// Package rewrite normalizes the two supported placeholder styles, `?` and
// `:name`, into the engine's native `$N` positional syntax. Mixing styles in
// one statement is rejected rather than partially substituted.
package rewrite

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Rewrite failures. The driver surface maps all of these onto its
// ProgrammingError class.
var (
	ErrMixedStyles  = errors.New("mixed parameter styles are not supported")
	ErrArity        = errors.New("incorrect number of parameters")
	ErrMissingParam = errors.New("missing named parameter")
)

// namedToken matches a `:name` placeholder. The engine's SQL dialect has no
// colon-prefixed syntax of its own, so a bare scan is sufficient.
var namedToken = regexp.MustCompile(`:([a-zA-Z_][a-zA-Z0-9_]*)`)

// HasPlaceholders reports whether sql contains either placeholder style.
// Statements without placeholders rebind the full parameter set on reuse,
// which lets the cursor skip the explicit clear-bindings call.
func HasPlaceholders(sql string) bool {
	return strings.ContainsRune(sql, '?') || namedToken.MatchString(sql)
}

// Positional rewrites `?` placeholders to `$1..$N` left to right. The
// placeholder count must equal arity exactly. SQL containing `:name` tokens
// is rejected as mixed style; SQL with no `?` at all passes through
// unchanged (it is assumed to already use `$N` or carry no parameters).
func Positional(sql string, arity int) (string, error) {
	if namedToken.MatchString(sql) {
		return "", fmt.Errorf("%w: positional parameters with named placeholders", ErrMixedStyles)
	}
	if !strings.ContainsRune(sql, '?') {
		return sql, nil
	}

	parts := strings.Split(sql, "?")
	if len(parts)-1 != arity {
		return "", fmt.Errorf("%w: expected %d, got %d", ErrArity, len(parts)-1, arity)
	}

	var b strings.Builder
	b.Grow(len(sql) + 3*arity)
	for i := 0; i < len(parts)-1; i++ {
		b.WriteString(parts[i])
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(i + 1))
	}
	b.WriteString(parts[len(parts)-1])
	return b.String(), nil
}

// Named rewrites `:name` placeholders to `$N`. The first occurrence of a
// name claims the next sequential index and pulls its value from params;
// repeats reuse the same index, so one supplied value services them all.
// SQL containing `?` is rejected as mixed style; a referenced name absent
// from params fails with ErrMissingParam.
//
// Named rewrites are never cached: the (sql, name-set) key space is
// unbounded, so each call re-scans.
func Named(sql string, params map[string]any) (string, []any, error) {
	if strings.ContainsRune(sql, '?') {
		return "", nil, fmt.Errorf("%w: named parameters with positional placeholders", ErrMixedStyles)
	}

	indexes := make(map[string]int)
	var ordered []any
	var missing error

	out := namedToken.ReplaceAllStringFunc(sql, func(tok string) string {
		name := tok[1:]
		idx, seen := indexes[name]
		if !seen {
			val, ok := params[name]
			if !ok && missing == nil {
				missing = fmt.Errorf("%w: %q", ErrMissingParam, name)
			}
			ordered = append(ordered, val)
			idx = len(ordered)
			indexes[name] = idx
		}
		return "$" + strconv.Itoa(idx)
	})
	if missing != nil {
		return "", nil, missing
	}
	return out, ordered, nil
}

// Mode distinguishes the cacheable rewrite inputs.
type Mode int

const (
	// ModeNone is an execute with no parameters at all.
	ModeNone Mode = iota
	// ModePositional is an execute with an ordered parameter list.
	ModePositional
)

type cacheKey struct {
	sql   string
	mode  Mode
	arity int
}

// Cache is a single-slot memo of the last rewrite, keyed by
// (sql, mode, arity). Hot loops re-execute identical SQL, so one slot
// captures nearly all of the win without growth concerns. Named-mode
// rewrites are not cached (see Named).
type Cache struct {
	valid bool
	key   cacheKey
	sql   string
}

// Get returns the cached rewritten SQL for the key, if present.
func (c *Cache) Get(sql string, mode Mode, arity int) (string, bool) {
	if !c.valid || c.key != (cacheKey{sql: sql, mode: mode, arity: arity}) {
		return "", false
	}
	return c.sql, true
}

// Put records the rewrite for the key, displacing any previous entry.
func (c *Cache) Put(sql string, mode Mode, arity int, rewritten string) {
	c.valid = true
	c.key = cacheKey{sql: sql, mode: mode, arity: arity}
	c.sql = rewritten
}
