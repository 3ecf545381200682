// Package enginetest provides a native.Engine implementation backed by an
// embedded SQLite database (modernc.org/sqlite). It stands in for the real
// PantryDB shared library in unit and integration tests, so the driver's
// statement machinery runs against genuine SQL semantics without cgo or a
// native build.
//
// The adapter speaks the same narrow boundary the driver expects:
// prepare/bind/step/row-view, per-column accessors, rows-affected, JSON
// schema introspection, and the optional combined
// step-with-params-row-view entry point. Kinds SQLite cannot represent are
// narrowed: Bool binds as 0/1 integers and Decimal binds as its plain text
// rendering, so round trips of those kinds come back as Int64 and Text.
package enginetest

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/pantrydb/internal/codec"
	"github.com/mesh-intelligence/pantrydb/internal/native"
)

// Engine adapts SQLite to the native boundary. Not safe for concurrent use,
// matching the contract of the real engine.
type Engine struct {
	globalErr string
	prepares  int
}

// New returns a fresh test engine.
func New() *Engine { return &Engine{} }

// Prepares returns the number of successful prepare calls, for cache
// accounting assertions.
func (e *Engine) Prepares() int { return e.prepares }

type db struct {
	sqldb *sql.DB
	// options holds the passthrough open options verbatim, so tests can
	// assert they were forwarded.
	options  map[string]string
	lastCode native.Status
	lastMsg  string
}

// Options returns the parsed passthrough options of an open handle.
func Options(h native.DB) map[string]string { return h.(*db).options }

type stmt struct {
	owner *db
	text  string // engine-side text, ?N placeholders
	prep  *sql.Stmt

	isQuery bool
	cols    []string
	nParams int

	binds map[int]any

	rows     *sql.Rows
	cur      []any
	done     bool
	affected int64
}

func (d *db) setError(code native.Status, msg string) {
	d.lastCode = code
	d.lastMsg = msg
}

// classify maps a SQLite error onto the native status taxonomy.
func classify(err error) native.Status {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "constraint"), strings.Contains(msg, "unique"):
		return native.StatusConstraint
	case strings.Contains(msg, "no transaction"),
		strings.Contains(msg, "transaction within a transaction"):
		return native.StatusTransaction
	case strings.Contains(msg, "locked"), strings.Contains(msg, "busy"):
		return native.StatusLocked
	case strings.Contains(msg, "disk"), strings.Contains(msg, "i/o"):
		return native.StatusIO
	default:
		return native.StatusSQL
	}
}

func (e *Engine) Open(path, options string) native.DB {
	if path == "" {
		path = ":memory:"
	}
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		e.globalErr = err.Error()
		return nil
	}
	// One underlying connection so BEGIN/COMMIT issued as plain statements
	// see the same session, like the single-handle native engine.
	sqldb.SetMaxOpenConns(1)
	if err := sqldb.Ping(); err != nil {
		sqldb.Close()
		e.globalErr = err.Error()
		return nil
	}

	opts := make(map[string]string)
	for _, pair := range strings.Split(options, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		opts[k] = v
	}
	return &db{sqldb: sqldb, options: opts}
}

func (e *Engine) GlobalErrorMessage() string { return e.globalErr }

func (e *Engine) Close(h native.DB) {
	d := h.(*db)
	if d.sqldb != nil {
		d.sqldb.Close()
		d.sqldb = nil
	}
}

// dollarParam matches the engine-native $N placeholders the driver emits.
var dollarParam = regexp.MustCompile(`\$(\d+)`)

var queryKeywords = map[string]bool{
	"select": true, "values": true, "with": true, "explain": true,
}

func firstKeyword(sqlText string) string {
	fields := strings.Fields(sqlText)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

func (e *Engine) Prepare(h native.DB, sqlText string) (native.Stmt, native.Status) {
	d := h.(*db)

	// SQLite's numbered-placeholder syntax is ?N; the positional meaning
	// (including index reuse) is identical to $N.
	nParams := 0
	translated := dollarParam.ReplaceAllStringFunc(sqlText, func(tok string) string {
		if n, err := strconv.Atoi(tok[1:]); err == nil && n > nParams {
			nParams = n
		}
		return "?" + tok[1:]
	})

	prep, err := d.sqldb.Prepare(translated)
	if err != nil {
		d.setError(native.StatusSQL, err.Error())
		return nil, native.StatusSQL
	}

	st := &stmt{
		owner:   d,
		text:    translated,
		prep:    prep,
		nParams: nParams,
		isQuery: queryKeywords[firstKeyword(translated)],
		binds:   make(map[int]any),
	}

	if st.isQuery {
		// Probe column metadata with all-null bindings; a null-bound
		// select is side-effect free and surfaces the result shape
		// before the first step, like native prepare does.
		probe := make([]any, nParams)
		rows, err := prep.Query(probe...)
		if err != nil {
			prep.Close()
			d.setError(native.StatusSQL, err.Error())
			return nil, native.StatusSQL
		}
		st.cols, _ = rows.Columns()
		rows.Close()
	}

	e.prepares++
	return st, native.StatusOK
}

func (e *Engine) Finalize(h native.Stmt) {
	st := h.(*stmt)
	if st.rows != nil {
		st.rows.Close()
		st.rows = nil
	}
	if st.prep != nil {
		st.prep.Close()
		st.prep = nil
	}
}

func (e *Engine) Reset(h native.Stmt) {
	st := h.(*stmt)
	if st.rows != nil {
		st.rows.Close()
		st.rows = nil
	}
	st.cur = nil
	st.done = false
	st.affected = 0
}

func (e *Engine) ClearBindings(h native.Stmt) {
	st := h.(*stmt)
	st.binds = make(map[int]any)
}

func (st *stmt) bind(idx int, v any) native.Status {
	if idx < 1 {
		st.owner.setError(native.StatusSQL, fmt.Sprintf("bind index %d out of range", idx))
		return native.StatusSQL
	}
	st.binds[idx] = v
	return native.StatusOK
}

func (e *Engine) BindNull(h native.Stmt, idx int) native.Status {
	return h.(*stmt).bind(idx, nil)
}

func (e *Engine) BindBool(h native.Stmt, idx int, v bool) native.Status {
	iv := int64(0)
	if v {
		iv = 1
	}
	return h.(*stmt).bind(idx, iv)
}

func (e *Engine) BindInt64(h native.Stmt, idx int, v int64) native.Status {
	return h.(*stmt).bind(idx, v)
}

func (e *Engine) BindFloat64(h native.Stmt, idx int, v float64) native.Status {
	return h.(*stmt).bind(idx, v)
}

func (e *Engine) BindText(h native.Stmt, idx int, buf []byte) native.Status {
	// Copy: the caller's buffer is borrowed only for this call.
	return h.(*stmt).bind(idx, string(buf))
}

func (e *Engine) BindBlob(h native.Stmt, idx int, buf []byte) native.Status {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	return h.(*stmt).bind(idx, cp)
}

func (e *Engine) BindDecimal(h native.Stmt, idx int, unscaled int64, scale int) native.Status {
	d := codec.Decimal{Unscaled: unscaled, Scale: scale}
	return h.(*stmt).bind(idx, d.String())
}

func (st *stmt) args() []any {
	out := make([]any, st.nParams)
	for i := 1; i <= st.nParams; i++ {
		out[i-1] = st.binds[i]
	}
	return out
}

func (e *Engine) Step(h native.Stmt) int {
	st := h.(*stmt)

	if !st.isQuery {
		res, err := st.prep.Exec(st.args()...)
		if err != nil {
			st.owner.setError(classify(err), err.Error())
			return native.StepError
		}
		st.affected, _ = res.RowsAffected()
		return native.StepDone
	}

	if st.rows == nil {
		// A finished result set stays done until the next reset.
		if st.done {
			return native.StepDone
		}
		rows, err := st.prep.Query(st.args()...)
		if err != nil {
			st.owner.setError(classify(err), err.Error())
			return native.StepError
		}
		st.rows = rows
	}

	if !st.rows.Next() {
		err := st.rows.Err()
		st.rows.Close()
		st.rows = nil
		st.cur = nil
		st.done = true
		if err != nil {
			st.owner.setError(classify(err), err.Error())
			return native.StepError
		}
		return native.StepDone
	}

	ptrs := make([]any, len(st.cols))
	vals := make([]any, len(st.cols))
	for i := range ptrs {
		ptrs[i] = &vals[i]
	}
	if err := st.rows.Scan(ptrs...); err != nil {
		st.owner.setError(native.StatusInternal, err.Error())
		return native.StepError
	}
	st.cur = vals
	return native.StepRow
}

func (e *Engine) RowsAffected(h native.Stmt) int64 { return h.(*stmt).affected }

func (e *Engine) ColumnCount(h native.Stmt) int { return len(h.(*stmt).cols) }

func (e *Engine) ColumnName(h native.Stmt, i int) string {
	st := h.(*stmt)
	if i < 0 || i >= len(st.cols) {
		return ""
	}
	return st.cols[i]
}

func viewOf(v any) native.ValueView {
	switch tv := v.(type) {
	case nil:
		return native.ValueView{Kind: native.KindNull, IsNull: 1}
	case int64:
		return native.ValueView{Kind: native.KindInt64, Int64Val: tv}
	case float64:
		return native.ValueView{Kind: native.KindFloat64, Float64Val: tv}
	case string:
		return native.ValueView{Kind: native.KindText, Bytes: []byte(tv)}
	case []byte:
		return native.ValueView{Kind: native.KindBlob, Bytes: tv}
	default:
		return native.ValueView{Kind: native.KindNull, IsNull: 1}
	}
}

func (e *Engine) RowView(h native.Stmt) ([]native.ValueView, native.Status) {
	st := h.(*stmt)
	if st.cur == nil {
		st.owner.setError(native.StatusInternal, "row_view without a current row")
		return nil, native.StatusInternal
	}
	out := make([]native.ValueView, len(st.cur))
	for i, v := range st.cur {
		out[i] = viewOf(v)
	}
	return out, native.StatusOK
}

func (e *Engine) ColumnType(h native.Stmt, i int) int32 {
	st := h.(*stmt)
	if st.cur == nil || i < 0 || i >= len(st.cur) {
		return native.KindNull
	}
	return viewOf(st.cur[i]).Kind
}

func (e *Engine) ColumnInt64(h native.Stmt, i int) int64 {
	if v, ok := h.(*stmt).cur[i].(int64); ok {
		return v
	}
	return 0
}

func (e *Engine) ColumnFloat64(h native.Stmt, i int) float64 {
	if v, ok := h.(*stmt).cur[i].(float64); ok {
		return v
	}
	return 0
}

func (e *Engine) ColumnBytes(h native.Stmt, i int) []byte {
	switch v := h.(*stmt).cur[i].(type) {
	case string:
		return []byte(v)
	case []byte:
		return v
	default:
		return nil
	}
}

func (e *Engine) ColumnDecimal(h native.Stmt, i int) (int64, int) {
	// SQLite has no fixed-point representation; decimals were narrowed to
	// text at bind time.
	return 0, 0
}

func (e *Engine) LastErrorCode(h native.DB) int { return int(h.(*db).lastCode) }

func (e *Engine) LastErrorMessage(h native.DB) string { return h.(*db).lastMsg }

// memBuf satisfies native.Buf for engine-allocated JSON payloads. Freed is
// observable so tests can verify the release discipline.
type memBuf struct {
	b     []byte
	freed bool
}

func (m *memBuf) Bytes() []byte { return m.b }
func (m *memBuf) Free()         { m.freed = true }

// Freed reports whether a buffer returned by the JSON entry points has been
// released.
func Freed(b native.Buf) bool { return b.(*memBuf).freed }

func (e *Engine) ListTablesJSON(h native.DB) native.Buf {
	d := h.(*db)
	rows, err := d.sqldb.Query(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		d.setError(classify(err), err.Error())
		return nil
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			d.setError(native.StatusInternal, err.Error())
			return nil
		}
		names = append(names, name)
	}
	payload, _ := json.Marshal(names)
	return &memBuf{b: payload}
}

type columnRecord struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}

func (e *Engine) TableColumnsJSON(h native.DB, table string) native.Buf {
	d := h.(*db)
	rows, err := d.sqldb.Query("SELECT name, type, [notnull], pk FROM pragma_table_info(?)", table)
	if err != nil {
		d.setError(classify(err), err.Error())
		return nil
	}
	defer rows.Close()

	cols := []columnRecord{}
	for rows.Next() {
		var rec columnRecord
		var notNull, pk int
		if err := rows.Scan(&rec.Name, &rec.Type, &notNull, &pk); err != nil {
			d.setError(native.StatusInternal, err.Error())
			return nil
		}
		rec.NotNull = notNull != 0
		rec.PrimaryKey = pk != 0
		cols = append(cols, rec)
	}
	if len(cols) == 0 {
		d.setError(native.StatusNotFound, fmt.Sprintf("no such table: %s", table))
		return nil
	}
	payload, _ := json.Marshal(cols)
	return &memBuf{b: payload}
}

// StepWithParamsRowView implements the optional combined entry point:
// reset, bind every param, step once, and return the row view in one call.
func (e *Engine) StepWithParamsRowView(h native.Stmt, params []native.ValueView) ([]native.ValueView, bool, native.Status) {
	st := h.(*stmt)

	e.Reset(h)
	e.ClearBindings(h)
	for i, p := range params {
		idx := i + 1
		var res native.Status
		switch {
		case p.IsNull != 0 || p.Kind == native.KindNull:
			res = e.BindNull(h, idx)
		case p.Kind == native.KindInt64:
			res = e.BindInt64(h, idx, p.Int64Val)
		case p.Kind == native.KindBool:
			res = e.BindBool(h, idx, p.Int64Val != 0)
		case p.Kind == native.KindFloat64:
			res = e.BindFloat64(h, idx, p.Float64Val)
		case p.Kind == native.KindText:
			res = e.BindText(h, idx, p.Bytes)
		case p.Kind == native.KindBlob:
			res = e.BindBlob(h, idx, p.Bytes)
		case p.Kind == native.KindDecimal:
			res = e.BindDecimal(h, idx, p.Int64Val, int(p.DecimalScale))
		default:
			st.owner.setError(native.StatusSQL, fmt.Sprintf("unknown bind kind %d", p.Kind))
			res = native.StatusSQL
		}
		if res != native.StatusOK {
			return nil, false, res
		}
	}

	switch e.Step(h) {
	case native.StepError:
		return nil, false, st.owner.lastCode
	case native.StepDone:
		return nil, false, native.StatusOK
	}
	row, status := e.RowView(h)
	if status != native.StatusOK {
		return nil, false, status
	}
	return row, true, native.StatusOK
}

// eagerOnly hides the combined entry point so tests can force the driver
// onto the eager bind/step path.
type eagerOnly struct{ native.Engine }

// WithoutFastStep wraps eng so it no longer advertises
// StepWithParamsRowView.
func WithoutFastStep(eng native.Engine) native.Engine { return eagerOnly{eng} }
