// Package native defines the boundary to the PantryDB native engine: a
// narrow, C-style set of entry points for opening databases, preparing
// statements, binding values, stepping, and reading result rows. The Engine
// interface mirrors the exported C ABI one method per entry point so the
// driver core stays identical whether it talks to the real shared library
// (see the pantrydb_cgo build tag) or a test engine.
package native

// Status is a native engine status code. The numeric values are an external
// contract with the C ABI and must not change.
type Status int

const (
	StatusOK          Status = 0
	StatusIO          Status = 1
	StatusCorruption  Status = 2
	StatusConstraint  Status = 3
	StatusTransaction Status = 4
	StatusSQL         Status = 5
	StatusInternal    Status = 6

	// Extended codes reserved by the ABI but produced only by some engine
	// builds.
	StatusLocked   Status = 101
	StatusNotFound Status = 102
)

// Value kinds used in ValueView records. Byte-for-byte contract with the
// engine; Decimal deliberately sits at 12 to match the engine's internal
// value enum.
const (
	KindNull    int32 = 0
	KindInt64   int32 = 1
	KindBool    int32 = 2
	KindFloat64 int32 = 3
	KindText    int32 = 4
	KindBlob    int32 = 5
	KindDecimal int32 = 12
)

// Step results.
const (
	StepDone  = 0
	StepError = -1
	StepRow   = 1
)

// DB is an opaque handle to one open native database. It is created by
// Engine.Open and must be released exactly once with Engine.Close.
type DB any

// Stmt is an opaque handle to one prepared statement. It is usable only
// between Engine.Prepare and Engine.Finalize.
type Stmt any

// ValueView is the fixed-layout tagged value record exchanged with the
// engine. For Text and Blob kinds, Bytes is a borrowed view: when passed to
// the engine it must stay alive until the call that reads it returns, and
// when returned from the engine it is valid only until the next call on the
// same statement. Callers that retain data must copy.
type ValueView struct {
	Kind         int32
	IsNull       int32
	Int64Val     int64
	Float64Val   float64
	Bytes        []byte
	DecimalScale int32
}

// Buf is a native-allocated byte buffer. Free must be called exactly once,
// on every exit path, after which Bytes is invalid.
type Buf interface {
	Bytes() []byte
	Free()
}

// Engine is the full set of native entry points the driver consumes.
//
// Implementations are not required to be safe for concurrent use; the
// driver serializes all calls per connection.
type Engine interface {
	// Open returns a handle to the database at path, or nil on failure.
	// options is an opaque "k=v&k=v" string forwarded verbatim.
	// After a nil return, GlobalErrorMessage reports the cause.
	Open(path, options string) DB
	// GlobalErrorMessage is the last-error accessor for failures that
	// occur before any handle exists (the C ABI's last_error_message(NULL)).
	GlobalErrorMessage() string
	Close(db DB)

	Prepare(db DB, sql string) (Stmt, Status)
	Finalize(stmt Stmt)
	Reset(stmt Stmt)
	ClearBindings(stmt Stmt)

	BindNull(stmt Stmt, idx int) Status
	BindBool(stmt Stmt, idx int, v bool) Status
	BindInt64(stmt Stmt, idx int, v int64) Status
	BindFloat64(stmt Stmt, idx int, v float64) Status
	// BindText and BindBlob borrow buf for the duration of the call only.
	BindText(stmt Stmt, idx int, buf []byte) Status
	BindBlob(stmt Stmt, idx int, buf []byte) Status
	BindDecimal(stmt Stmt, idx int, unscaled int64, scale int) Status

	// Step returns StepRow, StepDone, or StepError.
	Step(stmt Stmt) int
	RowsAffected(stmt Stmt) int64

	ColumnCount(stmt Stmt) int
	ColumnName(stmt Stmt, i int) string

	// RowView returns a batch-decoded view of the current row. The views
	// (including their Bytes) are valid only until the next call on stmt.
	RowView(stmt Stmt) ([]ValueView, Status)

	// Per-column accessors, the slow decode path.
	ColumnType(stmt Stmt, i int) int32
	ColumnInt64(stmt Stmt, i int) int64
	ColumnFloat64(stmt Stmt, i int) float64
	ColumnBytes(stmt Stmt, i int) []byte
	ColumnDecimal(stmt Stmt, i int) (unscaled int64, scale int)

	LastErrorCode(db DB) int
	LastErrorMessage(db DB) string

	// Schema introspection. Both return a native-allocated JSON payload
	// that the caller must Free, or nil with the error left on db.
	ListTablesJSON(db DB) Buf
	TableColumnsJSON(db DB, table string) Buf
}

// PreparedStepper is the optional combined entry point
// reset + bind-all + step + row-view in one native call. Engines that
// export it enable the driver's deferred select fast path; the driver
// detects it with a type assertion.
type PreparedStepper interface {
	// StepWithParamsRowView binds params (borrowed for the call), steps
	// once, and returns the row view. hasRow is false at end of results.
	StepWithParamsRowView(stmt Stmt, params []ValueView) (row []ValueView, hasRow bool, st Status)
}
