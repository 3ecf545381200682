//go:build pantrydb_cgo

package native

// Binding against the PantryDB shared library. Kept behind the pantrydb_cgo
// tag so the module builds and tests without the native engine installed;
// untagged builds rely on an explicitly injected or registered Engine.

/*
#cgo LDFLAGS: -lpantrydb -ldl

#include <stdint.h>
#include <stdlib.h>
#include <dlfcn.h>

typedef struct pantrydb_db pantrydb_db;
typedef struct pantrydb_stmt pantrydb_stmt;

typedef struct pantrydb_value_view {
	int32_t  kind;
	int32_t  is_null;
	int64_t  int64_val;
	double   float64_val;
	uint8_t *bytes;
	int32_t  bytes_len;
	int32_t  decimal_scale;
} pantrydb_value_view;

pantrydb_db   *pantrydb_open(const char *path, const char *options);
void           pantrydb_close(pantrydb_db *db);
int            pantrydb_prepare(pantrydb_db *db, const char *sql, pantrydb_stmt **out);
void           pantrydb_finalize(pantrydb_stmt *stmt);
void           pantrydb_reset(pantrydb_stmt *stmt);
void           pantrydb_clear_bindings(pantrydb_stmt *stmt);
int            pantrydb_bind_null(pantrydb_stmt *stmt, int idx);
int            pantrydb_bind_bool(pantrydb_stmt *stmt, int idx, int v);
int            pantrydb_bind_int64(pantrydb_stmt *stmt, int idx, int64_t v);
int            pantrydb_bind_float64(pantrydb_stmt *stmt, int idx, double v);
int            pantrydb_bind_text(pantrydb_stmt *stmt, int idx, const char *buf, int len);
int            pantrydb_bind_blob(pantrydb_stmt *stmt, int idx, const uint8_t *buf, int len);
int            pantrydb_bind_decimal(pantrydb_stmt *stmt, int idx, int64_t unscaled, int scale);
int            pantrydb_step(pantrydb_stmt *stmt);
int64_t        pantrydb_rows_affected(pantrydb_stmt *stmt);
int            pantrydb_column_count(pantrydb_stmt *stmt);
const char    *pantrydb_column_name(pantrydb_stmt *stmt, int i);
int            pantrydb_column_type(pantrydb_stmt *stmt, int i);
int64_t        pantrydb_column_int64(pantrydb_stmt *stmt, int i);
double         pantrydb_column_float64(pantrydb_stmt *stmt, int i);
const uint8_t *pantrydb_column_text(pantrydb_stmt *stmt, int i, int *len);
const uint8_t *pantrydb_column_blob(pantrydb_stmt *stmt, int i, int *len);
int64_t        pantrydb_column_decimal_unscaled(pantrydb_stmt *stmt, int i);
int            pantrydb_column_decimal_scale(pantrydb_stmt *stmt, int i);
int            pantrydb_row_view(pantrydb_stmt *stmt, pantrydb_value_view **out, int *count);
int            pantrydb_last_error_code(pantrydb_db *db);
const char    *pantrydb_last_error_message(pantrydb_db *db);
void           pantrydb_free(void *ptr);
char          *pantrydb_list_tables_json(pantrydb_db *db, int *out_len);
char          *pantrydb_get_table_columns_json(pantrydb_db *db, const char *table, int *out_len);

// Combined reset+bind+step+row_view entry point. Older engine builds do not
// export it, so it is resolved with dlsym rather than linked directly.
typedef int (*pantrydb_step_with_params_fn)(
	pantrydb_stmt *stmt,
	const pantrydb_value_view *params, int n,
	pantrydb_value_view **out, int *out_count, int *out_has_row);

static pantrydb_step_with_params_fn pantrydb_lookup_step_with_params(void) {
	return (pantrydb_step_with_params_fn)dlsym(RTLD_DEFAULT, "pantrydb_step_with_params_row_view");
}

static int pantrydb_call_step_with_params(
	pantrydb_step_with_params_fn fn,
	pantrydb_stmt *stmt,
	const pantrydb_value_view *params, int n,
	pantrydb_value_view **out, int *out_count, int *out_has_row) {
	return fn(stmt, params, n, out, out_count, out_has_row);
}
*/
import "C"

import (
	"runtime"
	"unsafe"
)

func init() {
	Register(NewSharedLibraryEngine())
}

// NewSharedLibraryEngine returns the Engine backed by libpantrydb. The
// combined fast-step entry point is probed once; when the loaded library
// exports it the returned engine also implements PreparedStepper.
func NewSharedLibraryEngine() Engine {
	base := &cgoEngine{}
	if fn := C.pantrydb_lookup_step_with_params(); fn != nil {
		return &cgoFastEngine{cgoEngine: base, step: fn}
	}
	return base
}

type cgoEngine struct{}

type cgoDB struct {
	db *C.pantrydb_db
}

type cgoStmt struct {
	stmt *C.pantrydb_stmt
}

func (e *cgoEngine) Open(path, options string) DB {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	cOpts := C.CString(options)
	defer C.free(unsafe.Pointer(cOpts))

	db := C.pantrydb_open(cPath, cOpts)
	if db == nil {
		return nil
	}
	return &cgoDB{db: db}
}

func (e *cgoEngine) GlobalErrorMessage() string {
	msg := C.pantrydb_last_error_message(nil)
	if msg == nil {
		return ""
	}
	return C.GoString(msg)
}

func (e *cgoEngine) Close(db DB) {
	h := db.(*cgoDB)
	if h.db != nil {
		C.pantrydb_close(h.db)
		h.db = nil
	}
}

func (e *cgoEngine) Prepare(db DB, sql string) (Stmt, Status) {
	cSQL := C.CString(sql)
	defer C.free(unsafe.Pointer(cSQL))

	var out *C.pantrydb_stmt
	res := C.pantrydb_prepare(db.(*cgoDB).db, cSQL, &out)
	if res != 0 {
		return nil, Status(res)
	}
	return &cgoStmt{stmt: out}, StatusOK
}

func (e *cgoEngine) Finalize(stmt Stmt) {
	h := stmt.(*cgoStmt)
	if h.stmt != nil {
		C.pantrydb_finalize(h.stmt)
		h.stmt = nil
	}
}

func (e *cgoEngine) Reset(stmt Stmt)         { C.pantrydb_reset(stmt.(*cgoStmt).stmt) }
func (e *cgoEngine) ClearBindings(stmt Stmt) { C.pantrydb_clear_bindings(stmt.(*cgoStmt).stmt) }

func (e *cgoEngine) BindNull(stmt Stmt, idx int) Status {
	return Status(C.pantrydb_bind_null(stmt.(*cgoStmt).stmt, C.int(idx)))
}

func (e *cgoEngine) BindBool(stmt Stmt, idx int, v bool) Status {
	iv := 0
	if v {
		iv = 1
	}
	return Status(C.pantrydb_bind_bool(stmt.(*cgoStmt).stmt, C.int(idx), C.int(iv)))
}

func (e *cgoEngine) BindInt64(stmt Stmt, idx int, v int64) Status {
	return Status(C.pantrydb_bind_int64(stmt.(*cgoStmt).stmt, C.int(idx), C.int64_t(v)))
}

func (e *cgoEngine) BindFloat64(stmt Stmt, idx int, v float64) Status {
	return Status(C.pantrydb_bind_float64(stmt.(*cgoStmt).stmt, C.int(idx), C.double(v)))
}

func (e *cgoEngine) BindText(stmt Stmt, idx int, buf []byte) Status {
	if len(buf) == 0 {
		return Status(C.pantrydb_bind_text(stmt.(*cgoStmt).stmt, C.int(idx), nil, 0))
	}
	// The engine copies during the call; passing the Go buffer directly is
	// safe under the cgo pointer rules.
	res := C.pantrydb_bind_text(stmt.(*cgoStmt).stmt, C.int(idx),
		(*C.char)(unsafe.Pointer(&buf[0])), C.int(len(buf)))
	runtime.KeepAlive(buf)
	return Status(res)
}

func (e *cgoEngine) BindBlob(stmt Stmt, idx int, buf []byte) Status {
	if len(buf) == 0 {
		return Status(C.pantrydb_bind_blob(stmt.(*cgoStmt).stmt, C.int(idx), nil, 0))
	}
	res := C.pantrydb_bind_blob(stmt.(*cgoStmt).stmt, C.int(idx),
		(*C.uint8_t)(unsafe.Pointer(&buf[0])), C.int(len(buf)))
	runtime.KeepAlive(buf)
	return Status(res)
}

func (e *cgoEngine) BindDecimal(stmt Stmt, idx int, unscaled int64, scale int) Status {
	return Status(C.pantrydb_bind_decimal(stmt.(*cgoStmt).stmt, C.int(idx),
		C.int64_t(unscaled), C.int(scale)))
}

func (e *cgoEngine) Step(stmt Stmt) int {
	return int(C.pantrydb_step(stmt.(*cgoStmt).stmt))
}

func (e *cgoEngine) RowsAffected(stmt Stmt) int64 {
	return int64(C.pantrydb_rows_affected(stmt.(*cgoStmt).stmt))
}

func (e *cgoEngine) ColumnCount(stmt Stmt) int {
	return int(C.pantrydb_column_count(stmt.(*cgoStmt).stmt))
}

func (e *cgoEngine) ColumnName(stmt Stmt, i int) string {
	return C.GoString(C.pantrydb_column_name(stmt.(*cgoStmt).stmt, C.int(i)))
}

func (e *cgoEngine) ColumnType(stmt Stmt, i int) int32 {
	return int32(C.pantrydb_column_type(stmt.(*cgoStmt).stmt, C.int(i)))
}

func (e *cgoEngine) ColumnInt64(stmt Stmt, i int) int64 {
	return int64(C.pantrydb_column_int64(stmt.(*cgoStmt).stmt, C.int(i)))
}

func (e *cgoEngine) ColumnFloat64(stmt Stmt, i int) float64 {
	return float64(C.pantrydb_column_float64(stmt.(*cgoStmt).stmt, C.int(i)))
}

func (e *cgoEngine) ColumnBytes(stmt Stmt, i int) []byte {
	h := stmt.(*cgoStmt)
	var n C.int
	var ptr *C.uint8_t
	if C.pantrydb_column_type(h.stmt, C.int(i)) == C.int(KindBlob) {
		ptr = C.pantrydb_column_blob(h.stmt, C.int(i), &n)
	} else {
		ptr = C.pantrydb_column_text(h.stmt, C.int(i), &n)
	}
	if ptr == nil || n == 0 {
		return nil
	}
	return C.GoBytes(unsafe.Pointer(ptr), n)
}

func (e *cgoEngine) ColumnDecimal(stmt Stmt, i int) (int64, int) {
	h := stmt.(*cgoStmt)
	return int64(C.pantrydb_column_decimal_unscaled(h.stmt, C.int(i))),
		int(C.pantrydb_column_decimal_scale(h.stmt, C.int(i)))
}

func (e *cgoEngine) RowView(stmt Stmt) ([]ValueView, Status) {
	h := stmt.(*cgoStmt)
	var views *C.pantrydb_value_view
	var count C.int
	res := C.pantrydb_row_view(h.stmt, &views, &count)
	if res != 0 {
		return nil, Status(res)
	}
	return viewsFromC(views, int(count)), StatusOK
}

// viewsFromC converts a borrowed C view array. The Bytes slices alias
// engine-owned memory and follow the ValueView borrowing contract.
func viewsFromC(views *C.pantrydb_value_view, count int) []ValueView {
	if views == nil || count <= 0 {
		return nil
	}
	cv := unsafe.Slice(views, count)
	out := make([]ValueView, count)
	for i := range cv {
		out[i] = ValueView{
			Kind:         int32(cv[i].kind),
			IsNull:       int32(cv[i].is_null),
			Int64Val:     int64(cv[i].int64_val),
			Float64Val:   float64(cv[i].float64_val),
			DecimalScale: int32(cv[i].decimal_scale),
		}
		if cv[i].bytes != nil && cv[i].bytes_len > 0 {
			out[i].Bytes = unsafe.Slice((*byte)(unsafe.Pointer(cv[i].bytes)), int(cv[i].bytes_len))
		}
	}
	return out
}

func (e *cgoEngine) LastErrorCode(db DB) int {
	return int(C.pantrydb_last_error_code(db.(*cgoDB).db))
}

func (e *cgoEngine) LastErrorMessage(db DB) string {
	msg := C.pantrydb_last_error_message(db.(*cgoDB).db)
	if msg == nil {
		return ""
	}
	return C.GoString(msg)
}

// cgoBuf owns one engine-allocated buffer, released through pantrydb_free.
type cgoBuf struct {
	ptr unsafe.Pointer
	n   int
}

func (b *cgoBuf) Bytes() []byte {
	if b.ptr == nil || b.n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(b.ptr), b.n)
}

func (b *cgoBuf) Free() {
	if b.ptr != nil {
		C.pantrydb_free(b.ptr)
		b.ptr = nil
		b.n = 0
	}
}

func (e *cgoEngine) ListTablesJSON(db DB) Buf {
	var n C.int
	ptr := C.pantrydb_list_tables_json(db.(*cgoDB).db, &n)
	if ptr == nil {
		return nil
	}
	return &cgoBuf{ptr: unsafe.Pointer(ptr), n: int(n)}
}

func (e *cgoEngine) TableColumnsJSON(db DB, table string) Buf {
	cTable := C.CString(table)
	defer C.free(unsafe.Pointer(cTable))

	var n C.int
	ptr := C.pantrydb_get_table_columns_json(db.(*cgoDB).db, cTable, &n)
	if ptr == nil {
		return nil
	}
	return &cgoBuf{ptr: unsafe.Pointer(ptr), n: int(n)}
}

// cgoFastEngine adds the dlsym-resolved combined entry point.
type cgoFastEngine struct {
	*cgoEngine
	step C.pantrydb_step_with_params_fn
}

func (e *cgoFastEngine) StepWithParamsRowView(stmt Stmt, params []ValueView) ([]ValueView, bool, Status) {
	h := stmt.(*cgoStmt)

	n := len(params)
	var in *C.pantrydb_value_view
	var pin runtime.Pinner
	defer pin.Unpin()

	if n > 0 {
		// The param array crosses into C, so its byte payloads must be
		// pinned for the duration of the call.
		size := C.size_t(n) * C.size_t(unsafe.Sizeof(C.pantrydb_value_view{}))
		in = (*C.pantrydb_value_view)(C.malloc(size))
		defer C.free(unsafe.Pointer(in))
		arr := unsafe.Slice(in, n)
		for i, p := range params {
			arr[i] = C.pantrydb_value_view{
				kind:          C.int32_t(p.Kind),
				is_null:       C.int32_t(p.IsNull),
				int64_val:     C.int64_t(p.Int64Val),
				float64_val:   C.double(p.Float64Val),
				decimal_scale: C.int32_t(p.DecimalScale),
			}
			if len(p.Bytes) > 0 {
				pin.Pin(&p.Bytes[0])
				arr[i].bytes = (*C.uint8_t)(unsafe.Pointer(&p.Bytes[0]))
				arr[i].bytes_len = C.int32_t(len(p.Bytes))
			}
		}
	}

	var out *C.pantrydb_value_view
	var outCount, hasRow C.int
	res := C.pantrydb_call_step_with_params(e.step, h.stmt, in, C.int(n), &out, &outCount, &hasRow)
	if res != 0 {
		return nil, false, Status(res)
	}
	if hasRow == 0 {
		return nil, false, StatusOK
	}
	return viewsFromC(out, int(outCount)), true, StatusOK
}
