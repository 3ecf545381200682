package pantrydb

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/pantrydb/internal/codec"
	"github.com/mesh-intelligence/pantrydb/internal/native"
)

// Caps applied when rendering parameter values into error context, so a
// failing bulk insert cannot balloon the error message.
const (
	errCtxMaxString  = 200
	errCtxMaxBytes   = 64
	errCtxMaxEntries = 50
)

// classifyStatus maps a native status code onto an error class. Unknown
// codes land on the generic database class.
func classifyStatus(st native.Status) *Class {
	switch st {
	case native.StatusConstraint:
		return ErrIntegrity
	case native.StatusTransaction, native.StatusIO, native.StatusLocked, native.StatusNotFound:
		return ErrOperational
	case native.StatusSQL:
		return ErrProgramming
	case native.StatusCorruption:
		return ErrDatabase
	case native.StatusInternal:
		return ErrInternal
	default:
		return ErrDatabase
	}
}

// raise reads the connection's last native error and wraps it, attaching
// the statement text and parameters that triggered it when provided.
func (c *Connection) raise(sql string, params any) error {
	code := c.eng.LastErrorCode(c.db)
	msg := c.eng.LastErrorMessage(c.db)
	if msg == "" {
		msg = fmt.Sprintf("native engine error (code %d)", code)
	}
	e := &Error{
		NativeCode: code,
		Message:    msg,
		class:      classifyStatus(native.Status(code)),
	}
	if sql != "" {
		e.Context = renderErrorContext(code, sql, params)
	}
	return e
}

// renderErrorContext builds a small JSON block describing the failed call.
// Rendering is best effort; an empty string is returned if encoding fails.
func renderErrorContext(code int, sql string, params any) string {
	ctx := map[string]any{
		"native_code": code,
		"sql":         capString(sql),
	}
	if p := formatParamsForError(params); p != nil {
		ctx["params"] = p
	}
	out, err := json.Marshal(ctx)
	if err != nil {
		return ""
	}
	return string(out)
}

func formatParamsForError(params any) any {
	switch p := params.(type) {
	case nil:
		return nil
	case []any:
		n := len(p)
		truncated := false
		if n > errCtxMaxEntries {
			n = errCtxMaxEntries
			truncated = true
		}
		out := make([]any, 0, n+1)
		for _, v := range p[:n] {
			out = append(out, formatValueForError(v))
		}
		if truncated {
			out = append(out, fmt.Sprintf("... %d more", len(p)-n))
		}
		return out
	case []codec.Value:
		anys := make([]any, len(p))
		for i, v := range p {
			anys[i] = valueToAny(v)
		}
		return formatParamsForError(anys)
	case map[string]any:
		out := make(map[string]any, len(p))
		seen := 0
		for k, v := range p {
			if seen == errCtxMaxEntries {
				out["..."] = fmt.Sprintf("%d more", len(p)-seen)
				break
			}
			out[k] = formatValueForError(v)
			seen++
		}
		return out
	default:
		return formatValueForError(params)
	}
}

func formatValueForError(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return capString(x)
	case []byte:
		n := len(x)
		prefix := x
		if n > errCtxMaxBytes {
			prefix = x[:errCtxMaxBytes]
		}
		return fmt.Sprintf("bytes[%d] %s", n, hex.EncodeToString(prefix))
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return x
	case codec.Decimal:
		return x.String()
	default:
		return capString(fmt.Sprintf("%v", x))
	}
}

func capString(s string) string {
	if len(s) <= errCtxMaxString {
		return s
	}
	return s[:errCtxMaxString] + "..."
}

func valueToAny(v codec.Value) any {
	switch v.Kind() {
	case native.KindNull:
		return nil
	case native.KindBool:
		return v.BoolVal()
	case native.KindInt64:
		return v.Int64Val()
	case native.KindFloat64:
		return v.Float64Val()
	case native.KindText:
		return string(v.BytesVal())
	case native.KindBlob:
		return v.BytesVal()
	case native.KindDecimal:
		return v.DecimalVal()
	default:
		return nil
	}
}
