package pantrydb

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mesh-intelligence/pantrydb/internal/native"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		st   native.Status
		want *Class
	}{
		{native.StatusIO, ErrOperational},
		{native.StatusCorruption, ErrDatabase},
		{native.StatusConstraint, ErrIntegrity},
		{native.StatusTransaction, ErrOperational},
		{native.StatusSQL, ErrProgramming},
		{native.StatusInternal, ErrInternal},
		{native.StatusLocked, ErrOperational},
		{native.StatusNotFound, ErrOperational},
		{native.Status(999), ErrDatabase},
	}
	for _, tt := range tests {
		if got := classifyStatus(tt.st); got != tt.want {
			t.Errorf("classifyStatus(%d) = %v, want %v", tt.st, got, tt.want)
		}
	}
}

func TestErrorHierarchy(t *testing.T) {
	err := newError(ErrIntegrity, "duplicate key")
	for _, target := range []error{ErrIntegrity, ErrDatabase, ErrDriver} {
		if !errors.Is(err, target) {
			t.Errorf("errors.Is(err, %v) = false", target)
		}
	}
	for _, target := range []error{ErrInterface, ErrOperational, ErrProgramming} {
		if errors.Is(err, target) {
			t.Errorf("errors.Is(err, %v) = true", target)
		}
	}
}

func TestErrorMessageIncludesClassAndContext(t *testing.T) {
	e := &Error{Message: "boom", Context: `{"sql":"SELECT 1"}`, class: ErrOperational}
	got := e.Error()
	if !strings.Contains(got, "operational error") || !strings.Contains(got, "boom") {
		t.Errorf("Error() = %q", got)
	}
	if !strings.Contains(got, `"sql"`) {
		t.Errorf("Error() = %q, missing context", got)
	}
}

func TestRenderErrorContextCapsStrings(t *testing.T) {
	long := strings.Repeat("x", 500)
	out := renderErrorContext(5, "SELECT ?", []any{long})
	var ctx map[string]any
	if err := json.Unmarshal([]byte(out), &ctx); err != nil {
		t.Fatalf("context is not JSON: %v", err)
	}
	params := ctx["params"].([]any)
	got := params[0].(string)
	if len(got) != errCtxMaxString+3 {
		t.Errorf("capped string length = %d, want %d", len(got), errCtxMaxString+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("capped string = %q, want ... suffix", got[len(got)-10:])
	}
}

func TestRenderErrorContextCapsBytes(t *testing.T) {
	blob := make([]byte, 4096)
	for i := range blob {
		blob[i] = byte(i)
	}
	out := renderErrorContext(5, "INSERT", []any{blob})
	var ctx map[string]any
	if err := json.Unmarshal([]byte(out), &ctx); err != nil {
		t.Fatalf("context is not JSON: %v", err)
	}
	got := ctx["params"].([]any)[0].(string)
	if !strings.HasPrefix(got, "bytes[4096] ") {
		t.Errorf("blob rendering = %q", got)
	}
	// Only the first 64 bytes appear, hex encoded.
	hexPart := strings.TrimPrefix(got, "bytes[4096] ")
	if len(hexPart) != errCtxMaxBytes*2 {
		t.Errorf("hex prefix length = %d, want %d", len(hexPart), errCtxMaxBytes*2)
	}
}

func TestRenderErrorContextCapsEntries(t *testing.T) {
	params := make([]any, 80)
	for i := range params {
		params[i] = i
	}
	out := renderErrorContext(5, "INSERT", params)
	var ctx map[string]any
	if err := json.Unmarshal([]byte(out), &ctx); err != nil {
		t.Fatalf("context is not JSON: %v", err)
	}
	rendered := ctx["params"].([]any)
	// 50 values plus one truncation marker.
	if len(rendered) != errCtxMaxEntries+1 {
		t.Fatalf("rendered %d entries, want %d", len(rendered), errCtxMaxEntries+1)
	}
	marker, ok := rendered[errCtxMaxEntries].(string)
	if !ok || !strings.Contains(marker, "30 more") {
		t.Errorf("truncation marker = %v", rendered[errCtxMaxEntries])
	}
}

func TestRenderErrorContextNamedParams(t *testing.T) {
	out := renderErrorContext(5, "UPDATE t SET a = :a", map[string]any{"a": 7})
	var ctx map[string]any
	if err := json.Unmarshal([]byte(out), &ctx); err != nil {
		t.Fatalf("context is not JSON: %v", err)
	}
	params := ctx["params"].(map[string]any)
	if params["a"] != float64(7) {
		t.Errorf("params = %v", params)
	}
	if ctx["sql"] != "UPDATE t SET a = :a" {
		t.Errorf("sql = %v", ctx["sql"])
	}
}
