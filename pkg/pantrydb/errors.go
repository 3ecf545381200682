package pantrydb

import "fmt"

// The driver error hierarchy:
//
//	ErrDriver
//	├── ErrInterface
//	└── ErrDatabase
//	    ├── ErrOperational
//	    ├── ErrProgramming
//	    ├── ErrIntegrity
//	    ├── ErrData
//	    ├── ErrInternal
//	    └── ErrNotSupported
//
// Every error the driver returns is an *Error whose Unwrap chain walks up
// this tree, so errors.Is(err, ErrDatabase) matches any database-side
// failure while errors.Is(err, ErrIntegrity) matches only constraint
// violations.

// Class is one category in the driver error hierarchy. Classes are only
// created by this package; use them as errors.Is targets.
type Class struct {
	name   string
	parent *Class
}

func (c *Class) Error() string { return c.name }

// Unwrap climbs toward the hierarchy root.
func (c *Class) Unwrap() error {
	if c.parent == nil {
		return nil
	}
	return c.parent
}

var (
	// ErrDriver is the root of the hierarchy.
	ErrDriver = &Class{name: "pantrydb error"}
	// ErrInterface reports misuse of the driver boundary itself, such as
	// connecting with no native engine available.
	ErrInterface = &Class{name: "interface error", parent: ErrDriver}
	// ErrDatabase is the parent of every engine-side failure and the
	// fallback class for unknown native codes.
	ErrDatabase = &Class{name: "database error", parent: ErrDriver}
	// ErrOperational covers I/O, locking, transaction-state, and
	// not-found failures.
	ErrOperational = &Class{name: "operational error", parent: ErrDatabase}
	// ErrProgramming covers malformed SQL, parameter style and arity
	// mismatches, and use of closed connections or cursors.
	ErrProgramming = &Class{name: "programming error", parent: ErrDatabase}
	// ErrIntegrity covers constraint violations.
	ErrIntegrity = &Class{name: "integrity error", parent: ErrDatabase}
	// ErrData covers value conversion and overflow failures.
	ErrData = &Class{name: "data error", parent: ErrDatabase}
	// ErrInternal covers faults inside the native engine.
	ErrInternal = &Class{name: "internal error", parent: ErrDatabase}
	// ErrNotSupported covers operations the engine does not implement.
	ErrNotSupported = &Class{name: "not supported", parent: ErrDatabase}
)

// Error is a concrete driver error: its class, the native status code when
// one exists (0 otherwise), the engine or driver message, and an optional
// capped diagnostic context block.
type Error struct {
	NativeCode int
	Message    string
	Context    string

	class *Class
}

func (e *Error) Error() string {
	msg := e.class.name + ": " + e.Message
	if e.Context != "" {
		msg += "\nContext: " + e.Context
	}
	return msg
}

// Unwrap returns the error's class so errors.Is walks the hierarchy.
func (e *Error) Unwrap() error { return e.class }

func newError(class *Class, format string, args ...any) *Error {
	return &Error{class: class, Message: fmt.Sprintf(format, args...)}
}
