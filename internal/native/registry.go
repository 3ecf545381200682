package native

import "sync"

// Process-default engine. The CGo binding registers itself here from an
// init function; embedders and tests may call Register directly. Guarded by
// a mutex so registration and lookup are safe from any goroutine, which is
// the one concurrency guarantee this package makes.
var (
	defaultMu     sync.RWMutex
	defaultEngine Engine
)

// Register installs eng as the process-default engine used by connections
// that do not inject one explicitly. Later calls replace earlier ones.
func Register(eng Engine) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultEngine = eng
}

// Default returns the process-default engine, or nil if none is registered.
func Default() Engine {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultEngine
}
