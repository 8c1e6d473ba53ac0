// Package debuglog provides opt-in tracing for the indexing and resolution
// pipelines. It is silent by default; set CODEGRAPH_DEBUG=1 to enable.
package debuglog

import (
	"fmt"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	enabled = os.Getenv("CODEGRAPH_DEBUG") == "1"
	out     = os.Stderr
)

// SetEnabled overrides the environment-derived default, mainly for tests.
func SetEnabled(v bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = v
}

// Enabled reports whether tracing is currently active.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Tracef writes a trace line tagged with component, if tracing is enabled.
// Calls are cheap when disabled: the format string is never evaluated.
func Tracef(component, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled {
		return
	}
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(out, "[%s] %s: %s\n", ts, component, fmt.Sprintf(format, args...))
}
