package audit

import (
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"
)

// Entry describes a single JSON-RPC call.
type Entry struct {
	RequestID string        `json:"request_id,omitempty"`
	Method    string        `json:"method"`
	ID        string        `json:"id"`
	Tool      string        `json:"tool,omitempty"`
	Code      int           `json:"code"`
	Degraded  bool          `json:"degraded,omitempty"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
	Time      time.Time     `json:"time"`
}

// Logger emits audit entries as JSON lines.
type Logger struct {
	enabled bool
	mu      sync.Mutex
	out     io.Writer
	now     func() time.Time
}

// New creates a new audit logger writing to the provided writer.
func New(enabled bool, out io.Writer) *Logger {
	if out == nil {
		out = log.Writer()
	}
	return &Logger{enabled: enabled, out: out, now: time.Now}
}

// Log writes an audit entry if enabled. A zero Time is stamped with now.
func (l *Logger) Log(entry Entry) {
	if l == nil || !l.enabled {
		return
	}
	if entry.Time.IsZero() {
		entry.Time = l.now()
	}
	entry.Time = entry.Time.UTC()
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Write(append(data, '\n'))
}
