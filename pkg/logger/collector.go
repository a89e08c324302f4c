package logger

import (
	"sync"
	"time"
)

// Entry is one retained log record.
type Entry struct {
	Time    time.Time              `json:"time"`
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
	Caller  string                 `json:"caller"`
}

// Collector retains the most recent warn/error entries in a bounded ring so
// they can be inspected over the API without grepping process output.
type Collector struct {
	mu      sync.Mutex
	max     int
	entries []Entry
	next    int
	full    bool
}

func NewCollector(max int) *Collector {
	if max <= 0 {
		max = 200
	}
	return &Collector{
		max:     max,
		entries: make([]Entry, max),
	}
}

func (c *Collector) Add(level, message string, fields map[string]interface{}, caller string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[c.next] = Entry{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Fields:  fields,
		Caller:  caller,
	}
	c.next = (c.next + 1) % c.max
	if c.next == 0 {
		c.full = true
	}
}

// Recent returns retained entries, oldest first.
func (c *Collector) Recent() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.full {
		out := make([]Entry, c.next)
		copy(out, c.entries[:c.next])
		return out
	}
	out := make([]Entry, 0, c.max)
	out = append(out, c.entries[c.next:]...)
	out = append(out, c.entries[:c.next]...)
	return out
}
