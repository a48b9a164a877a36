package trace

import (
	"fmt"
	"strings"
	"time"
)

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

var kindNames = [...]string{
	KindSpanBegin: "begin",
	KindSpanEnd:   "end",
	KindPoint:     "point",
	KindHeartbeat: "heartbeat",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is the granularity of an event; smaller is coarser.
type Scope uint8

const (
	// ScopeBuild covers a whole CLI invocation.
	ScopeBuild Scope = iota + 1
	// ScopePass covers one pipeline stage (install, resolve, lower, emit).
	ScopePass
	// ScopeFunc covers one function inside a pass.
	ScopeFunc
	// ScopeInstr is per-instruction detail.
	ScopeInstr
)

var scopeNames = [...]string{
	ScopeBuild: "build",
	ScopePass:  "pass",
	ScopeFunc:  "func",
	ScopeInstr: "instr",
}

func (s Scope) String() string {
	if int(s) < len(scopeNames) && scopeNames[s] != "" {
		return scopeNames[s]
	}
	return "unknown"
}

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // recorded up to functions, never streamed; the ring is dumped on internal errors
	LevelPhase        // build and pass spans
	LevelDetail       // plus functions
	LevelDebug        // everything
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a flag value to a Level; case is ignored.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether events of scope are recorded at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelError:
		return scope <= ScopeFunc
	case LevelPhase:
		return scope <= ScopePass
	case LevelDetail:
		return scope <= ScopeFunc
	case LevelDebug:
		return true
	}
	return false
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // monotonic across the process
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	Lane     uint64 // 1 for the pipeline, 2 for the heartbeat
	Name     string // "lower", "main", ...
	Detail   string
	Extra    map[string]string
}
