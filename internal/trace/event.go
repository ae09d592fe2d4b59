package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd
	// KindPoint represents an instant event.
	KindPoint
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity level of the event.
// Lower numeric values represent coarser events.
type Scope uint8

const (
	// ScopeSession covers whole CLI commands and workspace sessions.
	ScopeSession Scope = iota + 1
	// ScopeMerge covers one merge call or one pass pipeline.
	ScopeMerge
	// ScopeStep covers merge decisions, single passes and file I/O.
	ScopeStep
	// ScopeDef covers single definitions (most detailed).
	ScopeDef
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeSession:
		return "session"
	case ScopeMerge:
		return "merge"
	case ScopeStep:
		return "step"
	case ScopeDef:
		return "def"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time         // wall-clock timestamp
	Seq      uint64            // global sequence number (monotonic)
	Kind     Kind              // event kind
	Scope    Scope             // granularity level
	SpanID   uint64            // unique span identifier
	ParentID uint64            // parent span (0 if root)
	Name     string            // e.g. "merge", "pass:symbol-dce"
	Detail   string            // optional detail message
	Extra    map[string]string // extensible key-value pairs
}
