package domain

// JustOnceScope defines how long a satisfied just_once block stays satisfied.
type JustOnceScope string

const (
	// ScopeSession remembers just_once blocks per named generation session.
	ScopeSession JustOnceScope = "session"
	// ScopeProcess shares one just_once memory across every run of an Engine.
	ScopeProcess JustOnceScope = "process"
	// ScopeBatch forgets just_once blocks after every run.
	ScopeBatch JustOnceScope = "batch"
)

// ParseJustOnceScope converts a flag or config value into a JustOnceScope.
// An empty value selects ScopeSession.
func ParseJustOnceScope(s string) (JustOnceScope, error) {
	switch JustOnceScope(s) {
	case "", ScopeSession:
		return ScopeSession, nil
	case ScopeProcess:
		return ScopeProcess, nil
	case ScopeBatch:
		return ScopeBatch, nil
	default:
		return "", &ValidationError{Reason: "unknown just_once scope " + s}
	}
}

// ProcessSessionID is the session key used by ScopeProcess.
const ProcessSessionID = "__process__"

// DefaultSessionID is used when a host does not name its session.
const DefaultSessionID = "default"
