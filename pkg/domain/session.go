package domain

import "time"

// Session is the state a generation session carries between runs.
type Session struct {
	ID string `json:"id"`

	// Satisfied holds the aliases of just_once blocks already realized.
	Satisfied map[string]bool `json:"satisfied"`

	// Carried keeps the records created by just_once blocks so later runs can
	// still reference them.
	Carried []RecordHandle `json:"carried,omitempty"`

	// Sequences holds the last id issued per object type.
	Sequences map[string]int `json:"sequences"`

	// Runs counts completed runs.
	Runs int `json:"runs"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed is set instead of the fields above by stores that encrypt
	// sessions at rest.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Satisfied: make(map[string]bool),
		Sequences: make(map[string]int),
	}
}

// Clone returns a deep copy so a run can stage changes without touching the original.
func (s *Session) Clone() *Session {
	out := *s
	out.Satisfied = make(map[string]bool, len(s.Satisfied))
	for k, v := range s.Satisfied {
		out.Satisfied[k] = v
	}
	out.Sequences = make(map[string]int, len(s.Sequences))
	for k, v := range s.Sequences {
		out.Sequences[k] = v
	}
	out.Carried = append([]RecordHandle(nil), s.Carried...)
	return &out
}

// Normalize fills nil maps left by decoders.
func (s *Session) Normalize() {
	if s.Satisfied == nil {
		s.Satisfied = make(map[string]bool)
	}
	if s.Sequences == nil {
		s.Sequences = make(map[string]int)
	}
}
