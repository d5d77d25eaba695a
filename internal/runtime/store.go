package runtime

import "github.com/aretw0/seedbed/pkg/domain"

// RecordStore holds what a run can reference: the records it has appended,
// plus handles carried over from earlier runs of the same session.
// Only the engine goroutine touches a store.
type RecordStore struct {
	records   []domain.GeneratedRecord
	byAlias   map[string][]domain.RecordHandle
	byType    map[string][]domain.RecordHandle
	sequences map[string]int
}

// NewRecordStore seeds a store with carried handles and the last issued id per type.
func NewRecordStore(carried []domain.RecordHandle, sequences map[string]int) *RecordStore {
	s := &RecordStore{
		byAlias:   make(map[string][]domain.RecordHandle),
		byType:    make(map[string][]domain.RecordHandle),
		sequences: make(map[string]int, len(sequences)),
	}
	for k, v := range sequences {
		s.sequences[k] = v
	}
	for _, h := range carried {
		s.index(h)
	}
	return s
}

// NextID returns the id the next record of objectType will receive.
func (s *RecordStore) NextID(objectType string) int {
	return s.sequences[objectType] + 1
}

// Append adds a fully built record and advances its type's sequence.
func (s *RecordStore) Append(rec domain.GeneratedRecord) {
	s.records = append(s.records, rec)
	if rec.ID > s.sequences[rec.ObjectType] {
		s.sequences[rec.ObjectType] = rec.ID
	}
	s.index(rec.Handle())
}

func (s *RecordStore) index(h domain.RecordHandle) {
	if h.Nickname != "" {
		s.byAlias[h.Nickname] = append(s.byAlias[h.Nickname], h)
	}
	s.byType[h.ObjectType] = append(s.byType[h.ObjectType], h)
}

// Lookup returns the records a reference to alias can see, oldest first.
// Nicknames win over object types.
func (s *RecordStore) Lookup(alias string) []domain.RecordHandle {
	if hs := s.byAlias[alias]; len(hs) > 0 {
		return hs
	}
	return s.byType[alias]
}

// Records returns the records appended during this run, in creation order.
func (s *RecordStore) Records() []domain.GeneratedRecord {
	return append([]domain.GeneratedRecord(nil), s.records...)
}

// Len returns the number of records appended during this run.
func (s *RecordStore) Len() int {
	return len(s.records)
}

// Sequences returns a copy of the last issued id per object type.
func (s *RecordStore) Sequences() map[string]int {
	out := make(map[string]int, len(s.sequences))
	for k, v := range s.sequences {
		out[k] = v
	}
	return out
}
