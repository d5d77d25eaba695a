package domain

import "strconv"

// RecordRef is the stable identity of a generated record.
// References resolve to a RecordRef, never to the record's field set.
type RecordRef struct {
	ObjectType string `json:"object"`
	ID         int    `json:"id"`
}

// String renders the reference as "Object-ID".
func (r RecordRef) String() string {
	return r.ObjectType + "-" + strconv.Itoa(r.ID)
}

// FieldValue is one resolved field of a record.
type FieldValue struct {
	Name  string
	Value any
}

// GeneratedRecord is an immutable record produced by the engine.
type GeneratedRecord struct {
	ObjectType string
	Nickname   string
	// ID is the per-type sequence id, starting at 1 and monotonic within a session.
	ID     int
	Values []FieldValue
}

// Ref returns the record identity.
func (r GeneratedRecord) Ref() RecordRef {
	return RecordRef{ObjectType: r.ObjectType, ID: r.ID}
}

// Handle returns the reference-resolution view of the record.
func (r GeneratedRecord) Handle() RecordHandle {
	return RecordHandle{ObjectType: r.ObjectType, Nickname: r.Nickname, ID: r.ID}
}

// Field returns the value of a named field.
func (r GeneratedRecord) Field(name string) (any, bool) {
	for _, fv := range r.Values {
		if fv.Name == name {
			return fv.Value, true
		}
	}
	return nil, false
}

// Map returns the field values keyed by name.
func (r GeneratedRecord) Map() map[string]any {
	out := make(map[string]any, len(r.Values))
	for _, fv := range r.Values {
		out[fv.Name] = fv.Value
	}
	return out
}

// FieldNames returns the field names in declaration order.
func (r GeneratedRecord) FieldNames() []string {
	names := make([]string, len(r.Values))
	for i, fv := range r.Values {
		names[i] = fv.Name
	}
	return names
}

// RecordHandle is the part of a record that outlives a run: enough to resolve
// references to it from later runs of the same session.
type RecordHandle struct {
	ObjectType string `json:"object"`
	Nickname   string `json:"nickname,omitempty"`
	ID         int    `json:"id"`
}

// Ref returns the identity of the handled record.
func (h RecordHandle) Ref() RecordRef {
	return RecordRef{ObjectType: h.ObjectType, ID: h.ID}
}
