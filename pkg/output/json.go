package output

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/goccy/go-json"
)

// JSONWriter streams records as a JSON array, one object per line.
// Each object carries "_type" and "id" followed by the fields in
// declaration order.
type JSONWriter struct {
	w       io.Writer
	started bool
	closed  bool
}

// NewJSONWriter creates a JSON writer over w.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w}
}

// Write appends records to the array.
func (j *JSONWriter) Write(ctx context.Context, records []domain.GeneratedRecord) error {
	var buf bytes.Buffer
	for _, rec := range records {
		if j.started {
			buf.WriteString(",\n  ")
		} else {
			buf.WriteString("[\n  ")
			j.started = true
		}
		b, err := MarshalRecord(rec)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	_, err := j.w.Write(buf.Bytes())
	return err
}

// Close terminates the array.
func (j *JSONWriter) Close() error {
	if j.closed {
		return nil
	}
	j.closed = true
	if !j.started {
		_, err := io.WriteString(j.w, "[]\n")
		return err
	}
	_, err := io.WriteString(j.w, "\n]\n")
	return err
}

// MarshalRecord encodes a record as a JSON object with ordered keys.
func MarshalRecord(rec domain.GeneratedRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"_type":`)
	if err := encode(&buf, rec.ObjectType); err != nil {
		return nil, err
	}
	buf.WriteString(`,"id":`)
	if err := encode(&buf, rec.ID); err != nil {
		return nil, err
	}
	for _, fv := range rec.Values {
		buf.WriteByte(',')
		if err := encode(&buf, fv.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encode(&buf, jsonValue(fv.Value)); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func jsonValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.DateOnly)
	}
	return v
}
