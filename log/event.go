package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"
)

// EventSink receives encoded process events, one JSON object per call.
type EventSink interface {
	WriteEvent(line string)
}

// WriterSink appends each event as a line to an io.Writer.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) WriteEvent(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.w, line)
	io.WriteString(s.w, "\n")
}

// ProcessEvent is a lifecycle record of a guest process (start, exit, fault).
type ProcessEvent struct {
	Time     time.Time       `json:"time"`
	Process  string          `json:"process_id"`
	Kind     string          `json:"kind"`
	Payload  json.RawMessage `json:"payload"`
	Detail   *string         `json:"detail,omitempty"`
	Elapsed  uint32          `json:"elapsed_ms,omitempty"`
	ExitCode string          `json:"exit_code,omitempty"`
}

var fieldOrder = []string{"time", "process_id", "kind", "payload", "detail", "elapsed_ms", "exit_code"}

// MarshalJSON keeps the field order stable and omits zero optional values.
func (e ProcessEvent) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	writeField := func(key string, val []byte) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(buf, `"%s":`, key)
		buf.Write(val)
	}
	for _, f := range fieldOrder {
		switch f {
		case "time":
			b, _ := json.Marshal(e.Time)
			writeField(f, b)
		case "process_id":
			b, _ := json.Marshal(e.Process)
			writeField(f, b)
		case "kind":
			b, _ := json.Marshal(e.Kind)
			writeField(f, b)
		case "payload":
			if len(e.Payload) == 0 {
				writeField(f, []byte("null"))
			} else {
				writeField(f, e.Payload)
			}
		case "detail":
			if e.Detail != nil {
				b, _ := json.Marshal(*e.Detail)
				writeField(f, b)
			}
		case "elapsed_ms":
			if e.Elapsed != 0 {
				b, _ := json.Marshal(e.Elapsed)
				writeField(f, b)
			}
		case "exit_code":
			if e.ExitCode != "" {
				b, _ := json.Marshal(e.ExitCode)
				writeField(f, b)
			}
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Emit encodes a process event and hands it to the root logger's sink.
// Recognized keys in kv: "detail", "elapsed", "exit_code", "time".
func Emit(kind string, processID string, payload interface{}, kv ...interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		Error(HostMonitoring, "Emit: failed to marshal payload", "err", err)
		return
	}

	ev := ProcessEvent{
		Time:    time.Now().UTC(),
		Process: processID,
		Kind:    kind,
		Payload: raw,
	}

	kvMap := toMap(kv...)
	if d, ok := kvMap["detail"]; ok && d != nil {
		s := fmt.Sprint(d)
		ev.Detail = &s
	}
	if v, ok := kvMap["elapsed"]; ok {
		ev.Elapsed = parseUint32(v)
	}
	if v, ok := kvMap["exit_code"]; ok {
		ev.ExitCode = fmt.Sprint(v)
	}
	if v, ok := kvMap["time"]; ok {
		if t, ok := v.(time.Time); ok {
			ev.Time = t
		}
	}

	line, err := json.Marshal(ev)
	if err != nil {
		Error(HostMonitoring, "Emit: failed to marshal event", "err", err)
		return
	}
	Root().Event(string(line))
}

func toMap(kv ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			m[k] = kv[i+1]
		}
	}
	return m
}

func parseUint32(v interface{}) uint32 {
	switch t := v.(type) {
	case int:
		return uint32(t)
	case int64:
		return uint32(t)
	case float64:
		return uint32(t)
	case uint32:
		return t
	case uint64:
		return uint32(t)
	case string:
		if n, err := strconv.ParseUint(t, 10, 32); err == nil {
			return uint32(n)
		}
	}
	return 0
}
