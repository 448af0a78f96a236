package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Entry is one decoded line of vconv.log.
type Entry struct {
	Time         time.Time
	Level        string
	Message      string
	Component    string
	ConversionID string
	Backend      string
	Attrs        map[string]any
}

var reservedKeys = map[string]struct{}{
	"ts": {}, "time": {}, "level": {}, "msg": {}, "component": {},
	"conversion_id": {}, "backend": {}, "session_id": {},
}

// Parse decodes a JSON log line. Lines that are not JSON objects report false.
func Parse(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return Entry{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}

	entry := Entry{
		Level:        stringField(raw, "level"),
		Message:      stringField(raw, "msg"),
		Component:    stringField(raw, "component"),
		ConversionID: stringField(raw, "conversion_id"),
		Backend:      stringField(raw, "backend"),
	}
	for _, key := range []string{"ts", "time"} {
		if value := stringField(raw, key); value != "" {
			if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
				entry.Time = ts
				break
			}
		}
	}
	for key, value := range raw {
		if _, skip := reservedKeys[key]; skip {
			continue
		}
		if entry.Attrs == nil {
			entry.Attrs = make(map[string]any)
		}
		entry.Attrs[key] = value
	}
	return entry, true
}

// Matches reports whether e belongs to the conversion whose ID starts with
// prefix. An empty prefix matches everything.
func (e Entry) Matches(prefix string) bool {
	prefix = strings.TrimPrefix(strings.TrimSpace(prefix), "#")
	return prefix == "" || strings.HasPrefix(e.ConversionID, prefix)
}

// Format renders e on one line: time, level, subject, message, then the
// remaining attributes sorted by key.
func (e Entry) Format() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", strings.ToUpper(e.Level))

	var subject []string
	if e.ConversionID != "" {
		id := e.ConversionID
		if len(id) > 8 {
			id = id[:8]
		}
		subject = append(subject, "#"+id)
	}
	if e.Backend != "" {
		subject = append(subject, e.Backend)
	} else if e.Component != "" {
		subject = append(subject, e.Component)
	}
	if len(subject) > 0 {
		b.WriteString(" [" + strings.Join(subject, " ") + "]")
	}
	b.WriteString(" " + e.Message)

	keys := make([]string, 0, len(e.Attrs))
	for key := range e.Attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, e.Attrs[key])
	}
	return b.String()
}

func stringField(raw map[string]any, key string) string {
	if value, ok := raw[key].(string); ok {
		return value
	}
	return ""
}
