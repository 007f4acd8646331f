package harvest

import (
	"bytes"
	"strings"
)

// ParseRunLog returns the object keys listed in a run log, one per line.
// Blank lines are skipped.
func ParseRunLog(data []byte) []string {
	var keys []string
	for line := range strings.SplitSeq(string(data), "\n") {
		if key := strings.TrimSpace(line); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// FormatRunLog renders keys as a run log, each key terminated by a newline.
func FormatRunLog(keys []string) []byte {
	var buf bytes.Buffer
	for _, key := range keys {
		buf.WriteString(key)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// runLog accumulates the keys published by the current run in order.
type runLog struct {
	keys []string
	seen map[string]struct{}
}

func newRunLog() *runLog {
	return &runLog{seen: make(map[string]struct{})}
}

func (l *runLog) add(key string) {
	if _, ok := l.seen[key]; ok {
		return
	}
	l.seen[key] = struct{}{}
	l.keys = append(l.keys, key)
}

func (l *runLog) contains(key string) bool {
	_, ok := l.seen[key]
	return ok
}

func (l *runLog) size() int {
	return len(l.keys)
}
