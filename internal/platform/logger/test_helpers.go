package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Capture collects log output in tests. It is safe for concurrent writers.
type Capture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *Capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

func (c *Capture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// Entries decodes the captured output as a stream of JSON records.
func (c *Capture) Entries() ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(c.String())))

	var entries []map[string]any
	for {
		var entry map[string]any
		err := dec.Decode(&entry)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(entries)+1, err)
		}
		entries = append(entries, entry)
	}
}
