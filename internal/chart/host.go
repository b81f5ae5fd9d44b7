package chart

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Mount is a plain element identified by id.
type Mount string

func (m Mount) ID() string { return string(m) }

// Mounts is a Document holding a fixed set of mount ids.
type Mounts map[string]struct{}

// NewMounts returns a document declaring the given ids.
func NewMounts(ids ...string) Mounts {
	m := make(Mounts, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func (m Mounts) ElementByID(id string) (Element, bool) {
	if _, ok := m[id]; !ok {
		return nil, false
	}
	return Mount(id), true
}

// JSONWriter is a Factory that writes each constructed config to w as
// indented JSON.
type JSONWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w}
}

func (j *JSONWriter) NewChart(_ Element, cfg Config) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode chart config: %w", err)
	}
	return nil
}

// Collector is a Factory that keeps every config it is asked to build,
// keyed by mount id.
type Collector struct {
	mu     sync.Mutex
	charts map[string]Config
}

func NewCollector() *Collector {
	return &Collector{charts: make(map[string]Config)}
}

func (c *Collector) NewChart(mount Element, cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.charts[mount.ID()] = cfg
	return nil
}

// Chart returns the config bound to id, if any.
func (c *Collector) Chart(id string) (Config, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cfg, ok := c.charts[id]
	return cfg, ok
}

// Len reports how many charts were constructed.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.charts)
}
