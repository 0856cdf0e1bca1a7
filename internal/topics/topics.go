// Package topics holds short grammar explanations a learner can look up by
// name. Nine topics are built in; a YAML file may override them or add more.
package topics

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed builtin.yaml
var builtin []byte

// ErrUnknownTopic is returned by [Catalog.Get] for names it does not hold.
var ErrUnknownTopic = errors.New("topics: unknown topic")

// Topic is one grammar explanation.
type Topic struct {
	Name string `yaml:"name" json:"name"`
	Text string `yaml:"text" json:"text"`
}

type file struct {
	Topics []Topic `yaml:"topics"`
}

// Catalog is an ordered set of topics keyed by name. It is safe for
// concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	order  []string
	topics map[string]Topic
}

// Builtin returns a Catalog holding the built-in topics.
func Builtin() *Catalog {
	c := &Catalog{topics: make(map[string]Topic)}
	if err := c.Load(bytes.NewReader(builtin)); err != nil {
		panic(fmt.Sprintf("topics: builtin catalog: %v", err))
	}
	return c
}

// LoadFile returns the built-in catalog with the topics of path merged in.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("topics: open %q: %w", path, err)
	}
	defer f.Close()

	c := Builtin()
	if err := c.Load(f); err != nil {
		return nil, fmt.Errorf("topics: load %q: %w", path, err)
	}
	return c, nil
}

// Load merges the YAML document in r into c. A topic whose name already
// exists replaces the old text in place; new topics are appended.
func (c *Catalog) Load(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f file
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("topics: decode: %w", err)
	}

	var errs []error
	for i, t := range f.Topics {
		t.Name = normalize(t.Name)
		t.Text = strings.TrimSpace(t.Text)
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("topics[%d]: name is required", i))
		}
		if t.Text == "" {
			errs = append(errs, fmt.Errorf("topics[%d]: text is required", i))
		}
		f.Topics[i] = t
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range f.Topics {
		if _, ok := c.topics[t.Name]; !ok {
			c.order = append(c.order, t.Name)
		}
		c.topics[t.Name] = t
	}
	return nil
}

// Get returns the topic called name. Matching ignores case, and spaces may
// stand in for underscores.
func (c *Catalog) Get(name string) (Topic, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.topics[normalize(name)]
	if !ok {
		return Topic{}, fmt.Errorf("%w: %q", ErrUnknownTopic, name)
	}
	return t, nil
}

// All returns every topic in catalog order.
func (c *Catalog) All() []Topic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Topic, len(c.order))
	for i, n := range c.order {
		out[i] = c.topics[n]
	}
	return out
}

// Names returns every topic name in catalog order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(name), "_")
}
