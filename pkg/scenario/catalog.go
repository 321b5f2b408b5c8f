// Package scenario holds the catalog of surveillance feeds an operator can
// run the agents against.
package scenario

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownScenario is returned when a key is not in the catalog
var ErrUnknownScenario = errors.New("unknown scenario")

// ErrInvalidURI is returned for video URIs that are not gs://bucket/object
var ErrInvalidURI = errors.New("invalid gcs uri")

// VideoMIMEType is the content type of every scenario feed
const VideoMIMEType = "video/mp4"

// Scenario is one surveillance feed
type Scenario struct {
	Key         string `yaml:"key" json:"key"`
	Label       string `yaml:"label" json:"label"`
	URI         string `yaml:"uri" json:"uri"`
	Description string `yaml:"description" json:"description"`
}

// Catalog is an ordered set of scenarios. The first entry is the default.
type Catalog struct {
	items []Scenario
	byKey map[string]int
}

// Builtin returns the feeds recorded for the Tokyo demo bucket
func Builtin() []Scenario {
	return []Scenario{
		{
			Key:         "relax",
			Label:       "シナリオ A: 待機中 (Relax)",
			URI:         "gs://paw-guardian-tokyo/Relax.mp4",
			Description: "安全：リラックス状態",
		},
		{
			Key:         "low_anxiety",
			Label:       "シナリオ B: 軽度の不安 (Low Anxiety)",
			URI:         "gs://paw-guardian-tokyo/Low Anxiety.mp4",
			Description: "注意：初期の不安兆候",
		},
		{
			Key:         "high_anxiety",
			Label:       "シナリオ C: 重度の不安 (High Anxiety)",
			URI:         "gs://paw-guardian-tokyo/High Anxiety.mp4",
			Description: "警告：重度の分離不安",
		},
		{
			Key:         "nothing",
			Label:       "シナリオ D: 空席 (Nothing)",
			URI:         "gs://paw-guardian-tokyo/Nothing.mp4",
			Description: "待機：車内無人",
		},
	}
}

// NewCatalog builds a catalog, rejecting empty, duplicate or malformed entries
func NewCatalog(items []Scenario) (*Catalog, error) {
	if len(items) == 0 {
		return nil, errors.New("scenario catalog is empty")
	}
	c := &Catalog{
		items: make([]Scenario, 0, len(items)),
		byKey: make(map[string]int, len(items)),
	}
	for _, s := range items {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byKey[s.Key]; dup {
			return nil, fmt.Errorf("duplicate scenario key %q", s.Key)
		}
		c.byKey[s.Key] = len(c.items)
		c.items = append(c.items, s)
	}
	return c, nil
}

// MustBuiltinCatalog returns the built-in catalog
func MustBuiltinCatalog() *Catalog {
	c, err := NewCatalog(Builtin())
	if err != nil {
		panic(err)
	}
	return c
}

// Validate checks that a scenario has a key and a gs:// video
func (s Scenario) Validate() error {
	if strings.TrimSpace(s.Key) == "" {
		return errors.New("scenario key is required")
	}
	if _, _, err := ParseGCSURI(s.URI); err != nil {
		return fmt.Errorf("scenario %q: %w", s.Key, err)
	}
	return nil
}

// Default returns the scenario selected when none is given
func (c *Catalog) Default() Scenario {
	return c.items[0]
}

// Lookup finds a scenario by key. An empty key yields the default.
func (c *Catalog) Lookup(key string) (Scenario, error) {
	if key == "" {
		return c.Default(), nil
	}
	i, ok := c.byKey[key]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %s", ErrUnknownScenario, key)
	}
	return c.items[i], nil
}

// Keys returns the scenario keys in catalog order
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.items))
	for i, s := range c.items {
		keys[i] = s.Key
	}
	return keys
}

// All returns a copy of the scenarios in catalog order
func (c *Catalog) All() []Scenario {
	out := make([]Scenario, len(c.items))
	copy(out, c.items)
	return out
}

// ParseGCSURI splits gs://bucket/object into its parts
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURI, uri)
	}
	bucket, object, ok := strings.Cut(strings.TrimPrefix(uri, "gs://"), "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURI, uri)
	}
	return bucket, object, nil
}
