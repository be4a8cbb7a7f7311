package userconfig

import (
	"errors"
	"fmt"
	"io"

	yaml "gopkg.in/yaml.v2"

	"github.com/surly-sh/surly/shortcode"
)

// Meta represents all current config options that the application can use,
// i.e., after validation and parsing
type Meta struct {
	Storage    Storage    `yaml:"storage"`
	Cache      Cache      `yaml:"cache"`
	HTTP       HTTP       `yaml:"http"`
	Shortcodes Shortcodes `yaml:"shortcodes"`
}

// Storage locates the physical store and names the logical table space
// inside it.
type Storage struct {
	// DirPath is where the embedded database keeps its files. Required
	// unless InMemory is set.
	DirPath string `yaml:"storageDir"`
	// TablePrefix namespaces the service's logical tables within the
	// store.
	TablePrefix string `yaml:"tablePrefix"`
	// InMemory trades durability for a dependency-free dev/test mode.
	InMemory bool `yaml:"inMemory"`
}

// Cache controls the per-table read caches.
type Cache struct {
	// MaxEntries bounds each table's cache. Zero keeps the unbounded
	// reference behavior, which is fine for bounded key cardinality.
	MaxEntries int64 `yaml:"maxEntries"`
}

// HTTP contains the listener settings for the API and redirect server.
type HTTP struct {
	ListenAddress string `yaml:"listenAddress"`
}

// Shortcodes tunes code generation.
type Shortcodes struct {
	// DefaultLength is the number of base-36 characters in a generated
	// code when a request doesn't specify one.
	DefaultLength int `yaml:"defaultLength"`
}

// CheckAndSetDefaults validates s and either returns a copy of s with default
// settings applied or returns an error due to an invalid configuration
func (s *Storage) CheckAndSetDefaults() (Storage, error) {
	if s.DirPath == "" && !s.InMemory {
		return Storage{}, errors.New(
			"user-provided config does not include a storage path",
		)
	}
	if s.TablePrefix == "" {
		s.TablePrefix = "url_shortener_table"
	}
	return *s, nil
}

// CheckAndSetDefaults validates m and either returns a copy of m with default
// settings applied or returns an error due to an invalid configuration
func (m *Meta) CheckAndSetDefaults() (Meta, error) {
	c := Meta{}

	s, err := m.Storage.CheckAndSetDefaults()
	if err != nil {
		return Meta{}, err
	}
	c.Storage = s

	if m.Cache.MaxEntries < 0 {
		return Meta{}, errors.New("cache maxEntries cannot be negative")
	}
	c.Cache = m.Cache

	c.HTTP = m.HTTP
	if c.HTTP.ListenAddress == "" {
		c.HTTP.ListenAddress = ":8080"
	}

	c.Shortcodes = m.Shortcodes
	if c.Shortcodes.DefaultLength == 0 {
		c.Shortcodes.DefaultLength = shortcode.DefaultCodeLength
	}
	if c.Shortcodes.DefaultLength < 1 {
		return Meta{}, fmt.Errorf(
			"the default code length must be positive, got %v",
			c.Shortcodes.DefaultLength,
		)
	}

	return c, nil
}

// Parse generates usable configurations from possibly arbitrary user input.
// An error indicates a problem with parsing. The Reader r can be either
// JSON or YAML.
func Parse(r io.Reader) (*Meta, error) {
	var m Meta
	err := yaml.NewDecoder(r).Decode(&m)
	if err != nil {
		return &Meta{}, fmt.Errorf("can't read the config file as YAML: %v", err)
	}

	var st Storage = Storage{}
	if m.Storage == st {
		return &Meta{}, errors.New("must include a \"storage\" section")
	}

	return &m, nil
}
