package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/brickworld/brickworld/internal/physics"
	"github.com/brickworld/brickworld/internal/world"
)

// KindEntry defines one entity kind and the level symbol that places it.
type KindEntry struct {
	Kind     string  `yaml:"kind"`
	Symbol   string  `yaml:"symbol"`
	Category string  `yaml:"category"`
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Mass     float64 `yaml:"mass"`  // dynamic kinds only
	Tempo    float64 `yaml:"tempo"` // signed walking speed for mobs
}

type kindFile struct {
	Kinds []KindEntry `yaml:"kinds"`
}

// KindTable maps kinds to their physical spec and level symbols to kinds.
type KindTable struct {
	specs    map[world.Kind]world.KindSpec
	bySymbol map[rune]world.Kind
}

// LoadKindTable loads kinds.yaml.
func LoadKindTable(path string) (*KindTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kind list: %w", err)
	}
	return ParseKindTable(raw)
}

// ParseKindTable builds a table from YAML bytes.
func ParseKindTable(raw []byte) (*KindTable, error) {
	if err := validateYAML(kindsSchema, raw); err != nil {
		return nil, fmt.Errorf("kind list: %w", err)
	}
	var f kindFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse kind list: %w", err)
	}
	t := &KindTable{
		specs:    make(map[world.Kind]world.KindSpec, len(f.Kinds)),
		bySymbol: make(map[rune]world.Kind, len(f.Kinds)),
	}
	for i := range f.Kinds {
		e := &f.Kinds[i]
		cat, err := world.ParseCategory(e.Category)
		if err != nil {
			return nil, fmt.Errorf("kind %q: %w", e.Kind, err)
		}
		if e.Width <= 0 || e.Height <= 0 {
			return nil, fmt.Errorf("kind %q: %w: size %gx%g", e.Kind, world.ErrConfiguration, e.Width, e.Height)
		}
		k := world.Kind(e.Kind)
		if _, dup := t.specs[k]; dup {
			return nil, fmt.Errorf("kind %q: %w: defined twice", e.Kind, world.ErrConfiguration)
		}
		t.specs[k] = world.KindSpec{
			Category: cat,
			Size:     physics.Vec{X: e.Width, Y: e.Height},
			Mass:     e.Mass,
			Tempo:    e.Tempo,
		}
		if e.Symbol == "" {
			continue
		}
		sym := []rune(e.Symbol)
		if len(sym) != 1 {
			return nil, fmt.Errorf("kind %q: %w: symbol %q must be one character", e.Kind, world.ErrConfiguration, e.Symbol)
		}
		if prev, dup := t.bySymbol[sym[0]]; dup {
			return nil, fmt.Errorf("kind %q: %w: symbol %q already used by %q", e.Kind, world.ErrConfiguration, e.Symbol, prev)
		}
		t.bySymbol[sym[0]] = k
	}
	if _, ok := t.specs[world.KindPlayer]; !ok {
		return nil, fmt.Errorf("%w: kind list has no %q entry", world.ErrConfiguration, world.KindPlayer)
	}
	return t, nil
}

// Specs returns the kind specs keyed by kind.
func (t *KindTable) Specs() map[world.Kind]world.KindSpec {
	return t.specs
}

// Get returns the spec for a kind.
func (t *KindTable) Get(k world.Kind) (world.KindSpec, bool) {
	s, ok := t.specs[k]
	return s, ok
}

// BySymbol returns the kind placed by a level symbol.
func (t *KindTable) BySymbol(r rune) (world.Kind, bool) {
	k, ok := t.bySymbol[r]
	return k, ok
}

// Kinds returns every kind name in sorted order.
func (t *KindTable) Kinds() []world.Kind {
	out := make([]world.Kind, 0, len(t.specs))
	for k := range t.specs {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Count returns the number of kinds loaded.
func (t *KindTable) Count() int {
	return len(t.specs)
}
