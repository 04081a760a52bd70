package data

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LevelData is one level: a grid of symbols, row 0 at the top.
type LevelData struct {
	Name  string   `yaml:"name"`
	Title string   `yaml:"title"`
	Rows  []string `yaml:"rows"`
}

// LoadLevel loads a level YAML file.
func LoadLevel(path string) (*LevelData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level: %w", err)
	}
	lv, err := ParseLevel(raw)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", path, err)
	}
	return lv, nil
}

// ParseLevel decodes level YAML. Trailing blank rows are dropped.
func ParseLevel(raw []byte) (*LevelData, error) {
	if err := validateYAML(levelSchema, raw); err != nil {
		return nil, fmt.Errorf("level: %w", err)
	}
	var lv LevelData
	if err := yaml.Unmarshal(raw, &lv); err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	for len(lv.Rows) > 0 && strings.TrimSpace(lv.Rows[len(lv.Rows)-1]) == "" {
		lv.Rows = lv.Rows[:len(lv.Rows)-1]
	}
	if len(lv.Rows) == 0 {
		return nil, fmt.Errorf("level %q has no rows", lv.Name)
	}
	return &lv, nil
}

// Width returns the widest row length in cells.
func (l *LevelData) Width() int {
	w := 0
	for _, r := range l.Rows {
		if n := len([]rune(r)); n > w {
			w = n
		}
	}
	return w
}

// Height returns the number of rows.
func (l *LevelData) Height() int { return len(l.Rows) }
