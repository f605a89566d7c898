package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ItemTemplate holds static data for an item type.
type ItemTemplate struct {
	ItemID    int32  `yaml:"item_id"`
	Name      string `yaml:"name"`
	Stackable bool   `yaml:"stackable"`
}

type itemListFile struct {
	Items []ItemTemplate `yaml:"items"`
}

// ItemTable holds all item templates indexed by ItemID.
type ItemTable struct {
	templates map[int32]*ItemTemplate
}

// LoadItemTable loads item templates from a YAML file.
func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item list: %w", err)
	}
	var f itemListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse item list: %w", err)
	}
	t := &ItemTable{templates: make(map[int32]*ItemTemplate, len(f.Items))}
	for i := range f.Items {
		item := &f.Items[i]
		t.templates[item.ItemID] = item
	}
	return t, nil
}

// Get returns an item template by ID, or nil if not found.
func (t *ItemTable) Get(itemID int32) *ItemTemplate {
	return t.templates[itemID]
}

// Count returns the number of loaded templates.
func (t *ItemTable) Count() int {
	return len(t.templates)
}
