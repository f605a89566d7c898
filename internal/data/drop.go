package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DropChanceScale is the denominator for drop probabilities:
// chance 1_000_000 = 100%.
const DropChanceScale = 1_000_000

// DropItem represents one possible drop from an NPC.
type DropItem struct {
	ItemID int32 `yaml:"item_id"`
	Min    int   `yaml:"min"`
	Max    int   `yaml:"max"`
	Chance int   `yaml:"chance"` // out of DropChanceScale
}

type npcDropEntry struct {
	NpcID int32      `yaml:"npc_id"`
	Items []DropItem `yaml:"items"`
}

type dropListFile struct {
	Drops []npcDropEntry `yaml:"drops"`
}

// DropTable holds loot data indexed by NPC template ID.
type DropTable struct {
	drops map[int32][]DropItem
}

// Get returns the drop list for an NPC template, or nil if none defined.
func (t *DropTable) Get(npcID int32) []DropItem {
	return t.drops[npcID]
}

// Count returns the number of NPC templates with drop entries.
func (t *DropTable) Count() int {
	return len(t.drops)
}

// LoadDropTable loads loot data from a YAML file.
func LoadDropTable(path string) (*DropTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read drop list: %w", err)
	}
	var f dropListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse drop list: %w", err)
	}
	t := &DropTable{drops: make(map[int32][]DropItem, len(f.Drops))}
	for _, entry := range f.Drops {
		t.drops[entry.NpcID] = entry.Items
	}
	return t, nil
}
