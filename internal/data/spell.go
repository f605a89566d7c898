package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SpellTemplate holds static data for a castable spell.
type SpellTemplate struct {
	SpellID  int32  `yaml:"spell_id"`
	Name     string `yaml:"name"`
	MpCost   int16  `yaml:"mp_cost"`
	Range    int32  `yaml:"range"`    // max Chebyshev cast distance
	Cooldown int    `yaml:"cooldown"` // milliseconds between casts
	DmgMin   int    `yaml:"dmg_min"`
	DmgMax   int    `yaml:"dmg_max"`
	Accuracy int    `yaml:"accuracy"` // spell accuracy vs target evasion
}

type spellListFile struct {
	Spells []SpellTemplate `yaml:"spells"`
}

// SpellTable holds all spell templates indexed by SpellID.
type SpellTable struct {
	templates map[int32]*SpellTemplate
}

// LoadSpellTable loads spell templates from a YAML file.
func LoadSpellTable(path string) (*SpellTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spell list: %w", err)
	}
	var f spellListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spell list: %w", err)
	}
	t := &SpellTable{templates: make(map[int32]*SpellTemplate, len(f.Spells))}
	for i := range f.Spells {
		sp := &f.Spells[i]
		if sp.Cooldown == 0 {
			sp.Cooldown = 1000
		}
		t.templates[sp.SpellID] = sp
	}
	return t, nil
}

// Get returns a spell template by ID, or nil if not found.
func (t *SpellTable) Get(spellID int32) *SpellTemplate {
	return t.templates[spellID]
}

// Count returns the number of loaded templates.
func (t *SpellTable) Count() int {
	return len(t.templates)
}
