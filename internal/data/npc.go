package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NpcTemplate holds the static behavior parameters for an NPC type. Behavior
// differences between kinds are data on this one type, not subclasses.
// Templates are read-only after load; instances reference them.
type NpcTemplate struct {
	NpcID int32  `yaml:"npc_id"`
	Name  string `yaml:"name"`
	Level int16  `yaml:"level"`
	HP    int32  `yaml:"hp"`

	Hostile        bool  `yaml:"hostile"`
	AggroRange     int32 `yaml:"aggro_range"`     // Chebyshev detection range (0 = never aggro)
	DisengageRange int32 `yaml:"disengage_range"` // target beyond this drops aggro; 0 = 2x aggro
	AttackRange    int32 `yaml:"attack_range"`    // 0 = melee (adjacent)
	AttackCooldown int   `yaml:"attack_cooldown"` // milliseconds between attacks
	RespawnDelay   int   `yaml:"respawn_delay"`   // seconds from death to respawn attempt

	Exp     int32 `yaml:"exp"`
	GoldMin int32 `yaml:"gold_min"`
	GoldMax int32 `yaml:"gold_max"`

	Accuracy  int `yaml:"accuracy"`
	Evasion   int `yaml:"evasion"`
	CritBonus int `yaml:"crit_bonus"`
	DmgMin    int `yaml:"dmg_min"`
	DmgMax    int `yaml:"dmg_max"`
	Defense   int `yaml:"defense"`
}

// SpawnEntry defines where and how many NPCs to spawn at startup.
type SpawnEntry struct {
	NpcID   int32 `yaml:"npc_id"`
	MapID   int16 `yaml:"map_id"`
	X       int32 `yaml:"x"`
	Y       int32 `yaml:"y"`
	Count   int   `yaml:"count"`
	RandomX int32 `yaml:"randomx"`
	RandomY int32 `yaml:"randomy"`
}

type npcListFile struct {
	Npcs []NpcTemplate `yaml:"npcs"`
}

type spawnListFile struct {
	Spawns []SpawnEntry `yaml:"spawns"`
}

// NpcTable holds all NPC templates indexed by NpcID.
type NpcTable struct {
	templates map[int32]*NpcTemplate
}

// LoadNpcTable loads NPC templates from a YAML file and applies defaults.
func LoadNpcTable(path string) (*NpcTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read npc list: %w", err)
	}
	var f npcListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse npc list: %w", err)
	}
	t := &NpcTable{templates: make(map[int32]*NpcTemplate, len(f.Npcs))}
	for i := range f.Npcs {
		tmpl := &f.Npcs[i]
		if tmpl.HP <= 0 {
			return nil, fmt.Errorf("npc %d (%s): hp must be positive", tmpl.NpcID, tmpl.Name)
		}
		if tmpl.DisengageRange == 0 {
			tmpl.DisengageRange = tmpl.AggroRange * 2
		}
		if tmpl.AttackRange == 0 {
			tmpl.AttackRange = 1
		}
		if tmpl.AttackCooldown == 0 {
			tmpl.AttackCooldown = 2000
		}
		if tmpl.RespawnDelay == 0 {
			tmpl.RespawnDelay = 30
		}
		t.templates[tmpl.NpcID] = tmpl
	}
	return t, nil
}

// Get returns an NPC template by ID, or nil if not found.
func (t *NpcTable) Get(npcID int32) *NpcTemplate {
	return t.templates[npcID]
}

// Count returns the number of loaded templates.
func (t *NpcTable) Count() int {
	return len(t.templates)
}

// LoadSpawnList loads spawn entries from a YAML file.
func LoadSpawnList(path string) ([]SpawnEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn list: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawn list: %w", err)
	}
	return f.Spawns, nil
}
