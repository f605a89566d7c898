package data

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MapInfo holds metadata for a single map, loaded from map_list.yaml.
// Bounds are inclusive.
type MapInfo struct {
	MapID  int16  `yaml:"map_id"`
	Name   string `yaml:"name"`
	StartX int32  `yaml:"start_x"`
	EndX   int32  `yaml:"end_x"`
	StartY int32  `yaml:"start_y"`
	EndY   int32  `yaml:"end_y"`
	SpawnX int32  `yaml:"spawn_x"` // player entry/respawn point
	SpawnY int32  `yaml:"spawn_y"`
}

// mapEntry stores loaded terrain + metadata for one map.
type mapEntry struct {
	info    MapInfo
	blocked []bool // [ (x-startX) * height + (y-startY) ], row-major by X
}

// MapTable provides map metadata and static terrain lookups.
type MapTable struct {
	maps map[int16]*mapEntry
}

type mapListFile struct {
	Maps []MapInfo `yaml:"maps"`
}

// LoadMapTable loads map metadata from YAML and terrain from per-map CSV
// files in tileDir ({mapid}.txt, one row per Y line, nonzero = blocked).
// A missing terrain file means the map is fully walkable.
func LoadMapTable(yamlPath, tileDir string) (*MapTable, error) {
	raw, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, fmt.Errorf("read map list %s: %w", yamlPath, err)
	}
	var file mapListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse map list: %w", err)
	}

	table := &MapTable{maps: make(map[int16]*mapEntry, len(file.Maps))}
	for _, info := range file.Maps {
		width := info.EndX - info.StartX + 1
		height := info.EndY - info.StartY + 1
		if width <= 0 || height <= 0 {
			return nil, fmt.Errorf("map %d (%s): invalid bounds", info.MapID, info.Name)
		}
		blocked, err := loadTerrainFile(tileDir, int(info.MapID), int(width), int(height))
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("map %d terrain: %w", info.MapID, err)
			}
			blocked = make([]bool, width*height)
		}
		table.maps[info.MapID] = &mapEntry{info: info, blocked: blocked}
	}
	return table, nil
}

// loadTerrainFile reads a CSV terrain file: each line is one Y row of
// comma-separated values, nonzero meaning impassable.
func loadTerrainFile(dir string, mapID, xSize, ySize int) ([]bool, error) {
	path := filepath.Join(dir, strconv.Itoa(mapID)+".txt")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	blocked := make([]bool, xSize*ySize)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)

	y := 0
	for scanner.Scan() && y < ySize {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		x := 0
		for _, tok := range strings.Split(line, ",") {
			if x >= xSize {
				break
			}
			val, err := strconv.Atoi(strings.TrimSpace(tok))
			if err != nil {
				val = 0
			}
			if val != 0 {
				blocked[x*ySize+y] = true
			}
			x++
		}
		y++
	}
	return blocked, scanner.Err()
}

// Get returns map metadata by ID, or nil if unknown.
func (t *MapTable) Get(mapID int16) *MapInfo {
	e := t.maps[mapID]
	if e == nil {
		return nil
	}
	return &e.info
}

// Count returns the number of loaded maps.
func (t *MapTable) Count() int {
	return len(t.maps)
}

// ForEach visits every map with its metadata and terrain. The blocked slice
// must not be mutated — it is shared with the world index.
func (t *MapTable) ForEach(fn func(info MapInfo, blocked []bool)) {
	for _, e := range t.maps {
		fn(e.info, e.blocked)
	}
}
