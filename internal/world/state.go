package world

import "time"

// State tracks all maps, players, NPCs and ground items currently in-world.
// It is the single authoritative index: every mutation passes through its
// methods, and the session layer plus the tick scheduler are the only
// callers. Single-goroutine access only (game loop).
type State struct {
	maps map[int16]*MapGrid

	bySession map[uint64]*PlayerInfo // SessionID → PlayerInfo
	byCharID  map[int32]*PlayerInfo  // CharID → PlayerInfo
	byName    map[string]*PlayerInfo // CharName → PlayerInfo

	aoi    *AOIGrid
	npcAoi *NpcAOIGrid

	npcs    map[int32]*NpcInfo // NPC object ID → NpcInfo
	npcList []*NpcInfo         // all NPCs, stable order for tick iteration

	groundItems map[int32]*GroundItem // ground item object ID → GroundItem

	Groups *GroupManager

	// Reusable AOI query buffers (game loop is single-threaded)
	aoiBuf    []uint64
	npcAoiBuf []int32
}

func NewState() *State {
	return &State{
		maps:        make(map[int16]*MapGrid),
		bySession:   make(map[uint64]*PlayerInfo),
		byCharID:    make(map[int32]*PlayerInfo),
		byName:      make(map[string]*PlayerInfo),
		aoi:         NewAOIGrid(),
		npcAoi:      NewNpcAOIGrid(),
		npcs:        make(map[int32]*NpcInfo),
		groundItems: make(map[int32]*GroundItem),
		Groups:      NewGroupManager(),
	}
}

// --- Map registration ---

// RegisterMap adds a map grid to the index. Called once per map at startup,
// before any entity is placed.
func (s *State) RegisterMap(g *MapGrid) {
	s.maps[g.ID] = g
}

// Map returns the grid for a map ID, or nil if unknown.
func (s *State) Map(mapID int16) *MapGrid {
	return s.maps[mapID]
}

// Walkable reports whether the tile is in bounds and not terrain-blocked.
// It ignores dynamic occupancy.
func (s *State) Walkable(mapID int16, x, y int32) bool {
	g := s.maps[mapID]
	return g != nil && g.InBounds(x, y) && !g.Blocked(x, y)
}

// OccupantAt returns the blocking occupant's entity ID at the tile, or 0.
func (s *State) OccupantAt(mapID int16, x, y int32) int32 {
	g := s.maps[mapID]
	if g == nil {
		return 0
	}
	return g.OccupantAt(x, y)
}

// IsOccupied reports whether a blocking entity other than excludeID holds
// the tile.
func (s *State) IsOccupied(mapID int16, x, y int32, excludeID int32) bool {
	occ := s.OccupantAt(mapID, x, y)
	return occ != 0 && occ != excludeID
}

// --- Players ---

// AddPlayer registers a player in the world. Fails when the tile cannot hold
// another blocking occupant; the caller picks a different tile.
func (s *State) AddPlayer(p *PlayerInfo) error {
	g := s.maps[p.MapID]
	if g == nil {
		return ErrUnknownMap
	}
	if err := g.Place(p.X, p.Y, p.CharID); err != nil {
		return err
	}
	s.bySession[p.SessionID] = p
	s.byCharID[p.CharID] = p
	s.byName[p.Name] = p
	s.aoi.Add(p.SessionID, p.X, p.Y, p.MapID)
	return nil
}

// RemovePlayer clears a player from the index synchronously, so no later
// tick or broadcast can reference the session.
func (s *State) RemovePlayer(sessionID uint64) *PlayerInfo {
	p, ok := s.bySession[sessionID]
	if !ok {
		return nil
	}
	if g := s.maps[p.MapID]; g != nil {
		g.Vacate(p.X, p.Y, p.CharID)
	}
	s.aoi.Remove(sessionID, p.X, p.Y, p.MapID)
	delete(s.bySession, sessionID)
	delete(s.byCharID, p.CharID)
	delete(s.byName, p.Name)
	return p
}

// GetBySession returns a player by session ID.
func (s *State) GetBySession(sessionID uint64) *PlayerInfo {
	return s.bySession[sessionID]
}

// GetByCharID returns a player by character ID.
func (s *State) GetByCharID(charID int32) *PlayerInfo {
	return s.byCharID[charID]
}

// GetByName returns a player by character name.
func (s *State) GetByName(name string) *PlayerInfo {
	return s.byName[name]
}

// MovePlayer performs an atomic same-map move. On failure the player's
// position is unchanged.
func (s *State) MovePlayer(sessionID uint64, newX, newY int32, heading int16) error {
	p := s.bySession[sessionID]
	if p == nil {
		return nil
	}
	g := s.maps[p.MapID]
	if g == nil {
		return ErrUnknownMap
	}
	if err := g.Move(p.X, p.Y, newX, newY, p.CharID); err != nil {
		return err
	}
	oldX, oldY := p.X, p.Y
	p.X, p.Y, p.Heading = newX, newY, heading
	s.aoi.Move(sessionID, oldX, oldY, p.MapID, newX, newY, p.MapID)
	return nil
}

// TransferPlayer moves a player across maps (or teleports within one).
// Ordering rule: the destination is validated first, then the source tile is
// vacated before the destination is occupied, so the player is never
// registered twice.
func (s *State) TransferPlayer(sessionID uint64, mapID int16, x, y int32, heading int16) error {
	p := s.bySession[sessionID]
	if p == nil {
		return nil
	}
	dst := s.maps[mapID]
	if dst == nil {
		return ErrUnknownMap
	}
	if !dst.InBounds(x, y) {
		return ErrOutOfBounds
	}
	if dst.Blocked(x, y) {
		return ErrTileBlocked
	}
	if occ := dst.OccupantAt(x, y); occ != 0 && occ != p.CharID {
		return ErrTileOccupied
	}
	if src := s.maps[p.MapID]; src != nil {
		src.Vacate(p.X, p.Y, p.CharID)
	}
	oldX, oldY, oldMap := p.X, p.Y, p.MapID
	if err := dst.Place(x, y, p.CharID); err != nil {
		// Destination was validated above; restore the source on the
		// off chance of a race-free logic error.
		if src := s.maps[oldMap]; src != nil {
			src.Place(oldX, oldY, p.CharID)
		}
		return err
	}
	p.X, p.Y, p.MapID, p.Heading = x, y, mapID, heading
	s.aoi.Move(sessionID, oldX, oldY, oldMap, x, y, mapID)
	return nil
}

// VacatePlayerTile releases a dead player's tile without removing the
// session (corpses do not block).
func (s *State) VacatePlayerTile(p *PlayerInfo) {
	if g := s.maps[p.MapID]; g != nil {
		g.Vacate(p.X, p.Y, p.CharID)
	}
}

// ReclaimPlayerTile re-occupies a tile for a revived player.
func (s *State) ReclaimPlayerTile(p *PlayerInfo) error {
	g := s.maps[p.MapID]
	if g == nil {
		return ErrUnknownMap
	}
	return g.Place(p.X, p.Y, p.CharID)
}

// PlayerCount returns the number of players in-world.
func (s *State) PlayerCount() int {
	return len(s.bySession)
}

// AllPlayers iterates all in-world players.
func (s *State) AllPlayers(fn func(*PlayerInfo)) {
	for _, p := range s.bySession {
		fn(p)
	}
}

// NearbyPlayers returns all players within Chebyshev radius of the position,
// excluding excludeSession (0 = no exclusion).
func (s *State) NearbyPlayers(mapID int16, x, y, radius int32, excludeSession uint64) []*PlayerInfo {
	s.aoiBuf = s.aoi.GetNearbyInto(x, y, mapID, radius, s.aoiBuf)
	result := make([]*PlayerInfo, 0, len(s.aoiBuf))
	for _, sid := range s.aoiBuf {
		if sid == excludeSession {
			continue
		}
		p := s.bySession[sid]
		if p == nil {
			continue
		}
		if Chebyshev(p.X, p.Y, x, y) <= radius {
			result = append(result, p)
		}
	}
	return result
}

// --- NPCs ---

// AddNpc registers an NPC in the world at its current position.
func (s *State) AddNpc(npc *NpcInfo) error {
	g := s.maps[npc.MapID]
	if g == nil {
		return ErrUnknownMap
	}
	if err := g.Place(npc.X, npc.Y, npc.ID); err != nil {
		return err
	}
	s.npcs[npc.ID] = npc
	s.npcList = append(s.npcList, npc)
	s.npcAoi.Add(npc.ID, npc.X, npc.Y, npc.MapID)
	return nil
}

// GetNpc returns an NPC by its object ID.
func (s *State) GetNpc(id int32) *NpcInfo {
	return s.npcs[id]
}

// NpcList returns the full NPC list in registration order for deterministic
// tick iteration.
func (s *State) NpcList() []*NpcInfo {
	return s.npcList
}

// NpcCount returns total NPC count.
func (s *State) NpcCount() int {
	return len(s.npcs)
}

// MoveNpc performs an atomic one-tile NPC move. On failure the NPC stays put.
func (s *State) MoveNpc(id int32, newX, newY int32, heading int16) error {
	npc := s.npcs[id]
	if npc == nil {
		return nil
	}
	g := s.maps[npc.MapID]
	if g == nil {
		return ErrUnknownMap
	}
	if err := g.Move(npc.X, npc.Y, newX, newY, npc.ID); err != nil {
		return err
	}
	oldX, oldY := npc.X, npc.Y
	npc.X, npc.Y, npc.Heading = newX, newY, heading
	s.npcAoi.Move(id, oldX, oldY, npc.MapID, newX, newY, npc.MapID)
	return nil
}

// NpcDied releases the corpse's tile. The NPC stays in the AOI grid while
// the corpse lingers; RemoveNpcCorpse finishes the despawn.
func (s *State) NpcDied(npc *NpcInfo) {
	if g := s.maps[npc.MapID]; g != nil {
		g.Vacate(npc.X, npc.Y, npc.ID)
	}
}

// RemoveNpcCorpse drops a dead NPC from the AOI grid once its corpse phase
// ends.
func (s *State) RemoveNpcCorpse(npc *NpcInfo) {
	s.npcAoi.Remove(npc.ID, npc.X, npc.Y, npc.MapID)
}

// RespawnNpc re-places a respawning NPC at the given tile. Fails when the
// tile cannot hold another blocking occupant; the caller retries later.
func (s *State) RespawnNpc(npc *NpcInfo, mapID int16, x, y int32) error {
	g := s.maps[mapID]
	if g == nil {
		return ErrUnknownMap
	}
	if err := g.Place(x, y, npc.ID); err != nil {
		return err
	}
	npc.X, npc.Y, npc.MapID = x, y, mapID
	s.npcAoi.Add(npc.ID, x, y, mapID)
	return nil
}

// NearbyNpcs returns live NPCs within Chebyshev radius of the position.
func (s *State) NearbyNpcs(mapID int16, x, y, radius int32) []*NpcInfo {
	s.npcAoiBuf = s.npcAoi.GetNearbyInto(x, y, mapID, radius, s.npcAoiBuf)
	result := make([]*NpcInfo, 0, len(s.npcAoiBuf))
	for _, nid := range s.npcAoiBuf {
		npc := s.npcs[nid]
		if npc == nil || !npc.Alive() {
			continue
		}
		if Chebyshev(npc.X, npc.Y, x, y) <= radius {
			result = append(result, npc)
		}
	}
	return result
}

// NearbyNpcsWithCorpses returns nearby NPCs including lingering corpses, for
// the visibility system.
func (s *State) NearbyNpcsWithCorpses(mapID int16, x, y, radius int32) []*NpcInfo {
	s.npcAoiBuf = s.npcAoi.GetNearbyInto(x, y, mapID, radius, s.npcAoiBuf)
	result := make([]*NpcInfo, 0, len(s.npcAoiBuf))
	for _, nid := range s.npcAoiBuf {
		npc := s.npcs[nid]
		if npc == nil {
			continue
		}
		if !npc.Alive() && npc.CorpseTicks <= 0 {
			continue
		}
		if Chebyshev(npc.X, npc.Y, x, y) <= radius {
			result = append(result, npc)
		}
	}
	return result
}

// --- Ground items ---

// AddGroundItem registers a ground item. Items never block, so this cannot
// fail on occupancy; unknown maps are rejected.
func (s *State) AddGroundItem(item *GroundItem) error {
	if s.maps[item.MapID] == nil {
		return ErrUnknownMap
	}
	s.groundItems[item.ID] = item
	return nil
}

// RemoveGroundItem removes a ground item and returns it, or nil.
func (s *State) RemoveGroundItem(id int32) *GroundItem {
	item, ok := s.groundItems[id]
	if !ok {
		return nil
	}
	delete(s.groundItems, id)
	return item
}

// GetGroundItem returns a ground item by object ID.
func (s *State) GetGroundItem(id int32) *GroundItem {
	return s.groundItems[id]
}

// GroundItemsAt returns all ground items on the exact tile.
func (s *State) GroundItemsAt(mapID int16, x, y int32) []*GroundItem {
	var result []*GroundItem
	for _, item := range s.groundItems {
		if item.MapID == mapID && item.X == x && item.Y == y {
			result = append(result, item)
		}
	}
	return result
}

// NearbyGroundItems returns all ground items within Chebyshev radius.
func (s *State) NearbyGroundItems(mapID int16, x, y, radius int32) []*GroundItem {
	var result []*GroundItem
	for _, item := range s.groundItems {
		if item.MapID != mapID {
			continue
		}
		if Chebyshev(item.X, item.Y, x, y) <= radius {
			result = append(result, item)
		}
	}
	return result
}

// AllGroundItems returns every ground item in the world. The slice is
// rebuilt per call; mutate items through it freely.
func (s *State) AllGroundItems() []*GroundItem {
	result := make([]*GroundItem, 0, len(s.groundItems))
	for _, item := range s.groundItems {
		result = append(result, item)
	}
	return result
}

// ExpireGroundItems removes and returns every ground item whose expiry has
// passed.
func (s *State) ExpireGroundItems(now time.Time) []*GroundItem {
	var expired []*GroundItem
	for id, item := range s.groundItems {
		if !item.ExpiresAt.IsZero() && !now.Before(item.ExpiresAt) {
			expired = append(expired, item)
			delete(s.groundItems, id)
		}
	}
	return expired
}
