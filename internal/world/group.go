package world

// MaxGroupSize caps reward-sharing groups.
const MaxGroupSize = 8

// GroupInfo tracks a reward-sharing group. Members are stored as character
// IDs and resolved through State at use time, so a disconnect cannot leave a
// dangling reference.
type GroupInfo struct {
	LeaderID int32
	Members  []int32 // includes the leader
}

// GroupManager manages all active groups. Group ID equals the leader's
// character ID.
type GroupManager struct {
	groups      map[int32]*GroupInfo
	playerGroup map[int32]int32 // charID → groupID
}

func NewGroupManager() *GroupManager {
	return &GroupManager{
		groups:      make(map[int32]*GroupInfo),
		playerGroup: make(map[int32]int32),
	}
}

// GroupOf returns the group a player belongs to, or nil.
func (m *GroupManager) GroupOf(charID int32) *GroupInfo {
	gid, ok := m.playerGroup[charID]
	if !ok {
		return nil
	}
	return m.groups[gid]
}

// Create forms a new group with the leader and one member. Returns nil when
// either is already grouped.
func (m *GroupManager) Create(leaderID, memberID int32) *GroupInfo {
	if _, ok := m.playerGroup[leaderID]; ok {
		return nil
	}
	if _, ok := m.playerGroup[memberID]; ok {
		return nil
	}
	g := &GroupInfo{LeaderID: leaderID, Members: []int32{leaderID, memberID}}
	m.groups[leaderID] = g
	m.playerGroup[leaderID] = leaderID
	m.playerGroup[memberID] = leaderID
	return g
}

// AddMember adds a player to an existing group. Returns false if the group is
// full, unknown, or the player is already grouped.
func (m *GroupManager) AddMember(groupID, charID int32) bool {
	g := m.groups[groupID]
	if g == nil || len(g.Members) >= MaxGroupSize {
		return false
	}
	if _, ok := m.playerGroup[charID]; ok {
		return false
	}
	g.Members = append(g.Members, charID)
	m.playerGroup[charID] = groupID
	return true
}

// RemoveMember takes a player out of their group. A group left with one
// member dissolves; a departing leader hands leadership to the first
// remaining member. Returns the group the player left, or nil.
func (m *GroupManager) RemoveMember(charID int32) *GroupInfo {
	gid, ok := m.playerGroup[charID]
	if !ok {
		return nil
	}
	g := m.groups[gid]
	delete(m.playerGroup, charID)
	for i, id := range g.Members {
		if id == charID {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			break
		}
	}
	if len(g.Members) <= 1 {
		m.dissolve(gid)
		return g
	}
	if g.LeaderID == charID {
		g.LeaderID = g.Members[0]
	}
	return g
}

func (m *GroupManager) dissolve(groupID int32) {
	g := m.groups[groupID]
	if g == nil {
		return
	}
	for _, id := range g.Members {
		delete(m.playerGroup, id)
	}
	delete(m.groups, groupID)
}
