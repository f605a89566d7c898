package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskhollow/server/internal/core/event"
	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/world"
)

func TestLoginCreatesCharacterAtSpawn(t *testing.T) {
	deps, _ := newTestDeps(t)

	p := enterWorld(t, deps, "alice")
	assert.Equal(t, int32(1), p.CharID)
	assert.Equal(t, int16(1), p.MapID)
	assert.Equal(t, int32(25), p.X)
	assert.Equal(t, int32(25), p.Y)
	assert.Equal(t, int16(1), p.Level)
	assert.Equal(t, int16(22), p.MaxHP, "16 + con/2 with con 12")
	assert.Equal(t, p.MaxHP, p.HP)
	assert.Equal(t, deps.Config.Gameplay.InitialFood, p.Food)
	assert.False(t, p.Admin)
	assert.True(t, p.Dirty, "new characters need an initial save")

	// Fresh IDs keep incrementing.
	q := enterWorld(t, deps, "bob")
	assert.Equal(t, int32(2), q.CharID)
}

func TestLoginAdminFlag(t *testing.T) {
	deps, _ := newTestDeps(t)
	p := enterWorld(t, deps, "gm")
	assert.True(t, p.Admin)
}

func TestLoginRejectsBadNames(t *testing.T) {
	deps, _ := newTestDeps(t)

	sess := newTestSession(t)
	HandleLogin(sess, net.LoginCmd{Name: ""}, deps)
	assert.Nil(t, deps.World.GetBySession(sess.ID))
	assert.True(t, sess.Closed())

	sess = newTestSession(t)
	HandleLogin(sess, net.LoginCmd{Name: "this-name-is-far-too-long-to-accept"}, deps)
	assert.Nil(t, deps.World.GetBySession(sess.ID))
	assert.True(t, sess.Closed())
}

func TestLoginRejectsDuplicateName(t *testing.T) {
	deps, _ := newTestDeps(t)
	enterWorld(t, deps, "alice")

	sess := newTestSession(t)
	HandleLogin(sess, net.LoginCmd{Name: "alice"}, deps)
	assert.Nil(t, deps.World.GetBySession(sess.ID))
	assert.True(t, sess.Closed())
	assert.Equal(t, 1, deps.World.PlayerCount())
}

func TestLoginFallsBackWhenSpawnOccupied(t *testing.T) {
	deps, _ := newTestDeps(t)
	first := enterWorld(t, deps, "alice")

	second := enterWorld(t, deps, "bob")
	assert.NotEqual(t, [2]int32{first.X, first.Y}, [2]int32{second.X, second.Y})
	assert.LessOrEqual(t, world.Chebyshev(second.X, second.Y, 25, 25), int32(4))
}

func TestFindFreeTileRingSearch(t *testing.T) {
	deps, _ := newTestDeps(t)

	x, y, ok := FindFreeTile(deps.World, 1, 10, 10, 3)
	require.True(t, ok)
	assert.Equal(t, int32(10), x)
	assert.Equal(t, int32(10), y)

	// Occupy the center; the search moves to ring 1.
	spawnTestNpc(t, deps, 10, 10)
	x, y, ok = FindFreeTile(deps.World, 1, 10, 10, 3)
	require.True(t, ok)
	assert.Equal(t, int32(1), world.Chebyshev(x, y, 10, 10))

	// Unknown map finds nothing.
	_, _, ok = FindFreeTile(deps.World, 9, 10, 10, 3)
	assert.False(t, ok)
}

func TestDispatchRequiresLogin(t *testing.T) {
	deps, _ := newTestDeps(t)
	sess := newTestSession(t)

	// Commands before login are dropped without effect.
	Dispatch(sess, net.Envelope{Type: net.CmdMove, Data: []byte(`{"heading":0}`)}, deps)
	assert.Equal(t, 0, deps.World.PlayerCount())
	assert.Empty(t, deps.Actions.DrainAttacks())

	// Malformed payloads never panic the dispatcher.
	assert.NotPanics(t, func() {
		Dispatch(sess, net.Envelope{Type: net.CmdLogin, Data: []byte(`{bad`)}, deps)
	})
}

func TestLoginAndDisconnectAnnouncePresence(t *testing.T) {
	deps, _ := newTestDeps(t)

	var entered []event.PlayerEnteredWorld
	var left []event.PlayerDisconnected
	event.Subscribe(deps.Bus, func(ev event.PlayerEnteredWorld) { entered = append(entered, ev) })
	event.Subscribe(deps.Bus, func(ev event.PlayerDisconnected) { left = append(left, ev) })

	p := enterWorld(t, deps, "alice")
	deps.Bus.Swap()
	deps.Bus.DispatchAll()
	require.Len(t, entered, 1)
	assert.Equal(t, p.SessionID, entered[0].SessionID)
	assert.Equal(t, p.CharID, entered[0].CharID)
	assert.Empty(t, left)

	HandleDisconnect(p.Session, deps)
	deps.Bus.Swap()
	deps.Bus.DispatchAll()
	require.Len(t, left, 1)
	assert.Equal(t, p.SessionID, left[0].SessionID)
	assert.Equal(t, p.CharID, left[0].CharID)
	assert.Len(t, entered, 1, "disconnect must not re-announce the login")
}
