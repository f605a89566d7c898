package handler

import (
	"unicode/utf8"

	"github.com/duskhollow/server/internal/net"
	"github.com/duskhollow/server/internal/world"
)

const maxChatLen = 120

// HandleSay broadcasts local chat to everyone who can see the speaker,
// speaker included.
func HandleSay(p *world.PlayerInfo, cmd net.SayCmd, deps *Deps) {
	if cmd.Text == "" {
		return
	}
	text := truncateChat(cmd.Text)
	ev := net.ChatEvent{From: p.Name, Text: text}
	p.Session.Send(net.EvChat, ev)
	BroadcastNearPosition(deps, p.MapID, p.X, p.Y, p.SessionID, net.EvChat, ev)
}

// truncateChat caps a message at maxChatLen bytes, backing off to the nearest
// rune boundary so the cut never yields invalid UTF-8.
func truncateChat(text string) string {
	if len(text) <= maxChatLen {
		return text
	}
	cut := maxChatLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
