// Package relay contains the routing core of the bot: the inbound event
// model and the dispatcher that classifies each event and drives the
// correct relay action.
//
// Inbound traffic is modeled as a closed union: every transport update that
// the relay cares about is decoded into exactly one Event variant before it
// reaches the Dispatcher. Anything that does not fit a variant is dropped at
// the transport boundary.
package relay

import "strings"

// Event is the closed set of inbound event shapes. The two variants are
// MessageEvent and ReactionEvent; the unexported marker keeps the union
// closed to this package.
type Event interface {
	isEvent()
}

// Peer identifies the sender of a message, with the bot flag used by the
// anti-loop guard.
type Peer struct {
	ID        int64
	IsBot     bool
	FirstName string
	LastName  string
	Username  string
}

// FullName joins the first and last name, omitting empty parts.
func (p Peer) FullName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	case p.LastName != "":
		return p.LastName
	default:
		return p.Username
	}
}

// ReplyRef points at the message an inbound message replies to.
// OriginName carries the display name from the replied-to message's forward
// origin, when the platform exposes one; it is used only for operator-facing
// text, never for routing.
type ReplyRef struct {
	MessageID  int64
	OriginName string
}

// MessageEvent is a plain or command message. Command holds the leading
// command name ("/start", "/help", ...) when the text is command-shaped,
// and is empty otherwise.
type MessageEvent struct {
	ID      int64
	ChatID  int64
	Sender  Peer
	Text    string
	Command string
	ReplyTo *ReplyRef
}

func (MessageEvent) isEvent() {}

// Reaction is one reaction item in a reaction update. Either Emoji or
// CustomEmojiID is set, depending on Type.
type Reaction struct {
	Type          string `json:"type"`
	Emoji         string `json:"emoji,omitempty"`
	CustomEmojiID string `json:"custom_emoji_id,omitempty"`
}

// ReactionEvent is a reaction change on a message. NewReaction is the full
// replacement set, which may be empty when reactions were removed.
type ReactionEvent struct {
	ChatID      int64
	MessageID   int64
	NewReaction []Reaction
}

func (ReactionEvent) isEvent() {}

// ParseCommand extracts a leading bot command name from message text:
// a first token of the form /name or /name@botname. It returns the bare
// command ("/name") or "" when the text is not command-shaped.
func ParseCommand(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd := text
	if i := strings.IndexAny(cmd, " \t\n"); i >= 0 {
		cmd = cmd[:i]
	}
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	if len(cmd) <= 1 {
		return ""
	}
	return cmd
}
