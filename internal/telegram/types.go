// Package telegram is the thin transport layer between the Telegram Bot API
// and the relay core: a minimal JSON client for the handful of methods the
// bot uses, decoding of inbound updates into relay events, and a long-poll
// loop for pull-mode deployments.
package telegram

import (
	"github.com/mkoval/go-anon-relay/internal/relay"
)

// Update is one inbound Bot API update, restricted to the fields the relay
// subscribes to.
type Update struct {
	UpdateID        int64                   `json:"update_id"`
	Message         *Message                `json:"message,omitempty"`
	MessageReaction *MessageReactionUpdated `json:"message_reaction,omitempty"`
}

// User mirrors the Bot API User object.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Chat mirrors the Bot API Chat object. Private chats carry positive IDs;
// groups and supergroups are negative.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

// MessageOrigin mirrors the Bot API MessageOrigin object, used only to pick
// a display name for ban confirmations.
type MessageOrigin struct {
	Type           string `json:"type"`
	SenderUser     *User  `json:"sender_user,omitempty"`
	SenderUserName string `json:"sender_user_name,omitempty"`
}

// Message mirrors the Bot API Message object, restricted to relay-relevant
// fields.
type Message struct {
	MessageID      int64          `json:"message_id"`
	From           *User          `json:"from,omitempty"`
	Chat           Chat           `json:"chat"`
	Text           string         `json:"text,omitempty"`
	ReplyToMessage *Message       `json:"reply_to_message,omitempty"`
	ForwardOrigin  *MessageOrigin `json:"forward_origin,omitempty"`
}

// MessageReactionUpdated mirrors the Bot API reaction-change object.
type MessageReactionUpdated struct {
	Chat        Chat             `json:"chat"`
	MessageID   int64            `json:"message_id"`
	NewReaction []relay.Reaction `json:"new_reaction"`
}

// originName picks the human-readable name from a forward origin, when the
// platform exposes one.
func originName(o *MessageOrigin) string {
	if o == nil {
		return ""
	}
	switch o.Type {
	case "user":
		if o.SenderUser != nil {
			return o.SenderUser.FirstName
		}
	case "hidden_user":
		return o.SenderUserName
	}
	return ""
}

// EventFromUpdate decodes an update into the relay event union. The second
// return is false for update shapes the relay does not handle; such updates
// are dropped at this boundary.
func EventFromUpdate(u Update) (relay.Event, bool) {
	switch {
	case u.Message != nil:
		m := u.Message
		ev := relay.MessageEvent{
			ID:      m.MessageID,
			ChatID:  m.Chat.ID,
			Text:    m.Text,
			Command: relay.ParseCommand(m.Text),
		}
		if m.From != nil {
			ev.Sender = relay.Peer{
				ID:        m.From.ID,
				IsBot:     m.From.IsBot,
				FirstName: m.From.FirstName,
				LastName:  m.From.LastName,
				Username:  m.From.Username,
			}
		}
		if rt := m.ReplyToMessage; rt != nil {
			ev.ReplyTo = &relay.ReplyRef{
				MessageID:  rt.MessageID,
				OriginName: originName(rt.ForwardOrigin),
			}
		}
		return ev, true

	case u.MessageReaction != nil:
		r := u.MessageReaction
		return relay.ReactionEvent{
			ChatID:      r.Chat.ID,
			MessageID:   r.MessageID,
			NewReaction: r.NewReaction,
		}, true

	default:
		return nil, false
	}
}
