// Package relay contains the routing core of the bot. This file implements
// the Dispatcher: the stateless classifier that routes each inbound event
// to the correct relay action.
//
// Classification per event, in order:
//
//  1. Reaction update → relay the reaction to the mapped user, or drop when
//     the message was never relayed.
//  2. Command message → /start, /help anywhere; /ban only inside the group.
//  3. Group reply to a relayed message → copy the reply back to the user
//     (bot senders are dropped to prevent relay loops).
//  4. Private message → admission checks (ban, rate limit), then forward
//     into the group and record the correlation row.
//  5. Anything else → ignored.
//
// Every event is handled independently; a failure is returned to the caller
// for logging and never affects other events.
package relay

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mkoval/go-anon-relay/internal/domain"
)

// Store is the correlation table contract required by the Dispatcher.
// Lookup reports absence as (nil, nil); absence is an expected outcome, not
// an error.
type Store interface {
	// Record inserts the write-once correlation row for a relayed message.
	Record(ctx context.Context, groupMessageID, userID, userMessageID int64) error

	// Lookup fetches the correlation row for a group message ID.
	Lookup(ctx context.Context, groupMessageID int64) (*domain.Forward, error)
}

// BanList is the ban registry contract required by the Dispatcher.
type BanList interface {
	// IsBanned reports whether the user identity is banned.
	IsBanned(ctx context.Context, userID int64) (bool, error)

	// Ban adds the user identity to the ban set; idempotent.
	Ban(ctx context.Context, userID int64) error
}

// Admitter is the rate-limiter contract: a non-blocking admission check
// that, on rejection, reports the minimum wait until the next token.
type Admitter interface {
	Admit(userID int64) (time.Duration, bool)
}

// BoldSpan marks a byte range of outbound text to render bold.
type BoldSpan struct {
	Offset int
	Length int
}

// Sender is the outbound transport contract. Implementations perform the
// platform API calls; the Dispatcher only decides which call to make.
type Sender interface {
	// SendText sends plain text, optionally with one bold span.
	SendText(ctx context.Context, chatID int64, text string, bold *BoldSpan) error

	// CopyMessage copies a message without a forward header, so group
	// replies reach the user without exposing the group.
	CopyMessage(ctx context.Context, toChatID, fromChatID, messageID int64) error

	// ForwardMessage forwards a message and returns the new message's ID
	// in the destination chat.
	ForwardMessage(ctx context.Context, toChatID, fromChatID, messageID int64) (int64, error)

	// SetReaction replaces the reaction set on a message.
	SetReaction(ctx context.Context, chatID, messageID int64, reaction []Reaction) error
}

// Dispatcher routes inbound events to relay actions. All collaborators are
// injected; the Dispatcher itself carries no mutable state and is safe for
// concurrent use from one goroutine per event.
type Dispatcher struct {
	// GroupID is the staff group chat that user messages are relayed into.
	GroupID int64

	Store   Store
	Bans    BanList
	Limiter Admitter
	Sender  Sender
}

// NewDispatcher constructs a Dispatcher for the given staff group.
func NewDispatcher(groupID int64, store Store, bans BanList, limiter Admitter, sender Sender) *Dispatcher {
	return &Dispatcher{
		GroupID: groupID,
		Store:   store,
		Bans:    bans,
		Limiter: limiter,
		Sender:  sender,
	}
}

// Dispatch classifies one inbound event and performs its relay action.
// Errors are returned for the transport layer to log; the event is dropped
// either way (at-most-once, no retry).
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	switch ev := ev.(type) {
	case MessageEvent:
		eventsTotal.WithLabelValues("message").Inc()
		return d.dispatchMessage(ctx, ev)
	case ReactionEvent:
		eventsTotal.WithLabelValues("reaction").Inc()
		return d.relayReaction(ctx, ev)
	default:
		eventsTotal.WithLabelValues("other").Inc()
		droppedTotal.WithLabelValues(dropIgnored).Inc()
		return nil
	}
}

// dispatchMessage handles the message variant: commands first, then the
// group-reply and private-relay paths keyed on the originating chat.
// Private chats have positive IDs on the platform; the staff group is the
// single configured negative ID.
func (d *Dispatcher) dispatchMessage(ctx context.Context, m MessageEvent) error {
	if m.Command != "" {
		switch m.Command {
		case "/start":
			return d.replyStart(ctx, m)
		case "/help":
			return d.replyHelp(ctx, m)
		case "/ban":
			if m.ChatID == d.GroupID {
				return d.banFromReply(ctx, m)
			}
		}
		// Unknown commands (and /ban outside the group) are dropped.
		droppedTotal.WithLabelValues(dropUnknownCmd).Inc()
		return nil
	}
	if m.ChatID == d.GroupID {
		return d.relayGroupReply(ctx, m)
	}
	if m.ChatID > 0 {
		return d.relayUserMessage(ctx, m)
	}
	droppedTotal.WithLabelValues(dropIgnored).Inc()
	return nil
}

// replyStart greets the user, with their name in bold.
func (d *Dispatcher) replyStart(ctx context.Context, m MessageEvent) error {
	const greeting = "Hi! "
	name := m.Sender.FullName()
	text := greeting + name + ", with this bot you can converse with our admins."
	bold := &BoldSpan{Offset: len(greeting), Length: len(name)}
	return d.Sender.SendText(ctx, m.ChatID, text, bold)
}

// replyHelp sends a short usage summary.
func (d *Dispatcher) replyHelp(ctx context.Context, m MessageEvent) error {
	text := fmt.Sprintf("Write me anything and it reaches the admins. (chat %d)", m.ChatID)
	return d.Sender.SendText(ctx, m.ChatID, text, nil)
}

// banFromReply resolves the ban target through the correlation row of the
// replied-to group message. Without a reply there is no target and the
// command is ignored; with a reply to an un-relayed message the admin is
// told and ErrUnknownTarget is returned, writing nothing.
func (d *Dispatcher) banFromReply(ctx context.Context, m MessageEvent) error {
	if m.ReplyTo == nil {
		droppedTotal.WithLabelValues(dropUnknownCmd).Inc()
		return nil
	}
	fwd, err := d.Store.Lookup(ctx, m.ReplyTo.MessageID)
	if err != nil {
		return err
	}
	if fwd == nil {
		if err := d.Sender.SendText(ctx, m.ChatID,
			"Cannot ban: the replied-to message was not relayed by this bot.", nil); err != nil {
			return err
		}
		return ErrUnknownTarget
	}
	if err := d.Bans.Ban(ctx, fwd.UserID); err != nil {
		return err
	}
	name := m.ReplyTo.OriginName
	if name == "" {
		name = strconv.FormatInt(fwd.UserID, 10)
	}
	return d.Sender.SendText(ctx, m.ChatID, "Banned user "+name, nil)
}

// relayGroupReply copies a group reply back to the originating user. Bot
// senders are rejected so the relay never forwards its own (or another
// bot's) automated replies; replies to un-relayed messages are dropped
// silently.
func (d *Dispatcher) relayGroupReply(ctx context.Context, m MessageEvent) error {
	if m.ReplyTo == nil {
		droppedTotal.WithLabelValues(dropIgnored).Inc()
		return nil
	}
	if m.Sender.IsBot {
		droppedTotal.WithLabelValues(dropBotSender).Inc()
		return nil
	}
	fwd, err := d.Store.Lookup(ctx, m.ReplyTo.MessageID)
	if err != nil {
		return err
	}
	if fwd == nil {
		droppedTotal.WithLabelValues(dropUnmapped).Inc()
		return nil
	}
	if err := d.Sender.CopyMessage(ctx, fwd.UserID, d.GroupID, m.ID); err != nil {
		return err
	}
	relayedTotal.WithLabelValues("group_to_user").Inc()
	return nil
}

// relayUserMessage runs the private → group path: ban check, rate-limit
// check, forward, record — strictly in that order. Both admission failures
// notify the user and stop; a rejected message is never forwarded.
func (d *Dispatcher) relayUserMessage(ctx context.Context, m MessageEvent) error {
	userID := m.ChatID // private chat ID doubles as the user identity

	banned, err := d.Bans.IsBanned(ctx, userID)
	if err != nil {
		return err
	}
	if banned {
		droppedTotal.WithLabelValues(dropBanned).Inc()
		return d.Sender.SendText(ctx, userID, "You are banned from using this bot.", nil)
	}

	if wait, ok := d.Limiter.Admit(userID); !ok {
		droppedTotal.WithLabelValues(dropRateLimited).Inc()
		text := fmt.Sprintf("You are sending messages too fast. Try again in %s.",
			wait.Round(time.Second))
		return d.Sender.SendText(ctx, userID, text, nil)
	}

	groupMessageID, err := d.Sender.ForwardMessage(ctx, d.GroupID, userID, m.ID)
	if err != nil {
		return err
	}
	if err := d.Store.Record(ctx, groupMessageID, userID, m.ID); err != nil {
		return err
	}
	relayedTotal.WithLabelValues("user_to_group").Inc()
	return nil
}

// relayReaction mirrors a reaction change onto the user's copy of the
// message. Reactions on un-relayed messages are expected and dropped.
func (d *Dispatcher) relayReaction(ctx context.Context, ev ReactionEvent) error {
	fwd, err := d.Store.Lookup(ctx, ev.MessageID)
	if err != nil {
		return err
	}
	if fwd == nil {
		droppedTotal.WithLabelValues(dropUnmapped).Inc()
		return nil
	}
	if err := d.Sender.SetReaction(ctx, fwd.UserID, fwd.UserMessageID, ev.NewReaction); err != nil {
		return err
	}
	relayedTotal.WithLabelValues("reaction").Inc()
	return nil
}
