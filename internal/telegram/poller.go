// Package telegram is the thin transport layer between the Telegram Bot API
// and the relay core. This file implements the pull-mode transport: a
// getUpdates long-poll loop that hands each decoded event to the dispatcher
// in its own goroutine.
package telegram

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkoval/go-anon-relay/internal/relay"
)

// Poller drives the relay from getUpdates long polling. One goroutine per
// update; no ordering is guaranteed across updates.
type Poller struct {
	Client   *Client
	Dispatch func(ctx context.Context, ev relay.Event) error
	Log      zerolog.Logger

	// PollTimeout is the server-side long-poll wait. Defaults to 30s.
	PollTimeout time.Duration
}

// Run polls until ctx is cancelled. Poll failures are logged and retried
// after a short pause; a single update's failure never stops the loop.
func (p *Poller) Run(ctx context.Context) error {
	timeout := p.PollTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := p.Client.GetUpdates(ctx, offset, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Error().Err(err).Msg("getUpdates failed")
			select {
			case <-time.After(3 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			ev, ok := EventFromUpdate(u)
			if !ok {
				continue
			}
			go func(id int64, ev relay.Event) {
				if err := p.Dispatch(ctx, ev); err != nil {
					p.Log.Error().Err(err).Int64("update_id", id).Msg("dispatch failed")
				}
			}(u.UpdateID, ev)
		}
	}
}
