package telegram

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkoval/go-anon-relay/internal/relay"
)

func TestPoller_DispatchesAndAdvancesOffset(t *testing.T) {
	var calls atomic.Int64
	_, c := newAPIServer(t, func(method string, body map[string]any) (any, bool) {
		if method != "getUpdates" {
			return true, true
		}
		switch calls.Add(1) {
		case 1:
			if _, ok := body["offset"]; ok {
				t.Errorf("first poll carried offset %v", body["offset"])
			}
			return []map[string]any{
				{"update_id": 10, "message": map[string]any{
					"message_id": 7, "chat": map[string]any{"id": 42}, "text": "hi",
				}},
				{"update_id": 11}, // shape the relay ignores
			}, true
		case 2:
			if body["offset"].(float64) != 12 {
				t.Errorf("second poll offset = %v, want 12", body["offset"])
			}
			return []map[string]any{}, true
		default:
			return []map[string]any{}, true
		}
	})

	events := make(chan relay.Event, 4)
	p := &Poller{
		Client: c,
		Dispatch: func(_ context.Context, ev relay.Event) error {
			events <- ev
			return nil
		},
		Log:         zerolog.Nop(),
		PollTimeout: time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case ev := <-events:
		m, ok := ev.(relay.MessageEvent)
		if !ok || m.ID != 7 {
			t.Fatalf("dispatched event = %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event dispatched")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}

	// The ignored update 11 must not have been dispatched.
	select {
	case ev := <-events:
		t.Fatalf("unexpected extra event %+v", ev)
	default:
	}
}
