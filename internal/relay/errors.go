// Package relay contains the routing core of the bot. This file centralizes
// relay-level error values so they can be consistently returned by the
// Dispatcher and checked by callers.
package relay

import "errors"

// ErrUnknownTarget is returned when a ban action references a group message
// with no correlation row, so the target user cannot be resolved. The admin
// is notified and nothing is written.
var ErrUnknownTarget = errors.New("relay: replied-to message was never relayed")
