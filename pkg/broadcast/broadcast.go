// Package broadcast isolates the message relay substrate behind a small
// publish/subscribe contract, so the session layer never knows whether its
// peers live in another browser tab, behind a relay server, or (one day)
// on the far side of a real peer-to-peer data channel.
package broadcast

import "github.com/openminis/party/pkg/api"

// Handler receives every message visible on the channel,
// including the subscriber's own publications.
type Handler func(m api.Message)

// Channel is a bidirectional broadcast pipe shared by session peers.
// Publish is fire-and-forget: there are no delivery acknowledgments and
// no retries, a peer that is not listening simply never observes the
// message.
type Channel interface {
	// Publish makes the message visible to every subscriber of the
	// shared medium, the publisher included.
	Publish(m api.Message) error
	// Subscribe registers a handler and returns its detach function.
	Subscribe(fn Handler) (unsub func())
	// Kind tags the transport variant (recorded on player records).
	Kind() string
	Close() error
}
