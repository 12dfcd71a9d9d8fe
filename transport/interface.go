// SPDX-License-Identifier: LGPL-3.0-or-later

// Package transport provides the pluggable send/receive abstraction
// C8 names: delivering opaque byte buffers to a URL and handing
// incoming byte buffers back to a local VID's receive stream. TSP's
// wire format is already self-delimiting (see codec), so a transport
// never inspects or frames the bytes it carries — it only moves them.
package transport

import "context"

// Transport is the pluggable send/receive boundary between the store
// and the network. Implementations never interpret payload bytes;
// the store handles envelope parsing, verification and decryption.
type Transport interface {
	// Send delivers payload to url. Returns nil on success, or an
	// error classified via IsTransient/IsPermanent — transient errors
	// are the caller's cue to call Store.QueueMessage for later retry,
	// permanent errors should surface to the application.
	Send(ctx context.Context, url string, payload []byte) error

	// ReceiveStream returns the channel incoming byte buffers
	// addressed to localVID arrive on. InProcess closes the channel
	// when the transport is closed; WebSocket stops forwarding onto it
	// on Close but does not close it.
	ReceiveStream(localVID string) (<-chan []byte, error)

	// Close releases any connections or listeners the transport holds.
	Close() error
}
