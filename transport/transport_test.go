// SPDX-License-Identifier: LGPL-3.0-or-later

package transport

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInProcessRoundTrip(t *testing.T) {
	net := NewNetwork()
	alice := NewInProcess(net, "local://alice", 1)
	bob := NewInProcess(net, "local://bob", 1)
	defer alice.Close()
	defer bob.Close()

	err := alice.Send(context.Background(), "local://bob", []byte("hello bob"))
	require.NoError(t, err)

	stream, err := bob.ReceiveStream("local://bob")
	require.NoError(t, err)

	select {
	case got := <-stream:
		require.Equal(t, []byte("hello bob"), got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestInProcessUnknownEndpoint(t *testing.T) {
	net := NewNetwork()
	alice := NewInProcess(net, "local://alice", 1)
	defer alice.Close()

	err := alice.Send(context.Background(), "local://nobody", []byte("hi"))
	require.Error(t, err)
	require.True(t, IsPermanent(err))
}

func TestInProcessFullInboxIsTransient(t *testing.T) {
	net := NewNetwork()
	alice := NewInProcess(net, "local://alice", 1)
	bob := NewInProcess(net, "local://bob", 0)
	defer alice.Close()
	defer bob.Close()

	err := alice.Send(context.Background(), "local://bob", []byte("first"))
	require.Error(t, err)
	require.True(t, IsTransient(err))
}

func TestWebSocketSendAndReceive(t *testing.T) {
	server := NewWebSocket(4)
	httpServer := httptest.NewServer(server.Handler())
	defer httpServer.Close()
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http")

	client := NewWebSocket(4)
	defer client.Close()

	err := client.Send(context.Background(), wsURL, []byte("ping over the wire"))
	require.NoError(t, err)

	stream, err := server.ReceiveStream("server")
	require.NoError(t, err)

	select {
	case got := <-stream:
		require.Equal(t, []byte("ping over the wire"), got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound frame")
	}
}

func TestWebSocketSendToUnreachableServerIsTransient(t *testing.T) {
	client := NewWebSocket(1)
	defer client.Close()

	err := client.Send(context.Background(), "ws://127.0.0.1:1/nope", []byte("x"))
	require.Error(t, err)
	require.True(t, IsTransient(err))
}
