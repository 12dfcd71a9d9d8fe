// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/openwallet-labs/tsp-go/internal/metrics"
	"github.com/openwallet-labs/tsp-go/store"
	"github.com/openwallet-labs/tsp-go/transport"
	"github.com/spf13/cobra"
)

var relayMessage string

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Route a sealed message through one relay hop",
	Long: `relay mints alice, a relay and bob. alice has no direct
relationship with bob and routes every send to it through relay: the
innermost message is still sealed straight to bob, so relay forwards
an opaque container layer it can never decrypt.`,
	RunE: runRelay,
}

func init() {
	rootCmd.AddCommand(relayCmd)
	relayCmd.Flags().StringVarP(&relayMessage, "message", "m", "hello from alice via relay", "Plaintext to send")
}

func runRelay(cmd *cobra.Command, args []string) error {
	net := transport.NewNetwork()

	alice, err := newParty(net, "did:peer:alice", "inproc://alice")
	if err != nil {
		return err
	}
	relay, err := newParty(net, "did:peer:relay", "inproc://relay")
	if err != nil {
		return err
	}
	bob, err := newParty(net, "did:peer:bob", "inproc://bob")
	if err != nil {
		return err
	}
	defer alice.tr.Close()
	defer relay.tr.Close()
	defer bob.tr.Close()

	for _, pair := range [][2]*party{
		{alice, relay}, {alice, bob},
		{relay, alice}, {relay, bob},
		{bob, alice},
	} {
		if err := pair[0].knows(pair[1]); err != nil {
			return fmt.Errorf("%s learning %s: %w", pair[0].name, pair[1].name, err)
		}
	}

	if err := alice.st.SetRouteForVID(bob.name, []string{relay.name}); err != nil {
		return fmt.Errorf("set route: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url, sealed, err := alice.st.SealMessage(alice.name, bob.name, nil, []byte(relayMessage))
	if err != nil {
		return fmt.Errorf("seal: %w", err)
	}
	fmt.Printf("alice -> %s (first hop): sealed %d bytes\n", url, len(sealed))
	if err := alice.tr.Send(ctx, url, sealed); err != nil {
		return fmt.Errorf("send to relay: %w", err)
	}

	relayInbox, err := relay.tr.ReceiveStream(relay.name)
	if err != nil {
		return fmt.Errorf("relay receive stream: %w", err)
	}

	var forwardURL string
	var forwardPayload []byte
	select {
	case container := <-relayInbox:
		received, err := relay.st.OpenMessage(relay.name, container)
		if err != nil {
			return fmt.Errorf("relay open: %w", err)
		}
		if received.Kind != store.ReceivedForwardRequest {
			return fmt.Errorf("relay expected a forward request, got %s", received.Kind)
		}
		forwardURL, forwardPayload, err = relay.st.ForwardRoutedMessage(received.NextHop, received.Route, received.OpaquePayload)
		if err != nil {
			return fmt.Errorf("relay forward: %w", err)
		}
		fmt.Printf("relay -> %s: forwarding %d opaque bytes\n", forwardURL, len(forwardPayload))
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for relay's inbox")
	}

	if err := relay.tr.Send(ctx, forwardURL, forwardPayload); err != nil {
		return fmt.Errorf("relay send to bob: %w", err)
	}

	bobInbox, err := bob.tr.ReceiveStream(bob.name)
	if err != nil {
		return fmt.Errorf("bob receive stream: %w", err)
	}

	select {
	case payload := <-bobInbox:
		received, err := bob.st.OpenMessage(bob.name, payload)
		if err != nil {
			metrics.MessagesProcessed.WithLabelValues("generic", "failure").Inc()
			return fmt.Errorf("bob open: %w", err)
		}
		metrics.MessagesProcessed.WithLabelValues("generic", "success").Inc()
		fmt.Printf("bob received from %s: %q\n", received.Sender, string(received.Message))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for bob's inbox")
	}
}
