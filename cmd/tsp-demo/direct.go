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
	"github.com/openwallet-labs/tsp-go/transport"
	"github.com/spf13/cobra"
)

var directMessage string

var directCmd = &cobra.Command{
	Use:   "direct-send",
	Short: "Send a sealed message directly between two parties",
	Long: `direct-send mints alice and bob as did:peer identities, has each
learn the other's public VID, then has alice seal a message straight
to bob with no intermediary and bob open it.`,
	RunE: runDirect,
}

func init() {
	rootCmd.AddCommand(directCmd)
	directCmd.Flags().StringVarP(&directMessage, "message", "m", "hello from alice", "Plaintext to send")
}

func runDirect(cmd *cobra.Command, args []string) error {
	net := transport.NewNetwork()

	alice, err := newParty(net, "did:peer:alice", "inproc://alice")
	if err != nil {
		return err
	}
	bob, err := newParty(net, "did:peer:bob", "inproc://bob")
	if err != nil {
		return err
	}
	defer alice.tr.Close()
	defer bob.tr.Close()

	if err := alice.knows(bob); err != nil {
		return fmt.Errorf("alice learning bob: %w", err)
	}
	if err := bob.knows(alice); err != nil {
		return fmt.Errorf("bob learning alice: %w", err)
	}

	url, sealed, err := alice.st.SealMessage(alice.name, bob.name, nil, []byte(directMessage))
	if err != nil {
		return fmt.Errorf("seal: %w", err)
	}
	fmt.Printf("alice -> %s: sealed %d bytes\n", url, len(sealed))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := alice.tr.Send(ctx, url, sealed); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	inbox, err := bob.tr.ReceiveStream(bob.name)
	if err != nil {
		return fmt.Errorf("receive stream: %w", err)
	}

	select {
	case payload := <-inbox:
		received, err := bob.st.OpenMessage(bob.name, payload)
		if err != nil {
			metrics.MessagesProcessed.WithLabelValues("generic", "failure").Inc()
			return fmt.Errorf("open: %w", err)
		}
		metrics.MessagesProcessed.WithLabelValues("generic", "success").Inc()
		fmt.Printf("bob received from %s: %q\n", received.Sender, string(received.Message))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for bob's inbox")
	}
}
