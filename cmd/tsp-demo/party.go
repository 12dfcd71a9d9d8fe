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

	"github.com/openwallet-labs/tsp-go/config"
	"github.com/openwallet-labs/tsp-go/crypto/keys"
	"github.com/openwallet-labs/tsp-go/store"
	"github.com/openwallet-labs/tsp-go/transport"
	"github.com/openwallet-labs/tsp-go/vid"
)

// party bundles one demo participant's identity, store and transport.
type party struct {
	name string
	vid  *vid.OwnedVID
	tr   *transport.InProcess
	st   *store.Store
}

// newParty mints a fresh did:peer-style identity (an Ed25519 signing
// key plus an X25519 decryption key) and joins net under url.
func newParty(net *transport.Network, name, url string) (*party, error) {
	signing, err := keys.GenerateEd25519KeyPair()
	if err != nil {
		return nil, fmt.Errorf("%s: generate signing key: %w", name, err)
	}
	decryption, err := keys.GenerateX25519KeyPair()
	if err != nil {
		return nil, fmt.Errorf("%s: generate decryption key: %w", name, err)
	}
	owned, err := vid.NewOwned(name, url, signing, decryption)
	if err != nil {
		return nil, fmt.Errorf("%s: build owned vid: %w", name, err)
	}

	secure, err := config.NewSecureStorage(&config.StorageConfig{Backend: "memory"})
	if err != nil {
		return nil, fmt.Errorf("%s: build secure storage: %w", name, err)
	}
	st := store.New(store.WithSecureStorage(secure))
	if err := st.AddPrivateVID(owned); err != nil {
		return nil, fmt.Errorf("%s: register private vid: %w", name, err)
	}
	if err := st.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: load store state: %w", name, err)
	}

	return &party{
		name: name,
		vid:  owned,
		tr:   transport.NewInProcess(net, url, 8),
		st:   st,
	}, nil
}

// knows lets p's store address other's public VID, then persists the
// updated store state so a restart would rediscover other without a
// fresh resolve.
func (p *party) knows(other *party) error {
	if err := p.st.AddVerifiedVID(&other.vid.VID); err != nil {
		return err
	}
	return p.st.Persist(context.Background())
}
