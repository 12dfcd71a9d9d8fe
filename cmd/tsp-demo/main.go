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

// tsp-demo runs small, self-contained end-to-end scenarios over the
// Store/Transport stack in one process. Every party lives in the same
// process, connected over an in-process transport.Network instead of
// real sockets, so the demo needs nothing but `go run`.
package main

import (
	"fmt"
	"os"

	"github.com/openwallet-labs/tsp-go/internal/metrics"
	"github.com/spf13/cobra"
)

var metricsAddr string

var rootCmd = &cobra.Command{
	Use:   "tsp-demo",
	Short: "tsp-demo - worked end-to-end TSP scenarios",
	Long: `tsp-demo runs complete Trust Spanning Protocol scenarios against
the Store/Transport stack, entirely in-process:

- direct-send: two parties exchange a sealed message with no
  intermediary.
- relay: a sender routes a message through one relay hop to a
  receiver it has no direct relationship with.

Pass --metrics-addr to also expose the scenario's Prometheus counters
(messages processed) while it runs.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if metricsAddr == "" {
			return
		}
		go func() {
			if err := metrics.StartServer(metricsAddr); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
			}
		}()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Address to serve /metrics on (e.g. :9090); unset disables it")
}
