// SPDX-License-Identifier: LGPL-3.0-or-later

package metrics

import "github.com/prometheus/client_golang/prometheus"

// namespace prefixes every metric name exported by this package.
const namespace = "tsp"

// Registry is the Prometheus registry every metric in this package
// registers against; Handler serves it over HTTP.
var Registry = prometheus.NewRegistry()
