// Copyright 2025 The Doclens Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/doclens/doclens/pkg/credential"
	"github.com/doclens/doclens/pkg/metrics"
)

// prometheusRegistry owns the metrics registry served at /metrics.
type prometheusRegistry struct {
	reg     *prometheus.Registry
	metrics *metrics.Metrics
}

func newPrometheusRegistry(pool *credential.Pool) *prometheusRegistry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NewPoolCollector(pool),
	)

	return &prometheusRegistry{
		reg:     reg,
		metrics: metrics.New(reg),
	}
}
