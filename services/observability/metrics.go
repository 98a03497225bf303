// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability holds the Prometheus instrumentation for the forum
// service. All metrics register through promauto at init time and are
// scraped via the /metrics endpoint.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// postMutations counts write operations on posts.
	// Labels: operation (create, reply, upvote, toggle_answered), status (ok, error)
	postMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forum",
		Subsystem: "posts",
		Name:      "mutations_total",
		Help:      "Total post mutations by operation and status",
	}, []string{"operation", "status"})

	// eventsBroadcast counts realtime events fanned out to websocket clients.
	// Labels: event (newPost, newReply, postUpdated)
	eventsBroadcast = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forum",
		Subsystem: "realtime",
		Name:      "events_broadcast_total",
		Help:      "Total realtime events broadcast",
	}, []string{"event"})

	// connectedClients tracks currently connected websocket clients.
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "forum",
		Subsystem: "realtime",
		Name:      "connected_clients",
		Help:      "Currently connected websocket clients",
	})

	// droppedClients counts clients disconnected for not keeping up with
	// the broadcast stream.
	droppedClients = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "forum",
		Subsystem: "realtime",
		Name:      "dropped_clients_total",
		Help:      "Clients dropped due to a full send buffer",
	})

	// aiProviderCalls counts outbound provider requests.
	// Labels: operation, status (ok, error)
	aiProviderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forum",
		Subsystem: "ai",
		Name:      "provider_calls_total",
		Help:      "Total AI provider calls by operation and status",
	}, []string{"operation", "status"})

	// aiFallbacks counts operations served by the local fallback instead
	// of the provider.
	// Labels: operation
	aiFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forum",
		Subsystem: "ai",
		Name:      "fallbacks_total",
		Help:      "Total AI operations served by local fallbacks",
	}, []string{"operation"})
)

// RecordPostMutation records one post write operation.
func RecordPostMutation(operation string, err error) {
	postMutations.WithLabelValues(operation, statusLabel(err)).Inc()
}

// RecordEventBroadcast records one event fanned out to clients.
func RecordEventBroadcast(event string) {
	eventsBroadcast.WithLabelValues(event).Inc()
}

// ClientConnected adjusts the connected-client gauge.
func ClientConnected()    { connectedClients.Inc() }
func ClientDisconnected() { connectedClients.Dec() }

// ClientDropped records a slow consumer being disconnected.
func ClientDropped() { droppedClients.Inc() }

// RecordAIProviderCall records an outbound provider request and its outcome.
func RecordAIProviderCall(operation string, err error) {
	aiProviderCalls.WithLabelValues(operation, statusLabel(err)).Inc()
}

// RecordAIFallback records an AI operation served by its local fallback.
func RecordAIFallback(operation string) {
	aiFallbacks.WithLabelValues(operation).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
