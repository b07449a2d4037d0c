package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AuthRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gitmax", Name: "auth_requests_total", Help: "Authenticated request outcomes."},
		[]string{"outcome"},
	)
	AIResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gitmax", Name: "ai_results_total", Help: "Generative-text results by surface and source (ai vs fallback)."},
		[]string{"surface", "source"},
	)
	OAuthCallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gitmax", Name: "oauth_callbacks_total", Help: "OAuth callback outcomes."},
		[]string{"outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(AuthRequests)
	reg.MustRegister(AIResults)
	reg.MustRegister(OAuthCallbacks)
}
