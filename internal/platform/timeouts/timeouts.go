// Package timeouts defines shared timeout constants for the marketplace
// process boundaries.
package timeouts

import "time"

// HealthDial caps the wait time when dialing the gRPC health endpoint.
const HealthDial = 2 * time.Second

// HealthCheck caps a single health check round trip.
const HealthCheck = time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Write limits how long a handler may take to write its response.
const Write = 15 * time.Second

// Idle limits keep-alive connections between requests.
const Idle = 60 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
