// Package server provides the HTTP server for the miDeployer dashboard and API.
//
// This package is internal to miDeployer and handles all HTTP concerns:
//
//   - Dashboard serving: Serves the embedded HTML/CSS/JS dashboard at "/"
//   - REST API: board catalog, card snapshots and card actions under "/api"
//   - Server-Sent Events: Real-time card updates at "/api/sse"
//   - WebSocket: the same update stream at "/api/ws"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
