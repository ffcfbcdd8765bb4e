// Package mideployer provides an embeddable mock deploy board.
//
// miDeployer shows one card per server, grouped by product. On each card an
// operator picks a user, types a branch, optionally ticks "run tests" and
// presses Deploy. Nothing is actually deployed: Deploy starts a countdown
// (nine one-second ticks by default) after which the card is marked
// deployed and shows a placeholder job link.
//
// # Quick Start
//
//	mi, _ := mideployer.New() // built-in products and users
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	mi.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// miDeployer uses the functional options pattern for configuration:
//
//	qa, _ := mideployer.NewProduct("CorporateTube",
//	    "test.qa1.corporate.tube",
//	    "test.qa2.corporate.tube",
//	)
//	mi, err := mideployer.New(
//	    mideployer.WithProduct(qa),
//	    mideployer.WithUsers(users...),
//	    mideployer.WithPort(9090),
//	    mideployer.WithDeployCallback(func(e mideployer.DeployEvent) {
//	        log.Printf("%s is %s", e.Hostname, e.Phase)
//	    }),
//	)
//
// Server lists that follow a naming pattern can be expanded with
// [NewProductGrid].
//
// # Architecture
//
// miDeployer consists of several internal packages (under internal/):
//
//   - internal/deploy: Card state machines and the board that holds them
//   - internal/countdown: The owned, cancellable tick behind each deploy
//   - internal/store: In-memory card snapshots with pub/sub
//   - internal/server: HTTP server with REST API, SSE and WebSocket streams
//   - dashboard: Embedded web UI assets
//   - catalog: Built-in products and users.json
//
// The internal packages are not part of the public API and may change
// without notice.
package mideployer
