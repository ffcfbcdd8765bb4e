// Package countdown provides the owned, cancellable recurring tick that
// drives a card's simulated deploy.
//
// This package is internal to miDeployer. A [Timer] is created per deploy
// run and belongs to exactly one card. It stops itself when the tick
// function reports that the run is over, and can be stopped from outside
// when the card is torn down.
package countdown
