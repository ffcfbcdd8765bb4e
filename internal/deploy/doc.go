// Package deploy implements the per-server deploy cards and the board that
// holds them.
//
// Every [Card] is an independent state machine with three phases: idle,
// deploying and deployed. Pressing Deploy starts a simulated countdown
// driven by the card's own [countdown.Timer]; when it reaches zero the card
// becomes deployed. Cards on a [Board] never share state.
//
// All phase changes go through [Next], a pure function of the current
// [State] and an [Event].
package deploy
