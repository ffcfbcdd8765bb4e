// Package store provides storage and pub/sub functionality for card snapshots.
//
// This package is internal to miDeployer and keeps the latest state of every
// server card in memory. It implements a publish-subscribe pattern so that
// connected dashboard clients see every card change as it happens.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [CardState]: JSON representation of one server card
//
// Subscribers receive updates via channels with non-blocking sends (slow
// subscribers will miss updates rather than block a card's countdown).
package store
