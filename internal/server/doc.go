// Package server implements the room relay: a zero-knowledge WebSocket hub
// that validates joins against the session registry, applies room events to
// the in-memory message log, and fans the results out to every open
// connection.
package server
